// Command edged loads a detection model and serves live inference results
// over HTTP. With -image it instead runs a single frame through the model
// and prints the detections as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cira-robotics/go-edge/camera"
	"github.com/cira-robotics/go-edge/inference"
	"github.com/cira-robotics/go-edge/runtime"
	"github.com/cira-robotics/go-edge/server"
	"github.com/cira-robotics/go-edge/yolo"
)

func main() {
	var (
		modelPath   string
		imagePath   string
		device      string
		port        int
		confidence  float64
		nms         float64
		yoloVersion string
		ortLib      string
		logLevel    string
		motionGate  bool
	)
	flag.StringVar(&modelPath, "model", "", "Path to model file or directory")
	flag.StringVar(&imagePath, "image", "", "Run a single image instead of serving (prints JSON)")
	flag.StringVar(&device, "camera", "0", "Capture device index, path or RTSP URL")
	flag.IntVar(&port, "port", 8080, "HTTP listen port")
	flag.Float64Var(&confidence, "confidence", 0.5, "Detection confidence threshold")
	flag.Float64Var(&nms, "nms", 0.45, "NMS IoU threshold")
	flag.StringVar(&yoloVersion, "yolo-version", "auto", "YOLO output format (auto, v4, v5, v8, v10)")
	flag.StringVar(&ortLib, "ort-lib", "", "Path to the onnxruntime shared library")
	flag.BoolVar(&motionGate, "motion-gate", false, "Only run inference on frames with motion")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log level")
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if modelPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if ortLib != "" {
		inference.SharedLibraryPath = ortLib
	}

	cfg := yolo.COCOConfig()
	cfg.ConfThreshold = float32(confidence)
	cfg.NMSThreshold = float32(nms)
	cfg.Version = yolo.ParseVersion(yoloVersion)

	rt, err := runtime.Load(modelPath, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("model load failed")
	}
	defer rt.Close()

	if imagePath != "" {
		if err := runOnce(rt, imagePath); err != nil {
			logrus.WithError(err).Fatal("inference failed")
		}
		return
	}

	serve(rt, device, port, motionGate)
}

// runOnce predicts a single image and prints the result document.
func runOnce(rt *runtime.Runtime, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return err
	}

	if _, err := rt.Predict(context.Background(), img); err != nil {
		return err
	}
	fmt.Println(string(rt.ResultJSON()))
	return nil
}

// serve runs the capture loop and HTTP server until SIGINT/SIGTERM.
func serve(rt *runtime.Runtime, device string, port int, motionGate bool) {
	cam := camera.Open(device, rt)
	if motionGate {
		cam.EnableMotionGate(camera.DefaultMotionConfig())
	}
	if err := cam.Start(); err != nil {
		logrus.WithError(err).Fatal("camera start failed")
	}
	defer cam.Stop()

	srv := server.New(fmt.Sprintf(":%d", port), rt, cam.Running)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logrus.WithField("signal", sig).Info("shutting down")
	case err := <-errCh:
		logrus.WithError(err).Error("http server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("http shutdown incomplete")
	}
}
