// Package camera runs the capture loop: it pulls frames from a video device
// through OpenCV, feeds them to the runtime for inference and keeps the
// frame-rate counter up to date.
package camera

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/cira-robotics/go-edge/runtime"
)

const (
	// readRetryDelay backs off after a failed device read.
	readRetryDelay = 10 * time.Millisecond
	// loopDelay keeps the capture loop from spinning a core between frames.
	loopDelay = time.Millisecond
)

// Camera drives one capture device.
type Camera struct {
	log    logrus.FieldLogger
	rt     *runtime.Runtime
	device string

	capture *gocv.VideoCapture
	gate    *motionGate
	stop    chan struct{}
	done    chan struct{}
	running atomic.Bool
}

// Open prepares a camera for the given device. The device string is either a
// numeric index like "0" or a path/URL OpenCV understands, including RTSP.
func Open(device string, rt *runtime.Runtime) *Camera {
	return &Camera{
		log:    logrus.WithFields(logrus.Fields{"component": "camera", "device": device}),
		rt:     rt,
		device: device,
	}
}

// EnableMotionGate makes the loop score each frame for movement and only
// run inference when the smoothed score crosses the trigger. Static frames
// still reach the frame store so streaming stays live. Must be called
// before Start.
func (c *Camera) EnableMotionGate(cfg MotionConfig) {
	c.gate = newMotionGate(cfg)
}

// Start opens the device and launches the capture loop.
func (c *Camera) Start() error {
	if c.running.Load() {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.device)
	if err != nil {
		return errors.Wrapf(err, "opening capture device %s", c.device)
	}

	c.capture = capture
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.running.Store(true)

	c.log.Info("capture started")
	go c.loop()
	return nil
}

// Running reports whether the capture loop is active.
func (c *Camera) Running() bool {
	return c.running.Load()
}

// Stop shuts the loop down and releases the device. Safe to call twice.
func (c *Camera) Stop() error {
	if !c.running.Load() {
		return nil
	}
	close(c.stop)
	<-c.done
	c.running.Store(false)

	err := c.capture.Close()
	c.capture = nil
	if c.gate != nil {
		c.gate.Close()
		c.gate = nil
	}
	c.log.Info("capture stopped")
	return err
}

func (c *Camera) loop() {
	defer close(c.done)

	mat := gocv.NewMat()
	defer mat.Close()

	frameCount := 0
	errCount := 0
	windowStart := time.Now()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		if ok := c.capture.Read(&mat); !ok {
			c.log.Warn("frame read failed")
			time.Sleep(readRetryDelay)
			continue
		}
		if mat.Empty() {
			time.Sleep(loopDelay)
			continue
		}

		img, err := mat.ToImage()
		if err != nil {
			c.log.WithError(err).Warn("frame conversion failed")
			continue
		}

		gatedOut := c.gate != nil && c.gate.score(mat) < c.gate.cfg.TriggerScore
		if gatedOut {
			c.rt.StoreFrame(img)
		} else if _, err := c.rt.Predict(context.Background(), img); err != nil {
			// Log a sample of inference errors rather than every frame.
			if errCount%100 == 0 {
				c.log.WithError(err).Warn("inference failed")
			}
			errCount++
		}

		frameCount++
		if elapsed := time.Since(windowStart); elapsed >= time.Second {
			fps := float32(frameCount) / float32(elapsed.Seconds())
			c.rt.SetFPS(fps)
			c.log.WithFields(logrus.Fields{
				"fps":        fps,
				"detections": len(c.rt.Results()),
			}).Debug("capture window")
			frameCount = 0
			windowStart = time.Now()
		}

		time.Sleep(loopDelay)
	}
}
