package yolo

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// log is the package logger. Libraries embedding the engine can redirect it
// with SetLogger; by default it shares the process-wide logrus logger.
var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger redirects the engine's diagnostic output.
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		log = l
	}
}

// decodeRaw resolves the version and runs the matching decoder without any
// suppression pass. It returns the resolved version so callers can honour
// YOLOv10's no-NMS contract.
func decodeRaw(data []float32, shape []int64, cfg *Config) ([]Detection, Version, error) {
	if len(data) == 0 {
		return nil, VersionAuto, ErrEmptyInput
	}

	version := cfg.Version
	if version == VersionAuto {
		version = DetectVersion(shape, cfg.NumClasses)
		if version == VersionAuto {
			return nil, VersionAuto, errors.Wrapf(ErrUnsupportedFormat,
				"shape %v with %d classes", shape, cfg.NumClasses)
		}
	}

	var (
		dets []Detection
		err  error
	)
	switch version {
	case VersionV4, VersionV5:
		dets, err = decodeV4(data, shape, cfg)
	case VersionV8:
		dets, err = decodeV8(data, shape, cfg)
	case VersionV10:
		dets, err = decodeV10(data, shape, cfg)
	}
	return dets, version, err
}

// DecodeOutput decodes one output tensor into pixel-space detections:
// version resolution, format-specific decode, NMS (skipped for YOLOv10) and
// truncation to cfg.MaxDetections.
//
// Models that export one tensor per detection scale should go through
// DecodeOutputs instead so suppression runs once across all scales.
func DecodeOutput(data []float32, shape []int64, cfg *Config) ([]Detection, error) {
	dets, version, err := decodeRaw(data, shape, cfg)
	if err != nil {
		return nil, err
	}

	if version != VersionV10 {
		dets = NMS(dets, cfg.NMSThreshold)
	}
	return truncate(dets, cfg.MaxDetections), nil
}

// DecodeOutputs fuses the outputs of a multi-scale export: each tensor is
// decoded independently, the candidates are concatenated and exactly one NMS
// pass runs across the combined set. Running NMS per scale and again across
// scales would suppress a different set of boxes.
//
// A scale that fails to decode is logged and skipped; the fusion continues
// with whatever decoded cleanly. When every tensor fails the result is
// simply empty - for a best-effort detection pipeline "nothing found" and
// "could not interpret the output" collapse to the same caller-visible
// answer, and the distinction lives in the log.
func DecodeOutputs(tensors []Tensor, cfg *Config) []Detection {
	var fused []Detection
	decoded := 0
	nmsFreeScales := 0
	failed := 0

	for i, t := range tensors {
		if err := t.Validate(); err != nil {
			log.WithError(err).WithField("tensor", i).Warn("skipping undecodable output scale")
			failed++
			continue
		}

		dets, version, err := decodeRaw(t.Data, t.Shape, cfg)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"tensor": i,
				"shape":  t.Shape,
			}).Warn("skipping undecodable output scale")
			failed++
			continue
		}

		decoded++
		if version == VersionV10 {
			nmsFreeScales++
		}
		fused = append(fused, dets...)
	}

	if failed == len(tensors) && len(tensors) > 0 {
		log.WithField("tensors", len(tensors)).Warn("no output tensor could be decoded")
		return nil
	}

	// Suppression is skipped only when every decoded scale was NMS-free.
	// A mixed set keeps the pass so non-V10 scales do not leak duplicates.
	if nmsFreeScales < decoded {
		fused = NMS(fused, cfg.NMSThreshold)
	}
	return truncate(fused, cfg.MaxDetections)
}

func truncate(dets []Detection, limit int) []Detection {
	if limit > 0 && len(dets) > limit {
		return dets[:limit]
	}
	return dets
}
