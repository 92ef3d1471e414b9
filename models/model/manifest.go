package model

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/cira-robotics/go-edge/yolo"
)

// ManifestName is the optional per-model configuration file.
const ManifestName = "cira_model.json"

// Coordinate conventions a manifest may declare. When absent the decoder
// falls back to its per-box normalized-vs-pixel heuristic.
const (
	CoordsNormalized = "normalized"
	CoordsPixel      = "pixel"
)

// Manifest carries the deployment-time model configuration. Every field is
// optional; zero values keep the runtime defaults.
type Manifest struct {
	YoloVersion         string  `json:"yolo_version"`
	InputSize           int     `json:"input_size"`
	InputWidth          int     `json:"input_width"`
	InputHeight         int     `json:"input_height"`
	ConfidenceThreshold float32 `json:"confidence_threshold"`
	NMSThreshold        float32 `json:"nms_threshold"`
	NumClasses          int     `json:"num_classes"`
	// Coords optionally pins the box coordinate convention
	// ("normalized" or "pixel") instead of letting the decoder guess.
	Coords string `json:"coords,omitempty"`
}

// LoadManifest reads cira_model.json from a model directory. A missing file
// is not an error; the caller keeps its defaults and auto-detection.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", ManifestName)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", ManifestName)
	}
	return &m, nil
}

// Apply overlays the manifest's populated fields onto a decode config. The
// declared version always beats shape detection.
func (m *Manifest) Apply(cfg *yolo.Config) {
	if m == nil {
		return
	}
	if m.YoloVersion != "" {
		cfg.Version = yolo.ParseVersion(m.YoloVersion)
	}
	if m.InputSize > 0 {
		cfg.InputWidth = m.InputSize
		cfg.InputHeight = m.InputSize
	}
	if m.InputWidth > 0 {
		cfg.InputWidth = m.InputWidth
	}
	if m.InputHeight > 0 {
		cfg.InputHeight = m.InputHeight
	}
	if m.ConfidenceThreshold > 0 {
		cfg.ConfThreshold = m.ConfidenceThreshold
	}
	if m.NMSThreshold > 0 {
		cfg.NMSThreshold = m.NMSThreshold
	}
	if m.NumClasses > 0 {
		cfg.NumClasses = m.NumClasses
	}
	switch m.Coords {
	case CoordsNormalized:
		cfg.Coords = yolo.CoordsNormalized
	case CoordsPixel:
		cfg.Coords = yolo.CoordsPixel
	}
}
