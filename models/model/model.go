// Package model - model formats and the cira_model.json manifest.
package model

import (
	"os"
	"path/filepath"
	"strings"
)

// Format identifies the on-disk model container.
type Format string

const (
	// FormatDarknet is a directory with .cfg + .weights files.
	FormatDarknet Format = "darknet"
	// FormatONNX is a .onnx file or a directory containing one.
	FormatONNX Format = "onnx"
	// FormatNCNN is a directory with .param + .bin files.
	FormatNCNN Format = "ncnn"
	// FormatTensorRT is a serialized .engine/.trt file.
	FormatTensorRT Format = "tensorrt"
	// FormatUnknown means no loader recognises the path.
	FormatUnknown Format = ""
)

// DetectFormat classifies a model path the way the loaders expect it: a
// directory is probed for known file pairs in priority order, a plain file
// is classified by extension.
func DetectFormat(path string) Format {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		switch {
		case hasExt(path, ".weights") && hasExt(path, ".cfg"):
			return FormatDarknet
		case hasExt(path, ".param") && hasExt(path, ".bin"):
			return FormatNCNN
		case hasExt(path, ".onnx"):
			return FormatONNX
		case hasExt(path, ".engine"), hasExt(path, ".trt"):
			return FormatTensorRT
		}
		return FormatUnknown
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".weights", ".cfg":
		return FormatDarknet
	case ".param", ".bin":
		return FormatNCNN
	case ".onnx":
		return FormatONNX
	case ".engine", ".trt":
		return FormatTensorRT
	}
	return FormatUnknown
}

// FindFile returns the first file in dir with the given extension.
func FindFile(dir, ext string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}

func hasExt(dir, ext string) bool {
	_, ok := FindFile(dir, ext)
	return ok
}
