// Package model wraps the pretrained hand-sign detection network.
package model

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrModelLoad is returned when neither the custom nor the fallback weights
// can be loaded. It is fatal at startup.
var ErrModelLoad = errors.New("model load failed")

// Model defines the interface for detection implementations.
type Model interface {
	// Infer runs the network on a frame and returns the detections.
	// The frame is not modified.
	Infer(frame *gocv.Mat) (*Result, error)

	// Labels returns the class names indexed by class id.
	Labels() []string

	// Close releases any resources held by the model.
	Close() error
}

// Detection is one bounding box produced by the network.
type Detection struct {
	ClassID    int             `json:"class_id"`
	Label      string          `json:"label"`
	Confidence float32         `json:"confidence"`
	Box        image.Rectangle `json:"box"`
}

// Result holds the detections for a single frame.
type Result struct {
	Detections []Detection `json:"detections"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
}

// Count returns the number of detections, treating a nil result as empty.
func (r *Result) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Detections)
}

// ClassIDs returns the class id of every detection in order.
func (r *Result) ClassIDs() []int {
	if r == nil {
		return nil
	}
	ids := make([]int, len(r.Detections))
	for i, d := range r.Detections {
		ids[i] = d.ClassID
	}
	return ids
}

// Options holds configuration for loading a model.
type Options struct {
	// Path is the custom weights file. Empty or invalid falls back.
	Path string
	// FallbackPath is the default pretrained weights file.
	FallbackPath string
	// DatasetPath points at the training dataset descriptor used for names.
	DatasetPath string

	InputSize     int
	ConfThreshold float32
	NMSThreshold  float32
}

// DefaultOptions returns Options with the standard YOLO settings.
func DefaultOptions() Options {
	return Options{
		FallbackPath:  "yolo11n.onnx",
		DatasetPath:   "data.yaml",
		InputSize:     640,
		ConfThreshold: 0.25,
		NMSThreshold:  0.45,
	}
}

// LabelFor returns the name of classID, or "class N" when it is unknown.
func LabelFor(labels []string, classID int) string {
	if classID >= 0 && classID < len(labels) && labels[classID] != "" {
		return labels[classID]
	}
	return fmt.Sprintf("class %d", classID)
}
