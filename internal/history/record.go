// Package history keeps the ordered log of finished detection runs.
package history

import (
	"time"
)

// Kind is the source type of a detection run.
type Kind string

const (
	KindImage  Kind = "image"
	KindVideo  Kind = "video"
	KindWebcam Kind = "webcam"
)

// Status is how a detection run ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusStopped   Status = "stopped"
	StatusFailed    Status = "failed"
)

// Class is one detection kept with an image record.
type Class struct {
	ID         int
	Label      string
	Confidence float64
}

// Record summarizes one detection run. Count is the number of detections
// for image runs and the number of processed frames for video and webcam
// runs. SourceFrames is the frame total reported by a video container.
type Record struct {
	ID           string
	Kind         Kind
	Source       string
	Timestamp    time.Time
	Count        int
	SourceFrames int
	Duration     time.Duration
	Classes      []Class
	Status       Status
}

// Summary holds per-kind record counts.
type Summary struct {
	Total  int
	Image  int
	Video  int
	Webcam int
}

// Summarize counts records per kind.
func Summarize(records []Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Kind {
		case KindImage:
			s.Image++
		case KindVideo:
			s.Video++
		case KindWebcam:
			s.Webcam++
		}
	}
	return s
}
