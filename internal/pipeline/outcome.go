package pipeline

import (
	"errors"
	"image"

	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/model"
)

var (
	// ErrRuntime wraps failures raised while a run is in progress, such as
	// an inference or encoding error.
	ErrRuntime = errors.New("detection failed")
	// ErrNoFrame is returned when saving a slot that holds no frame yet.
	ErrNoFrame = errors.New("no frame to save")
)

// Status is the terminal state of a detection run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

// Outcome is the single result of a detection run.
type Outcome struct {
	Status Status
	// Record is the history entry appended by the run, nil if none was.
	Record *history.Record
	// Result holds the detections of the last processed frame.
	Result *model.Result
	// Preview is the last annotated frame fitted into the display box.
	Preview image.Image
	// OutputPath is the annotated video written by a video run.
	OutputPath string
	// Frames is the number of frames processed.
	Frames int
	Err    error
}

// OK reports whether the run ended without error.
func (o Outcome) OK() bool {
	return o.Status != StatusFailed
}

func failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// Event is a progress notification emitted while a video or webcam run is
// in progress.
type Event struct {
	Kind    history.Kind
	Preview image.Image
	Result  *model.Result
	// Frame is the 1-based index of the frame just processed.
	Frame int
	// Total is the container frame count of a video, 0 when unknown.
	Total int
	// Progress is Frame/Total in [0,1] for videos with a known length.
	Progress float64
	// FPS is the measured processing rate of a webcam run.
	FPS float64
}

// emit delivers ev without blocking. A slow consumer loses frames, never
// stalls the run.
func emit(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
	}
}
