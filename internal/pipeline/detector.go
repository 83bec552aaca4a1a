// Package pipeline runs detection over images, video files and live
// cameras, annotates the frames and records every finished run in the
// history log.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/model"
)

// Default pipeline settings.
const (
	DefaultVideoCodec    = "mp4v"
	DefaultPreviewWidth  = 640
	DefaultPreviewHeight = 480
)

// Options configures a Detector.
type Options struct {
	// VideoCodec is the fourcc used for annotated output videos.
	VideoCodec string
	// PreviewWidth and PreviewHeight bound the preview images sent to the UI.
	PreviewWidth  int
	PreviewHeight int
	// MotionGate is the changed-pixel percentage below which a webcam frame
	// reuses the previous detections. Zero disables gating.
	MotionGate float64
}

// VideoJob names the input of a video run and, optionally, where the
// annotated copy is written.
type VideoJob struct {
	Path       string
	OutputPath string
}

// Detector orchestrates detection runs. It is safe to run one image, one
// video and one webcam run concurrently: the model serializes inference,
// the history log serializes appends, and each kind has its own FrameSlot.
type Detector struct {
	model   model.Model
	history *history.Log
	logger  *zap.SugaredLogger
	opts    Options

	slots map[history.Kind]*FrameSlot

	loadImage   func(path string) (*gocv.Mat, error)
	openVideo   func(path string) (capture.VideoSource, error)
	createVideo func(path, codec string, fps float64, width, height int) (capture.Sink, error)
	now         func() time.Time
}

// New creates a Detector.
func New(m model.Model, log *history.Log, opts Options, logger *zap.SugaredLogger) *Detector {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.VideoCodec == "" {
		opts.VideoCodec = DefaultVideoCodec
	}
	if opts.PreviewWidth <= 0 {
		opts.PreviewWidth = DefaultPreviewWidth
	}
	if opts.PreviewHeight <= 0 {
		opts.PreviewHeight = DefaultPreviewHeight
	}

	return &Detector{
		model:   m,
		history: log,
		logger:  logger,
		opts:    opts,
		slots: map[history.Kind]*FrameSlot{
			history.KindImage:  {},
			history.KindVideo:  {},
			history.KindWebcam: {},
		},
		loadImage:   capture.LoadImage,
		openVideo:   capture.OpenVideo,
		createVideo: capture.CreateVideo,
		now:         time.Now,
	}
}

// Slot returns the last-frame slot of a run kind.
func (d *Detector) Slot(kind history.Kind) *FrameSlot {
	return d.slots[kind]
}

// Labels returns the class names of the model.
func (d *Detector) Labels() []string {
	return d.model.Labels()
}

// Close releases the frame slots. The model is owned by the caller.
func (d *Detector) Close() error {
	var err error
	for _, s := range d.slots {
		err = multierr.Append(err, s.Close())
	}
	return err
}

// DetectImage runs the model once on a still image.
func (d *Detector) DetectImage(ctx context.Context, path string) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Status: StatusStopped}
	}

	frame, err := d.loadImage(path)
	if err != nil {
		d.logger.Warnw("Image detection failed", "source", path, "error", err)
		return failed(err)
	}
	defer frame.Close()

	start := d.now()
	result, err := d.model.Infer(frame)
	if err != nil {
		d.logger.Warnw("Image inference failed", "source", path, "error", err)
		return failed(fmt.Errorf("%w: %s: %v", ErrRuntime, path, err))
	}
	elapsed := d.now().Sub(start)

	annotated := model.Annotate(frame, result)
	defer annotated.Close()
	d.slots[history.KindImage].Store(&annotated)

	rec, err := d.history.Append(history.Record{
		Kind:      history.KindImage,
		Source:    path,
		Timestamp: d.now(),
		Count:     result.Count(),
		Duration:  elapsed,
		Classes:   classesOf(result),
		Status:    history.StatusCompleted,
	})
	if err != nil {
		return Outcome{Status: StatusFailed, Result: result, Frames: 1, Err: err}
	}

	d.logger.Infow("Image detection completed", "source", path, "detections", result.Count(), "elapsed", elapsed)

	return Outcome{
		Status:  StatusCompleted,
		Record:  &rec,
		Result:  result,
		Preview: d.preview(&annotated),
		Frames:  1,
	}
}

// DetectVideo processes a video file frame by frame until the end of the
// stream or until ctx is cancelled. Cancellation is checked once per frame;
// a stopped run still records the frames processed so far and leaves a
// playable partial output.
func (d *Detector) DetectVideo(ctx context.Context, job VideoJob, events chan<- Event) (out Outcome) {
	src, err := d.openVideo(job.Path)
	if err != nil {
		d.logger.Warnw("Video detection failed", "source", job.Path, "error", err)
		return failed(err)
	}
	props := src.Props()

	var sink capture.Sink
	if job.OutputPath != "" {
		sink, err = d.createVideo(job.OutputPath, d.opts.VideoCodec, props.FPS, props.Width, props.Height)
		if err != nil {
			src.Close()
			return failed(fmt.Errorf("%w: %v", ErrRuntime, err))
		}
	}

	defer func() {
		var closers []io.Closer
		closers = append(closers, src)
		if sink != nil {
			closers = append(closers, sink)
		}
		if cerr := capture.CloseAll(closers...); cerr != nil {
			d.logger.Warnw("Closing video streams", "source", job.Path, "error", cerr)
			if out.Err == nil {
				out.Err = cerr
			}
		}
	}()

	d.logger.Infow("Video detection started", "source", job.Path, "frames", props.FrameCount, "fps", props.FPS)

	slot := d.slots[history.KindVideo]
	start := d.now()
	status := StatusCompleted
	frames := 0
	var last *model.Result
	var lastPreview image.Image

	for {
		if ctx.Err() != nil {
			status = StatusStopped
			break
		}

		frame, err := src.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Outcome{Status: StatusFailed, Result: last, Frames: frames, Err: fmt.Errorf("%w: %v", ErrRuntime, err)}
		}

		result, annotated, err := d.process(frame, nil)
		frame.Close()
		if err != nil {
			return Outcome{Status: StatusFailed, Result: last, Frames: frames, Err: fmt.Errorf("%w: frame %d: %v", ErrRuntime, frames+1, err)}
		}

		if sink != nil {
			if err := sink.Write(&annotated); err != nil {
				annotated.Close()
				return Outcome{Status: StatusFailed, Result: last, Frames: frames, Err: fmt.Errorf("%w: %v", ErrRuntime, err)}
			}
		}
		slot.Store(&annotated)

		frames++
		last = result

		if events != nil {
			lastPreview = d.preview(&annotated)
			ev := Event{Kind: history.KindVideo, Preview: lastPreview, Result: result, Frame: frames, Total: props.FrameCount}
			if props.FrameCount > 0 {
				ev.Progress = min(float64(frames)/float64(props.FrameCount), 1)
			}
			emit(events, ev)
		}
		annotated.Close()
	}

	elapsed := d.now().Sub(start)

	rec, err := d.history.Append(history.Record{
		Kind:         history.KindVideo,
		Source:       job.Path,
		Timestamp:    d.now(),
		Count:        frames,
		SourceFrames: props.FrameCount,
		Duration:     elapsed,
		Status:       history.Status(status),
	})
	if err != nil {
		return Outcome{Status: StatusFailed, Result: last, Frames: frames, OutputPath: job.OutputPath, Err: err}
	}

	d.logger.Infow("Video detection finished", "source", job.Path, "status", status, "frames", frames, "elapsed", elapsed)

	return Outcome{
		Status:     status,
		Record:     &rec,
		Result:     last,
		Preview:    lastPreview,
		OutputPath: job.OutputPath,
		Frames:     frames,
	}
}

// DetectWebcam streams frames from cam until ctx is cancelled or the device
// fails. A camera that cannot be opened, or that fails before delivering a
// frame, ends the run as failed without a history record.
func (d *Detector) DetectWebcam(ctx context.Context, cam capture.Camera, label string, events chan<- Event) Outcome {
	if err := cam.Open(); err != nil {
		d.logger.Warnw("Webcam detection failed", "source", label, "error", err)
		return failed(err)
	}
	if !cam.IsOpen() {
		return failed(fmt.Errorf("%w: %s", capture.ErrNotFound, label))
	}
	defer func() {
		if err := cam.Close(); err != nil {
			d.logger.Warnw("Closing camera", "source", label, "error", err)
		}
	}()

	var gate *capture.MotionDetector
	if d.opts.MotionGate > 0 {
		gate = capture.NewMotionDetector(d.opts.MotionGate)
		defer gate.Close()
	}

	d.logger.Infow("Webcam detection started", "source", label, "camera_fps", cam.FPS(), "motion_gate", d.opts.MotionGate)

	slot := d.slots[history.KindWebcam]
	start := d.now()
	status := StatusStopped
	frames := 0
	var last *model.Result
	var lastPreview image.Image
	var runErr error

	for {
		if ctx.Err() != nil {
			break
		}

		frame, err := cam.ReadFrame()
		if err != nil {
			if frames == 0 {
				return failed(err)
			}
			status = StatusFailed
			if !errors.Is(err, capture.ErrDeviceLost) {
				err = fmt.Errorf("%w: %v", capture.ErrDeviceLost, err)
			}
			runErr = err
			break
		}

		var reuse *model.Result
		if gate != nil && !gate.Gate(frame) {
			reuse = last
		}

		result, annotated, err := d.process(frame, reuse)
		frame.Close()
		if err != nil {
			if frames == 0 {
				return failed(fmt.Errorf("%w: %v", ErrRuntime, err))
			}
			status = StatusFailed
			runErr = fmt.Errorf("%w: %v", ErrRuntime, err)
			break
		}
		slot.Store(&annotated)

		frames++
		last = result

		if events != nil {
			lastPreview = d.preview(&annotated)
			ev := Event{Kind: history.KindWebcam, Preview: lastPreview, Result: result, Frame: frames}
			if secs := d.now().Sub(start).Seconds(); secs > 0 {
				ev.FPS = float64(frames) / secs
			}
			emit(events, ev)
		}
		annotated.Close()
	}

	if frames == 0 {
		return Outcome{Status: StatusStopped}
	}

	elapsed := d.now().Sub(start)

	rec, err := d.history.Append(history.Record{
		Kind:      history.KindWebcam,
		Source:    label,
		Timestamp: d.now(),
		Count:     frames,
		Duration:  elapsed,
		Status:    history.Status(status),
	})
	if err != nil {
		runErr = multierr.Append(runErr, err)
		return Outcome{Status: StatusFailed, Result: last, Frames: frames, Err: runErr}
	}

	d.logger.Infow("Webcam detection finished", "source", label, "status", status, "frames", frames, "elapsed", elapsed)

	return Outcome{
		Status:  status,
		Record:  &rec,
		Result:  last,
		Preview: lastPreview,
		Frames:  frames,
		Err:     runErr,
	}
}

// process infers on frame, or reuses a previous result when given one, and
// returns the annotated copy. The caller owns the returned Mat.
func (d *Detector) process(frame *gocv.Mat, reuse *model.Result) (*model.Result, gocv.Mat, error) {
	result := reuse
	if result == nil {
		var err error
		result, err = d.model.Infer(frame)
		if err != nil {
			return nil, gocv.Mat{}, err
		}
	}
	return result, model.Annotate(frame, result), nil
}

// preview converts an annotated frame into an image fitted into the
// display box.
func (d *Detector) preview(frame *gocv.Mat) image.Image {
	img, err := frame.ToImage()
	if err != nil {
		d.logger.Debugw("Preview conversion failed", "error", err)
		return nil
	}
	return imaging.Fit(img, d.opts.PreviewWidth, d.opts.PreviewHeight, imaging.Linear)
}

func classesOf(result *model.Result) []history.Class {
	if result.Count() == 0 {
		return nil
	}
	classes := make([]history.Class, 0, result.Count())
	for _, det := range result.Detections {
		classes = append(classes, history.Class{
			ID:         det.ClassID,
			Label:      det.Label,
			Confidence: float64(det.Confidence),
		})
	}
	return classes
}
