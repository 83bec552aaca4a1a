package capture

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// Props describes a video stream.
type Props struct {
	FPS        float64
	FrameCount int
	Width      int
	Height     int
}

// VideoSource is a finite frame source. ReadFrame returns io.EOF once the
// stream is exhausted.
type VideoSource interface {
	Source
	Props() Props
}

// Sink accepts frames for an output video.
type Sink interface {
	Write(frame *gocv.Mat) error
	Close() error
}

func statFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}
	return nil
}

// LoadImage decodes a still image as a BGR Mat.
func LoadImage(path string) (*gocv.Mat, error) {
	if err := statFile(path); err != nil {
		return nil, err
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: %s: cannot decode image", ErrUnreadable, path)
	}
	return &mat, nil
}

// SaveImage encodes frame to path, creating the parent directory. The
// format follows the file extension.
func SaveImage(path string, frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return errors.New("nothing to save")
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if ok := gocv.IMWrite(path, *frame); !ok {
		return fmt.Errorf("failed to write image %s", path)
	}
	return nil
}

// videoFile reads frames from a video container.
type videoFile struct {
	path    string
	capture *gocv.VideoCapture
	props   Props
	mu      sync.Mutex
	closed  bool
}

// OpenVideo opens a video container for sequential reading.
func OpenVideo(path string) (VideoSource, error) {
	if err := statFile(path); err != nil {
		return nil, err
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s: cannot open video", ErrUnreadable, path)
	}

	return &videoFile{
		path:    path,
		capture: capture,
		props: Props{
			FPS:        capture.Get(gocv.VideoCaptureFPS),
			FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
			Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
			Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		},
	}, nil
}

// Props returns the stream properties reported by the container.
func (v *videoFile) Props() Props {
	return v.props
}

// ReadFrame returns the next frame or io.EOF at the end of the stream.
func (v *videoFile) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, io.EOF
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, io.EOF
	}
	return &mat, nil
}

func (v *videoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	return v.capture.Close()
}

// videoSink writes frames with a fixed codec.
type videoSink struct {
	path   string
	writer *gocv.VideoWriter
	width  int
	height int
	mu     sync.Mutex
	frames int
}

// CreateVideo opens an output video at path, creating its parent directory.
// Frames of a different size are resized to width x height before writing.
func CreateVideo(path, codec string, fps float64, width, height int) (Sink, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", width, height)
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("create video %s: %w", path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("create video %s: writer did not open", path)
	}

	return &videoSink{path: path, writer: writer, width: width, height: height}, nil
}

func (s *videoSink) Write(frame *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		return fmt.Errorf("video %s already closed", s.path)
	}
	out := *frame
	if frame.Cols() != s.width || frame.Rows() != s.height {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(*frame, &resized, image.Pt(s.width, s.height), 0, 0, gocv.InterpolationLinear)
		out = resized
	}
	if err := s.writer.Write(out); err != nil {
		return fmt.Errorf("write frame %d to %s: %w", s.frames, s.path, err)
	}
	s.frames++
	return nil
}

// Close finalizes the container. Frames written so far remain playable.
func (s *videoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		return nil
	}
	err := s.writer.Close()
	s.writer = nil
	return err
}

// CloseAll closes every closer and combines their errors.
func CloseAll(closers ...io.Closer) error {
	var err error
	for _, c := range closers {
		if c == nil {
			continue
		}
		err = multierr.Append(err, c.Close())
	}
	return err
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
