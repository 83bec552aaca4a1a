package pipeline

import (
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
)

// FrameSlot holds the most recent annotated frame of one run kind. Each
// UI tab reads only its own slot.
type FrameSlot struct {
	mu    sync.Mutex
	frame gocv.Mat
	has   bool
}

// Store replaces the held frame with a clone of frame.
func (s *FrameSlot) Store(frame *gocv.Mat) {
	clone := frame.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.has {
		s.frame.Close()
	}
	s.frame = clone
	s.has = true
}

// Empty reports whether no frame has been stored yet.
func (s *FrameSlot) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.has
}

// Save writes the held frame to path.
func (s *FrameSlot) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.has {
		return ErrNoFrame
	}
	return capture.SaveImage(path, &s.frame)
}

// Image returns the held frame as an RGBA image.
func (s *FrameSlot) Image() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.has {
		return nil, ErrNoFrame
	}
	return s.frame.ToImage()
}

// Close releases the held frame.
func (s *FrameSlot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.has {
		return nil
	}
	s.has = false
	return s.frame.Close()
}
