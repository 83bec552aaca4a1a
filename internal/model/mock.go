package model

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockModel is a test implementation of the Model interface.
// It allows tests to control the inference results.
type MockModel struct {
	mu     sync.Mutex
	result *Result
	err    error
	delay  time.Duration
	calls  int
	closed bool
	labels []string
}

// NewMockModel creates a new MockModel instance.
func NewMockModel() *MockModel {
	return &MockModel{}
}

// SetDetections sets the detections that will be returned by Infer.
func (m *MockModel) SetDetections(detections []Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = &Result{Detections: detections}
}

// SetError sets the error that will be returned by Infer.
func (m *MockModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay makes every Infer call sleep for d.
func (m *MockModel) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetLabels sets the class names returned by Labels.
func (m *MockModel) SetLabels(labels []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels = labels
}

// Infer returns the pre-configured detections or error. Result dimensions
// follow the frame when one is given.
func (m *MockModel) Infer(frame *gocv.Mat) (*Result, error) {
	m.mu.Lock()
	m.calls++
	delay, err := m.delay, m.err
	var res Result
	if m.result != nil {
		res.Detections = append([]Detection(nil), m.result.Detections...)
	}
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if frame != nil && !frame.Empty() {
		res.Width, res.Height = frame.Cols(), frame.Rows()
	}
	return &res, nil
}

// Calls returns how many times Infer was invoked.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Labels returns the configured class names.
func (m *MockModel) Labels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.labels
}

// Close marks the mock closed.
func (m *MockModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockModel) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PeaceSign returns a preset detection for tests.
func PeaceSign() Detection {
	return Detection{ClassID: 1, Label: "peace", Confidence: 0.91, Box: image.Rect(40, 30, 160, 200)}
}

// ThumbsUp returns a preset detection for tests.
func ThumbsUp() Detection {
	return Detection{ClassID: 4, Label: "thumbs_up", Confidence: 0.78, Box: image.Rect(200, 60, 300, 220)}
}
