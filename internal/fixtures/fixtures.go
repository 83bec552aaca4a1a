// Package fixtures generates synthetic frames, images and clips for tests.
package fixtures

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
)

// Frame size of generated fixtures.
const (
	Width  = 64
	Height = 48
)

// Frame returns a BGR frame filled with a colour derived from seed and a
// white square whose position moves with seed. Callers must close it.
func Frame(seed int) *gocv.Mat {
	m := gocv.NewMatWithSize(Height, Width, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(float64(seed*20%255), 80, 160, 0))

	x := (seed * 6) % (Width - 16)
	gocv.Rectangle(&m, image.Rect(x, 16, x+16, 32), white, -1)
	return &m
}

// Sequence returns n consecutive frames. Close them with CloseAll.
func Sequence(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		frames[i] = Frame(i)
	}
	return frames
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}

// WriteImage writes a generated frame to dir/name and returns its path.
func WriteImage(dir, name string) (string, error) {
	frame := Frame(0)
	defer frame.Close()

	path := filepath.Join(dir, name)
	if err := capture.SaveImage(path, frame); err != nil {
		return "", fmt.Errorf("write fixture image %s: %w", name, err)
	}
	return path, nil
}

// WriteVideo encodes n generated frames as an MJPG clip at dir/name.
// Use an .avi name so the codec is available on every OpenCV build.
func WriteVideo(dir, name string, n int, fps float64) (string, error) {
	path := filepath.Join(dir, name)
	sink, err := capture.CreateVideo(path, "MJPG", fps, Width, Height)
	if err != nil {
		return "", fmt.Errorf("write fixture video %s: %w", name, err)
	}

	frames := Sequence(n)
	defer CloseAll(frames)

	for _, f := range frames {
		if err := sink.Write(f); err != nil {
			sink.Close()
			return "", fmt.Errorf("write fixture video %s: %w", name, err)
		}
	}
	return path, sink.Close()
}

var white = color.RGBA{255, 255, 255, 0}
