package capture

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func writeTestImage(t *testing.T, path string) {
	t.Helper()
	mat := gocv.NewMatWithSize(60, 80, gocv.MatTypeCV8UC3)
	defer mat.Close()
	mat.SetTo(gocv.NewScalar(30, 90, 200, 0))
	require.NoError(t, SaveImage(path, &mat))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "hand.png")
	writeTestImage(t, path)

	mat, err := LoadImage(path)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 80, mat.Cols())
	assert.Equal(t, 60, mat.Rows())
	assert.Equal(t, 3, mat.Channels())
}

func TestLoadImage_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadImage(filepath.Join(dir, "missing.jpg"))
	assert.True(t, errors.Is(err, ErrNotFound))

	corrupt := filepath.Join(dir, "corrupt.jpg")
	require.NoError(t, os.WriteFile(corrupt, []byte("not an image"), 0o644))
	_, err = LoadImage(corrupt)
	assert.True(t, errors.Is(err, ErrUnreadable))

	_, err = LoadImage(dir)
	assert.True(t, errors.Is(err, ErrUnreadable))
}

func TestSaveImage_Empty(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	assert.Error(t, SaveImage(filepath.Join(t.TempDir(), "x.jpg"), &empty))
	assert.Error(t, SaveImage(filepath.Join(t.TempDir(), "x.jpg"), nil))
}

func TestOpenVideo_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenVideo(filepath.Join(dir, "missing.mp4"))
	assert.True(t, errors.Is(err, ErrNotFound))

	corrupt := filepath.Join(dir, "corrupt.avi")
	require.NoError(t, os.WriteFile(corrupt, []byte("garbage"), 0o644))
	_, err = OpenVideo(corrupt)
	assert.True(t, errors.Is(err, ErrUnreadable))
}

func TestVideo_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping codec round trip in short mode")
	}

	path := filepath.Join(t.TempDir(), "out", "clip.avi")
	sink, err := CreateVideo(path, "MJPG", 10, 64, 48)
	require.NoError(t, err)

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	odd := gocv.NewMatWithSize(30, 40, gocv.MatTypeCV8UC3)
	defer odd.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, sink.Write(&frame))
	}
	require.NoError(t, sink.Write(&odd), "mismatched frames are resized")
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	assert.Error(t, sink.Write(&frame), "write after close")

	src, err := OpenVideo(path)
	require.NoError(t, err)
	defer src.Close()

	props := src.Props()
	assert.Equal(t, 64, props.Width)
	assert.Equal(t, 48, props.Height)

	read := 0
	for {
		f, err := src.ReadFrame()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		f.Close()
		read++
	}
	assert.Equal(t, 5, read)

	require.NoError(t, src.Close())
	_, err = src.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestCreateVideo_InvalidSize(t *testing.T) {
	_, err := CreateVideo(filepath.Join(t.TempDir(), "x.avi"), "MJPG", 10, 0, 48)
	assert.Error(t, err)
}

type errCloser struct{ err error }

func (e errCloser) Close() error { return e.err }

func TestCloseAll(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")

	err := CloseAll(errCloser{a}, nil, errCloser{nil}, errCloser{b})
	assert.True(t, errors.Is(err, a))
	assert.True(t, errors.Is(err, b))

	assert.NoError(t, CloseAll())
}
