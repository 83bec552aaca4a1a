package ui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/store"
)

// touch creates an empty file the way the save dialog does.
func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestWriteOrDiscard_EmptyHistoryLeavesNoFile(t *testing.T) {
	s, err := store.New(store.MemoryPath)
	require.NoError(t, err)
	defer s.Close()
	log := history.NewLog(s, nil)

	path := filepath.Join(t.TempDir(), "history.csv")
	touch(t, path)

	err = writeOrDiscard(path, log.Export)
	assert.ErrorIs(t, err, history.ErrEmpty)
	assert.NoFileExists(t, path)
}

func TestWriteOrDiscard_EmptySlotLeavesNoFile(t *testing.T) {
	var slot pipeline.FrameSlot
	defer slot.Close()

	path := filepath.Join(t.TempDir(), "result.jpg")
	touch(t, path)

	err := writeOrDiscard(path, slot.Save)
	assert.ErrorIs(t, err, pipeline.ErrNoFrame)
	assert.NoFileExists(t, path)
}

func TestWriteOrDiscard_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	touch(t, path)

	err := writeOrDiscard(path, func(p string) error {
		return os.WriteFile(p, []byte("ok"), 0o644)
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestWriteOrDiscard_MissingFile(t *testing.T) {
	boom := errors.New("boom")
	path := filepath.Join(t.TempDir(), "never-created.csv")

	err := writeOrDiscard(path, func(string) error { return boom })
	assert.Equal(t, boom, err)
}
