package history

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/store"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()

	s, err := store.New(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})

	return NewLog(s, nil)
}

var fixedTime = time.Date(2026, 5, 2, 14, 3, 9, 0, time.Local)

func TestLog_AppendFillsDefaults(t *testing.T) {
	log := newTestLog(t)

	rec, err := log.Append(Record{Kind: KindImage, Source: "hand.jpg", Count: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Timestamp.IsZero())
	assert.Equal(t, StatusCompleted, rec.Status)
}

func TestLog_ListRoundTrip(t *testing.T) {
	log := newTestLog(t)

	in := Record{
		Kind:      KindImage,
		Source:    "/data/hand.jpg",
		Timestamp: fixedTime,
		Count:     2,
		Duration:  1500 * time.Millisecond,
		Classes: []Class{
			{ID: 1, Label: "peace", Confidence: 0.91},
			{ID: 4, Label: "thumbs_up", Confidence: 0.5},
		},
	}
	stored, err := log.Append(in)
	require.NoError(t, err)

	list, err := log.List()
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, KindImage, got.Kind)
	assert.Equal(t, in.Source, got.Source)
	assert.True(t, fixedTime.Equal(got.Timestamp))
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, in.Duration, got.Duration)
	assert.Equal(t, in.Classes, got.Classes)
	assert.Equal(t, stored, got, "Append returns the row as stored")
}

func TestLog_InsertionOrderAndLen(t *testing.T) {
	log := newTestLog(t)

	sources := []string{"a.jpg", "b.mp4", "Camera 0", "c.jpg"}
	kinds := []Kind{KindImage, KindVideo, KindWebcam, KindImage}
	for i := range sources {
		_, err := log.Append(Record{Kind: kinds[i], Source: sources[i], Timestamp: fixedTime})
		require.NoError(t, err)
	}

	n, err := log.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	list, err := log.List()
	require.NoError(t, err)
	for i, r := range list {
		assert.Equal(t, sources[i], r.Source)
	}

	assert.Equal(t, Summary{Total: 4, Image: 2, Video: 1, Webcam: 1}, Summarize(list))
}

func TestLog_AppendRejectsUnknownKind(t *testing.T) {
	log := newTestLog(t)

	_, err := log.Append(Record{Kind: "audio", Source: "x"})
	assert.Error(t, err)

	n, err := log.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLog_Clear(t *testing.T) {
	log := newTestLog(t)

	cleared, err := log.Clear()
	require.NoError(t, err)
	assert.False(t, cleared, "clearing an empty log reports already empty")

	_, err = log.Append(Record{Kind: KindVideo, Source: "v.mp4"})
	require.NoError(t, err)

	cleared, err = log.Clear()
	require.NoError(t, err)
	assert.True(t, cleared)

	n, err := log.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLog_ConcurrentAppend(t *testing.T) {
	log := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := log.Append(Record{Kind: KindWebcam, Source: "Camera 0"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := log.Len()
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestLog_ExportEmpty(t *testing.T) {
	log := newTestLog(t)
	path := filepath.Join(t.TempDir(), "out", "history.csv")

	assert.ErrorIs(t, log.Export(path), ErrEmpty)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no file for an empty export")
}

func TestLog_Export(t *testing.T) {
	log := newTestLog(t)
	path := filepath.Join(t.TempDir(), "exports", "history.csv")

	_, err := log.Append(Record{Kind: KindImage, Source: "手势.jpg", Timestamp: fixedTime, Count: 3, Duration: 250 * time.Millisecond})
	require.NoError(t, err)
	_, err = log.Append(Record{Kind: KindVideo, Source: "clip, final.mp4", Timestamp: fixedTime, Count: 120, Duration: 12 * time.Second})
	require.NoError(t, err)

	require.NoError(t, log.Export(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM), "export starts with a BOM")

	lines := strings.Split(strings.TrimRight(string(data[len(utf8BOM):]), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "type,source,timestamp,count,processing_time", lines[0])
	assert.Equal(t, "image,手势.jpg,2026-05-02 14:03:09,3,0.250", lines[1])
	assert.Equal(t, `video,"clip, final.mp4",2026-05-02 14:03:09,120,12.000`, lines[2])
}

func TestWriteCSVFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")

	assert.ErrorIs(t, WriteCSVFile(path, nil), ErrEmpty)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteCSVFile_UnwritableTarget(t *testing.T) {
	dir := t.TempDir()
	records := []Record{{Kind: KindImage, Source: "a.jpg", Timestamp: fixedTime}}

	assert.Error(t, WriteCSVFile(dir, records), "a directory cannot be an export target")
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}
