package ui

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/model"
	"github.com/ayusman/mudra/internal/pipeline"
)

func resultOf(labels ...string) *model.Result {
	res := &model.Result{}
	for i, l := range labels {
		res.Detections = append(res.Detections, model.Detection{
			ClassID:    i,
			Label:      l,
			Confidence: 0.9,
			Box:        image.Rect(0, 0, 10, 10),
		})
	}
	return res
}

func TestDescribeDetections(t *testing.T) {
	assert.Equal(t, "No hand signs detected", describeDetections(nil, detailLimit))
	assert.Equal(t, "No hand signs detected", describeDetections(&model.Result{}, detailLimit))

	got := describeDetections(resultOf("peace", "fist"), detailLimit)
	assert.Equal(t, "Detected 2 hand sign(s):\n1: peace (0.90)\n2: fist (0.90)", got)
}

func TestDescribeDetections_Limit(t *testing.T) {
	res := resultOf("a", "b", "c", "d", "e", "f", "g")

	got := describeDetections(res, detailLimit)
	assert.Contains(t, got, "5: e (0.90)")
	assert.NotContains(t, got, "6: f")
	assert.Contains(t, got, "... 7 total")

	all := describeDetections(res, 0)
	assert.Contains(t, all, "7: g (0.90)")
	assert.NotContains(t, all, "total")
}

func TestLabelList(t *testing.T) {
	assert.Equal(t, "none", labelList(nil))
	assert.Equal(t, "peace, fist", labelList(resultOf("peace", "fist")))
}

func TestHistoryCell(t *testing.T) {
	rec := history.Record{
		Kind:      history.KindWebcam,
		Source:    "Camera 0",
		Timestamp: time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local),
		Count:     12,
		Duration:  1500 * time.Millisecond,
	}

	want := []string{"Live", "Camera 0", "2026-03-04 05:06:07", "12", "1.50"}
	require.Len(t, historyColumns, len(want))
	for col, w := range want {
		assert.Equal(t, w, historyCell(rec, col), "column %d", col)
	}
	assert.Empty(t, historyCell(rec, len(want)))
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "Image", kindName(history.KindImage))
	assert.Equal(t, "Video", kindName(history.KindVideo))
	assert.Equal(t, "other", kindName(history.Kind("other")))
}

func TestSummaryText(t *testing.T) {
	s := history.Summary{Total: 6, Image: 3, Video: 2, Webcam: 1}
	assert.Equal(t, "Total: 6   Image: 3   Video: 2   Live: 1", summaryText(s))
}

func TestProgressText(t *testing.T) {
	assert.Equal(t, "Frame 3 / 10", progressText(pipeline.Event{Frame: 3, Total: 10}))
	assert.Equal(t, "Frame 3", progressText(pipeline.Event{Frame: 3}))
	assert.Equal(t, "FPS: 29.5", fpsText(29.46))
}

func TestOutcomeText(t *testing.T) {
	rec := &history.Record{Duration: 2 * time.Second}

	tests := []struct {
		name string
		kind history.Kind
		out  pipeline.Outcome
		want string
	}{
		{
			name: "completed with record",
			kind: history.KindImage,
			out:  pipeline.Outcome{Status: pipeline.StatusCompleted, Record: rec},
			want: "Image detection completed in 2s",
		},
		{
			name: "completed",
			kind: history.KindVideo,
			out:  pipeline.Outcome{Status: pipeline.StatusCompleted},
			want: "Video detection completed",
		},
		{
			name: "stopped",
			kind: history.KindWebcam,
			out:  pipeline.Outcome{Status: pipeline.StatusStopped, Frames: 42},
			want: "Live detection stopped after 42 frame(s)",
		},
		{
			name: "failed",
			kind: history.KindVideo,
			out:  pipeline.Outcome{Status: pipeline.StatusFailed, Err: errors.New("boom")},
			want: "Video detection failed: boom",
		},
		{
			name: "failed without error",
			kind: history.KindImage,
			out:  pipeline.Outcome{Status: pipeline.StatusFailed},
			want: "Image detection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outcomeText(tt.kind, tt.out))
		})
	}
}

func TestCameraOptions(t *testing.T) {
	opts := cameraOptions([]int{0, 2})
	assert.Equal(t, []string{"Camera 0", "Camera 2"}, opts)

	for i, opt := range opts {
		id, err := cameraID(opt)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2}[i], id)
	}

	_, err := cameraID("")
	assert.Error(t, err)
	_, err = cameraID("Webcam")
	assert.Error(t, err)
}
