package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/model"
	"github.com/ayusman/mudra/internal/pipeline"
)

// detailLimit is how many detections are itemized before the list is cut.
const detailLimit = 5

var kindNames = map[history.Kind]string{
	history.KindImage:  "Image",
	history.KindVideo:  "Video",
	history.KindWebcam: "Live",
}

var historyColumns = []string{"Type", "Source", "Time", "Count", "Seconds"}

func kindName(k history.Kind) string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return string(k)
}

// describeDetections itemizes up to limit detections; a longer list ends
// with the total. limit <= 0 lists everything.
func describeDetections(res *model.Result, limit int) string {
	if res.Count() == 0 {
		return "No hand signs detected"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Detected %d hand sign(s):\n", res.Count())
	for i, d := range res.Detections {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&b, "... %d total", res.Count())
			break
		}
		fmt.Fprintf(&b, "%d: %s (%.2f)\n", i+1, d.Label, d.Confidence)
	}
	return strings.TrimRight(b.String(), "\n")
}

// labelList joins the detected labels, or returns "none".
func labelList(res *model.Result) string {
	if res.Count() == 0 {
		return "none"
	}
	labels := make([]string, len(res.Detections))
	for i, d := range res.Detections {
		labels[i] = d.Label
	}
	return strings.Join(labels, ", ")
}

func historyCell(r history.Record, col int) string {
	switch col {
	case 0:
		return kindName(r.Kind)
	case 1:
		return r.Source
	case 2:
		return r.Timestamp.Format(history.TimestampLayout)
	case 3:
		return strconv.Itoa(r.Count)
	case 4:
		return fmt.Sprintf("%.2f", r.Duration.Seconds())
	}
	return ""
}

func summaryText(s history.Summary) string {
	return fmt.Sprintf("Total: %d   Image: %d   Video: %d   Live: %d", s.Total, s.Image, s.Video, s.Webcam)
}

func fpsText(fps float64) string {
	return fmt.Sprintf("FPS: %.1f", fps)
}

func progressText(ev pipeline.Event) string {
	if ev.Total > 0 {
		return fmt.Sprintf("Frame %d / %d", ev.Frame, ev.Total)
	}
	return fmt.Sprintf("Frame %d", ev.Frame)
}

// outcomeText is the status bar line for a finished run.
func outcomeText(kind history.Kind, out pipeline.Outcome) string {
	name := kindName(kind)
	switch out.Status {
	case pipeline.StatusCompleted:
		if out.Record != nil {
			return fmt.Sprintf("%s detection completed in %s", name, out.Record.Duration.Round(time.Millisecond))
		}
		return name + " detection completed"
	case pipeline.StatusStopped:
		return fmt.Sprintf("%s detection stopped after %d frame(s)", name, out.Frames)
	default:
		if out.Err != nil {
			return fmt.Sprintf("%s detection failed: %v", name, out.Err)
		}
		return name + " detection failed"
	}
}

func cameraLabel(id int) string {
	return fmt.Sprintf("Camera %d", id)
}

func cameraOptions(ids []int) []string {
	opts := make([]string, len(ids))
	for i, id := range ids {
		opts[i] = cameraLabel(id)
	}
	return opts
}

// cameraID parses an option produced by cameraOptions.
func cameraID(option string) (int, error) {
	var id int
	if _, err := fmt.Sscanf(option, "Camera %d", &id); err != nil {
		return 0, fmt.Errorf("invalid camera %q", option)
	}
	return id, nil
}
