package ui

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/pipeline"
)

var videoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".wmv"}

type videoTab struct {
	app     *App
	content fyne.CanvasObject

	path       string
	picture    *canvas.Image
	pathLbl    *widget.Label
	saveOutput *widget.Check
	outputPath *widget.Entry
	progress   *widget.ProgressBar
	frameLbl   *widget.Label
	results    *widget.Label
	outputLink *fyne.Container

	openBtn  *widget.Button
	startBtn *widget.Button
	stopBtn  *widget.Button
	snapBtn  *widget.Button
}

func newVideoTab(a *App) *videoTab {
	t := &videoTab{
		app:        a,
		picture:    canvas.NewImageFromImage(nil),
		pathLbl:    widget.NewLabel("No video selected"),
		outputPath: widget.NewEntry(),
		progress:   widget.NewProgressBar(),
		frameLbl:   widget.NewLabel(""),
		results:    widget.NewLabel(""),
		outputLink: container.NewVBox(),
	}
	t.picture.FillMode = canvas.ImageFillContain
	t.picture.SetMinSize(fyne.NewSize(float32(a.config.PreviewWidth), float32(a.config.PreviewHeight)))
	t.pathLbl.Truncation = fyne.TextTruncateEllipsis
	t.results.Wrapping = fyne.TextWrapWord

	t.outputPath.SetPlaceHolder("/path/to/output.mp4")
	t.outputPath.Disable()
	t.saveOutput = widget.NewCheck("Save annotated video", func(on bool) {
		if on {
			if t.outputPath.Text == "" {
				t.outputPath.SetText(a.config.DefaultSavePath(config.SaveVideo, time.Now()))
			}
			t.outputPath.Enable()
		} else {
			t.outputPath.Disable()
		}
	})

	t.openBtn = widget.NewButtonWithIcon("Choose Video", theme.FolderOpenIcon(), t.choose)
	t.startBtn = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), t.start)
	t.startBtn.Importance = widget.HighImportance
	t.startBtn.Disable()
	t.stopBtn = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), t.stop)
	t.stopBtn.Disable()
	t.snapBtn = widget.NewButtonWithIcon("Save Current Frame", theme.DocumentSaveIcon(), t.snapshot)
	t.snapBtn.Disable()

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("Video Detection", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		t.pathLbl,
		t.openBtn,
		t.saveOutput,
		t.outputPath,
		container.NewGridWithColumns(2, t.startBtn, t.stopBtn),
		t.snapBtn,
		widget.NewSeparator(),
		t.progress,
		t.frameLbl,
		t.results,
		t.outputLink,
	)

	split := container.NewHSplit(
		container.NewPadded(container.NewVScroll(sidebar)),
		container.NewPadded(t.picture),
	)
	split.SetOffset(0.3)
	t.content = split

	return t
}

func (t *videoTab) choose() {
	t.app.openFile(videoExtensions, func(path string) {
		t.path = path
		t.pathLbl.SetText(path)
		t.startBtn.Enable()
		t.progress.SetValue(0)
		t.frameLbl.SetText("")
	})
}

func (t *videoTab) start() {
	job := pipeline.VideoJob{Path: t.path}
	if job.Path == "" {
		return
	}
	if t.saveOutput.Checked {
		job.OutputPath = t.outputPath.Text
	}

	events := make(chan pipeline.Event, 1)
	task, err := t.app.videoRunner.Start(t.app.ctx, func(ctx context.Context) pipeline.Outcome {
		defer close(events)
		return t.app.detector.DetectVideo(ctx, job, events)
	})
	if err != nil {
		t.app.setStatus("Video detection: " + err.Error())
		return
	}

	t.setRunning(true)
	t.outputLink.RemoveAll()
	t.progress.SetValue(0)
	t.app.setStatus("Processing " + job.Path)

	go func() {
		for ev := range events {
			fyne.Do(func() { t.show(ev) })
		}
		out := task.Wait()
		fyne.Do(func() { t.done(out) })
	}()
}

func (t *videoTab) show(ev pipeline.Event) {
	if ev.Preview != nil {
		t.picture.Image = ev.Preview
		t.picture.Refresh()
	}
	t.progress.SetValue(ev.Progress)
	t.frameLbl.SetText(progressText(ev))
	t.results.SetText(describeDetections(ev.Result, detailLimit))
}

func (t *videoTab) stop() {
	t.app.videoRunner.Stop()
	t.stopBtn.Disable()
	t.app.setStatus("Stopping video detection...")
}

func (t *videoTab) done(out pipeline.Outcome) {
	t.setRunning(false)

	if out.Preview != nil {
		t.picture.Image = out.Preview
		t.picture.Refresh()
	}
	if out.Status == pipeline.StatusCompleted {
		t.progress.SetValue(1)
	}
	if out.OutputPath != "" && out.Status != pipeline.StatusFailed {
		t.outputLink.Add(widget.NewLabel("Output:"))
		t.outputLink.Add(showPath(out.OutputPath))
	}
	t.snapBtn.Enable()

	t.app.finish(history.KindVideo, out)
}

func (t *videoTab) setRunning(running bool) {
	if running {
		t.openBtn.Disable()
		t.startBtn.Disable()
		t.saveOutput.Disable()
		t.outputPath.Disable()
		t.stopBtn.Enable()
		t.snapBtn.Enable()
		return
	}
	t.openBtn.Enable()
	t.startBtn.Enable()
	t.saveOutput.Enable()
	if t.saveOutput.Checked {
		t.outputPath.Enable()
	}
	t.stopBtn.Disable()
}

func (t *videoTab) snapshot() {
	slot := t.app.detector.Slot(history.KindVideo)
	if slot.Empty() {
		dialog.ShowInformation("Save Frame", "No frame processed yet", t.app.mainWin)
		return
	}

	t.app.saveFile(t.app.config.DefaultSavePath(config.SaveImage, time.Now()), func(path string) error {
		if err := slot.Save(path); err != nil {
			return err
		}
		t.app.setStatus("Frame saved to " + path)
		return nil
	})
}
