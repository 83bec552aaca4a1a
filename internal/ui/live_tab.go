package ui

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/pipeline"
)

type liveTab struct {
	app     *App
	content fyne.CanvasObject

	picture  *canvas.Image
	cameras  *widget.Select
	countLbl *widget.Label
	fpsLbl   *widget.Label
	results  *widget.Label

	startBtn *widget.Button
	stopBtn  *widget.Button
	snapBtn  *widget.Button
}

func newLiveTab(a *App) *liveTab {
	t := &liveTab{
		app:      a,
		picture:  canvas.NewImageFromImage(nil),
		countLbl: widget.NewLabel("Detections: 0"),
		fpsLbl:   widget.NewLabel(fpsText(0)),
		results:  widget.NewLabel(""),
	}
	t.picture.FillMode = canvas.ImageFillContain
	t.picture.SetMinSize(fyne.NewSize(float32(a.config.PreviewWidth), float32(a.config.PreviewHeight)))
	t.results.Wrapping = fyne.TextWrapWord

	options := cameraOptions(a.config.Cameras)
	t.cameras = widget.NewSelect(options, nil)
	if len(options) > 0 {
		t.cameras.SetSelectedIndex(0)
	}

	t.startBtn = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), t.start)
	t.startBtn.Importance = widget.HighImportance
	t.stopBtn = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), t.stop)
	t.stopBtn.Disable()
	t.snapBtn = widget.NewButtonWithIcon("Snapshot", theme.DocumentSaveIcon(), t.snapshot)
	t.snapBtn.Disable()

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("Live Detection", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		widget.NewForm(widget.NewFormItem("Camera", t.cameras)),
		container.NewGridWithColumns(2, t.startBtn, t.stopBtn),
		t.snapBtn,
		widget.NewSeparator(),
		t.countLbl,
		t.fpsLbl,
		t.results,
	)

	split := container.NewHSplit(
		container.NewPadded(container.NewVScroll(sidebar)),
		container.NewPadded(t.picture),
	)
	split.SetOffset(0.3)
	t.content = split

	return t
}

func (t *liveTab) start() {
	id, err := cameraID(t.cameras.Selected)
	if err != nil {
		dialog.ShowError(fmt.Errorf("select a camera: %w", err), t.app.mainWin)
		return
	}
	label := cameraLabel(id)

	events := make(chan pipeline.Event, 1)
	task, err := t.app.liveRunner.Start(t.app.ctx, func(ctx context.Context) pipeline.Outcome {
		defer close(events)
		cam := capture.NewCamera(id)
		cam.SetFPS(t.app.config.CameraFPS)
		return t.app.detector.DetectWebcam(ctx, cam, label, events)
	})
	if err != nil {
		t.app.setStatus("Live detection: " + err.Error())
		return
	}

	t.setRunning(true)
	t.app.setStatus("Starting " + label)

	go func() {
		for ev := range events {
			fyne.Do(func() { t.show(ev) })
		}
		out := task.Wait()
		fyne.Do(func() { t.done(out) })
	}()
}

func (t *liveTab) show(ev pipeline.Event) {
	if ev.Preview != nil {
		t.picture.Image = ev.Preview
		t.picture.Refresh()
	}
	t.countLbl.SetText(fmt.Sprintf("Detections: %d", ev.Result.Count()))
	t.fpsLbl.SetText(fpsText(ev.FPS))
	t.results.SetText(describeDetections(ev.Result, detailLimit))
	t.snapBtn.Enable()
}

func (t *liveTab) stop() {
	t.app.liveRunner.Stop()
	t.stopBtn.Disable()
	t.app.setStatus("Stopping live detection...")
}

func (t *liveTab) done(out pipeline.Outcome) {
	t.setRunning(false)
	t.fpsLbl.SetText(fpsText(0))
	t.app.finish(history.KindWebcam, out)
}

func (t *liveTab) setRunning(running bool) {
	if running {
		t.cameras.Disable()
		t.startBtn.Disable()
		t.stopBtn.Enable()
		return
	}
	t.cameras.Enable()
	t.startBtn.Enable()
	t.stopBtn.Disable()
}

func (t *liveTab) snapshot() {
	slot := t.app.detector.Slot(history.KindWebcam)
	if slot.Empty() {
		dialog.ShowInformation("Snapshot", "No frame captured yet", t.app.mainWin)
		return
	}

	t.app.saveFile(t.app.config.DefaultSavePath(config.SaveImage, time.Now()), func(path string) error {
		if err := slot.Save(path); err != nil {
			return err
		}
		t.app.setStatus("Snapshot saved to " + path)
		return nil
	})
}
