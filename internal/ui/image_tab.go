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

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

type imageTab struct {
	app     *App
	content fyne.CanvasObject

	path    string
	picture *canvas.Image
	pathLbl *widget.Label
	results *widget.Label
	status  *widget.Label

	openBtn   *widget.Button
	detectBtn *widget.Button
	saveBtn   *widget.Button
}

func newImageTab(a *App) *imageTab {
	t := &imageTab{
		app:     a,
		picture: canvas.NewImageFromImage(nil),
		pathLbl: widget.NewLabel("No image selected"),
		results: widget.NewLabel(""),
		status:  widget.NewLabel("Idle"),
	}
	t.picture.FillMode = canvas.ImageFillContain
	t.picture.SetMinSize(fyne.NewSize(float32(a.config.PreviewWidth), float32(a.config.PreviewHeight)))
	t.pathLbl.Truncation = fyne.TextTruncateEllipsis
	t.results.Wrapping = fyne.TextWrapWord

	t.openBtn = widget.NewButtonWithIcon("Choose Image", theme.FolderOpenIcon(), t.choose)
	t.detectBtn = widget.NewButtonWithIcon("Detect", theme.SearchIcon(), t.detect)
	t.detectBtn.Importance = widget.HighImportance
	t.detectBtn.Disable()
	t.saveBtn = widget.NewButtonWithIcon("Save Result", theme.DocumentSaveIcon(), t.save)
	t.saveBtn.Disable()

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("Image Detection", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		t.pathLbl,
		t.openBtn,
		t.detectBtn,
		t.saveBtn,
		widget.NewSeparator(),
		t.status,
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

func (t *imageTab) choose() {
	t.app.openFile(imageExtensions, func(path string) {
		t.path = path
		t.pathLbl.SetText(path)
		t.detectBtn.Enable()
		t.saveBtn.Disable()
		t.results.SetText("")
		t.status.SetText("Ready")

		t.picture.Image = nil
		t.picture.File = path
		t.picture.Refresh()
	})
}

func (t *imageTab) detect() {
	path := t.path
	if path == "" {
		return
	}

	task, err := t.app.imageRunner.Start(t.app.ctx, func(ctx context.Context) pipeline.Outcome {
		return t.app.detector.DetectImage(ctx, path)
	})
	if err != nil {
		t.app.setStatus("Image detection: " + err.Error())
		return
	}

	t.openBtn.Disable()
	t.detectBtn.Disable()
	t.status.SetText("Detecting...")
	t.app.setStatus("Detecting " + path)

	go func() {
		out := task.Wait()
		fyne.Do(func() { t.done(out) })
	}()
}

func (t *imageTab) done(out pipeline.Outcome) {
	t.openBtn.Enable()
	t.detectBtn.Enable()

	switch out.Status {
	case pipeline.StatusCompleted:
		if out.Preview != nil {
			t.picture.File = ""
			t.picture.Image = out.Preview
			t.picture.Refresh()
		}
		t.results.SetText(describeDetections(out.Result, detailLimit))
		t.status.SetText("Detection complete")
		t.saveBtn.Enable()
	case pipeline.StatusStopped:
		t.status.SetText("Cancelled")
	default:
		t.status.SetText("Detection failed")
	}

	t.app.finish(history.KindImage, out)
}

func (t *imageTab) save() {
	slot := t.app.detector.Slot(history.KindImage)
	if slot.Empty() {
		dialog.ShowInformation("Save Result", "Run a detection first", t.app.mainWin)
		return
	}

	t.app.saveFile(t.app.config.DefaultSavePath(config.SaveImage, time.Now()), func(path string) error {
		if err := slot.Save(path); err != nil {
			return err
		}
		t.app.setStatus("Result saved to " + path)
		return nil
	})
}
