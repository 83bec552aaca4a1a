// Package ui is the desktop shell: tabs for image, video and live
// detection plus the history view.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/history"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/worker"
)

// AppID identifies the application to the desktop environment.
const AppID = "io.github.ayusman.mudra"

// App is the main window and the background runners behind its tabs.
type App struct {
	fyneApp fyne.App
	mainWin fyne.Window
	tray    *Tray

	config   *config.Config
	detector *pipeline.Detector
	history  *history.Log
	logger   *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	imageRunner *worker.Runner[pipeline.Outcome]
	videoRunner *worker.Runner[pipeline.Outcome]
	liveRunner  *worker.Runner[pipeline.Outcome]

	status *widget.Label

	imageTab   *imageTab
	videoTab   *videoTab
	liveTab    *liveTab
	historyTab *historyTab
}

// CreateApp builds the window. Nothing is shown until Run.
func CreateApp(det *pipeline.Detector, log *history.Log, cfg *config.Config, logger *zap.SugaredLogger) *App {
	a := app.NewWithID(AppID)
	w := a.NewWindow("Mudra - Hand Sign Detection")
	w.Resize(fyne.NewSize(1200, 760))

	ctx, cancel := context.WithCancel(context.Background())

	ui := &App{
		fyneApp:     a,
		mainWin:     w,
		tray:        NewTray(),
		config:      cfg,
		detector:    det,
		history:     log,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		imageRunner: newRunner("image", logger),
		videoRunner: newRunner("video", logger),
		liveRunner:  newRunner("live", logger),
		status:      widget.NewLabel("Ready"),
	}
	return ui
}

func newRunner(name string, logger *zap.SugaredLogger) *worker.Runner[pipeline.Outcome] {
	r := worker.NewRunner[pipeline.Outcome](name, logger)
	r.Recover = func(v any) pipeline.Outcome {
		return pipeline.Outcome{Status: pipeline.StatusFailed, Err: fmt.Errorf("%w: %v", pipeline.ErrRuntime, v)}
	}
	return r
}

// Run shows the window and blocks until the application quits.
func (a *App) Run() {
	a.imageTab = newImageTab(a)
	a.videoTab = newVideoTab(a)
	a.liveTab = newLiveTab(a)
	a.historyTab = newHistoryTab(a)

	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Live", theme.MediaVideoIcon(), a.liveTab.content),
		container.NewTabItemWithIcon("Image", theme.FileImageIcon(), a.imageTab.content),
		container.NewTabItemWithIcon("Video", theme.MediaPlayIcon(), a.videoTab.content),
		container.NewTabItemWithIcon("History", theme.HistoryIcon(), a.historyTab.content),
	)
	tabs.OnSelected = func(item *container.TabItem) {
		if item.Content == a.historyTab.content {
			a.historyTab.refresh()
		}
	}

	statusBar := container.NewBorder(nil, nil,
		widget.NewIcon(theme.InfoIcon()), nil,
		a.status,
	)

	a.mainWin.SetContent(container.NewBorder(nil,
		container.NewVBox(widget.NewSeparator(), statusBar),
		nil, nil,
		tabs,
	))
	a.mainWin.SetMainMenu(a.mainMenu())

	a.tray.OnShow(func() {
		fyne.Do(func() {
			a.mainWin.Show()
			a.mainWin.RequestFocus()
		})
	})
	a.tray.OnStopAll(func() {
		a.stopAll(false)
		fyne.Do(func() { a.setStatus("All detections stopped") })
	})
	a.tray.OnQuit(a.quit)
	if !a.tray.Install(a.fyneApp) {
		a.logger.Debug("System tray not available")
	}

	a.mainWin.SetCloseIntercept(a.quit)

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

func (a *App) mainMenu() *fyne.MainMenu {
	about := fyne.NewMenuItem("Model", func() {
		labels := a.detector.Labels()
		dialog.ShowInformation("Model",
			fmt.Sprintf("Classes: %d\nOutput directory: %s", len(labels), a.config.OutputDir),
			a.mainWin)
	})
	stop := fyne.NewMenuItem("Stop All Detections", func() {
		a.stopAll(false)
		a.setStatus("All detections stopped")
	})
	return fyne.NewMainMenu(fyne.NewMenu("Detection", stop, fyne.NewMenuItemSeparator(), about))
}

// stopAll cancels every running detection. With wait it blocks until each
// run has returned.
func (a *App) stopAll(wait bool) {
	for _, r := range []*worker.Runner[pipeline.Outcome]{a.imageRunner, a.videoRunner, a.liveRunner} {
		if wait {
			r.StopWait()
		} else {
			r.Stop()
		}
	}
}

// quit stops all runs, waits for them and exits.
func (a *App) quit() {
	a.logger.Info("Shutting down, stopping running detections")
	a.cancel()
	a.stopAll(true)
	a.fyneApp.Quit()
}

// setStatus updates the status bar. Must be called on the UI goroutine.
func (a *App) setStatus(text string) {
	a.status.SetText(text)
}

// finish reports a finished run in the status bar and the tray, and shows
// errors in a dialog.
func (a *App) finish(kind history.Kind, out pipeline.Outcome) {
	a.setStatus(outcomeText(kind, out))
	if out.Result != nil {
		a.tray.SetLast(labelList(out.Result))
	}
	if out.Status == pipeline.StatusFailed && out.Err != nil {
		a.logger.Warnw("Detection run failed", "kind", kind, "error", out.Err)
		dialog.ShowError(out.Err, a.mainWin)
	}
	if out.Record != nil && a.historyTab != nil {
		a.historyTab.refresh()
	}
}

// openFile shows a file picker restricted to extensions and passes the
// chosen local path to fn.
func (a *App) openFile(extensions []string, fn func(path string)) {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		fn(path)
	}, a.mainWin)
	d.SetFilter(storage.NewExtensionFileFilter(extensions))
	d.Show()
}

// saveFile shows a save dialog prefilled with defaultPath and passes the
// chosen local path to fn. The dialog creates the file before fn runs, so a
// failed fn leaves nothing behind.
func (a *App) saveFile(defaultPath string, fn func(path string) error) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		if writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := writeOrDiscard(path, fn); err != nil {
			a.showSaveError(err)
		}
	}, a.mainWin)

	d.SetFileName(filepath.Base(defaultPath))
	if dir := filepath.Dir(defaultPath); os.MkdirAll(dir, 0o755) == nil {
		if lister, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			d.SetLocation(lister)
		}
	}
	d.Show()
}

// writeOrDiscard runs fn on path and removes path when fn fails.
func writeOrDiscard(path string, fn func(path string) error) error {
	err := fn(path)
	if err == nil {
		return nil
	}
	if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
		err = multierr.Append(err, rerr)
	}
	return err
}

func (a *App) showSaveError(err error) {
	switch {
	case errors.Is(err, history.ErrEmpty):
		dialog.ShowInformation("Export", "No history to export", a.mainWin)
	case errors.Is(err, pipeline.ErrNoFrame):
		dialog.ShowInformation("Save", "No frame to save yet", a.mainWin)
	default:
		dialog.ShowError(err, a.mainWin)
	}
}

// showPath is a hyperlink-like label used to reveal output locations.
func showPath(path string) *widget.Hyperlink {
	u := &url.URL{Scheme: "file", Path: path}
	return widget.NewHyperlink(path, u)
}
