package ui

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/history"
)

var historyWidths = []float32{70, 420, 170, 70, 90}

type historyTab struct {
	app     *App
	content fyne.CanvasObject

	records []history.Record
	summary *widget.Label
	table   *widget.Table
}

func newHistoryTab(a *App) *historyTab {
	t := &historyTab{
		app:     a,
		summary: widget.NewLabel(summaryText(history.Summary{})),
	}

	t.table = widget.NewTableWithHeaders(
		func() (int, int) { return len(t.records), len(historyColumns) },
		func() fyne.CanvasObject {
			l := widget.NewLabel("")
			l.Truncation = fyne.TextTruncateEllipsis
			return l
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			if id.Row < 0 || id.Row >= len(t.records) {
				return
			}
			obj.(*widget.Label).SetText(historyCell(t.records[id.Row], id.Col))
		},
	)
	t.table.ShowHeaderColumn = false
	t.table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	}
	t.table.UpdateHeader = func(id widget.TableCellID, obj fyne.CanvasObject) {
		if id.Col >= 0 && id.Col < len(historyColumns) {
			obj.(*widget.Label).SetText(historyColumns[id.Col])
		}
	}
	for i, w := range historyWidths {
		t.table.SetColumnWidth(i, w)
	}

	refreshBtn := widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), t.refresh)
	exportBtn := widget.NewButtonWithIcon("Export CSV", theme.DocumentSaveIcon(), t.export)
	clearBtn := widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), t.clear)
	clearBtn.Importance = widget.DangerImportance

	toolbar := container.NewHBox(refreshBtn, exportBtn, clearBtn)
	t.content = container.NewBorder(
		container.NewVBox(container.NewBorder(nil, nil, nil, toolbar, t.summary), widget.NewSeparator()),
		nil, nil, nil,
		t.table,
	)

	return t
}

// refresh reloads the table and summary from the log.
func (t *historyTab) refresh() {
	records, err := t.app.history.List()
	if err != nil {
		t.app.logger.Warnw("Failed to load history", "error", err)
		t.app.setStatus("Failed to load history")
		return
	}
	t.records = records
	t.summary.SetText(summaryText(history.Summarize(records)))
	t.table.Refresh()
}

func (t *historyTab) export() {
	n, err := t.app.history.Len()
	if err != nil {
		dialog.ShowError(err, t.app.mainWin)
		return
	}
	if n == 0 {
		dialog.ShowInformation("Export", "No history to export", t.app.mainWin)
		return
	}

	t.app.saveFile(t.app.config.DefaultSavePath(config.SaveHistory, time.Now()), func(path string) error {
		if err := t.app.history.Export(path); err != nil {
			return err
		}
		t.app.setStatus("History exported to " + path)
		return nil
	})
}

func (t *historyTab) clear() {
	n, err := t.app.history.Len()
	if err != nil {
		dialog.ShowError(err, t.app.mainWin)
		return
	}
	if n == 0 {
		dialog.ShowInformation("Clear History", "History is already empty", t.app.mainWin)
		return
	}

	dialog.ShowConfirm("Clear History", "Delete all history records?", func(ok bool) {
		if !ok {
			return
		}
		if _, err := t.app.history.Clear(); err != nil {
			dialog.ShowError(err, t.app.mainWin)
			return
		}
		t.refresh()
		t.app.setStatus("History cleared")
	}, t.app.mainWin)
}
