package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/multierr"
)

// TimestampLayout is the timestamp format used in exports and the UI.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	csvHeader = []string{"type", "source", "timestamp", "count", "processing_time"}
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
)

// WriteCSV writes records as CSV, prefixed with a UTF-8 byte order mark so
// spreadsheet tools detect the encoding.
func WriteCSV(w io.Writer, records []Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			string(r.Kind),
			r.Source,
			r.Timestamp.Format(TimestampLayout),
			strconv.Itoa(r.Count),
			strconv.FormatFloat(r.Duration.Seconds(), 'f', 3, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile exports records to path, creating the parent directory. A
// failed write removes the partial file.
func WriteCSVFile(path string, records []Record) (err error) {
	if len(records) == 0 {
		return ErrEmpty
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := WriteCSV(f, records); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
