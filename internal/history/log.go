package history

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/store"
)

// ErrEmpty is returned when exporting a log without records.
var ErrEmpty = errors.New("history is empty")

// Log is the single owner of the detection history. Appends, reads and
// clears are serialized, so runs finishing on different goroutines never
// interleave.
type Log struct {
	mu     sync.Mutex
	repo   *store.RecordRepository
	logger *zap.SugaredLogger
}

// NewLog creates a Log persisted in s.
func NewLog(s *store.Store, logger *zap.SugaredLogger) *Log {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Log{repo: s.Records(), logger: logger}
}

// Append stores rec at the end of the log. A missing ID or timestamp is
// filled in; the record is read back and returned as stored.
func (l *Log) Append(rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.Status == "" {
		rec.Status = StatusCompleted
	}

	row := toRow(rec)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.repo.Create(row); err != nil {
		return Record{}, fmt.Errorf("append %s record: %w", rec.Kind, err)
	}
	stored, err := l.repo.GetByID(row.ID)
	if err != nil {
		return Record{}, fmt.Errorf("read back %s record: %w", rec.Kind, err)
	}

	l.logger.Debugw("History record appended",
		"id", rec.ID, "kind", rec.Kind, "source", rec.Source, "count", rec.Count, "status", rec.Status)

	return fromRow(stored), nil
}

// List returns all records in insertion order.
func (l *Log) List() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.repo.List()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, fromRow(row))
	}
	return records, nil
}

// Len returns the number of records.
func (l *Log) Len() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.repo.Count()
}

// Clear wipes the whole log. It reports false without error when the log
// was already empty.
func (l *Log) Clear() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.repo.DeleteAll()
	if err != nil {
		return false, fmt.Errorf("clear history: %w", err)
	}
	if n > 0 {
		l.logger.Infof("History cleared (%d records)", n)
	}
	return n > 0, nil
}

// Export writes the log as CSV to path. An empty log yields ErrEmpty and
// no file is created.
func (l *Log) Export(path string) error {
	records, err := l.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrEmpty
	}
	if err := WriteCSVFile(path, records); err != nil {
		return err
	}

	l.logger.Infof("Exported %d history records to %s", len(records), path)
	return nil
}

func toRow(rec Record) *store.Record {
	row := &store.Record{
		ID:                rec.ID,
		Kind:              string(rec.Kind),
		Source:            rec.Source,
		Status:            string(rec.Status),
		CreatedAt:         rec.Timestamp,
		Count:             rec.Count,
		SourceFrames:      rec.SourceFrames,
		ProcessingSeconds: rec.Duration.Seconds(),
	}
	for _, c := range rec.Classes {
		row.Detections = append(row.Detections, store.Detection{
			ClassID:    c.ID,
			Label:      c.Label,
			Confidence: c.Confidence,
		})
	}
	return row
}

func fromRow(row *store.Record) Record {
	rec := Record{
		ID:           row.ID,
		Kind:         Kind(row.Kind),
		Source:       row.Source,
		Timestamp:    row.CreatedAt.Local(),
		Count:        row.Count,
		SourceFrames: row.SourceFrames,
		Duration:     time.Duration(row.ProcessingSeconds * float64(time.Second)),
		Status:       Status(row.Status),
	}
	for _, d := range row.Detections {
		rec.Classes = append(rec.Classes, Class{ID: d.ClassID, Label: d.Label, Confidence: d.Confidence})
	}
	return rec
}
