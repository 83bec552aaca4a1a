package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Record is a stored detection run.
type Record struct {
	Seq               int64
	ID                string
	Kind              string
	Source            string
	Status            string
	CreatedAt         time.Time
	Count             int
	SourceFrames      int
	ProcessingSeconds float64
	Detections        []Detection
}

// Detection is one detected class of a record.
type Detection struct {
	ClassID    int
	Label      string
	Confidence float64
}

// RecordRepository provides insert, read and wipe operations for records.
// Records are never updated.
type RecordRepository struct {
	db *sql.DB
}

// Records returns the record repository for this store.
func (s *Store) Records() *RecordRepository {
	return &RecordRepository{db: s.db}
}

// Create inserts a record and its detections in one transaction and sets
// r.Seq to the insertion position.
func (r *RecordRepository) Create(rec *Record) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO records (id, kind, source, status, created_at, count, source_frames, processing_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.Source, rec.Status, rec.CreatedAt, rec.Count, rec.SourceFrames, rec.ProcessingSeconds,
	)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}

	for _, d := range rec.Detections {
		_, err := tx.Exec(
			`INSERT INTO record_detections (record_id, class_id, label, confidence) VALUES (?, ?, ?, ?)`,
			rec.ID, d.ClassID, d.Label, d.Confidence,
		)
		if err != nil {
			return fmt.Errorf("insert detection for %s: %w", rec.ID, err)
		}
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	rec.Seq = seq
	return nil
}

// GetByID retrieves a record by its ID.
func (r *RecordRepository) GetByID(id string) (*Record, error) {
	rec := &Record{}

	err := r.db.QueryRow(
		`SELECT seq, id, kind, source, status, created_at, count, source_frames, processing_seconds
		 FROM records WHERE id = ?`,
		id,
	).Scan(&rec.Seq, &rec.ID, &rec.Kind, &rec.Source, &rec.Status, &rec.CreatedAt,
		&rec.Count, &rec.SourceFrames, &rec.ProcessingSeconds)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	byID, err := r.detections(`WHERE record_id = ?`, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Detections = byID[rec.ID]
	return rec, nil
}

// List retrieves all records in insertion order.
func (r *RecordRepository) List() ([]*Record, error) {
	rows, err := r.db.Query(
		`SELECT seq, id, kind, source, status, created_at, count, source_frames, processing_seconds
		 FROM records ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		err := rows.Scan(&rec.Seq, &rec.ID, &rec.Kind, &rec.Source, &rec.Status, &rec.CreatedAt,
			&rec.Count, &rec.SourceFrames, &rec.ProcessingSeconds)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	byID, err := r.detections("")
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		rec.Detections = byID[rec.ID]
	}

	return records, nil
}

// detections loads detection rows grouped by record, optionally narrowed
// by a WHERE clause.
func (r *RecordRepository) detections(where string, args ...any) (map[string][]Detection, error) {
	rows, err := r.db.Query(
		`SELECT record_id, class_id, label, confidence FROM record_detections `+where+` ORDER BY id ASC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string][]Detection)
	for rows.Next() {
		var id string
		var d Detection
		if err := rows.Scan(&id, &d.ClassID, &d.Label, &d.Confidence); err != nil {
			return nil, err
		}
		byID[id] = append(byID[id], d)
	}
	return byID, rows.Err()
}

// Count returns the number of stored records.
func (r *RecordRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

// DeleteAll removes every record and returns how many were removed.
// Detections follow through the cascading foreign key.
func (r *RecordRepository) DeleteAll() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM records`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
