// Package journal records report exports in SQLite.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"plate-go/internal/journal/migrations"
	"plate-go/internal/plate"
)

const exportColumns = `id, date, archive_key, checksum, size, encrypted, total_calories, entry_count, created_at`

// SQLiteJournal implements plate.Journal on SQLite.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

var _ plate.Journal = (*SQLiteJournal)(nil)

// NewSQLiteJournal opens the journal at path and migrates it to the latest
// schema. path can be a file path or ":memory:".
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	return &SQLiteJournal{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return db, nil
}

// RecordExport inserts rec.
func (j *SQLiteJournal) RecordExport(rec *plate.ExportRecord) error {
	_, err := j.db.Exec(
		`INSERT INTO exports (`+exportColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Date, rec.ArchiveKey, rec.Checksum, rec.Size,
		rec.Encrypted, rec.TotalCalories, rec.EntryCount, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting export %s: %w", rec.ID, err)
	}
	return nil
}

// ListExports returns up to limit exports, newest first. limit <= 0 lists all.
func (j *SQLiteJournal) ListExports(limit int) ([]*plate.ExportRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(
		`SELECT `+exportColumns+` FROM exports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	defer rows.Close()

	var out []*plate.ExportRecord
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	return out, nil
}

// LatestExportForDate returns the newest export of date, or nil if none exists.
func (j *SQLiteJournal) LatestExportForDate(date string) (*plate.ExportRecord, error) {
	row := j.db.QueryRow(
		`SELECT `+exportColumns+` FROM exports WHERE date = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, date)
	rec, err := scanExport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// CheckMigrations returns an error if the schema is not at the latest version.
func (j *SQLiteJournal) CheckMigrations() error {
	return migrations.CheckStatus(j.db)
}

// Close closes the underlying connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(s scanner) (*plate.ExportRecord, error) {
	var (
		rec       plate.ExportRecord
		createdAt int64
	)
	err := s.Scan(&rec.ID, &rec.Date, &rec.ArchiveKey, &rec.Checksum, &rec.Size,
		&rec.Encrypted, &rec.TotalCalories, &rec.EntryCount, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning export: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &rec, nil
}
