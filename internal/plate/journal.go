package plate

import "time"

// ExportRecord describes one exported day report.
type ExportRecord struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"` // YYYY-MM-DD
	ArchiveKey    string    `json:"archiveKey"`
	Checksum      string    `json:"checksum"` // SHA-256 of the stored bytes
	Size          int64     `json:"size"`
	Encrypted     bool      `json:"encrypted"`
	TotalCalories int       `json:"totalCalories"`
	EntryCount    int       `json:"entryCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Journal records exports so past reports can be listed and fetched.
type Journal interface {
	// RecordExport stores a new export record.
	RecordExport(rec *ExportRecord) error

	// ListExports returns the most recent exports, newest first.
	ListExports(limit int) ([]*ExportRecord, error)

	// LatestExportForDate returns the newest export of a day, or nil if there is none.
	LatestExportForDate(date string) (*ExportRecord, error)

	// CheckMigrations returns an error if the schema is not at the latest version.
	CheckMigrations() error

	// Close closes the journal.
	Close() error
}
