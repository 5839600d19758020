package plate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"
)

// DayReport is the exported view of a session.
type DayReport struct {
	Date        string      `json:"date"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Goals       Goals       `json:"goals"`
	Entries     []FoodEntry `json:"entries"`
	Summary     Summary     `json:"summary"`
	Hydration   Hydration   `json:"hydration"`
}

// NewDayReport derives a report from s as of now.
func NewDayReport(s State, now time.Time) *DayReport {
	return &DayReport{
		Date:        now.Format(time.DateOnly),
		GeneratedAt: now.UTC(),
		Goals:       s.Goals,
		Entries:     s.Clone().Entries,
		Summary:     Summarize(s),
		Hydration:   s.Hydration,
	}
}

// ReportService exports day reports to an archive and records them in a journal.
type ReportService struct {
	journal   Journal
	archive   Archive
	encryptor Encryptor // nil stores reports in plaintext
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewReportService creates a ReportService. encryptor may be nil.
func NewReportService(journal Journal, archive Archive, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator) *ReportService {
	return &ReportService{
		journal:   journal,
		archive:   archive,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// archiveKey returns the object key of an export.
func archiveKey(date, id string, encrypted bool) string {
	name := id + ".json"
	if encrypted {
		name += ".age"
	}
	return path.Join("reports", date, name)
}

// Export stores report in the archive and then records it in the journal.
//
// The archive upload happens first: if recording fails the worst outcome is
// an orphaned object that no journal row points to.
func (s *ReportService) Export(ctx context.Context, report *DayReport) (*ExportRecord, error) {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}

	encrypted := s.encryptor != nil
	if encrypted {
		var buf bytes.Buffer
		if err := s.encryptor.Encrypt(bytes.NewReader(payload), &buf); err != nil {
			return nil, fmt.Errorf("encrypting report: %w", err)
		}
		payload = buf.Bytes()
	}

	sum := sha256.Sum256(payload)
	rec := &ExportRecord{
		ID:            s.idgen.New(),
		Date:          report.Date,
		Checksum:      hex.EncodeToString(sum[:]),
		Size:          int64(len(payload)),
		Encrypted:     encrypted,
		TotalCalories: report.Summary.TotalCalories,
		EntryCount:    len(report.Entries),
		CreatedAt:     s.clock.Now().UTC(),
	}
	rec.ArchiveKey = archiveKey(rec.Date, rec.ID, encrypted)

	if err := s.archive.Put(ctx, rec.ArchiveKey, bytes.NewReader(payload), rec.Size); err != nil {
		return nil, fmt.Errorf("uploading report: %w", err)
	}
	if err := s.journal.RecordExport(rec); err != nil {
		return nil, fmt.Errorf("recording export: %w", err)
	}

	s.logger.Info("report exported", "date", rec.Date, "key", rec.ArchiveKey, "size", rec.Size, "encrypted", encrypted)
	return rec, nil
}

// History returns the most recent exports, newest first.
func (s *ReportService) History(limit int) ([]*ExportRecord, error) {
	recs, err := s.journal.ListExports(limit)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	return recs, nil
}

// Fetch writes the latest report exported for date to w as JSON.
// dc is required when the export is encrypted.
func (s *ReportService) Fetch(ctx context.Context, date string, dc DecryptionContext, w io.Writer) (*ExportRecord, error) {
	rec, err := s.journal.LatestExportForDate(date)
	if err != nil {
		return nil, fmt.Errorf("finding export: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: no export for %s", ErrReportNotFound, date)
	}

	var buf bytes.Buffer
	if err := s.archive.Get(ctx, rec.ArchiveKey, &buf); err != nil {
		return nil, fmt.Errorf("downloading report: %w", err)
	}

	sum := sha256.Sum256(buf.Bytes())
	if got := hex.EncodeToString(sum[:]); got != rec.Checksum {
		return nil, fmt.Errorf("checksum mismatch for %s: got %s, want %s", rec.ArchiveKey, got, rec.Checksum)
	}

	if !rec.Encrypted {
		if _, err := io.Copy(w, &buf); err != nil {
			return nil, fmt.Errorf("writing report: %w", err)
		}
		return rec, nil
	}

	if dc == nil {
		return nil, fmt.Errorf("%w: report %s is encrypted", ErrPassphraseRequired, rec.ArchiveKey)
	}
	if err := dc.Decrypt(&buf, w); err != nil {
		return nil, fmt.Errorf("decrypting report: %w", err)
	}
	return rec, nil
}

// Encrypted reports whether exports are encrypted.
func (s *ReportService) Encrypted() bool {
	return s.encryptor != nil
}
