package journal

import (
	"path/filepath"
	"testing"
	"time"

	"plate-go/internal/plate"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteJournal() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func record(id, date string, created time.Time) *plate.ExportRecord {
	return &plate.ExportRecord{
		ID:            id,
		Date:          date,
		ArchiveKey:    "reports/" + date + "/" + id + ".json",
		Checksum:      "sum-" + id,
		Size:          42,
		Encrypted:     id == "b",
		TotalCalories: 365,
		EntryCount:    2,
		CreatedAt:     created,
	}
}

func TestSQLiteJournal_RecordAndList(t *testing.T) {
	j := newTestJournal(t)
	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	recs := []*plate.ExportRecord{
		record("a", "2024-01-14", base.Add(-24*time.Hour)),
		record("b", "2024-01-15", base),
		record("c", "2024-01-15", base.Add(time.Hour)),
	}
	for _, r := range recs {
		if err := j.RecordExport(r); err != nil {
			t.Fatalf("RecordExport(%s) error = %v", r.ID, err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := j.ListExports(0)
		if err != nil {
			t.Fatalf("ListExports() error = %v", err)
		}
		var ids []string
		for _, r := range got {
			ids = append(ids, r.ID)
		}
		if len(ids) != 3 || ids[0] != "c" || ids[1] != "b" || ids[2] != "a" {
			t.Errorf("ListExports() ids = %v, want [c b a]", ids)
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := j.ListExports(1)
		if err != nil {
			t.Fatalf("ListExports() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "c" {
			t.Errorf("ListExports(1) = %v", got)
		}
	})

	t.Run("fields survive", func(t *testing.T) {
		got, err := j.LatestExportForDate("2024-01-14")
		if err != nil {
			t.Fatalf("LatestExportForDate() error = %v", err)
		}
		want := recs[0]
		if got == nil || got.ID != want.ID || got.ArchiveKey != want.ArchiveKey ||
			got.Checksum != want.Checksum || got.Size != want.Size || got.Encrypted != want.Encrypted ||
			got.TotalCalories != want.TotalCalories || got.EntryCount != want.EntryCount ||
			!got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("LatestExportForDate() = %+v, want %+v", got, want)
		}
	})

	t.Run("latest of a day", func(t *testing.T) {
		got, err := j.LatestExportForDate("2024-01-15")
		if err != nil {
			t.Fatalf("LatestExportForDate() error = %v", err)
		}
		if got == nil || got.ID != "c" {
			t.Errorf("LatestExportForDate() = %+v, want c", got)
		}
	})

	t.Run("missing day", func(t *testing.T) {
		got, err := j.LatestExportForDate("2023-12-31")
		if err != nil || got != nil {
			t.Errorf("LatestExportForDate() = %+v, %v; want nil, nil", got, err)
		}
	})
}

func TestSQLiteJournal_DuplicateID(t *testing.T) {
	j := newTestJournal(t)
	r := record("a", "2024-01-15", time.Now())
	if err := j.RecordExport(r); err != nil {
		t.Fatalf("RecordExport() error = %v", err)
	}
	if err := j.RecordExport(r); err == nil {
		t.Error("RecordExport() with duplicate id expected error")
	}
}

func TestSQLiteJournal_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := NewSQLiteJournal(path)
	if err != nil {
		t.Fatalf("NewSQLiteJournal() error = %v", err)
	}
	if err := j.RecordExport(record("a", "2024-01-15", time.Now())); err != nil {
		t.Fatalf("RecordExport() error = %v", err)
	}
	j.Close()

	j, err = NewSQLiteJournal(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer j.Close()

	if err := j.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
	got, err := j.ListExports(10)
	if err != nil || len(got) != 1 {
		t.Errorf("ListExports() = %v, %v; want one record", got, err)
	}
}
