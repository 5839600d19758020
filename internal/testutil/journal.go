package testutil

import (
	"testing"

	"plate-go/internal/journal"
)

// NewTestJournal creates an in-memory SQLite journal with the schema applied.
// It is closed when the test completes.
func NewTestJournal(t *testing.T) *journal.SQLiteJournal {
	t.Helper()

	j, err := journal.NewSQLiteJournal(":memory:")
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() {
		j.Close()
	})
	return j
}
