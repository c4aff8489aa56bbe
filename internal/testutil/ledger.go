package testutil

import (
	"testing"

	"shard-go/internal/database"
)

// NewTestLedger creates an in-memory SQLite ledger with the schema applied,
// a fixed clock and sequential operation IDs. It is closed when the test
// completes.
func NewTestLedger(t *testing.T) *database.SQLiteLedger {
	t.Helper()

	l, err := database.NewSQLiteLedger(":memory:", FixedClock(), NewStubIDGenerator())
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	if err := l.Migrate(); err != nil {
		l.Close()
		t.Fatalf("failed to migrate ledger: %v", err)
	}

	t.Cleanup(func() {
		l.Close()
	})
	return l
}
