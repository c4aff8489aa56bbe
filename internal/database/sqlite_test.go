package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"shard-go/internal/shard"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(time.Second)
	return t
}

type seqIDs struct {
	n int
}

func (g *seqIDs) New() string {
	g.n++
	return fmt.Sprintf("op-%d", g.n)
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestLedger creates an in-memory ledger with the schema applied.
func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()

	l, err := NewSQLiteLedger(":memory:", &stepClock{now: epoch}, &seqIDs{})
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	if err := l.Migrate(); err != nil {
		l.Close()
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestSQLiteLedger_StartOperation(t *testing.T) {
	l := newTestLedger(t)

	op, err := l.StartOperation(shard.OpEncrypt, "payroll", shard.OperationParams{Shares: 5, Threshold: 3})
	if err != nil {
		t.Fatalf("StartOperation() error = %v", err)
	}
	if op.ID == 0 {
		t.Error("StartOperation() did not set ID")
	}
	if op.OperationID != "op-1" {
		t.Errorf("OperationID = %q, want %q", op.OperationID, "op-1")
	}
	if op.Status != shard.StatusRunning {
		t.Errorf("Status = %q, want %q", op.Status, shard.StatusRunning)
	}
	if !op.StartedAt.Equal(epoch) {
		t.Errorf("StartedAt = %v, want %v", op.StartedAt, epoch)
	}

	ops, err := l.ListOperations(10)
	if err != nil {
		t.Fatalf("ListOperations() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("ListOperations() returned %d operations, want 1", len(ops))
	}
	got := ops[0]
	if got.Kind != shard.OpEncrypt || got.ShareSet != "payroll" || got.Shares != 5 || got.Threshold != 3 {
		t.Errorf("stored operation = %+v", got)
	}
	if got.FinishedAt != nil {
		t.Errorf("FinishedAt = %v, want nil for a running operation", got.FinishedAt)
	}
}

func TestSQLiteLedger_FinishOperation(t *testing.T) {
	t.Run("records status and error", func(t *testing.T) {
		l := newTestLedger(t)

		op, err := l.StartOperation(shard.OpDecrypt, "payroll", shard.OperationParams{})
		if err != nil {
			t.Fatalf("StartOperation() error = %v", err)
		}
		if err := l.FinishOperation(op.ID, shard.StatusError, "crypto failure", shard.OperationParams{}); err != nil {
			t.Fatalf("FinishOperation() error = %v", err)
		}

		ops, err := l.ListOperations(1)
		if err != nil {
			t.Fatalf("ListOperations() error = %v", err)
		}
		got := ops[0]
		if got.Status != shard.StatusError {
			t.Errorf("Status = %q, want %q", got.Status, shard.StatusError)
		}
		if got.Error != "crypto failure" {
			t.Errorf("Error = %q, want %q", got.Error, "crypto failure")
		}
		if got.FinishedAt == nil {
			t.Fatal("FinishedAt not set")
		}
		if want := epoch.Add(time.Second); !got.FinishedAt.Equal(want) {
			t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, want)
		}
	})

	t.Run("records final parameters", func(t *testing.T) {
		l := newTestLedger(t)

		op, err := l.StartOperation(shard.OpExport, "payroll", shard.OperationParams{})
		if err != nil {
			t.Fatalf("StartOperation() error = %v", err)
		}
		if err := l.FinishOperation(op.ID, shard.StatusSuccess, "", shard.OperationParams{Shares: 7}); err != nil {
			t.Fatalf("FinishOperation() error = %v", err)
		}

		ops, err := l.ListOperations(1)
		if err != nil {
			t.Fatalf("ListOperations() error = %v", err)
		}
		if ops[0].Shares != 7 || ops[0].Threshold != 0 {
			t.Errorf("params = shares %d, threshold %d; want 7, 0", ops[0].Shares, ops[0].Threshold)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		l := newTestLedger(t)

		err := l.FinishOperation(42, shard.StatusSuccess, "", shard.OperationParams{})
		if !errors.Is(err, shard.ErrNotFound) {
			t.Errorf("FinishOperation() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteLedger_ListOperations(t *testing.T) {
	l := newTestLedger(t)

	for _, name := range []string{"a", "b", "c"} {
		if _, err := l.StartOperation(shard.OpEncrypt, name, shard.OperationParams{Shares: 3, Threshold: 3}); err != nil {
			t.Fatalf("StartOperation(%s) error = %v", name, err)
		}
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 2, want: []string{"c", "b"}},
		{limit: 0, want: []string{"c", "b", "a"}},
		{limit: 10, want: []string{"c", "b", "a"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit %d", tt.limit), func(t *testing.T) {
			ops, err := l.ListOperations(tt.limit)
			if err != nil {
				t.Fatalf("ListOperations() error = %v", err)
			}
			if len(ops) != len(tt.want) {
				t.Fatalf("ListOperations() returned %d, want %d", len(ops), len(tt.want))
			}
			for i, op := range ops {
				if op.ShareSet != tt.want[i] {
					t.Errorf("ops[%d].ShareSet = %q, want %q", i, op.ShareSet, tt.want[i])
				}
			}
		})
	}
}

func TestSQLiteLedger_CheckMigrations(t *testing.T) {
	l, err := NewSQLiteLedger(":memory:", nil, nil)
	if err != nil {
		t.Fatalf("NewSQLiteLedger() error = %v", err)
	}
	defer l.Close()

	if err := l.CheckMigrations(); err == nil {
		t.Error("CheckMigrations() on a fresh database should fail")
	}
	if err := l.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := l.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() after Migrate() error = %v", err)
	}
}

func TestSQLiteLedger_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := NewSQLiteLedger(path, &stepClock{now: epoch}, &seqIDs{})
	if err != nil {
		t.Fatalf("NewSQLiteLedger() error = %v", err)
	}
	if err := l.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if _, err := l.StartOperation(shard.OpExport, "vault", shard.OperationParams{}); err != nil {
		t.Fatalf("StartOperation() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	l, err = NewSQLiteLedger(path, nil, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer l.Close()

	if l.Path() != path {
		t.Errorf("Path() = %q, want %q", l.Path(), path)
	}
	ops, err := l.ListOperations(0)
	if err != nil {
		t.Fatalf("ListOperations() error = %v", err)
	}
	if len(ops) != 1 || ops[0].Kind != shard.OpExport {
		t.Errorf("ListOperations() after reopen = %+v", ops)
	}
}
