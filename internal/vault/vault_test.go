package vault

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"shard-go/internal/shard"
)

// vaultContract exercises the behaviour every Vault implementation shares.
func vaultContract(t *testing.T, newVault func(t *testing.T) shard.Vault) {
	ctx := context.Background()

	t.Run("put and get", func(t *testing.T) {
		v := newVault(t)
		tests := []struct {
			kind    shard.ArtifactKind
			name    string
			content string
		}{
			{shard.KindBlob, "report", "ciphertext bytes"},
			{shard.KindFragments, "report", "(1,5)\n(2,15)\n"},
			{shard.KindBlob, "empty", ""},
			{shard.KindBlob, "large", strings.Repeat("x", 100000)},
		}
		for _, tt := range tests {
			if err := v.Put(ctx, tt.kind, tt.name, strings.NewReader(tt.content), int64(len(tt.content))); err != nil {
				t.Fatalf("Put(%s, %s) error = %v", tt.kind, tt.name, err)
			}
			var buf bytes.Buffer
			if err := v.Get(ctx, tt.kind, tt.name, &buf); err != nil {
				t.Fatalf("Get(%s, %s) error = %v", tt.kind, tt.name, err)
			}
			if buf.String() != tt.content {
				t.Errorf("Get(%s, %s) = %.20q, want %.20q", tt.kind, tt.name, buf.String(), tt.content)
			}
		}
	})

	t.Run("put never overwrites", func(t *testing.T) {
		v := newVault(t)
		if err := v.Put(ctx, shard.KindBlob, "dup", strings.NewReader("first"), 5); err != nil {
			t.Fatalf("first Put() error = %v", err)
		}
		err := v.Put(ctx, shard.KindBlob, "dup", strings.NewReader("second"), 6)
		if !errors.Is(err, shard.ErrExists) {
			t.Fatalf("second Put() error = %v, want ErrExists", err)
		}

		var buf bytes.Buffer
		if err := v.Get(ctx, shard.KindBlob, "dup", &buf); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if buf.String() != "first" {
			t.Errorf("content = %q, want %q", buf.String(), "first")
		}
	})

	t.Run("kinds are separate", func(t *testing.T) {
		v := newVault(t)
		if err := v.Put(ctx, shard.KindBlob, "same", strings.NewReader("blob"), 4); err != nil {
			t.Fatalf("Put(blob) error = %v", err)
		}
		ok, err := v.Exists(ctx, shard.KindFragments, "same")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if ok {
			t.Error("Exists(fragments) = true after storing only the blob")
		}
		if err := v.Put(ctx, shard.KindFragments, "same", strings.NewReader("frg"), 3); err != nil {
			t.Errorf("Put(fragments) error = %v", err)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		v := newVault(t)
		if err := v.Put(ctx, shard.KindBlob, "short", strings.NewReader("hello"), 100); err == nil {
			t.Fatal("Put() expected size mismatch error")
		}
		ok, err := v.Exists(ctx, shard.KindBlob, "short")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if ok {
			t.Error("artifact stored despite size mismatch")
		}
	})

	t.Run("get missing", func(t *testing.T) {
		v := newVault(t)
		var buf bytes.Buffer
		err := v.Get(ctx, shard.KindFragments, "missing", &buf)
		if !errors.Is(err, shard.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("exists and delete", func(t *testing.T) {
		v := newVault(t)
		if err := v.Put(ctx, shard.KindBlob, "gone", strings.NewReader("x"), 1); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		ok, err := v.Exists(ctx, shard.KindBlob, "gone")
		if err != nil || !ok {
			t.Fatalf("Exists() = %v, %v; want true, nil", ok, err)
		}
		if err := v.Delete(ctx, shard.KindBlob, "gone"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		ok, err = v.Exists(ctx, shard.KindBlob, "gone")
		if err != nil || ok {
			t.Fatalf("Exists() after Delete = %v, %v; want false, nil", ok, err)
		}
		if err := v.Delete(ctx, shard.KindBlob, "gone"); err != nil {
			t.Errorf("second Delete() error = %v", err)
		}
		if err := v.Put(ctx, shard.KindBlob, "gone", strings.NewReader("y"), 1); err != nil {
			t.Errorf("Put() after Delete error = %v", err)
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		if err := newVault(t).ValidateSetup(ctx); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}

func TestMemoryVault(t *testing.T) {
	vaultContract(t, func(t *testing.T) shard.Vault {
		return NewMemoryVault("test-vault")
	})
}

func TestFileSystemVault(t *testing.T) {
	vaultContract(t, func(t *testing.T) shard.Vault {
		v, err := NewFileSystemVault("test", t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}
		return v
	})
}

func TestS3Vault(t *testing.T) {
	vaultContract(t, func(t *testing.T) shard.Vault {
		return NewS3VaultWithClient("test", "bucket", "prefix", newFakeS3())
	})
}
