package vault

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shard-go/internal/shard"
)

func TestNewFileSystemVault(t *testing.T) {
	t.Run("creates directory structure", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "vault")

		v, err := NewFileSystemVault("test", root)
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}

		for _, dir := range []string{"blobs", "fragments"} {
			if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
				t.Errorf("%s directory not created: %v", dir, err)
			}
		}
		if v.name != "test" {
			t.Errorf("name = %q, want %q", v.name, "test")
		}
	})

	t.Run("works with existing directory", func(t *testing.T) {
		if _, err := NewFileSystemVault("test", t.TempDir()); err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}
	})
}

func TestFileSystemVault_Layout(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	ctx := context.Background()

	if err := v.Put(ctx, shard.KindBlob, "notes", strings.NewReader("blob"), 4); err != nil {
		t.Fatalf("Put(blob) error = %v", err)
	}
	if err := v.Put(ctx, shard.KindFragments, "notes", strings.NewReader("(1,2)\n"), 6); err != nil {
		t.Fatalf("Put(fragments) error = %v", err)
	}

	want := map[string]string{
		filepath.Join(root, "blobs", "notes.aes"):     "blob",
		filepath.Join(root, "fragments", "notes.frg"): "(1,2)\n",
	}
	for path, content := range want {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("reading %s: %v", path, err)
			continue
		}
		if string(data) != content {
			t.Errorf("%s = %q, want %q", path, data, content)
		}
	}
}

func TestFileSystemVault_NoTempFilesLeft(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	ctx := context.Background()

	_ = v.Put(ctx, shard.KindBlob, "ok", strings.NewReader("data"), 4)
	_ = v.Put(ctx, shard.KindBlob, "bad", strings.NewReader("data"), 99)
	_ = v.Put(ctx, shard.KindBlob, "ok", strings.NewReader("data"), 4)

	entries, err := os.ReadDir(filepath.Join(root, "blobs"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "ok.aes" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("blobs dir = %v, want [ok.aes]", names)
	}
}

func TestFileSystemVault_ValidateSetup(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	if err := os.RemoveAll(filepath.Join(root, "fragments")); err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateSetup(context.Background()); err == nil {
		t.Error("ValidateSetup() expected error with missing fragments directory")
	}
}
