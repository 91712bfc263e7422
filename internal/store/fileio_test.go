package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAtomic(t *testing.T) {
	t.Run("writes content with requested permissions", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "record.json")

		if err := WriteAtomic(path, []byte("hello"), 0o600); err != nil {
			t.Fatalf("WriteAtomic() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading back: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("content = %q, want %q", data, "hello")
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("permissions = %o, want %o", perm, 0o600)
		}
	})

	t.Run("replaces existing content completely", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "record.json")

		if err := WriteAtomic(path, []byte("first version, quite long"), 0o600); err != nil {
			t.Fatalf("WriteAtomic() error = %v", err)
		}
		if err := WriteAtomic(path, []byte("second"), 0o600); err != nil {
			t.Fatalf("WriteAtomic() error = %v", err)
		}

		data, _ := os.ReadFile(path)
		if string(data) != "second" {
			t.Errorf("content = %q, want %q", data, "second")
		}
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "record.json")

		if err := WriteAtomic(path, []byte("data"), 0o600); err != nil {
			t.Fatalf("WriteAtomic() error = %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("reading dir: %v", err)
		}
		for _, e := range entries {
			if strings.Contains(e.Name(), ".tmp-") {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("failure leaves existing target untouched", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "record.json")
		if err := os.WriteFile(path, []byte("original"), 0o600); err != nil {
			t.Fatal(err)
		}

		// A directory at the target path makes the final rename fail.
		blocked := filepath.Join(dir, "blocked")
		if err := os.MkdirAll(filepath.Join(blocked, "sub"), 0o700); err != nil {
			t.Fatal(err)
		}
		err := WriteAtomic(blocked, []byte("new"), 0o600)
		if err == nil {
			t.Fatal("WriteAtomic() onto a non-empty directory succeeded, want error")
		}
		var ioErr *IOError
		if !errors.As(err, &ioErr) {
			t.Errorf("error type = %T, want *IOError", err)
		}

		data, _ := os.ReadFile(path)
		if string(data) != "original" {
			t.Errorf("unrelated file content = %q, want %q", data, "original")
		}
	})
}

func TestReadSafe(t *testing.T) {
	t.Run("returns fallback when file does not exist", func(t *testing.T) {
		fallback := []byte("default")
		data, err := ReadSafe(filepath.Join(t.TempDir(), "missing.json"), fallback)
		if err != nil {
			t.Fatalf("ReadSafe() error = %v", err)
		}
		if string(data) != "default" {
			t.Errorf("data = %q, want fallback %q", data, fallback)
		}
	})

	t.Run("returns nil fallback when file does not exist", func(t *testing.T) {
		data, err := ReadSafe(filepath.Join(t.TempDir(), "missing.json"), nil)
		if err != nil {
			t.Fatalf("ReadSafe() error = %v", err)
		}
		if data != nil {
			t.Errorf("data = %q, want nil", data)
		}
	})

	t.Run("returns content when file exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "present.json")
		if err := os.WriteFile(path, []byte("content"), 0o600); err != nil {
			t.Fatal(err)
		}
		data, err := ReadSafe(path, []byte("fallback"))
		if err != nil {
			t.Fatalf("ReadSafe() error = %v", err)
		}
		if string(data) != "content" {
			t.Errorf("data = %q, want %q", data, "content")
		}
	})

	t.Run("unreadable path is an IOError, not a fallback", func(t *testing.T) {
		// Reading a directory fails with something other than not-exist.
		_, err := ReadSafe(t.TempDir(), []byte("fallback"))
		if err == nil {
			t.Fatal("ReadSafe() on a directory succeeded, want error")
		}
		var ioErr *IOError
		if !errors.As(err, &ioErr) {
			t.Errorf("error type = %T, want *IOError", err)
		}
	})
}
