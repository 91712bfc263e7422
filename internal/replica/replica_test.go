package replica

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apikeep/internal/config"
)

func TestMemoryReplica(t *testing.T) {
	t.Run("put and get round trip", func(t *testing.T) {
		r := NewMemoryReplica("test")

		data := []byte("archive bytes")
		if err := r.Put("snap.tar.gz", bytes.NewReader(data), int64(len(data))); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		var out bytes.Buffer
		if err := r.Get("snap.tar.gz", &out); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !bytes.Equal(out.Bytes(), data) {
			t.Errorf("Get() = %q, want %q", out.Bytes(), data)
		}
	})

	t.Run("size mismatch rejects the upload", func(t *testing.T) {
		r := NewMemoryReplica("test")
		err := r.Put("snap.tar.gz", strings.NewReader("short"), 100)
		if err == nil {
			t.Fatal("Put() with wrong size succeeded, want error")
		}
		if len(r.Names()) != 0 {
			t.Errorf("names = %v, want empty after rejected upload", r.Names())
		}
	})

	t.Run("get of unknown name fails", func(t *testing.T) {
		r := NewMemoryReplica("test")
		if err := r.Get("ghost.tar.gz", &bytes.Buffer{}); err == nil {
			t.Error("Get() of unknown archive succeeded, want error")
		}
	})
}

func TestFileSystemReplica(t *testing.T) {
	t.Run("put and get round trip", func(t *testing.T) {
		r, err := NewFileSystemReplica("test", filepath.Join(t.TempDir(), "offsite"))
		if err != nil {
			t.Fatalf("NewFileSystemReplica() error = %v", err)
		}
		if err := r.ValidateSetup(); err != nil {
			t.Fatalf("ValidateSetup() error = %v", err)
		}

		data := []byte("archive bytes")
		if err := r.Put("snap.tar.gz", bytes.NewReader(data), int64(len(data))); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		var out bytes.Buffer
		if err := r.Get("snap.tar.gz", &out); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !bytes.Equal(out.Bytes(), data) {
			t.Errorf("Get() = %q, want %q", out.Bytes(), data)
		}
	})

	t.Run("size mismatch leaves no file behind", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "offsite")
		r, err := NewFileSystemReplica("test", root)
		if err != nil {
			t.Fatal(err)
		}

		if err := r.Put("snap.tar.gz", strings.NewReader("short"), 100); err == nil {
			t.Fatal("Put() with wrong size succeeded, want error")
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("replica root has %d entries after failed upload, want 0", len(entries))
		}
	})
}

func TestNewReplicaFromConfig(t *testing.T) {
	t.Run("none and empty yield no replica", func(t *testing.T) {
		for _, typ := range []string{"", "none"} {
			r, err := NewReplicaFromConfig(config.ReplicaConfig{Type: typ})
			if err != nil {
				t.Fatalf("NewReplicaFromConfig(%q) error = %v", typ, err)
			}
			if r != nil {
				t.Errorf("NewReplicaFromConfig(%q) = %v, want nil", typ, r)
			}
		}
	})

	t.Run("filesystem requires a root", func(t *testing.T) {
		if _, err := NewReplicaFromConfig(config.ReplicaConfig{Type: "filesystem"}); err == nil {
			t.Error("NewReplicaFromConfig(filesystem) without fs_root succeeded, want error")
		}

		r, err := NewReplicaFromConfig(config.ReplicaConfig{Type: "filesystem", FSRoot: t.TempDir()})
		if err != nil {
			t.Fatalf("NewReplicaFromConfig(filesystem) error = %v", err)
		}
		if _, ok := r.(*FileSystemReplica); !ok {
			t.Errorf("replica type = %T, want *FileSystemReplica", r)
		}
	})

	t.Run("unknown type fails", func(t *testing.T) {
		if _, err := NewReplicaFromConfig(config.ReplicaConfig{Type: "carrier-pigeon"}); err == nil {
			t.Error("NewReplicaFromConfig(unknown) succeeded, want error")
		}
	})
}
