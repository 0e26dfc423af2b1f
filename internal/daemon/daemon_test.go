package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ps "github.com/mitchellh/go-ps"
)

// Mock Process
type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int {
	return m.pid
}

func (m *mockProcess) PPid() int {
	return 0
}

func (m *mockProcess) Executable() string {
	return m.executable
}

func withProcess(t *testing.T, executable string) {
	t.Helper()
	oldFindProcessFunc := findProcessFunc
	t.Cleanup(func() { findProcessFunc = oldFindProcessFunc })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestWriteAndDiscover(t *testing.T) {
	withProcess(t, "chime")
	path := LockfilePath(t.TempDir())

	written, err := WriteLock(path, "127.0.0.1:7845")
	if err != nil {
		t.Fatalf("WriteLock failed: %v", err)
	}
	if written.Secret == "" || written.PID != os.Getpid() {
		t.Errorf("unexpected lock %+v", written)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected lockfile mode 0600, got %v", info.Mode().Perm())
	}

	found, err := Discover(path)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if found != written {
		t.Errorf("Discover() = %+v, want %+v", found, written)
	}
	if found.URL() != "http://127.0.0.1:7845" {
		t.Errorf("unexpected URL %s", found.URL())
	}
}

func TestDiscoverInvalidLockfiles(t *testing.T) {
	withProcess(t, "chime")
	lockfilePath := filepath.Join(t.TempDir(), "chime.lock")

	if _, err := Discover(lockfilePath); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning for missing lockfile, got %v", err)
	}

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"two parts", "127.0.0.1:8080|12345", "malformed"},
		{"garbage", "invalid", "malformed"},
		{"empty secret", "127.0.0.1:8080|12345|", "secret"},
		{"no port", "127.0.0.1|12345|s3cret", "address"},
		{"port out of range", "127.0.0.1:99999|12345|s3cret", "range"},
		{"bad pid", "127.0.0.1:8080|abc|s3cret", "process ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(lockfilePath, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Discover(lockfilePath)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error about %s, got: %v", tt.want, err)
			}
		})
	}
}

func TestDiscoverProcessChecks(t *testing.T) {
	lockfilePath := filepath.Join(t.TempDir(), "chime.lock")
	if err := os.WriteFile(lockfilePath, []byte("127.0.0.1:8080|12345|s3cret"), 0600); err != nil {
		t.Fatal(err)
	}

	withProcess(t, "")
	if _, err := Discover(lockfilePath); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning for dead process, got %v", err)
	}

	withProcess(t, "other-app")
	if _, err := Discover(lockfilePath); err == nil {
		t.Error("expected error for wrong executable")
	}

	withProcess(t, "chime")
	lock, err := Discover(lockfilePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lock.Addr != "127.0.0.1:8080" || lock.PID != 12345 || lock.Secret != "s3cret" {
		t.Errorf("unexpected lock %+v", lock)
	}
}

func TestRemoveLock(t *testing.T) {
	path := LockfilePath(t.TempDir())

	// someone else's lockfile is left alone
	if err := os.WriteFile(path, []byte("127.0.0.1:8080|1|s3cret"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := RemoveLock(path); err != nil {
		t.Fatalf("RemoveLock failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("lockfile of another process should be kept")
	}

	if _, err := WriteLock(path, "127.0.0.1:8080"); err != nil {
		t.Fatal(err)
	}
	if err := RemoveLock(path); err != nil {
		t.Fatalf("RemoveLock failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("own lockfile should be removed")
	}

	if err := RemoveLock(path); err != nil {
		t.Errorf("removing a missing lockfile should succeed, got %v", err)
	}
}
