// Package daemon records and discovers a running "chime serve" process
// through a lockfile holding its address, pid and request secret
package daemon

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/chime/internal/constants"
)

var (
	ErrNotRunning = errors.New("chime daemon is not running")
	ErrMalformed  = errors.New("lockfile is malformed")
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// Lock describes a running daemon
type Lock struct {
	Addr   string
	PID    int
	Secret string
}

// URL returns the daemon's base URL
func (l Lock) URL() string {
	return "http://" + l.Addr
}

// LockfilePath returns the lockfile location inside configDir
func LockfilePath(configDir string) string {
	return filepath.Join(configDir, constants.LockfileName)
}

// WriteLock records the current process as the daemon listening on addr.
// A fresh secret is generated each time
func WriteLock(path, addr string) (Lock, error) {
	lock := Lock{
		Addr:   addr,
		PID:    getpidFunc(),
		Secret: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return Lock{}, fmt.Errorf("failed to create lockfile directory: %w", err)
	}
	content := fmt.Sprintf("%s|%d|%s", lock.Addr, lock.PID, lock.Secret)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return Lock{}, fmt.Errorf("failed to write lockfile: %w", err)
	}
	return lock, nil
}

// RemoveLock deletes the lockfile if it still belongs to this process
func RemoveLock(path string) error {
	lock, err := readLock(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if lock.PID != getpidFunc() {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

// Discover reads the lockfile and checks that its process is a live chime
func Discover(path string) (Lock, error) {
	lock, err := readLock(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Lock{}, ErrNotRunning
		}
		return Lock{}, err
	}

	process, err := findProcessFunc(lock.PID)
	if err != nil || process == nil {
		return Lock{}, fmt.Errorf("%w (stale lockfile for pid %d)", ErrNotRunning, lock.PID)
	}

	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return Lock{}, fmt.Errorf("process with PID %d is not %s (is %s)", lock.PID, constants.AppName, process.Executable())
	}

	return lock, nil
}

func readLock(path string) (Lock, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Lock{}, err
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return Lock{}, ErrMalformed
	}

	addr := parts[0]
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return Lock{}, fmt.Errorf("%w: invalid address %q", ErrMalformed, addr)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return Lock{}, fmt.Errorf("%w: invalid port number", ErrMalformed)
	}
	if portNum < 1 || portNum > 65535 {
		return Lock{}, fmt.Errorf("%w: port number %d is outside valid range (1-65535)", ErrMalformed, portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return Lock{}, fmt.Errorf("%w: invalid process ID", ErrMalformed)
	}

	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return Lock{}, fmt.Errorf("%w: secret is empty", ErrMalformed)
	}

	return Lock{Addr: addr, PID: pid, Secret: secret}, nil
}
