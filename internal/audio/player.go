package audio

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/chime/internal/logger"
)

var (
	lookPathFunc    = exec.LookPath
	findProcessFunc = ps.FindProcess
)

// candidates are tried in order when no player command is configured
var candidates = []string{"ffplay", "afplay", "paplay", "mpv"}

// CommandPlayer plays files by spawning an external player process.
//
// Command may name a player binary ("ffplay") or a full command line with
// {path} and {volume} placeholders ("mpg123 -q -f {volume} {path}"). When
// the template has no {path} placeholder the file is appended
type CommandPlayer struct {
	Command string

	mu        sync.Mutex
	cmd       *exec.Cmd
	done      chan struct{}
	path      string
	volume    int
	startedAt time.Time
}

// NewCommandPlayer returns a player using command, or the first available
// candidate when command is empty
func NewCommandPlayer(command string) *CommandPlayer {
	return &CommandPlayer{Command: command}
}

func (p *CommandPlayer) resolve() (string, error) {
	if p.Command != "" {
		return p.Command, nil
	}
	for _, c := range candidates {
		if _, err := lookPathFunc(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w (tried %s)", ErrNoPlayer, strings.Join(candidates, ", "))
}

// Available returns the player binary that Play would run, or an error when
// it cannot be found on PATH
func (p *CommandPlayer) Available() (string, error) {
	command, err := p.resolve()
	if err != nil {
		return "", err
	}
	bin := strings.Fields(command)[0]
	path, err := lookPathFunc(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoPlayer, bin)
	}
	return path, nil
}

// buildArgs returns the argv for playing path at volume (0-100)
func buildArgs(command, path string, volume int) []string {
	fields := strings.Fields(command)
	if len(fields) == 1 {
		switch filepath.Base(fields[0]) {
		case "ffplay":
			return append(fields, "-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", strconv.Itoa(volume), path)
		case "afplay":
			return append(fields, "-v", strconv.FormatFloat(float64(volume)/100, 'f', 2, 64), path)
		case "paplay":
			return append(fields, "--volume="+strconv.Itoa(volume*65536/100), path)
		case "mpv":
			return append(fields, "--no-video", "--really-quiet", "--volume="+strconv.Itoa(volume), path)
		}
	}

	hasPath := false
	args := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if strings.Contains(f, "{path}") {
			hasPath = true
		}
		f = strings.ReplaceAll(f, "{path}", path)
		f = strings.ReplaceAll(f, "{volume}", strconv.Itoa(volume))
		args = append(args, f)
	}
	if !hasPath {
		args = append(args, path)
	}
	return args
}

// Play stops any current playback and starts path at volume. It returns once
// the player process has started
func (p *CommandPlayer) Play(ctx context.Context, path string, volume int) error {
	if err := p.Stop(ctx); err != nil {
		return err
	}

	command, err := p.resolve()
	if err != nil {
		return err
	}
	args := buildArgs(command, path, volume)

	// not bound to ctx: playback outlives the request that started it
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start player %s: %w", args[0], err)
	}
	logger.Debug("Audio playback started", "player", args[0], "path", path, "volume", volume, "pid", cmd.Process.Pid)

	done := make(chan struct{})
	p.mu.Lock()
	p.cmd = cmd
	p.done = done
	p.path = path
	p.volume = volume
	p.startedAt = time.Now()
	p.mu.Unlock()

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
			p.done = nil
		}
		p.mu.Unlock()
		close(done)
		logger.Debug("Audio playback finished", "pid", cmd.Process.Pid, "err", err)
	}()
	return nil
}

// Stop kills the current player process, if any, and waits for it to exit
func (p *CommandPlayer) Stop(ctx context.Context) error {
	p.mu.Lock()
	cmd, done := p.cmd, p.done
	p.mu.Unlock()
	if cmd == nil {
		return nil
	}

	if err := cmd.Process.Kill(); err != nil && p.alive(cmd.Process.Pid) {
		return fmt.Errorf("failed to stop player: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the current playback ends or ctx is done
func (p *CommandPlayer) Wait(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *CommandPlayer) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || !p.alive(p.cmd.Process.Pid) {
		return Status{}
	}
	return Status{Playing: true, Path: p.path, Volume: p.volume, StartedAt: p.startedAt}
}

func (p *CommandPlayer) alive(pid int) bool {
	proc, err := findProcessFunc(pid)
	return err == nil && proc != nil
}
