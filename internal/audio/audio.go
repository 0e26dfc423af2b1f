// Package audio plays reminder sounds through an external player process
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/chime/internal/constants"
)

var (
	ErrFileNotFound         = errors.New("audio file not found")
	ErrNotRegularFile       = errors.New("audio path is not a regular file")
	ErrFileTooLarge         = errors.New("audio file is too large")
	ErrUnsupportedExtension = errors.New("unsupported audio file extension")
	ErrNoPlayer             = errors.New("no audio player found")
)

// Status describes the current playback
type Status struct {
	Playing   bool      `json:"playing"`
	Path      string    `json:"path,omitempty"`
	Volume    int       `json:"volume,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// Player starts and stops audio playback. Play replaces whatever is playing
type Player interface {
	Play(ctx context.Context, path string, volume int) error
	Stop(ctx context.Context) error
	Status() Status
}

// ValidateFile checks that path names a readable audio file of a supported type
func ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to stat audio file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	if info.Size() > constants.MaxAudioFileBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, info.Size(), constants.MaxAudioFileBytes)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !slices.Contains(constants.SupportedAudioExtensions, ext) {
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedExtension, ext,
			strings.Join(constants.SupportedAudioExtensions, ", "))
	}
	return nil
}
