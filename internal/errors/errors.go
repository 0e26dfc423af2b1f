// Package errors holds the failure taxonomy of the chime stores and the
// helpers the CLI uses to report errors
package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/chime/internal/logger"
)

// Kind classifies a failure reported by a store operation
type Kind int

const (
	// LoadFailure is a failed read (schedule list, settings). Prior state is kept
	LoadFailure Kind = iota + 1
	// WriteFailure is a failed create/update/delete/toggle/settings update.
	// State is untouched or rolled back
	WriteFailure
	// PlaybackFailure is a failed test playback start or stop.
	// The test-playback state is reset to idle
	PlaybackFailure
)

func (k Kind) String() string {
	switch k {
	case LoadFailure:
		return "load"
	case WriteFailure:
		return "write"
	case PlaybackFailure:
		return "playback"
	default:
		return "unknown"
	}
}

// Failure is the error returned by store operations. Message is the short
// human-readable text recorded into the store's error field
type Failure struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Message
	}
	return fmt.Sprintf("%s: %v", f.Message, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Load returns a LoadFailure for op
func Load(op, message string, err error) *Failure {
	return &Failure{Kind: LoadFailure, Op: op, Message: message, Err: err}
}

// Write returns a WriteFailure for op
func Write(op, message string, err error) *Failure {
	return &Failure{Kind: WriteFailure, Op: op, Message: message, Err: err}
}

// Playback returns a PlaybackFailure for op
func Playback(op, message string, err error) *Failure {
	return &Failure{Kind: PlaybackFailure, Op: op, Message: message, Err: err}
}

// IsKind reports whether err wraps a Failure of the given kind
func IsKind(err error, kind Kind) bool {
	var f *Failure
	if stderrors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs err, prints it to stderr and exits with status 1. A nil err is
// a no-op
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
