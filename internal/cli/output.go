package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tbourn/go-gift-exchange/internal/services"
)

// Exit codes for CLI commands.
const (
	ExitSuccess     = 0
	ExitFailure     = 1 // runtime failure (database unreachable, server error)
	ExitConfigError = 2 // invalid flags, environment, or env file
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// writeStatus renders st as indented JSON or as aligned text lines.
func writeStatus(w io.Writer, format string, st *services.SchedulerStatus) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	ranAt := "-"
	if st.RanAt != nil {
		ranAt = st.RanAt.UTC().Format(time.RFC3339)
	}
	lastErr := st.LastError
	if lastErr == "" {
		lastErr = "-"
	}
	_, err := fmt.Fprintf(w,
		"state:        %s\ndeadline:     %s\nhas_run:      %t\nran_at:       %s\nparticipants: %d drawn / %d registered\nattempts:     %d\nlast_error:   %s\n",
		st.State, st.Deadline.UTC().Format(time.RFC3339), st.HasRun, ranAt,
		st.ParticipantCount, st.Registered, st.Attempts, lastErr)
	return err
}
