package logging

import (
	"fmt"
	"log/slog"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyFolderID  = "folder_id"
	KeyEntryID   = "entry_id"
	KeyBatchID   = "batch_id"
	KeyFileName  = "file_name"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// FolderID returns a slog attribute for a folder id.
func FolderID(id string) slog.Attr {
	return slog.String(KeyFolderID, id)
}

// EntryID returns a slog attribute for a directory entry id.
func EntryID(id string) slog.Attr {
	return slog.String(KeyEntryID, id)
}

// BatchID returns a slog attribute for an upload batch id.
func BatchID(id string) slog.Attr {
	return slog.String(KeyBatchID, id)
}

// FileName returns a slog attribute for a file name.
func FileName(name string) slog.Attr {
	return slog.String(KeyFileName, name)
}

// Duration returns a slog attribute for an operation duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		// Return an empty Group that slog will omit from output
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content,
// as even partial token prefixes can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// SanitizeCode returns a masked version of an authorization code for logging.
// Authorization codes are single-use credentials and must never appear in logs.
func SanitizeCode(code string) string {
	if code == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[code:%d chars]", len(code))
}
