// Package logging provides structured logging helpers built on log/slog.
//
// It defines the attribute-key constants used across the codebase so that
// log output stays consistent and greppable, along with small constructor
// helpers (Operation, FolderID, Err, ...) that reduce repetition at call
// sites. Credentials never appear in logs: SanitizeToken and SanitizeCode
// replace secret values with length indicators.
package logging
