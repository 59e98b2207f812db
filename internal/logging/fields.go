// Package logging provides a structured logging wrapper around charmbracelet/log.
package logging

// Field name constants for structured logging.
// Using constants prevents typos and enables IDE autocomplete.
const (
	// Common fields.
	FieldError      = "error"
	FieldPath       = "path"
	FieldPaths      = "paths"
	FieldWorkingDir = "working_dir"

	// Parse fields.
	FieldSourceID    = "source_id"
	FieldLine        = "line"
	FieldState       = "state"
	FieldTransition  = "transition"
	FieldDiagnostics = "diagnostics"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"

	// Severity fields.
	FieldSeverity    = "severity"
	FieldDescription = "description"
)
