// Package logging constructs the shared slog logger and provides attribute
// helpers plus the standardized structured field keys used across picvault.
package logging
