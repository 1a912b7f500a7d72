// Package logging provides structured logging for EstateHub Core.
//
// It wraps log/slog with level parsing, output selection, and default
// service attributes so every component logs in a consistent shape.
// Components receive a *Logger by injection and derive their own with
// With("component", ...).
package logging
