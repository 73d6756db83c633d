package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for every failure a file can hit on its way through the
// pipeline. Typed errors below wrap them so callers can use errors.Is for the
// kind and errors.As for the details.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrEmptyColumnMean   = errors.New("no values to compute mean")
	ErrSerialization     = errors.New("cannot serialize table")
	ErrEmptyFile         = errors.New("empty file")
	ErrMalformedFile     = errors.New("malformed file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrNoFiles           = errors.New("no file provided")
	ErrTooManyFiles      = errors.New("too many files in one batch")
	ErrInvalidChoices    = errors.New("invalid choices")
	ErrInvalidTable      = errors.New("invalid table")

	// Request-level failures raised by the HTTP layer.
	ErrInvalidForm   = errors.New("invalid form")
	ErrRouteNotFound = errors.New("route not found")
	ErrRateLimited   = errors.New("rate limit exceeded")
)

// FormatError reports a file whose extension has no loader.
type FormatError struct {
	Name string
	Ext  string
}

func (e *FormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("%s: %q has no extension", ErrUnsupportedFormat, e.Name)
	}
	return fmt.Sprintf("%s: %s", ErrUnsupportedFormat, e.Ext)
}

func (e *FormatError) Unwrap() error { return ErrUnsupportedFormat }

// ColumnError reports columns that made a stage reject its input.
// Err is ErrUnknownColumn or ErrEmptyColumnMean.
type ColumnError struct {
	Err     error
	Columns []string
}

func (e *ColumnError) Error() string {
	quoted := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		quoted[i] = strconv.Quote(c)
	}
	return fmt.Sprintf("%s: %s", e.Err, strings.Join(quoted, ", "))
}

func (e *ColumnError) Unwrap() error { return e.Err }

// MalformedError reports a file that was recognised but could not be parsed.
type MalformedError struct {
	Line int // 1-based, 0 when unknown
	Err  error
}

func (e *MalformedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %v", ErrMalformedFile, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrMalformedFile, e.Err)
}

func (e *MalformedError) Unwrap() []error { return []error{ErrMalformedFile, e.Err} }

// SerializationError reports a table that the export target cannot represent.
type SerializationError struct {
	Format Format
	Reason string
	Err    error
}

func (e *SerializationError) Error() string {
	msg := fmt.Sprintf("%s as %s: %s", ErrSerialization, e.Format, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SerializationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSerialization}
	}
	return []error{ErrSerialization, e.Err}
}

// errorKinds orders sentinels from most to least specific for ErrorKind.
var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrUnknownColumn, "unknown_column"},
	{ErrEmptyColumnMean, "empty_column_mean"},
	{ErrSerialization, "serialization"},
	{ErrEmptyFile, "empty_file"},
	{ErrMalformedFile, "malformed_file"},
	{ErrFileTooLarge, "file_too_large"},
	{ErrInvalidChoices, "invalid_choices"},
	{ErrTooManyUploads, "too_many_uploads"},
	{context.DeadlineExceeded, "timeout"},
	{context.Canceled, "canceled"},
}

// ErrorKind returns a short, stable label for err suitable for metrics.
// It returns "ok" for nil and "internal" for errors of no known kind.
func ErrorKind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
