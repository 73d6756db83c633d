package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "file too large", err: fmt.Errorf("%w: big.csv", ErrFileTooLarge), wantCode: "FILE001"},
		{name: "request body too large", err: errors.New("http: request body too large"), wantCode: "FILE001"},
		{name: "unsupported format", err: &FormatError{Name: "report.pdf", Ext: ".pdf"}, wantCode: "FILE002"},
		{name: "malformed", err: &MalformedError{Line: 3, Err: errors.New("expected 2 fields, saw 3")}, wantCode: "FILE003"},
		{name: "no file", err: ErrNoFiles, wantCode: "FILE004"},
		{name: "empty file", err: fmt.Errorf("%w: a.csv has no header row", ErrEmptyFile), wantCode: "FILE005"},
		{name: "too many files", err: ErrTooManyFiles, wantCode: "FILE006"},
		{name: "unknown column", err: &ColumnError{Err: ErrUnknownColumn, Columns: []string{"z"}}, wantCode: "COL001"},
		{name: "empty mean", err: &ColumnError{Err: ErrEmptyColumnMean, Columns: []string{"x"}}, wantCode: "CLN001"},
		{name: "serialization", err: &SerializationError{Format: FormatExcel, Reason: "too many rows"}, wantCode: "EXP001"},
		{name: "invalid choices", err: fmt.Errorf("%w: bad", ErrInvalidChoices), wantCode: "REQ001"},
		{name: "invalid form", err: fmt.Errorf("%w: no multipart boundary", ErrInvalidForm), wantCode: "REQ002"},
		{name: "not found", err: ErrRouteNotFound, wantCode: "REQ003"},
		{name: "busy", err: ErrTooManyUploads, wantCode: "UPL002"},
		{name: "cancelled", err: context.Canceled, wantCode: "UPL004"},
		{name: "deadline", err: context.DeadlineExceeded, wantCode: "UPL005"},
		{name: "rate limit", err: ErrRateLimited, wantCode: "RATE001"},
		{name: "foreign text is case insensitive", err: errors.New("HTTP: REQUEST BODY TOO LARGE"), wantCode: "FILE001"},
		{name: "sentinel text without the sentinel", err: errors.New("unsupported file format"), wantCode: "ERR000"},
		{name: "unknown error falls back", err: errors.New("boom"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() message is empty")
			}
		})
	}
}

func TestMapError_Detail(t *testing.T) {
	err := &ColumnError{Err: ErrUnknownColumn, Columns: []string{"z", "q"}}
	got := MapError(err)
	if got.Detail != err.Error() {
		t.Errorf("Detail = %q, want %q", got.Detail, err.Error())
	}
	if !strings.Contains(got.Detail, `"z"`) || !strings.Contains(got.Detail, `"q"`) {
		t.Errorf("Detail %q should name every unknown column", got.Detail)
	}

	if d := MapError(errors.New("secret internals")).Detail; d != "" {
		t.Errorf("fallback Detail = %q, want empty", d)
	}
}

// Codes come from the error chain, never from names the user chose.
func TestMapError_IgnoresUserText(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "column named like another error",
			err:      &ColumnError{Err: ErrUnknownColumn, Columns: []string{"empty file"}},
			wantCode: "COL001",
		},
		{
			name:     "file named like another error",
			err:      fmt.Errorf("%w: unsupported file format.csv has no header row", ErrEmptyFile),
			wantCode: "FILE005",
		},
		{
			name:     "serialization of a column named like another error",
			err:      &SerializationError{Format: FormatExcel, Reason: `column "file too large": invalid character`},
			wantCode: "EXP001",
		},
		{
			name:     "wrapped with a file name",
			err:      fmt.Errorf("rate limit.csv: %w", ErrInvalidChoices),
			wantCode: "REQ001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError(%q) code = %q, want %q", tt.err, got, tt.wantCode)
			}
		})
	}
}

func TestErrorPatternsHaveCodes(t *testing.T) {
	for _, ep := range errorPatterns {
		if ep.msg.Code == "" || ep.msg.Message == "" {
			t.Errorf("entry %v/%q is missing a code or message", ep.sentinel, ep.pattern)
		}
		if (ep.sentinel == nil) == (ep.pattern == "") {
			t.Errorf("entry %v/%q must set exactly one of sentinel and pattern", ep.sentinel, ep.pattern)
		}
		if ep.pattern != strings.ToLower(ep.pattern) {
			t.Errorf("pattern %q must be lowercase", ep.pattern)
		}
	}
}
