package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users can quote the code shown next to a message.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Matches: ErrFileTooLarge; pattern "request body too large"
//
//	FILE002 - Unsupported format: Only CSV and Excel files are supported
//	          Matches: ErrUnsupportedFormat
//
//	FILE003 - Malformed file: The file could not be parsed
//	          Matches: ErrMalformedFile
//
//	FILE004 - No file: No file was selected
//	          Matches: ErrNoFiles
//
//	FILE005 - Empty file: The file has no header row
//	          Matches: ErrEmptyFile
//
//	FILE006 - Too many files: The batch holds more files than allowed
//	          Matches: ErrTooManyFiles
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Unknown column: A selected column is not in the file
//	         Matches: ErrUnknownColumn
//
// # Cleaning Warnings (CLN001-CLN099)
//
//	CLN001 - Empty column: A numeric column has no values to average
//	         Matches: ErrEmptyColumnMean
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Serialization: The table cannot be written in that format
//	         Matches: ErrSerialization
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid choices: The processing options are not valid
//	         Matches: ErrInvalidChoices
//
//	REQ002 - Invalid form: The request could not be read
//	         Matches: ErrInvalidForm
//
//	REQ003 - Not found: No page at that address
//	         Matches: ErrRouteNotFound
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	         Matches: ErrTooManyUploads
//
//	UPL004 - Request cancelled
//	         Matches: context.Canceled
//
//	UPL005 - Request timeout
//	         Matches: context.DeadlineExceeded
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Matches: ErrRateLimited
//
// # Default Error (ERR000)
//
//	ERR000 - An unexpected error occurred; check the logs for the original error.
//
// Sentinels are checked with errors.Is before any substring pattern, and the
// first match wins, so specific entries come before general ones.

import (
	"context"
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`          // What happened (user-friendly)
	Action  string `json:"action,omitempty"` // What to do about it
	Code    string `json:"code"`             // Error code for support reference

	// Detail is the error text itself for known codes, e.g. the names of
	// unknown columns. Empty for ERR000 so internals stay in the logs.
	Detail string `json:"detail,omitempty"`
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	sentinel error  // matched with errors.Is
	pattern  string // substring fallback for errors from outside this package
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	// File errors
	{
		sentinel: ErrFileTooLarge,
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "Upload exceeds the maximum request size",
			Action:  "Upload fewer or smaller files at once",
			Code:    "FILE001",
		},
	},
	{
		sentinel: ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "Unsupported file format",
			Action:  "Upload a .csv or .xlsx file",
			Code:    "FILE002",
		},
	},
	{
		sentinel: ErrMalformedFile,
		msg: UserMessage{
			Message: "The file could not be parsed",
			Action:  "Check that no row has more fields than the header",
			Code:    "FILE003",
		},
	},
	{
		sentinel: ErrNoFiles,
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose one or more CSV or Excel files",
			Code:    "FILE004",
		},
	},
	{
		sentinel: ErrEmptyFile,
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Upload a file whose first row holds the column names",
			Code:    "FILE005",
		},
	},
	{
		sentinel: ErrTooManyFiles,
		msg: UserMessage{
			Message: "Too many files in one upload",
			Action:  "Upload the files in smaller groups",
			Code:    "FILE006",
		},
	},

	// Column and cleaning
	{
		sentinel: ErrUnknownColumn,
		msg: UserMessage{
			Message: "A selected column does not exist in this file, so all columns were kept",
			Action:  "Pick columns from the file's header",
			Code:    "COL001",
		},
	},
	{
		sentinel: ErrEmptyColumnMean,
		msg: UserMessage{
			Message: "A numeric column has no values, so its missing cells were left empty",
			Action:  "Fill the column in the source file or leave it out of the selection",
			Code:    "CLN001",
		},
	},

	// Export
	{
		sentinel: ErrSerialization,
		msg: UserMessage{
			Message: "The table could not be converted to the chosen format",
			Action:  "Try the other export format",
			Code:    "EXP001",
		},
	},

	// Request
	{
		sentinel: ErrInvalidChoices,
		msg: UserMessage{
			Message: "The processing options are not valid",
			Action:  "Check the selected columns and export format",
			Code:    "REQ001",
		},
	},
	{
		sentinel: ErrInvalidForm,
		msg: UserMessage{
			Message: "The upload form could not be read",
			Action:  "Reload the page and try again",
			Code:    "REQ002",
		},
	},
	{
		sentinel: ErrRouteNotFound,
		msg: UserMessage{
			Message: "Page not found",
			Action:  "Go back to the upload page",
			Code:    "REQ003",
		},
	},

	// Upload
	{
		sentinel: ErrTooManyUploads,
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		sentinel: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		sentinel: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Rate limiting
	{
		sentinel: ErrRateLimited,
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels are matched with errors.Is, so file and column names in
// the error text never affect the code. Entries without a sentinel are
// matched (case-insensitive) as substrings of the error text. The first
// match wins; if nothing matches, a generic fallback message with code
// ERR000 is returned.
//
// Example:
//
//	msg := MapError(&FormatError{Name: "report.pdf", Ext: ".pdf"})
//	// msg.Code == "FILE002"
//	// msg.Detail == "unsupported file format: .pdf"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	text := err.Error()

	for _, ep := range errorPatterns {
		if ep.sentinel != nil && errors.Is(err, ep.sentinel) {
			return withDetail(ep.msg, text)
		}
	}

	errStr := strings.ToLower(text)
	for _, ep := range errorPatterns {
		if ep.pattern != "" && strings.Contains(errStr, ep.pattern) {
			return withDetail(ep.msg, text)
		}
	}

	return defaultMessage
}

func withDetail(msg UserMessage, detail string) UserMessage {
	msg.Detail = detail
	return msg
}
