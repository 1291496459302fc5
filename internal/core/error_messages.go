package core

// Error codes reference
//
// Errors returned to API clients carry a code support staff can look up.
// Codes are grouped by category:
//
//	VAL001-VAL099  invalid operation arguments (filters, fills, bins, aggregations)
//	COL001         column not found
//	FILE001-099    reading and writing dataset files
//	DS001-099      in-memory dataset registry
//	SRV001-099     request lifecycle (busy, cancelled, timed out)
//	DB001-099      PostgreSQL persistence
//	PIPE001-099    pipeline documents
//	ERR000         anything else; check the logs for the technical error
//
// A pattern matches when the error wraps its kind (if set) and the lowercased
// message contains its text (if set). The first match wins, so specific
// patterns come before general ones.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/tabprep/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	kind    error
	pattern string
	msg     UserMessage
}

func (ep errorPattern) matches(err error, errStr string) bool {
	if ep.kind != nil && !errors.Is(err, ep.kind) {
		return false
	}
	return ep.pattern == "" || strings.Contains(errStr, ep.pattern)
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Validation Errors (VAL001-VAL010)
	// =========================================================================
	{
		kind:    table.ErrInvalidArgument,
		pattern: "unknown condition",
		msg: UserMessage{
			Message: "Unknown filter condition",
			Action:  "Use equals, greater_than, less_than, in_range or in_list",
			Code:    "VAL001",
		},
	},
	{
		kind:    table.ErrInvalidArgument,
		pattern: "unknown strategy",
		msg: UserMessage{
			Message: "Unknown fill strategy",
			Action:  "Use mean, median or ffill",
			Code:    "VAL002",
		},
	},
	{
		kind:    table.ErrInvalidArgument,
		pattern: "unknown aggregation",
		msg: UserMessage{
			Message: "Unknown aggregation function",
			Action:  "Use mean, median, sum, min, max, count, std, var, first, last, nunique or size",
			Code:    "VAL003",
		},
	},
	{
		kind:    table.ErrInvalidArgument,
		pattern: "bins:",
		msg: UserMessage{
			Message: "Invalid bin specification",
			Action:  "Give increasing numeric edges and one label per interval",
			Code:    "VAL004",
		},
	},
	{
		kind:    table.ErrInvalidArgument,
		pattern: "categories are unordered",
		msg: UserMessage{
			Message: "Category columns cannot be ordered",
			Action:  "Use equals or in_list, or convert the column to numeric first",
			Code:    "VAL005",
		},
	},
	{
		kind:    table.ErrInvalidArgument,
		pattern: "cannot compare with",
		msg: UserMessage{
			Message: "Filter value does not match the column type",
			Action:  "Check the filter value against the column's data",
			Code:    "VAL006",
		},
	},
	{
		kind:    table.ErrInvalidArgument,
		pattern: "cannot convert",
		msg: UserMessage{
			Message: "Column holds values that are not numbers",
			Action:  "Transform the column to numeric before filling it",
			Code:    "VAL007",
		},
	},
	{
		kind:    table.ErrInvalidArgument,
		pattern: "need numeric",
		msg: UserMessage{
			Message: "Aggregation needs a numeric column",
			Action:  "Transform the column to numeric or pick another function",
			Code:    "VAL008",
		},
	},
	{
		kind:    table.ErrInvalidArgument,
		pattern: "sentinel must not be null",
		msg: UserMessage{
			Message: "The missing-value sentinel cannot be empty",
			Action:  "Provide a sentinel such as -999",
			Code:    "VAL009",
		},
	},

	// =========================================================================
	// Lookup Errors (COL001, FILE006, DS001)
	// =========================================================================
	{
		kind:    table.ErrNotFound,
		pattern: "column",
		msg: UserMessage{
			Message: "Column not found",
			Action:  "Check the column name against the dataset header",
			Code:    "COL001",
		},
	},
	{
		kind:    table.ErrNotFound,
		pattern: "sheet",
		msg: UserMessage{
			Message: "Worksheet not found",
			Action:  "Check the sheet name in the workbook",
			Code:    "FILE006",
		},
	},
	{
		kind:    table.ErrNotFound,
		pattern: "dataset",
		msg: UserMessage{
			Message: "Dataset not found",
			Action:  "The dataset may have been deleted. Upload it again",
			Code:    "DS001",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid xlsx",
		msg: UserMessage{
			Message: "File is not a valid Excel workbook",
			Action:  "Re-save the workbook as .xlsx",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or XLSX file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Unsupported file type",
			Action:  "Use a .csv or .xlsx file",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Dataset Registry (DS002)
	// =========================================================================
	{
		pattern: "too many datasets",
		msg: UserMessage{
			Message: "Dataset limit reached",
			Action:  "Delete datasets you no longer need",
			Code:    "DS002",
		},
	},

	// =========================================================================
	// Pipeline Errors (PIPE001)
	// =========================================================================
	{
		pattern: "pipeline",
		msg: UserMessage{
			Message: "Invalid pipeline document",
			Action:  "Check that every step names exactly one operation",
			Code:    "PIPE001",
		},
	},

	// =========================================================================
	// Request Lifecycle (SRV001-SRV003)
	// =========================================================================
	{
		pattern: "server busy",
		msg: UserMessage{
			Message: "System is busy processing other requests",
			Action:  "Please wait a moment and try again",
			Code:    "SRV001",
		},
	},
	{
		kind: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "SRV002",
		},
	},
	{
		kind: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "SRV003",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB003)
	// =========================================================================
	{
		pattern: "database not configured",
		msg: UserMessage{
			Message: "Persistence is not enabled on this server",
			Action:  "Set DATABASE_URL and restart the server",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later",
			Code:    "DB003",
		},
	},

	// Any other invalid argument keeps the generic validation code.
	{
		kind: table.ErrInvalidArgument,
		msg: UserMessage{
			Message: "Invalid request",
			Action:  "Check the request parameters",
			Code:    "VAL010",
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
// If no pattern matches, a generic fallback message with code ERR000 is
// returned.
//
//	err := table.NotFoundf("column %q", "age")
//	msg := MapError(err)
//	// msg.Code == "COL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if ep.matches(err, errStr) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern, that is, whether
// it maps to anything but ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging and errors.Is.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps a technical error to a UserError. Returns nil if err is
// nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
