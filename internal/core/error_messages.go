// Package core provides the business logic for product imports.
//
// # Error Codes Reference
//
// This file maps technical errors to user-friendly messages with codes for
// support reference. Row-level errors keep their original text in the
// skipped-rows report; the code is attached to log entries. Fatal errors are
// shown to the operator in mapped form.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate product code: a product with this code already exists
//	        Patterns: "duplicate key"
//
//	DB002 - Value too long: a text value exceeds the column size
//	        Patterns: "value too long"
//
//	DB003 - Numeric overflow: a number is out of range for the column
//	        Patterns: "numeric field overflow", "out of range"
//
//	DB004 - Connection refused: unable to connect to database
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB006 - Timeout: operation timed out
//	        Patterns: "timeout", "context deadline exceeded"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid number
//	VAL002 - Required field empty
//	VAL003 - Missing required column
//	VAL004 - Invalid enum value
//	VAL005 - Business rule violation
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Unsupported format
//	FILE004 - File not found
//	FILE005 - Empty file
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Import interrupted: the run was cancelled between rows
//	         Patterns: "import interrupted"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check the logs for the original error.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively using strings.Contains. The first
// matching pattern wins, so more specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Errors (DB001-DB006)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A product with this code already exists",
			Action:  "Remove or rename the duplicate product code",
			Code:    "DB001",
		},
	},
	{
		pattern: "value too long",
		msg: UserMessage{
			Message: "A text value is too long",
			Action:  "Shorten the product name, description or code",
			Code:    "DB002",
		},
	},
	{
		pattern: "numeric field overflow",
		msg: UserMessage{
			Message: "A number is too large",
			Action:  "Check the stock and cost values",
			Code:    "DB003",
		},
	},
	{
		pattern: "out of range",
		msg: UserMessage{
			Message: "A number is too large",
			Action:  "Check the stock and cost values",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DATABASE_URL and that the database is running",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Run the import again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Raise IMPORT_SAVE_TIMEOUT or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Raise IMPORT_SAVE_TIMEOUT or try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL005)
	// =========================================================================
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use plain non-negative numbers for Stock and Cost in GBP",
			Code:    "VAL001",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Fill in product name, description and code",
			Code:    "VAL002",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing",
			Action:  "Check the header matches the import template exactly",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid enum",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Discontinued must be blank or yes",
			Code:    "VAL004",
		},
	},
	{
		pattern: "is less than",
		msg: UserMessage{
			Message: "Product does not meet the minimum cost or stock",
			Action:  "Cost must be at least 5 or stock at least 10",
			Code:    "VAL005",
		},
	},
	{
		pattern: "is greater than",
		msg: UserMessage{
			Message: "Product cost exceeds the maximum",
			Action:  "Cost must not exceed 1000",
			Code:    "VAL005",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file or raise IMPORT_MAX_FILE_SIZE",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is delimited with consistent quoting",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "File format is not supported",
			Action:  "Use a .csv or .xlsx file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "File not found",
			Action:  "Check the file path",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Provide a file with a header and data rows",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Run Errors (RUN001)
	// =========================================================================
	{
		pattern: "import interrupted",
		msg: UserMessage{
			Message: "The import was interrupted",
			Action:  "Rows already saved are kept; re-run the remaining rows",
			Code:    "RUN001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the ERR000 fallback when no pattern matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	return mapText(err.Error())
}

// MapErrorText is MapError for error text already detached from an error value,
// such as a RowOutcome's Error.
func MapErrorText(text string) UserMessage {
	if text == "" {
		return UserMessage{}
	}
	return mapText(text)
}

func mapText(text string) UserMessage {
	lower := strings.ToLower(text)
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
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

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
