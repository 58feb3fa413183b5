package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Email column not found: No homeowner email column in the header row
//	         Action: Add a "Homeowner's Email" column or download the template
//	         Patterns: "email column not found"
//
//	VAL002 - Email required: A row has no email
//	         Action: Fill in the email or remove the row
//	         Patterns: "email required"
//
//	VAL003 - Invalid email: A row's email is not a valid address
//	         Action: Correct the email (name@domain.tld)
//	         Patterns: "invalid email format"
//
//	VAL004 - Invalid date: The date assigned could not be read
//	         Action: Use YYYY-MM-DD, MM/DD/YYYY, or a spreadsheet date cell
//	         Patterns: "invalid date"
//
//	VAL005 - Import blocked: The file still has validation errors
//	         Action: Remove invalid rows or fix them and upload again
//	         Patterns: "blocked by validation errors"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large     Patterns: "file too large"
//	FILE002 - Invalid CSV        Patterns: "invalid csv"
//	FILE003 - Encoding error     Patterns: "encoding error"
//	FILE004 - No file            Patterns: "no file provided"
//	FILE005 - Empty file         Patterns: "empty file"
//	FILE006 - Unsupported file   Patterns: "unsupported file type"
//	FILE007 - Invalid workbook   Patterns: "not a valid zip file", "invalid workbook"
//
// # CRM Errors (CRM001-CRM099)
//
// Errors returned while reconciling a row against the CRM. The step name in
// the error decides the code:
//
//	CRM001 - Contact lookup failed       Patterns: "failed to look up contact"
//	CRM002 - Account creation failed     Patterns: "failed to create account"
//	CRM003 - Contact creation failed     Patterns: "failed to create contact"
//	CRM004 - Contact link failed         Patterns: "failed to link contact"
//	CRM005 - Equipment profile failed    Patterns: "failed to create equipment profile"
//	CRM006 - Deal creation failed        Patterns: "failed to create deal"
//	CRM007 - CRM rejected credentials    Patterns: "invalid oauth", "unauthorized"
//	CRM008 - CRM unreachable             Patterns: "connection refused"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy         Patterns: "too many imports"
//	IMP002 - Session expired     Patterns: "import not found"
//	IMP003 - Already running     Patterns: "already started"
//	IMP004 - Request cancelled   Patterns: "context canceled"
//	IMP005 - Request timeout     Patterns: "context deadline exceeded", "timeout"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited       Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.

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

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Validation Errors (VAL001-VAL005)
	// =========================================================================
	{
		pattern: "email column not found",
		msg: UserMessage{
			Message: "No homeowner email column was found",
			Action:  "Add a \"Homeowner's Email\" column or download the template",
			Code:    "VAL001",
		},
	},
	{
		pattern: "email required",
		msg: UserMessage{
			Message: "A row has no email",
			Action:  "Fill in the email or remove the row",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid email format",
		msg: UserMessage{
			Message: "A row has an invalid email",
			Action:  "Correct the email (name@domain.tld)",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD, MM/DD/YYYY, or a spreadsheet date cell",
			Code:    "VAL004",
		},
	},
	{
		pattern: "blocked by validation errors",
		msg: UserMessage{
			Message: "The file still has validation errors",
			Action:  "Remove invalid rows or fix them and upload again",
			Code:    "VAL005",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE007)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
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
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select an .xlsx or .csv file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload an .xlsx, .xls or .csv file",
			Code:    "FILE006",
		},
	},
	{
		pattern: "not a valid zip file",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Re-save the file from your spreadsheet program and try again",
			Code:    "FILE007",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Re-save the file from your spreadsheet program and try again",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// CRM Errors (CRM001-CRM008)
	// Step names come first so a step failure keeps its step's code even when
	// the store's own message would also match a transport pattern.
	// =========================================================================
	{
		pattern: "failed to look up contact",
		msg: UserMessage{
			Message: "Could not search the CRM for the contact",
			Action:  "Check the CRM connection and run the import again",
			Code:    "CRM001",
		},
	},
	{
		pattern: "failed to create account",
		msg: UserMessage{
			Message: "The CRM rejected the new account",
			Action:  "Review the row's name and run the row again",
			Code:    "CRM002",
		},
	},
	{
		pattern: "failed to create contact",
		msg: UserMessage{
			Message: "The CRM rejected the new contact",
			Action:  "Review the row's email and mailing address",
			Code:    "CRM003",
		},
	},
	{
		pattern: "failed to link contact",
		msg: UserMessage{
			Message: "The existing contact could not be linked to its account",
			Action:  "Link the contact to the account in the CRM",
			Code:    "CRM004",
		},
	},
	{
		pattern: "failed to create equipment profile",
		msg: UserMessage{
			Message: "The CRM rejected the equipment profile",
			Action:  "Review the row's equipment columns",
			Code:    "CRM005",
		},
	},
	{
		pattern: "failed to create deal",
		msg: UserMessage{
			Message: "The CRM rejected the deal",
			Action:  "Review the row's location and eligibility columns",
			Code:    "CRM006",
		},
	},
	{
		pattern: "invalid oauth",
		msg: UserMessage{
			Message: "The CRM rejected our credentials",
			Action:  "Refresh the CRM access token",
			Code:    "CRM007",
		},
	},
	{
		pattern: "unauthorized",
		msg: UserMessage{
			Message: "The CRM rejected our credentials",
			Action:  "Refresh the CRM access token",
			Code:    "CRM007",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the CRM",
			Action:  "Please try again in a few moments",
			Code:    "CRM008",
		},
	},

	// =========================================================================
	// Import Errors (IMP001-IMP005)
	// =========================================================================
	{
		pattern: "too many imports",
		msg: UserMessage{
			Message: "Too many imports in progress",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "import not found",
		msg: UserMessage{
			Message: "Import session not found",
			Action:  "The import may have expired. Please upload the file again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "already started",
		msg: UserMessage{
			Message: "This import has already been started",
			Action:  "Follow its progress or upload the file again",
			Code:    "IMP003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "IMP005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "IMP005",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
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
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := &StepError{Step: StepCreateDeal, Err: errors.New("INVALID_DATA")}
//	msg := MapError(err)
//	// msg.Code == "CRM006"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
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

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
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

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
