// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Only failures that abort a request are mapped here; malformed
// records and duplicate ids inside a batch are ordinary outcomes and are
// reported in the upload response instead.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A hospital with this ID already exists
//	        Patterns: "duplicate key", "unique constraint"
//
//	DB002 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//
//	DB003 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB004 - Database busy: Database is locked by another writer
//	        Patterns: "database is locked", "deadlock"
//
//	DB005 - Missing schema: The hospitals table has not been created
//	        Patterns: "no such table", "does not exist"
//
//	DB006 - Timeout: Operation timed out
//	        Patterns: "timeout"
//
//	DB007 - Unstorable ID: A hospital ID is not a whole number
//	        Patterns: "unstorable hospital id"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid body: Request body is not a JSON array of records
//	         Patterns: "invalid request body"
//
//	REQ002 - Body too large: Request body exceeds the configured limit
//	         Patterns: "request body too large"
//
//	REQ003 - Request cancelled: Request was cancelled
//	         Patterns: "context canceled"
//
//	REQ004 - Request timeout: Request timed out
//	         Patterns: "context deadline exceeded"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.
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
	// Request errors first: their wrapped causes may mention database terms.
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "Request body must be a JSON array of hospital records",
			Action:  "Send a JSON array such as [{\"id\": 1, \"name\": \"...\", \"city\": \"...\", \"state\": \"..\", \"address\": \"...\"}]",
			Code:    "REQ001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "Request body is too large",
			Action:  "Split the upload into smaller batches",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller batch or try again later",
			Code:    "REQ004",
		},
	},

	{
		pattern: "unstorable hospital id",
		msg: UserMessage{
			Message: "A hospital ID could not be stored",
			Action:  "Use whole-number IDs; records before the rejected one were saved",
			Code:    "DB007",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A hospital with this ID already exists",
			Action:  "Choose an unused ID",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A hospital with this ID already exists",
			Action:  "Choose an unused ID",
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
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database is busy",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database is busy",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "no such table",
		msg: UserMessage{
			Message: "The hospitals table has not been created",
			Action:  "Run initdb with the schema file",
			Code:    "DB005",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The hospitals table has not been created",
			Action:  "Run initdb with the schema file",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
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
// If no pattern matches, the ERR000 fallback is returned.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
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
