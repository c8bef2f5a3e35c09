package app

import (
	"fmt"
	"strings"
	"time"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-scoped problems with caller input.
type ValidationError struct {
	Fields []FieldError
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) HasError() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

type PastDateError struct {
	Date time.Time
}

func (e *PastDateError) Error() string {
	return fmt.Sprintf("date %s is in the past", e.Date.Format(time.RFC3339))
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// UpstreamSyncWarning means a booking was committed locally but could not be mirrored to the
// external calendar. The booking stands; the discrepancy is reported to the caller.
type UpstreamSyncWarning struct {
	BookingID string
	Err       error
}

func (e *UpstreamSyncWarning) Error() string {
	return fmt.Sprintf("booking %s saved but calendar sync failed: %v", e.BookingID, e.Err)
}

func (e *UpstreamSyncWarning) Unwrap() error {
	return e.Err
}
