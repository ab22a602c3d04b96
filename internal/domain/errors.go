package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrUnauthenticated        = errors.New("authentication credentials were not provided or are invalid")
	ErrForbidden              = errors.New("you do not have permission to perform this action")
	ErrInvalidTransition      = errors.New("illegal status transition")
	ErrConflict               = errors.New("resource already exists")
	ErrConcurrentModification = errors.New("booking was modified concurrently")
	ErrRateLimited            = errors.New("rate limit exceeded")
	ErrSlotTaken              = errors.New("this time slot is already booked")
	ErrSlotUnavailable        = errors.New("the guide is not available for this time slot")
	ErrAlreadyReviewed        = errors.New("you have already reviewed this booking")
	ErrTourInUse              = errors.New("cannot delete a tour with active bookings")
)

// ValidationError reports rejected input, optionally per field.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Invalid builds a single-field validation error.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Message: msg, Fields: map[string]string{field: msg}}
}

// Validation collects field errors and converts to an error when non-empty.
type Validation struct {
	fields map[string]string
}

func (v *Validation) Add(field, msg string) {
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

// Check adds msg for field when cond is false.
func (v *Validation) Check(cond bool, field, msg string) {
	if !cond {
		v.Add(field, msg)
	}
}

func (v *Validation) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Message: "invalid input", Fields: v.fields}
}
