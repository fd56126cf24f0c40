package model

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrAuth            = errors.New("authentication failed")
)

// APIError is a failed call to the platform API. Error returns only the
// message so it can be shown to the user verbatim.
type APIError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("x api status %d", e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// ModelError reports a classifier that is missing, unloadable or rejected its input.
type ModelError struct {
	Op  string
	Err error
}

func (e *ModelError) Error() string {
	if e.Op == "" {
		return "model: " + e.Err.Error()
	}
	return "model: " + e.Op + ": " + e.Err.Error()
}

func (e *ModelError) Unwrap() error { return e.Err }

// SchemaDriftError means a feature vector no longer matches the schema the
// classifier was trained on.
type SchemaDriftError struct {
	Want  int
	Got   int
	Field string
}

func (e *SchemaDriftError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("feature schema drift: unexpected field %q (want %d fields, got %d)", e.Field, e.Want, e.Got)
	}
	return fmt.Sprintf("feature schema drift: want %d fields, got %d", e.Want, e.Got)
}

// TextProcessingError marks one post text that could not be analyzed.
type TextProcessingError struct {
	Index int
	Err   error
}

func (e *TextProcessingError) Error() string {
	return fmt.Sprintf("text %d: %v", e.Index, e.Err)
}

func (e *TextProcessingError) Unwrap() error { return e.Err }
