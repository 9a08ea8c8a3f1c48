package api

import (
	"errors"
	"fmt"
)

// Error is a backend response with a status code of 400 or above.
type Error struct {
	Status int
	// Detail is the backend's "detail" message, if it sent one.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// ParseError is returned when a response does not have the shape of the
// expected entity. Index is the element position in a collection, or -1 when
// the whole body is malformed.
type ParseError struct {
	Resource string
	Index    int
	Field    string
	Err      error
}

func (e *ParseError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("parsing %s response: %v", e.Resource, e.Err)
	case e.Field != "":
		return fmt.Sprintf("parsing %s[%d]: field %q: %v", e.Resource, e.Index, e.Field, e.Err)
	default:
		return fmt.Sprintf("parsing %s[%d]: %v", e.Resource, e.Index, e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// errMissing marks a required field absent from a response.
var errMissing = errors.New("missing required value")

// Message returns the backend's detail message carried by err, or fallback
// when there is none.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
