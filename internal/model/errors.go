package model

// ValidationError is returned when a draft fails client-side validation.
// It is never sent to the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
