package llm

import "fmt"

// APICallError represents a failed provider request.
type APICallError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s call failed: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s call failed: %s", e.Operation, e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// EmptyResponseError is returned when the provider answers without usable content.
type EmptyResponseError struct {
	Message string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("empty response: %s", e.Message)
}
