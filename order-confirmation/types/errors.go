package types

import "fmt"

// ValidationError represents bad input that should not be retried
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError is returned when an order id is absent from the store
type NotFoundError struct {
	OrderID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

// TransportError represents a failed call to an external system; it can be retried
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError represents model output that does not match the expected shape
type ParseError struct {
	Msg string
	Raw string
}

func (e *ParseError) Error() string {
	return e.Msg
}

// UnverifiedNumberError is returned when the carrier rejects an unverified destination
type UnverifiedNumberError struct {
	Msg string
}

func (e *UnverifiedNumberError) Error() string {
	return e.Msg
}
