package domain

import "fmt"

// InvalidInputError indicates malformed position or account figures.
// Inputs are rejected before any computation, never silently coerced.
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s=%v (%s)", e.Field, e.Value, e.Reason)
}

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// ThrottledError indicates a trade was blocked by safety limits
// (daily cap or per-symbol cooldown). Logged, never escalated.
type ThrottledError struct {
	Symbol string
	Reason string
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("trade throttled for %s: %s", e.Symbol, e.Reason)
}

// ExecutionError indicates a trade application failure at the
// persistence boundary. It is captured into the execution record,
// not propagated as control flow.
type ExecutionError struct {
	Symbol string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("trade execution failed for %s: %v", e.Symbol, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
