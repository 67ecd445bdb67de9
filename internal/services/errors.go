package services

import "fmt"

// ValidationError reports caller input that cannot be turned into a log or a
// query. Handlers map it to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StoreError wraps any failure coming from the log store.
type StoreError struct {
	Op  string // append/find/count
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("log store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
