package model

import "fmt"

// ValidationError reports a malformed individual record: bad shape,
// unparsable timestamp, or a field outside expected bounds. A validation
// failure drops the one record, never the whole page.
type ValidationError struct {
	RecordID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("invalid record %s: field %s: %s", e.RecordID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid record: field %s: %s", e.Field, e.Reason)
}

// NetworkError reports a transport or query failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a fetch that exceeded its deadline.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout during %s: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
