package utils

import (
	"errors"
	"fmt"
)

// Kind identifies which pipeline stage produced a failure. The orchestrator
// converts kinds into state transitions instead of aborting the task.
type Kind string

const (
	KindTranscription     Kind = "transcription"
	KindInsufficientInput Kind = "insufficient_input"
	KindClassification    Kind = "classification"
	KindDelivery          Kind = "delivery"
)

// StageError carries a machine reason code plus the human-readable cause.
type StageError struct {
	Kind   Kind
	Reason string // short machine code, ex: "timeout", "bad_response"
	Err    error
}

func (e *StageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s/%s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s/%s", e.Kind, e.Reason)
}

func (e *StageError) Unwrap() error { return e.Err }

func Stage(kind Kind, reason string, err error) error {
	return &StageError{Kind: kind, Reason: reason, Err: err}
}

func IsKind(err error, kind Kind) bool {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// StageReason extracts the machine reason code, or "" for foreign errors.
func StageReason(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}
