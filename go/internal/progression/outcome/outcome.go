package outcome

import (
	"context"
	"errors"
	"fmt"
)

// Outcome classifies how a reaction finished.
type Outcome string

const (
	Dispatched            Outcome = "DISPATCHED"
	NoAction              Outcome = "NO_ACTION"
	DecisionFailed        Outcome = "DECISION_FAILED"
	EnrichmentUnavailable Outcome = "ENRICHMENT_UNAVAILABLE"
	DispatchFailed        Outcome = "DISPATCH_FAILED"
)

// IsFailure reports whether the outcome needs operator attention.
func (o Outcome) IsFailure() bool {
	switch o {
	case DecisionFailed, EnrichmentUnavailable, DispatchFailed:
		return true
	default:
		return false
	}
}

// Retryable reports whether redelivering the same event can change the result.
// Malformed events never get better on redelivery.
func (o Outcome) Retryable() bool {
	return o == EnrichmentUnavailable || o == DispatchFailed
}

var (
	ErrDecisionFailed        = errors.New("decision failed")
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")
	ErrDispatchFailed        = errors.New("dispatch failed")
)

// DecisionError is returned when the inbound event breaks a precondition of
// its own declared shape.
type DecisionError struct {
	Reason string
	Err    error
}

func (e *DecisionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decision failed: %s: %v", e.Reason, e.Err)
	}
	return "decision failed: " + e.Reason
}

func (e *DecisionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDecisionFailed, e.Err}
	}
	return []error{ErrDecisionFailed}
}

// Decisionf builds a DecisionError with a formatted reason.
func Decisionf(format string, args ...any) *DecisionError {
	return &DecisionError{Reason: fmt.Sprintf(format, args...)}
}

// EnrichmentError is returned when a required read-model query did not
// produce a value.
type EnrichmentError struct {
	Requirement string
	Status      string
	Err         error
}

func (e *EnrichmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("enrichment unavailable: %s (%s): %v", e.Requirement, e.Status, e.Err)
	}
	return fmt.Sprintf("enrichment unavailable: %s (%s)", e.Requirement, e.Status)
}

func (e *EnrichmentError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrEnrichmentUnavailable, e.Err}
	}
	return []error{ErrEnrichmentUnavailable}
}

// DispatchError is returned when the sequencer could not send message Index.
// Messages before Index were sent; messages after it were not attempted.
type DispatchError struct {
	Index   int
	Message string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed at message %d (%s): %v", e.Index, e.Message, e.Err)
}

func (e *DispatchError) Unwrap() []error {
	return []error{ErrDispatchFailed, e.Err}
}

// Classify maps an error returned from a reaction onto the taxonomy.
// A nil error is Dispatched; callers holding a suppressed plan report
// NoAction themselves.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Dispatched
	case errors.Is(err, ErrDispatchFailed):
		return DispatchFailed
	case errors.Is(err, ErrEnrichmentUnavailable):
		return EnrichmentUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return EnrichmentUnavailable
	default:
		return DecisionFailed
	}
}
