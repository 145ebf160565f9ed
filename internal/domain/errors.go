package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies planning run failures so callers can branch on the kind
// instead of the message.
type ErrorKind string

const (
	KindSourceUnavailable       ErrorKind = "source_unavailable"
	KindDepotNotFound           ErrorKind = "depot_not_found"
	KindNoValidDestinations     ErrorKind = "no_valid_destinations"
	KindUnreachableWithinBudget ErrorKind = "unreachable_within_budget"
)

// PlanError is the terminal error of a planning run.
type PlanError struct {
	Kind    ErrorKind
	Address string
	Err     error
}

var (
	ErrSourceUnavailable       = &PlanError{Kind: KindSourceUnavailable}
	ErrDepotNotFound           = &PlanError{Kind: KindDepotNotFound}
	ErrNoValidDestinations     = &PlanError{Kind: KindNoValidDestinations}
	ErrUnreachableWithinBudget = &PlanError{Kind: KindUnreachableWithinBudget}
)

func (e *PlanError) Error() string {
	switch e.Kind {
	case KindSourceUnavailable:
		if e.Err != nil {
			return fmt.Sprintf("coordinate source unavailable: %v", e.Err)
		}
		return "coordinate source unavailable"
	case KindDepotNotFound:
		return fmt.Sprintf("depot address %q coordinates not found", e.Address)
	case KindNoValidDestinations:
		return "no valid pickup addresses"
	case KindUnreachableWithinBudget:
		return fmt.Sprintf("pickup address %q cannot be reached and returned from within the time limit", e.Address)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *PlanError) Unwrap() error { return e.Err }

// Is matches any PlanError of the same kind, so the package-level sentinels
// work with errors.Is regardless of address or cause.
func (e *PlanError) Is(target error) bool {
	t, ok := target.(*PlanError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Warning reports whether the error is a degenerate-input result rather than a
// failure.
func (e *PlanError) Warning() bool {
	return e.Kind == KindNoValidDestinations
}

// KindOf returns the kind of a planning error, or "" for any other error.
func KindOf(err error) ErrorKind {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
