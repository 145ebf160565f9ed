package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestPlanErrorMatchesByKind(t *testing.T) {
	err := fmt.Errorf("run: %w", &PlanError{Kind: KindUnreachableWithinBudget, Address: "A"})

	if !errors.Is(err, ErrUnreachableWithinBudget) {
		t.Fatal("expected unreachable kind to match sentinel")
	}
	if errors.Is(err, ErrDepotNotFound) {
		t.Fatal("unexpected match against a different kind")
	}
	if got := KindOf(err); got != KindUnreachableWithinBudget {
		t.Fatalf("KindOf = %q, want %q", got, KindUnreachableWithinBudget)
	}
}

func TestPlanErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &PlanError{Kind: KindSourceUnavailable, Err: cause}

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if err.Error() != "coordinate source unavailable: dial tcp: refused" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestPlanErrorWarning(t *testing.T) {
	if !(&PlanError{Kind: KindNoValidDestinations}).Warning() {
		t.Fatal("no valid destinations should be a warning")
	}
	if (&PlanError{Kind: KindDepotNotFound}).Warning() {
		t.Fatal("depot not found should not be a warning")
	}
	if KindOf(errors.New("other")) != "" {
		t.Fatal("plain errors have no kind")
	}
}
