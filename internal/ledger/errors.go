package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/patrickwarner/adreward/internal/models"
)

var (
	// ErrRateLimitExceeded means the viewer's daily cap was reached on the
	// ledger side, even if the local check passed on stale counters.
	ErrRateLimitExceeded = errors.New("limit exceeded")

	// ErrInsufficientBudget means the campaign's budget ran out between
	// selection and the reward call.
	ErrInsufficientBudget = errors.New("insufficient budget")

	// ErrNotFound is returned for an unknown campaign or user.
	ErrNotFound = errors.New("not found")

	// ErrAdminUnavailable is returned by budget mutations when no admin
	// client is configured.
	ErrAdminUnavailable = errors.New("campaign admin not configured")
)

// CallError is a transport or server failure that is neither a rate limit
// nor a budget rejection.
type CallError struct {
	Op     string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Outcome classifies the result of a reward call.
type Outcome string

const (
	OutcomeGranted            Outcome = "granted"
	OutcomeRateLimited        Outcome = "rate_limited"
	OutcomeInsufficientBudget Outcome = "insufficient_budget"
	OutcomeFailed             Outcome = "failed"
)

// Classify maps a reward call error to its Outcome. A nil error is granted.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeGranted
	case errors.Is(err, ErrRateLimitExceeded):
		return OutcomeRateLimited
	case errors.Is(err, ErrInsufficientBudget):
		return OutcomeInsufficientBudget
	default:
		return OutcomeFailed
	}
}

// errorFromMessage recognises the ledger's rejection messages.
func errorFromMessage(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "limit exceeded"):
		return ErrRateLimitExceeded
	case strings.Contains(lower, "insufficient budget"):
		return ErrInsufficientBudget
	}
	return nil
}

// Notice returns the message shown to the viewer after a reward call.
func Notice(reward int64, err error) string {
	switch Classify(err) {
	case OutcomeGranted:
		return "Ad reward earned: " + models.FormatAmount(reward) + "!"
	case OutcomeRateLimited:
		return "Daily ad view limit reached. Come back tomorrow!"
	case OutcomeInsufficientBudget:
		return "Campaign has insufficient budget"
	default:
		return "Failed to watch ad: " + err.Error()
	}
}
