package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeGranted},
		{"rate limit", ErrRateLimitExceeded, OutcomeRateLimited},
		{"wrapped rate limit", fmt.Errorf("watch: %w", ErrRateLimitExceeded), OutcomeRateLimited},
		{"budget", ErrInsufficientBudget, OutcomeInsufficientBudget},
		{"call error", &CallError{Op: "watch_ad", Err: errors.New("connection refused")}, OutcomeFailed},
		{"not found", ErrNotFound, OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestNotice(t *testing.T) {
	assert.Equal(t, "Ad reward earned: $0.50!", Notice(50_000_000, nil))
	assert.Equal(t, "Daily ad view limit reached. Come back tomorrow!", Notice(0, ErrRateLimitExceeded))
	assert.Equal(t, "Campaign has insufficient budget", Notice(0, ErrInsufficientBudget))
	assert.Equal(t, "Failed to watch ad: watch_ad: http 500: boom",
		Notice(0, &CallError{Op: "watch_ad", Status: 500, Err: errors.New("boom")}))
}

func TestErrorFromMessage(t *testing.T) {
	assert.Equal(t, ErrRateLimitExceeded, errorFromMessage("Daily ad view limit exceeded"))
	assert.Equal(t, ErrInsufficientBudget, errorFromMessage("Campaign has Insufficient budget"))
	assert.Nil(t, errorFromMessage("boom"))
}

func TestCallErrorUnwrap(t *testing.T) {
	cause := errors.New("eof")
	err := &CallError{Op: "get_wallet", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "get_wallet: eof", err.Error())
}
