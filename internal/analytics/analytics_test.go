package analytics

import (
	"context"
	"testing"

	"github.com/patrickwarner/adreward/internal/observability"
)

func TestRecordEvent_Unavailable(t *testing.T) {
	var a *Analytics
	if err := a.RecordEvent(context.Background(), Event{EventType: EventReward}); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	a = &Analytics{Metrics: observability.NewNoOpRegistry()}
	if err := a.RecordEvent(context.Background(), Event{EventType: EventReward}); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable without DB, got %v", err)
	}
	if _, err := a.GetEventsBySessionID(context.Background(), "s1"); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable from query, got %v", err)
	}
	a.Close()
}

func TestMockAnalytics(t *testing.T) {
	m := NewMockAnalytics()
	ctx := context.Background()
	_ = m.RecordEvent(ctx, Event{EventType: EventSessionStarted, SessionID: "s1"})
	_ = m.RecordEvent(ctx, Event{EventType: EventReward, SessionID: "s1", Reward: 5})
	_ = m.RecordEvent(ctx, Event{EventType: EventSessionClosed, SessionID: "s1"})

	if got := len(m.Events()); got != 3 {
		t.Fatalf("expected 3 events, got %d", got)
	}
	rewards := m.EventsOfType(EventReward)
	if len(rewards) != 1 || rewards[0].Reward != 5 {
		t.Fatalf("unexpected reward events %+v", rewards)
	}
}
