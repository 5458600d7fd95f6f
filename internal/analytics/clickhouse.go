package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/patrickwarner/adreward/internal/observability"
)

// Event types written by the session controller.
const (
	EventSessionStarted   = "session_started"
	EventContentCompleted = "content_completed"
	EventAdSlot           = "ad_slot"
	EventAdCompleted      = "ad_completed"
	EventReward           = "reward"
	EventSessionClosed    = "session_closed"
)

// AnalyticsService defines the interface for analytics operations.
// Implementations should handle cases where underlying storage is unavailable
// by returning ErrUnavailable.
type AnalyticsService interface {
	// RecordEvent records one session lifecycle event.
	RecordEvent(ctx context.Context, ev Event) error
}

// Event mirrors a row in the session_events table.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	EventType  string    `json:"event_type"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	ContentID  string    `json:"content_id"`
	CampaignID string    `json:"campaign_id,omitempty"`
	Kind       string    `json:"kind"`             // internal or external player
	State      string    `json:"state"`            // session state after the event
	Reason     string    `json:"reason,omitempty"` // slot decision or reward outcome
	Reward     int64     `json:"reward"`
	AdsShown   int       `json:"ads_shown"`
}

// Analytics wraps a ClickHouse DB connection.
type Analytics struct {
	DB      *sql.DB
	Metrics observability.MetricsRegistry
}

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = fmt.Errorf("analytics unavailable")

// InitClickHouse connects to ClickHouse and ensures the session_events
// table exists.
func InitClickHouse(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration, metrics observability.MetricsRegistry) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	create := `CREATE TABLE IF NOT EXISTS session_events (
       timestamp    DateTime,
       event_type   String,
       session_id   String,
       user_id      String,
       content_id   String,
       campaign_id  Nullable(String),
       kind         LowCardinality(String),
       state        LowCardinality(String),
       reason       Nullable(String),
       reward       Int64,
       ads_shown    UInt16
   ) ENGINE=MergeTree() ORDER BY (event_type, timestamp)`
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &Analytics{DB: db, Metrics: metrics}, nil
}

// RecordEvent inserts a single event row into the session_events table.
func (a *Analytics) RecordEvent(ctx context.Context, ev Event) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	var campaign sql.NullString
	if ev.CampaignID != "" {
		campaign.String = ev.CampaignID
		campaign.Valid = true
	}
	var reason sql.NullString
	if ev.Reason != "" {
		reason.String = ev.Reason
		reason.Valid = true
	}

	stmt := `INSERT INTO session_events (timestamp, event_type, session_id, user_id, content_id, campaign_id, kind, state, reason, reward, ads_shown) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := a.DB.ExecContext(ctx, stmt, ev.Timestamp, ev.EventType, ev.SessionID, ev.UserID, ev.ContentID, campaign, ev.Kind, ev.State, reason, ev.Reward, uint16(ev.AdsShown)); err != nil {
		if a.Metrics != nil {
			a.Metrics.IncrementEventPersistErrors()
		}
		zap.L().Error("clickhouse insert failed", zap.Error(err), zap.String("event_type", ev.EventType))
		return fmt.Errorf("insert %s event: %w", ev.EventType, err)
	}
	return nil
}

// GetEventsBySessionID returns a session's events in time order.
func (a *Analytics) GetEventsBySessionID(ctx context.Context, id string) ([]Event, error) {
	if a == nil || a.DB == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT timestamp, event_type, session_id, user_id, content_id, campaign_id, kind, state, reason, reward, ads_shown FROM session_events WHERE session_id=? ORDER BY timestamp`
	rows, err := a.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("rows close", zap.Error(err))
		}
	}()

	var events []Event
	for rows.Next() {
		var (
			ev       Event
			campaign sql.NullString
			reason   sql.NullString
			ads      uint16
		)
		if err := rows.Scan(&ev.Timestamp, &ev.EventType, &ev.SessionID, &ev.UserID, &ev.ContentID, &campaign, &ev.Kind, &ev.State, &reason, &ev.Reward, &ads); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.CampaignID = campaign.String
		ev.Reason = reason.String
		ev.AdsShown = int(ads)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return events, nil
}

// Close closes the ClickHouse connection.
func (a *Analytics) Close() {
	if a != nil && a.DB != nil {
		if err := a.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}
