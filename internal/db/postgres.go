package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/patrickwarner/adreward/internal/models"
)

// Postgres wraps a postgres DB connection holding the content catalog.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the catalog table if it doesn't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS content (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    monetization TEXT NOT NULL DEFAULT 'adSupported',
    price BIGINT NOT NULL DEFAULT 0,
    asset_id TEXT,
    external_url TEXT,
    published BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_content_published ON content (published) WHERE published = true;
`

// InitPostgres connects to Postgres with connection pooling configuration.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	// Register the otelsql wrapper for postgres
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to Postgres with connection pooling",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

// ensureSchema creates the required tables if they do not exist.
func (p *Postgres) ensureSchema() error {
	ctx := context.Background()
	if _, err := p.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// LoadContent retrieves every published catalog item.
func (p *Postgres) LoadContent(ctx context.Context) ([]models.Content, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT id, title, description, monetization, price, asset_id, external_url FROM content WHERE published ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []models.Content
	for rows.Next() {
		var (
			c                          models.Content
			monetization               string
			desc, assetID, externalURL sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Title, &desc, &monetization, &c.Price, &assetID, &externalURL); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		c.Description = desc.String
		c.Monetization = models.Monetization(monetization)
		c.AssetID = assetID.String
		c.ExternalURL = externalURL.String
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

// UpsertContent inserts a catalog item or replaces the existing row.
func (p *Postgres) UpsertContent(ctx context.Context, c models.Content) error {
	_, err := p.DB.ExecContext(ctx, `INSERT INTO content (id, title, description, monetization, price, asset_id, external_url)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description, monetization=EXCLUDED.monetization,
price=EXCLUDED.price, asset_id=EXCLUDED.asset_id, external_url=EXCLUDED.external_url, updated_at=CURRENT_TIMESTAMP`,
		c.ID, c.Title, nullString(c.Description), string(c.Monetization), c.Price, nullString(c.AssetID), nullString(c.ExternalURL))
	if err != nil {
		return fmt.Errorf("upsert content %s: %w", c.ID, err)
	}
	return nil
}

// UnpublishContent hides an item from future catalog loads.
func (p *Postgres) UnpublishContent(ctx context.Context, id string) error {
	res, err := p.DB.ExecContext(ctx, `UPDATE content SET published=false, updated_at=CURRENT_TIMESTAMP WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("unpublish content %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
