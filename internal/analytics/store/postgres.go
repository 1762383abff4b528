package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zophiezlan/spoo-horse/internal/analytics"
)

const clickLogSchema = `
	CREATE TABLE IF NOT EXISTS link_events (
		event_id    TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		alias       TEXT NOT NULL,
		target_url  TEXT NOT NULL,
		source      TEXT NOT NULL DEFAULT '',
		client_ip   TEXT NOT NULL DEFAULT '',
		user_agent  TEXT NOT NULL DEFAULT '',
		referrer    TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS link_events_alias_idx
		ON link_events (alias, occurred_at);
`

const insertEvent = `
	INSERT INTO link_events
		(event_id, kind, alias, target_url, source, client_ip, user_agent, referrer, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (event_id) DO NOTHING
`

// Postgres appends link events to a click log table. Redelivered events are
// ignored by event ID.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a click log store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the click log table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, clickLogSchema); err != nil {
		return fmt.Errorf("migrate click log: %w", err)
	}

	return nil
}

func (p *Postgres) SaveLinkCreated(ctx context.Context, event *analytics.LinkCreatedEvent) error {
	_, err := p.pool.Exec(ctx, insertEvent,
		event.ID, "created", event.Alias, event.TargetURL, event.Source,
		event.ClientIP, event.UserAgent, "", event.CreatedAt,
	)

	return err
}

func (p *Postgres) SaveLinkClicked(ctx context.Context, event *analytics.LinkClickedEvent) error {
	_, err := p.pool.Exec(ctx, insertEvent,
		event.ID, "clicked", event.Alias, event.TargetURL, event.Source,
		event.ClientIP, event.UserAgent, event.Referrer, event.ClickedAt,
	)

	return err
}

var _ analytics.Store = (*Postgres)(nil)
