package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zophiezlan/spoo-horse/internal/shortener"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS short_links (
		id             BIGSERIAL PRIMARY KEY,
		alias          TEXT NOT NULL UNIQUE,
		target_url     TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		creator_ip     TEXT NOT NULL DEFAULT '',
		total_clicks   BIGINT NOT NULL DEFAULT 0,
		password_hash  TEXT NOT NULL DEFAULT '',
		max_clicks     BIGINT,
		expires_at     TIMESTAMPTZ,
		source         TEXT NOT NULL DEFAULT '',
		config_preview TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS short_links_source_clicks_idx
		ON short_links (source, total_clicks DESC);

	CREATE TABLE IF NOT EXISTS short_link_ip_clicks (
		alias  TEXT NOT NULL REFERENCES short_links (alias),
		ip     TEXT NOT NULL,
		clicks BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (alias, ip)
	);
`

const linkColumns = `alias, target_url, created_at, creator_ip, total_clicks,
	password_hash, max_clicks, expires_at, source, config_preview`

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}

	return nil
}

func (p *PostgresStore) Insert(ctx context.Context, link *shortener.ShortLink) error {
	query := `
		INSERT INTO short_links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (alias) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query,
		link.Alias,
		link.TargetURL,
		link.CreatedAt,
		link.CreatorIP,
		link.TotalClicks,
		link.PasswordHash,
		link.MaxClicks,
		link.ExpiresAt,
		link.Source,
		link.ConfigPreview,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrAliasTaken
	}

	return nil
}

func (p *PostgresStore) Get(ctx context.Context, alias string) (*shortener.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links WHERE alias = $1`

	link, err := scanLink(p.pool.QueryRow(ctx, query, alias))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	rows, err := p.pool.Query(ctx,
		`SELECT ip, clicks FROM short_link_ip_clicks WHERE alias = $1`, alias)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ip     string
			clicks int64
		)

		if err := rows.Scan(&ip, &clicks); err != nil {
			return nil, err
		}

		link.IPClicks[ip] = clicks
	}

	return link, rows.Err()
}

// RecordClick guards the increment with the click limit in the same UPDATE,
// so concurrent visits cannot overshoot max_clicks.
func (p *PostgresStore) RecordClick(ctx context.Context, alias, ip string) (int64, error) {
	var total int64

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE short_links
			SET total_clicks = total_clicks + 1
			WHERE alias = $1 AND (max_clicks IS NULL OR total_clicks < max_clicks)
			RETURNING total_clicks
		`, alias).Scan(&total)
		if errors.Is(err, pgx.ErrNoRows) {
			return p.missingOrExhausted(ctx, tx, alias)
		}

		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO short_link_ip_clicks (alias, ip, clicks)
			VALUES ($1, $2, 1)
			ON CONFLICT (alias, ip) DO UPDATE SET clicks = short_link_ip_clicks.clicks + 1
		`, alias, ip)

		return err
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (p *PostgresStore) missingOrExhausted(ctx context.Context, tx pgx.Tx, alias string) error {
	var exists bool

	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM short_links WHERE alias = $1)`, alias).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		return shortener.ErrLinkExhausted
	}

	return shortener.ErrNotFound
}

func (p *PostgresStore) Count(ctx context.Context, filter shortener.Filter) (int64, error) {
	var n int64

	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM short_links WHERE ($1::text = '' OR source = $1)`,
		filter.Source,
	).Scan(&n)

	return n, err
}

func (p *PostgresStore) Aggregate(ctx context.Context, filter shortener.Filter) (shortener.Totals, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(total_clicks), 0)::bigint,
		       COALESCE(AVG(total_clicks), 0)::float8
		FROM short_links
		WHERE ($1::text = '' OR source = $1)
	`

	var totals shortener.Totals

	err := p.pool.QueryRow(ctx, query, filter.Source).Scan(
		&totals.Count,
		&totals.SumClicks,
		&totals.AvgClicks,
	)

	return totals, err
}

func (p *PostgresStore) Top(ctx context.Context, filter shortener.Filter, n int) ([]*shortener.ShortLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM short_links
		WHERE ($1::text = '' OR source = $1)
		ORDER BY total_clicks DESC, created_at ASC, id ASC
		LIMIT $2
	`

	rows, err := p.pool.Query(ctx, query, filter.Source, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*shortener.ShortLink

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	return links, rows.Err()
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

func scanLink(row pgx.Row) (*shortener.ShortLink, error) {
	link := &shortener.ShortLink{IPClicks: map[string]int64{}}

	err := row.Scan(
		&link.Alias,
		&link.TargetURL,
		&link.CreatedAt,
		&link.CreatorIP,
		&link.TotalClicks,
		&link.PasswordHash,
		&link.MaxClicks,
		&link.ExpiresAt,
		&link.Source,
		&link.ConfigPreview,
	)
	if err != nil {
		return nil, err
	}

	return link, nil
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
