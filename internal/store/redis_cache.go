package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zophiezlan/spoo-horse/internal/shortener"
)

var errCacheMiss = errors.New("link not cached")

// RedisCacheRepository wraps a Repository with Redis caching for lookups.
// Counters are written back after each click, but the wrapped store stays
// authoritative for the click limit.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
	}
}

// Insert stores a link in the underlying store and updates the cache.
func (r *RedisCacheRepository) Insert(ctx context.Context, link *shortener.ShortLink) error {
	if err := r.store.Insert(ctx, link); err != nil {
		return err
	}

	r.cacheLink(ctx, link)

	return nil
}

// Get retrieves a link by alias, checking cache first.
func (r *RedisCacheRepository) Get(ctx context.Context, alias string) (*shortener.ShortLink, error) {
	if link, err := r.getFromCache(ctx, alias); err == nil {
		return link, nil
	}

	link, err := r.store.Get(ctx, alias)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// recordClickScript refreshes the counters of a cached link. It does nothing
// when the link hash is gone, and never lowers the cached total.
//
// KEYS[1] link hash, KEYS[2] per-IP hash; ARGV[1] ip, ARGV[2] store total,
// ARGV[3] ttl in milliseconds (0 keeps the current expiry).
var recordClickScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'target_url') == 0 then
	return 0
end
local cached = tonumber(redis.call('HGET', KEYS[1], 'total_clicks') or '0') or 0
if tonumber(ARGV[2]) > cached then
	redis.call('HSET', KEYS[1], 'total_clicks', ARGV[2])
end
redis.call('HINCRBY', KEYS[2], ARGV[1], 1)
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
	redis.call('PEXPIRE', KEYS[2], ARGV[3])
end
return 1
`)

// RecordClick delegates to the store and refreshes cached counters.
func (r *RedisCacheRepository) RecordClick(ctx context.Context, alias, ip string) (int64, error) {
	total, err := r.store.RecordClick(ctx, alias, ip)
	if err != nil {
		return total, err
	}

	key := r.prefix + alias

	// A failed refresh only leaves the cache behind until the next miss.
	_ = recordClickScript.Run(ctx, r.client, []string{key, key + ":ips"},
		ip, total, r.ttl.Milliseconds()).Err()

	return total, nil
}

func (r *RedisCacheRepository) Count(ctx context.Context, filter shortener.Filter) (int64, error) {
	return r.store.Count(ctx, filter)
}

func (r *RedisCacheRepository) Aggregate(ctx context.Context, filter shortener.Filter) (shortener.Totals, error) {
	return r.store.Aggregate(ctx, filter)
}

func (r *RedisCacheRepository) Top(ctx context.Context, filter shortener.Filter, n int) ([]*shortener.ShortLink, error) {
	return r.store.Top(ctx, filter, n)
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, alias string) (*shortener.ShortLink, error) {
	key := r.prefix + alias

	pipe := r.client.Pipeline()
	fieldsCmd := pipe.HGetAll(ctx, key)
	ipsCmd := pipe.HGetAll(ctx, key+":ips")

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	result := fieldsCmd.Val()
	if result["alias"] == "" || result["target_url"] == "" {
		return nil, errCacheMiss
	}

	link := &shortener.ShortLink{
		Alias:         result["alias"],
		TargetURL:     result["target_url"],
		CreatorIP:     result["creator_ip"],
		PasswordHash:  result["password_hash"],
		Source:        result["source"],
		ConfigPreview: result["config_preview"],
		IPClicks:      make(map[string]int64),
	}

	if nanos, err := strconv.ParseInt(result["created_at"], 10, 64); err == nil {
		link.CreatedAt = time.Unix(0, nanos).UTC()
	}

	if total, err := strconv.ParseInt(result["total_clicks"], 10, 64); err == nil {
		link.TotalClicks = total
	}

	if v, err := strconv.ParseInt(result["max_clicks"], 10, 64); err == nil {
		link.MaxClicks = &v
	}

	if nanos, err := strconv.ParseInt(result["expires_at"], 10, 64); err == nil {
		t := time.Unix(0, nanos).UTC()
		link.ExpiresAt = &t
	}

	for ip, raw := range ipsCmd.Val() {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			link.IPClicks[ip] = n
		}
	}

	return link, nil
}

func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *shortener.ShortLink) {
	key := r.prefix + link.Alias

	fields := map[string]any{
		"alias":          link.Alias,
		"target_url":     link.TargetURL,
		"created_at":     link.CreatedAt.UnixNano(),
		"creator_ip":     link.CreatorIP,
		"total_clicks":   link.TotalClicks,
		"password_hash":  link.PasswordHash,
		"source":         link.Source,
		"config_preview": link.ConfigPreview,
	}

	if link.MaxClicks != nil {
		fields["max_clicks"] = *link.MaxClicks
	}

	if link.ExpiresAt != nil {
		fields["expires_at"] = link.ExpiresAt.UnixNano()
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key, key+":ips")
	pipe.HSet(ctx, key, fields)

	if len(link.IPClicks) > 0 {
		ips := make(map[string]any, len(link.IPClicks))
		for ip, n := range link.IPClicks {
			ips[ip] = n
		}

		pipe.HSet(ctx, key+":ips", ips)
	}

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
		pipe.Expire(ctx, key+":ips", r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// Shutdown shuts down the wrapped store. The Redis client is managed externally.
func (r *RedisCacheRepository) Shutdown() error {
	if s, ok := r.store.(interface{ Shutdown() error }); ok {
		return s.Shutdown()
	}

	return nil
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
