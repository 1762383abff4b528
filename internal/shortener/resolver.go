package shortener

import (
	"context"
	"errors"

	"github.com/zophiezlan/spoo-horse/internal/alias"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UnknownIP is recorded for visitors whose address could not be determined.
const UnknownIP = "unknown"

// ResolveRequest identifies the link being visited and the visitor.
type ResolveRequest struct {
	Alias    string
	Password string
	ClientIP string
}

// Redirect is the outcome of a successful resolution.
type Redirect struct {
	Alias       string
	TargetURL   string
	TotalClicks int64
	Source      string
}

// Resolver turns aliases into redirect targets and records the visit.
type Resolver struct {
	store  Repository
	logger *zap.Logger
	settings
}

// NewResolver creates a resolution service.
func NewResolver(store Repository, logger *zap.Logger, opts ...Option) *Resolver {
	return &Resolver{
		store:    store,
		logger:   logger,
		settings: newSettings(opts),
	}
}

// Resolve enforces the link's constraints and, when they pass, increments its
// counters and returns the target. Rejected visits never touch counters.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (*Redirect, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := alias.Normalize(req.Alias)
	if key == "" {
		return nil, ErrNotFound
	}

	link, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, storeError(err)
	}

	if err := r.check(link, req.Password); err != nil {
		return nil, err
	}

	ip := req.ClientIP
	if ip == "" {
		ip = UnknownIP
	}

	total, err := r.store.RecordClick(ctx, link.Alias, ip)
	if err != nil {
		if errors.Is(err, ErrLinkExhausted) {
			r.logger.Info("click limit reached concurrently", zap.String("alias", link.Alias))
		}

		return nil, storeError(err)
	}

	return &Redirect{
		Alias:       link.Alias,
		TargetURL:   link.TargetURL,
		TotalClicks: total,
		Source:      link.Source,
	}, nil
}

func (r *Resolver) check(link *ShortLink, password string) error {
	if link.HasPassword() {
		if password == "" {
			return ErrPasswordRequired
		}

		if bcrypt.CompareHashAndPassword([]byte(link.PasswordHash), []byte(password)) != nil {
			return ErrPasswordMismatch
		}
	}

	if link.Expired(r.now()) {
		return ErrLinkExpired
	}

	if link.Exhausted() {
		return ErrLinkExhausted
	}

	return nil
}
