package shortener

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultStoreTimeout bounds every store call unless overridden.
const DefaultStoreTimeout = 5 * time.Second

type settings struct {
	timeout    time.Duration
	now        func() time.Time
	bcryptCost int
}

// Option tunes a Service, Resolver or Stats.
type Option func(*settings)

// WithStoreTimeout bounds each store operation. Zero disables the bound.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithBcryptCost sets the cost used to hash link passwords.
func WithBcryptCost(cost int) Option {
	return func(s *settings) {
		s.bcryptCost = cost
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		timeout:    DefaultStoreTimeout,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}

	for _, opt := range opts {
		opt(&s)
	}

	return s
}

func (s settings) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.timeout)
}
