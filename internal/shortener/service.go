package shortener

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zophiezlan/spoo-horse/internal/alias"
	"github.com/zophiezlan/spoo-horse/internal/urlcheck"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MaxAliasRetries bounds how many fresh random aliases are tried after the
// first candidate collides.
const MaxAliasRetries = 10

// AliasCodec produces and checks alias candidates.
type AliasCodec interface {
	Valid(candidate string) bool
	Generate() string
	Derive(hint string) string
}

// URLPolicy decides whether a structurally valid target is denied.
type URLPolicy interface {
	Blocked(rawURL string) bool
}

// CreateRequest carries the already-parsed inputs of a shorten call.
type CreateRequest struct {
	TargetURL     string
	Alias         string
	Password      string
	MaxClicks     string
	ExpiresAt     *time.Time
	Hint          string
	ConfigPreview string
	Source        string
	CreatorIP     string
}

// Service creates short links.
type Service struct {
	store  Repository
	codec  AliasCodec
	policy URLPolicy
	logger *zap.Logger
	settings
}

// NewService creates a shortening service.
func NewService(
	store Repository,
	codec AliasCodec,
	policy URLPolicy,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	return &Service{
		store:    store,
		codec:    codec,
		policy:   policy,
		logger:   logger,
		settings: newSettings(opts),
	}
}

// Create validates req and stores a new link under a free alias.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*ShortLink, error) {
	target := strings.TrimSpace(req.TargetURL)
	if !urlcheck.StructurallyValid(target) {
		return nil, ErrInvalidURL
	}

	if s.policy != nil && s.policy.Blocked(target) {
		return nil, ErrBlockedURL
	}

	requested := alias.Normalize(req.Alias)
	if requested != "" && !s.codec.Valid(requested) {
		return nil, ErrInvalidAlias
	}

	link, err := s.newLink(req, target)
	if err != nil {
		return nil, err
	}

	if requested != "" {
		link.Alias = requested

		if err := s.insert(ctx, link); err != nil {
			return nil, err
		}

		return link, nil
	}

	return s.insertGenerated(ctx, link, req.Hint)
}

func (s *Service) newLink(req CreateRequest, target string) (*ShortLink, error) {
	now := s.now().UTC()

	link := &ShortLink{
		TargetURL:     target,
		CreatedAt:     now,
		CreatorIP:     req.CreatorIP,
		IPClicks:      map[string]int64{},
		Source:        req.Source,
		ConfigPreview: TruncatePreview(req.ConfigPreview),
	}

	if req.Password != "" {
		hash, err := s.hashPassword(req.Password)
		if err != nil {
			return nil, err
		}

		link.PasswordHash = hash
	}

	maxClicks, err := ParseMaxClicks(req.MaxClicks)
	if err != nil {
		return nil, err
	}

	link.MaxClicks = maxClicks

	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(now) {
			return nil, ErrInvalidExpiry
		}

		expires := req.ExpiresAt.UTC()
		link.ExpiresAt = &expires
	}

	return link, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPassword, err)
	}

	return string(hash), nil
}

// insertGenerated tries the hint-derived (or random) candidate first, then up
// to MaxAliasRetries fresh random ones.
func (s *Service) insertGenerated(ctx context.Context, link *ShortLink, hint string) (*ShortLink, error) {
	candidate := s.codec.Generate()
	if hint != "" {
		candidate = s.codec.Derive(hint)
	}

	for attempt := 0; attempt <= MaxAliasRetries; attempt++ {
		if attempt > 0 {
			candidate = s.codec.Generate()
		}

		link.Alias = candidate

		err := s.insert(ctx, link)
		if err == nil {
			return link, nil
		}

		if !errors.Is(err, ErrAliasTaken) {
			return nil, err
		}

		s.logger.Debug("alias collision",
			zap.String("alias", candidate),
			zap.Int("attempt", attempt),
		)
	}

	s.logger.Warn("alias space exhausted", zap.Int("attempts", MaxAliasRetries+1))

	return nil, ErrAliasSpaceExhausted
}

func (s *Service) insert(ctx context.Context, link *ShortLink) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return storeError(s.store.Insert(ctx, link))
}

// ParseMaxClicks parses an optional click limit. Negative values are stored
// as their absolute value.
func ParseMaxClicks(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n == math.MinInt64 {
		return nil, ErrInvalidMaxClicks
	}

	if n < 0 {
		n = -n
	}

	return &n, nil
}

// TruncatePreview cuts s to MaxConfigPreview characters.
func TruncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxConfigPreview {
		return s
	}

	return string(runes[:MaxConfigPreview])
}
