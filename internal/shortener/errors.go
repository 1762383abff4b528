package shortener

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL          = errors.New("invalid url")
	ErrBlockedURL          = errors.New("blocked url")
	ErrInvalidAlias        = errors.New("invalid alias")
	ErrAliasTaken          = errors.New("alias already exists")
	ErrAliasSpaceExhausted = errors.New("could not allocate a free alias")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrInvalidMaxClicks    = errors.New("max clicks must be an integer")
	ErrInvalidExpiry       = errors.New("expiry must be in the future")

	ErrNotFound         = errors.New("short link not found")
	ErrPasswordRequired = errors.New("password required")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrLinkExhausted    = errors.New("link reached its click limit")
	ErrLinkExpired      = errors.New("link expired")

	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrAggregationFailed = errors.New("aggregation failed")
)

// domainErrors pass through the store boundary unwrapped.
var domainErrors = []error{ErrNotFound, ErrAliasTaken, ErrLinkExhausted}

// storeError classifies an error returned by a Repository. Domain sentinels
// are returned as-is, anything else becomes ErrStoreUnavailable.
func storeError(err error) error {
	if err == nil {
		return nil
	}

	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
