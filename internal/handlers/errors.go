package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/zophiezlan/spoo-horse/internal/shortener"
)

// toHTTPError translates domain errors into huma status errors.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, shortener.ErrInvalidURL),
		errors.Is(err, shortener.ErrInvalidAlias),
		errors.Is(err, shortener.ErrInvalidPassword),
		errors.Is(err, shortener.ErrInvalidMaxClicks),
		errors.Is(err, shortener.ErrInvalidExpiry):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, shortener.ErrBlockedURL):
		return huma.Error403Forbidden(err.Error())
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, shortener.ErrAliasTaken):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, shortener.ErrPasswordRequired),
		errors.Is(err, shortener.ErrPasswordMismatch):
		return huma.Error401Unauthorized(err.Error())
	case errors.Is(err, shortener.ErrLinkExhausted),
		errors.Is(err, shortener.ErrLinkExpired):
		return huma.Error410Gone(err.Error())
	case errors.Is(err, shortener.ErrAliasSpaceExhausted),
		errors.Is(err, shortener.ErrStoreUnavailable):
		return huma.Error503ServiceUnavailable("service temporarily unavailable")
	default:
		return huma.Error500InternalServerError("internal server error")
	}
}
