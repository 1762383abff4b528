package shortener

import "context"

// Repository is the persistence contract the services need from a record
// store. Implementations must make Insert and RecordClick atomic.
type Repository interface {
	// Insert stores link only if its alias is free. It returns ErrAliasTaken
	// and leaves the existing record untouched otherwise.
	Insert(ctx context.Context, link *ShortLink) error

	// Get returns the link for alias or ErrNotFound.
	Get(ctx context.Context, alias string) (*ShortLink, error)

	// RecordClick increments the total and per-IP counters of alias in a single
	// atomic operation and returns the new total. The increment is refused with
	// ErrLinkExhausted when the link already reached its click limit.
	RecordClick(ctx context.Context, alias, ip string) (int64, error)

	// Count returns the number of links matching filter.
	Count(ctx context.Context, filter Filter) (int64, error)

	// Aggregate returns count, click sum and unrounded click average for filter.
	Aggregate(ctx context.Context, filter Filter) (Totals, error)

	// Top returns up to n links matching filter ordered by total clicks
	// descending, then creation time and alias ascending.
	Top(ctx context.Context, filter Filter, n int) ([]*ShortLink, error)
}
