package cosmosrest

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxPages bounds Paginate when the caller passes a non-positive limit
const DefaultMaxPages = 1000

// Sentinel errors for pagination
var (
	ErrPageLimitExceeded = errors.New("page limit exceeded")
	ErrCursorRepeated    = errors.New("pagination cursor repeated")
)

// PageFunc fetches the page identified by key. The first page has an empty key.
type PageFunc[T any] func(ctx context.Context, key string) (Page[T], error)

// Paginate follows next keys starting with no key, concatenating items until a page comes back without a next key.
//
// At most maxPages requests are made. If the last allowed page still has a next key, the items collected so far are
// returned together with ErrPageLimitExceeded. A next key equal to the key just requested fails with
// ErrCursorRepeated.
func Paginate[T any](ctx context.Context, maxPages int, fetch PageFunc[T]) ([]T, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var (
		items []T
		key   string
	)
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		p, err := fetch(ctx, key)
		if err != nil {
			return items, fmt.Errorf("page %d: %w", page, err)
		}
		items = append(items, p.Items...)

		if p.NextKey == "" {
			return items, nil
		}
		if p.NextKey == key {
			return items, fmt.Errorf("%w: page %d returned key %q again", ErrCursorRepeated, page, key)
		}
		key = p.NextKey
	}

	return items, fmt.Errorf("%w: still paginating after %d pages", ErrPageLimitExceeded, maxPages)
}
