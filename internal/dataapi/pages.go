package dataapi

import (
	"context"
	"errors"
)

// ErrPageLimit is returned by FetchAll when the page ceiling stops the loop
// before the server runs out of continuation links. The records accumulated
// so far are still returned.
var ErrPageLimit = errors.New("dataapi: page limit reached")

// FetchOptions bound the pagination loop.
type FetchOptions struct {
	// MaxPages stops the loop after this many pages; zero means unlimited.
	MaxPages int
}

// Progress reports accumulation after each page: the total record count so
// far and whether this was the final page.
type Progress func(accumulated int, last bool)

// FetchAll executes a query and follows continuation links until the server
// stops returning them, accumulating every record. Continuation links are
// used verbatim. The context is checked between pages, since a large
// dataset would otherwise hold the caller indefinitely; cancellation
// returns the context error with whatever was accumulated discarded by the
// caller's choice.
func (c *Client) FetchAll(ctx context.Context, queryString string, opts FetchOptions, onProgress Progress) ([]Record, error) {
	var records []Record
	pages := 0
	next := queryString

	for {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		page, err := c.Execute(ctx, next)
		if err != nil {
			return records, err
		}
		records = append(records, page.Records...)
		pages++

		last := page.NextLink == ""
		ceiling := opts.MaxPages > 0 && pages >= opts.MaxPages && !last
		if onProgress != nil {
			onProgress(len(records), last || ceiling)
		}
		if last {
			return records, nil
		}
		if ceiling {
			return records, ErrPageLimit
		}
		next = page.NextLink
	}
}
