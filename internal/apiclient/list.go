package apiclient

import (
	"context"
	"net/http"

	"github.com/tallybook/tallybook/internal/listing"
	"github.com/tallybook/tallybook/internal/shared"
)

// List fetches one page of a list resource.
func List[T any](ctx context.Context, c *Client, path string, q listing.Query) (shared.Page[T], error) {
	var page shared.Page[T]
	if err := c.do(ctx, http.MethodGet, path, listQuery(q.Filters, q.Pagination), nil, &page); err != nil {
		return shared.Page[T]{}, err
	}
	return page, nil
}

// Fetcher adapts a list resource to listing.Fetcher.
type Fetcher[T any] struct {
	Client *Client
	Path   string
}

// NewFetcher builds a Fetcher for resource.
func NewFetcher[T any](c *Client, resource listing.Resource) Fetcher[T] {
	return Fetcher[T]{Client: c, Path: resource.Path}
}

// Fetch implements listing.Fetcher.
func (f Fetcher[T]) Fetch(ctx context.Context, q listing.Query) (shared.Page[T], error) {
	return List[T](ctx, f.Client, f.Path, q)
}
