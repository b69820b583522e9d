// Package listing keeps the filter, pagination and result state of a
// server-side list and discards responses that a newer request superseded.
package listing

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"

	"github.com/tallybook/tallybook/internal/shared"
)

// ErrSuperseded is returned by a fetch whose result was discarded because a
// newer fetch was issued while it was in flight.
var ErrSuperseded = errors.New("listing: superseded by a newer request")

// Query is what a Fetcher receives.
type Query struct {
	Filters    map[string]string
	Pagination shared.Pagination
}

// Fetcher loads one page of a list.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, q Query) (shared.Page[T], error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc[T any] func(ctx context.Context, q Query) (shared.Page[T], error)

// Fetch implements Fetcher.
func (f FetchFunc[T]) Fetch(ctx context.Context, q Query) (shared.Page[T], error) {
	return f(ctx, q)
}

// State is a snapshot of a controller.
type State[T any] struct {
	Filters    map[string]string
	Pagination shared.Pagination
	Data       []T
	Total      int
	Loading    bool
	Err        error
}

// Controller drives one list. It is safe for concurrent use; only the most
// recently issued fetch may change Data, Total or Err.
type Controller[T any] struct {
	resource Resource
	fetcher  Fetcher[T]
	logger   *slog.Logger

	mu         sync.Mutex
	filters    map[string]string
	pagination shared.Pagination
	data       []T
	total      int
	loading    bool
	err        error
	generation uint64
}

// NewController builds a controller with the resource's default filters.
func NewController[T any](resource Resource, fetcher Fetcher[T], logger *slog.Logger) *Controller[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller[T]{
		resource:   resource,
		fetcher:    fetcher,
		logger:     logger,
		filters:    maps.Clone(resource.Defaults),
		pagination: shared.Pagination{}.Normalize(),
	}
}

// State returns a copy of the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State[T]{
		Filters:    maps.Clone(c.filters),
		Pagination: c.pagination,
		Data:       append([]T(nil), c.data...),
		Total:      c.total,
		Loading:    c.loading,
		Err:        c.err,
	}
}

// SetFilters merges partial into the filters, returns to the first page and
// reloads.
func (c *Controller[T]) SetFilters(ctx context.Context, partial map[string]string) error {
	c.mu.Lock()
	if c.filters == nil {
		c.filters = make(map[string]string, len(partial))
	}
	maps.Copy(c.filters, partial)
	c.pagination.PageNumber = 1
	c.mu.Unlock()
	return c.ReloadList(ctx)
}

// SetPagination merges the non-zero fields of partial and reloads.
func (c *Controller[T]) SetPagination(ctx context.Context, partial shared.Pagination) error {
	c.mu.Lock()
	if partial.PageNumber > 0 {
		c.pagination.PageNumber = partial.PageNumber
	}
	if partial.PageSize > 0 {
		c.pagination.PageSize = partial.PageSize
	}
	c.pagination = c.pagination.Normalize()
	c.mu.Unlock()
	return c.ReloadList(ctx)
}

// ClearFilters restores every filter to its default at once and reloads.
func (c *Controller[T]) ClearFilters(ctx context.Context) error {
	c.mu.Lock()
	c.filters = maps.Clone(c.resource.Defaults)
	c.pagination.PageNumber = 1
	c.mu.Unlock()
	return c.ReloadList(ctx)
}

// FilterCounter counts filters whose value differs from the default. A key
// missing on either side counts as the empty string.
func (c *Controller[T]) FilterCounter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for key, value := range c.filters {
		if value != c.resource.Defaults[key] {
			count++
		}
	}
	for key, def := range c.resource.Defaults {
		if _, ok := c.filters[key]; !ok && def != "" {
			count++
		}
	}
	return count
}

// ReloadList fetches the current page. On failure Err is set and the last
// successful Data and Total are kept.
func (c *Controller[T]) ReloadList(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	q := Query{Filters: maps.Clone(c.filters), Pagination: c.pagination}
	c.loading = true
	c.mu.Unlock()

	page, err := c.fetcher.Fetch(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("discarding superseded list response", slog.String("resource", c.resource.Name), slog.Uint64("generation", gen))
		return ErrSuperseded
	}
	c.loading = false
	if err != nil {
		c.err = err
		return err
	}
	c.err = nil
	c.data = page.Data
	c.total = page.Meta.Total
	return nil
}
