package screens

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/studio/internal/listing"
	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// pagedList binds a listing state to a paginated query: every change of
// the state moves the subscription to the matching page.
type pagedList[A, T any] struct {
	mu    sync.Mutex
	state listing.State
	toArg func(listing.State) A
	sub   *querycache.Subscription[A, apiclient.Page[T]]
}

func newPagedList[A, T any](
	ctx context.Context,
	q *querycache.Query[A, apiclient.Page[T]],
	pageSize int,
	toArg func(listing.State) A,
) (*pagedList[A, T], error) {
	l := &pagedList[A, T]{state: listing.New(pageSize), toArg: toArg}
	sub, err := q.Subscribe(ctx, toArg(l.state), querycache.Options{}, nil)
	l.sub = sub
	return l, err
}

// apply changes the state and loads the new page.
func (l *pagedList[A, T]) apply(ctx context.Context, change func(listing.State) listing.State) error {
	l.mu.Lock()
	l.state = change(l.state)
	arg := l.toArg(l.state)
	l.mu.Unlock()

	return l.sub.Update(ctx, arg, querycache.Options{})
}

func (l *pagedList[A, T]) State() listing.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Result returns the cached page.
func (l *pagedList[A, T]) Result() querycache.State[apiclient.Page[T]] {
	return l.sub.State()
}

func (l *pagedList[A, T]) Items() []T {
	return l.sub.State().Data.Items
}

func (l *pagedList[A, T]) TotalPages() int {
	return l.State().TotalPages(l.sub.State().Data.Total)
}

func (l *pagedList[A, T]) SearchChange(ctx context.Context, q string) error {
	return l.apply(ctx, func(s listing.State) listing.State { return s.SetSearch(q) })
}

func (l *pagedList[A, T]) FilterChange(ctx context.Context, key, value string) error {
	return l.apply(ctx, func(s listing.State) listing.State { return s.SetFilter(key, value) })
}

func (l *pagedList[A, T]) ClearFilters(ctx context.Context) error {
	return l.apply(ctx, listing.State.ClearFilters)
}

func (l *pagedList[A, T]) SortChange(ctx context.Context, field string) error {
	return l.apply(ctx, func(s listing.State) listing.State { return s.ToggleSort(field) })
}

func (l *pagedList[A, T]) PageChange(ctx context.Context, page int) error {
	return l.apply(ctx, func(s listing.State) listing.State { return s.SetPage(page) })
}

func (l *pagedList[A, T]) PageSizeChange(ctx context.Context, size int) error {
	return l.apply(ctx, func(s listing.State) listing.State { return s.SetPageSize(size) })
}

// clamp steps back when the current page no longer exists.
func (l *pagedList[A, T]) clamp(ctx context.Context) error {
	total := l.sub.State().Data.Total
	if l.State().Clamp(total).Page == l.State().Page {
		return nil
	}
	return l.apply(ctx, func(s listing.State) listing.State { return s.Clamp(total) })
}

func (l *pagedList[A, T]) Close() {
	l.sub.Unsubscribe()
}
