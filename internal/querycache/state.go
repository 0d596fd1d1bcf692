package querycache

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a cache entry or mutation.
type Status int

const (
	Uninitialized Status = iota
	Pending
	Fulfilled
	Rejected
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "uninitialized"
	}
}

// State is the observable state of a query entry. Data keeps the last
// successful result while a refetch is pending or after it failed.
type State[T any] struct {
	Status        Status
	Data          T
	HasData       bool
	Err           error
	LastFetchedAt time.Time
	Stale         bool
}

// IsLoading holds during the first fetch, before any data is known.
func (s State[T]) IsLoading() bool { return s.Status == Pending && !s.HasData }

// IsFetching holds while any request for the entry is in flight.
func (s State[T]) IsFetching() bool { return s.Status == Pending }

func (s State[T]) IsSuccess() bool { return s.Status == Fulfilled }
func (s State[T]) IsError() bool   { return s.Status == Rejected }

// MutationState is the observable state of a mutation endpoint.
type MutationState[T any] struct {
	Status Status
	Data   T
	Err    error
}

func (s MutationState[T]) IsLoading() bool { return s.Status == Pending }
func (s MutationState[T]) IsSuccess() bool { return s.Status == Fulfilled }
func (s MutationState[T]) IsError() bool   { return s.Status == Rejected }

// ErrSkipped is returned by operations on a skipped subscription.
var ErrSkipped = errors.New("querycache: subscription is skipped")

// expectedError marks a failure that callers should not surface to the
// user, such as an expired session on the current user query.
type expectedError struct {
	err error
}

func (e *expectedError) Error() string { return e.err.Error() }
func (e *expectedError) Unwrap() error { return e.err }

// Expected wraps err as an expected failure. It returns nil for nil.
func Expected(err error) error {
	if err == nil {
		return nil
	}
	return &expectedError{err: err}
}

// IsExpected reports whether err was marked with Expected.
func IsExpected(err error) bool {
	var e *expectedError
	return errors.As(err, &e)
}
