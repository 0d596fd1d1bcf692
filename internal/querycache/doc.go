// Package querycache is a keyed request cache with tag based invalidation.
//
// Entries are keyed by endpoint name and the canonical JSON of their
// arguments. Each entry moves through Uninitialized, Pending, Fulfilled and
// Rejected, remembers when it was last fetched and which tags it provides,
// and keeps a set of observers (subscriptions). Mutations declare the tags
// they invalidate; invalidation marks matching entries stale and refetches
// the observed ones before the mutation returns.
//
// Every call runs in the caller's goroutine and returns once the request it
// waits for has settled. Identical concurrent requests share one network
// call, and that call is detached from the caller's context: giving up on a
// result never aborts the request for the other observers.
package querycache
