// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package dataprovider defines the item source abstraction consumed by the data
communicator, together with the adapters used in production and tests.

A DataProvider answers two questions for a filter context (Query): how many
items match, and which items live in a given offset/limit window. Providers
must tolerate windows extending past the end of the dataset and truncate the
result silently instead of failing.

Key Components:

  - DataProvider: Size/Fetch contract over a Query (offset, limit, filter, sort)
  - Identifier / IdentityFunc: stable identity used by the key mapper
  - ListProvider: in-memory slice with filter predicate and named comparators
  - CallbackProvider: count and fetch callbacks (lazy loading from any backend)
  - BreakerProvider: circuit breaker and token-bucket rate limit around a remote provider

Identity:

Without an explicit identity function the item value itself is the identity.
For pointer item types this is reference identity, so two distinct pointers
to equal values receive distinct keys. This is intended: callers that want
value-based deduplication must supply an IdentityFunc or implement Identifier.

	provider := dataprovider.NewListProvider(rows,
	    dataprovider.WithFilter(func(r Row, f any) bool {
	        return strings.Contains(r.Title, f.(string))
	    }),
	    dataprovider.WithComparator("title", func(a, b Row) int {
	        return strings.Compare(a.Title, b.Title)
	    }),
	)

Thread Safety:

ListProvider and BreakerProvider are safe for concurrent use. The communicator
may issue fetches for different ranges concurrently; ordering of their
application is decided by the communicator, not by completion order.
*/
package dataprovider
