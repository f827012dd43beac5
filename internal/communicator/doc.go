// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package communicator keeps a client's rendering window in sync with a lazily
loaded, ordered dataset.

A DataCommunicator owns the data provider, the key mapper, the composite data
generator and the range tracker of one client. Every external change (viewport
moved, filter or sort changed, provider replaced, dataset reset) marks the
communicator dirty; Flush then runs one reconciliation pass:

 1. ask the provider for the current size
 2. let the range tracker compute the minimal plan for that size
 3. fetch the rows the plan sets, in pages
 4. assign keys, generate records and queue the plan on an update batch
 5. commit the batch, then confirm the plan in the tracker

Nothing is confirmed unless the commit succeeds, so a failed pass is derived
again on the next trigger.

# Concurrency

A DataCommunicator is not safe for concurrent use. All of its methods must be
called from one goroutine, normally the session goroutine of the client it
serves. FlushAsync runs the provider calls of a pass on another goroutine and
posts the completion back to the caller's goroutine through a post function.
The pass is tagged with the generation and tracker version it started from;
if either moved on by the time it completes, the result is discarded without
side effects.

# Keys

A key removed from the window stays mapped until the client confirms the
update that removed it (ConfirmUpdate). Only then is it cleared and made
available for reuse, so the server never hands out a key the client still
considers live.

# Errors

  - *FetchError: the provider failed. The pass is abandoned, the communicator
    stays dirty and fetch error listeners are notified.
  - *arrayupdater.InconsistentRangeError: a planned operation reached past the
    frame size. The pass is discarded and nothing is sent.
  - *keymapper.UnknownKeyError: returned by ItemForKey for keys the client
    should no longer use. Non-fatal.
  - ErrNilDataProvider: returned at setup time.
*/
package communicator
