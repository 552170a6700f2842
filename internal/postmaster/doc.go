// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package postmaster implements a typed, in-process publish/subscribe bus.
//
// Components exchange message values without referencing each other:
//
//	bus := postmaster.New()
//	sub := postmaster.Subscribe(bus, func(m Ping) { ... })
//	postmaster.Send(bus, Ping{Seq: 1})
//	sub.Release()
//	bus.Upkeep() // once per host tick, outside any dispatch
//
// # Deferred removal
//
// Releasing a subscription never edits the subscriber list directly. The
// handle's callback is cleared and the handle is queued; the next Upkeep
// excises it. This makes Release safe from inside a callback that is being
// invoked by Send, including a callback releasing itself.
//
// Subscription lifecycle: Active -> PendingRemoval -> Removed.
//
// # Dispatch
//
// Send looks up the group for the message type and, when present, snapshots
// the active callbacks, bumps the group counters and invokes the snapshot in
// registration order on the sender's goroutine. Handlers released during the
// pass still run in that pass; handlers subscribed during the pass first run
// on the next Send. Sending a type nobody subscribed to is a no-op and creates
// no group. A callback that panics aborts the rest of that pass only.
//
// The bus is safe for concurrent use. Callbacks run without the bus lock
// held, so they may Subscribe, Release or Send reentrantly.
package postmaster
