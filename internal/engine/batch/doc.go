// Package batch implements the concurrent texture batch engine.
//
// The engine discovers work items under a root folder, runs each item's
// background phase under bounded concurrency, and funnels every mutation of
// the shared asset store onto a single owner goroutine. Key features:
//   - Deterministic discovery (lexical order) through a Source
//   - A FIFO counting Gate with capacity max(1, workers-1)
//   - An AffineExecutor that runs queued closures one at a time, only when
//     the host calls DrainOnce from its tick loop
//   - Cooperative, idempotent cancellation checked before the background
//     phase and before each affine closure
//   - Lock-free progress snapshots polled by the UI
//
// Item failures never abort a run. They are reported as tagged ItemOutcome
// values on the BatchResult. Only a DiscoveryError fails the run as a whole.
package batch
