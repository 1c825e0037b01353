/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package snapshot

import (
	"fmt"
	"sync/atomic"
)

// State is the matcher install state machine (§4.9 "State machine (Matcher
// install)"): Empty -> Live on first snapshot; Live -> Rebuilding on pipeline
// trigger; Rebuilding -> Installing -> Live on success; Rebuilding -> Live on
// rebuild failure, old snapshot retained.
type State int32

const (
	StateEmpty State = iota
	StateLive
	StateRebuilding
	StateInstalling
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLive:
		return "live"
	case StateRebuilding:
		return "rebuilding"
	case StateInstalling:
		return "installing"
	default:
		return "unknown"
	}
}

// Holder is the live-snapshot pointer slot: an atomically swappable
// reference to an immutable Snapshot (§4.4, §9 "Lock-free snapshot
// replacement"). The matcher API is available in every state (§4.9); during
// Rebuilding/Installing it keeps serving the previous snapshot.
type Holder struct {
	ptr   atomic.Pointer[Snapshot]
	state atomic.Int32
	// rebuilding guards the single-in-flight-install invariant (§5 "Snapshot
	// installs are serialised (one in flight)"). It is separate from state so
	// BeginRebuild can fail fast without racing state transitions observed by
	// readers.
	rebuilding atomic.Bool
}

// NewHolder returns a Holder in the Empty state.
func NewHolder() *Holder {
	return &Holder{}
}

// Load returns the current live snapshot, or nil if no snapshot has ever
// been installed (State() == StateEmpty). Matcher calls load exactly once
// per call/batch and run entirely against the value returned (§4.1, §4.5).
func (h *Holder) Load() *Snapshot {
	return h.ptr.Load()
}

// State reports the current install state. It is informational; it is never
// required for correctness of a Load-then-match call.
func (h *Holder) State() State {
	return State(h.state.Load())
}

// BeginRebuild transitions Live/Empty -> Rebuilding and reports whether the
// caller won the right to build the next snapshot. A caller that loses (a
// rebuild is already in flight) should coalesce its pending work into the
// next cycle rather than starting a second concurrent build, per §4.7
// "MAX_PENDING_INSTALLS" (1 rebuild in flight, 1 queued).
func (h *Holder) BeginRebuild() bool {
	if !h.rebuilding.CompareAndSwap(false, true) {
		return false
	}
	h.state.Store(int32(StateRebuilding))
	return true
}

// CommitInstall publishes next as the live snapshot: Rebuilding ->
// Installing -> Live. The old snapshot is simply dereferenced; it is
// reclaimed by the garbage collector once the last in-flight matcher call
// holding it returns (§4.4).
func (h *Holder) CommitInstall(next *Snapshot) {
	h.state.Store(int32(StateInstalling))
	h.ptr.Store(next)
	h.state.Store(int32(StateLive))
	h.rebuilding.Store(false)
}

// AbortRebuild transitions Rebuilding -> Live on a failed build, retaining
// whatever snapshot was already live (§4.9, §7 InstallFailure). err is
// accepted purely so callers can pass through the failure for logging at the
// call site; Holder itself does not log.
func (h *Holder) AbortRebuild(err error) error {
	if h.ptr.Load() != nil {
		h.state.Store(int32(StateLive))
	} else {
		h.state.Store(int32(StateEmpty))
	}
	h.rebuilding.Store(false)
	if err != nil {
		return fmt.Errorf("snapshot: install aborted: %w", err)
	}
	return nil
}
