package state

import "fmt"

// SyncStatus represents where the node is with catching up to its peers.
type SyncStatus int32

// Set of sync states.
const (
	SyncRequested SyncStatus = iota
	SyncInProgress
	SyncDone
)

// String implements the Stringer interface.
func (ss SyncStatus) String() string {
	switch ss {
	case SyncRequested:
		return "REQUEST_SYNC"
	case SyncInProgress:
		return "IN_PROGRESS"
	case SyncDone:
		return "DONE"
	}

	return fmt.Sprintf("SyncStatus(%d)", int32(ss))
}

// =============================================================================

// SyncStatus returns the current sync status of the node.
func (s *State) SyncStatus() SyncStatus {
	return SyncStatus(s.sync.Load())
}

// RequestSync marks the node as behind its peers unless a sync is already
// running, and signals the worker.
func (s *State) RequestSync() {
	if s.sync.CompareAndSwap(int32(SyncDone), int32(SyncRequested)) {
		s.evHandler("state: RequestSync: sync requested")
	}

	s.Worker.SignalSync()
}

// BeginSync moves the node to IN_PROGRESS. It reports false when a sync is
// already running.
func (s *State) BeginSync() bool {
	for {
		current := s.sync.Load()
		if SyncStatus(current) == SyncInProgress {
			return false
		}

		if s.sync.CompareAndSwap(current, int32(SyncInProgress)) {
			return true
		}
	}
}

// EndSync moves the node to DONE.
func (s *State) EndSync() {
	s.sync.Store(int32(SyncDone))
}
