package summary

import (
	"sync"

	"metachat.app/studio/internal/model"
)

// EmptyText is the canonical summary before any messages exist and after
// a clear.
const EmptyText = "No messages yet."

// State is the per-instance summary cell: the latest accepted summary
// text plus a monotonic version counter. Versions are issued when a
// summarization attempt is initiated, and a result commits only if its
// token is still the highest ever issued — so the latest-triggered
// attempt wins even when attempts complete out of order.
//
// All mutation goes through the compare-by-version operations below;
// there is no other way to write the cell.
type State struct {
	mu        sync.Mutex
	issued    int64
	committed model.SummarySnapshot
}

func NewState() *State {
	return &State{
		committed: model.SummarySnapshot{Text: EmptyText, Version: 0},
	}
}

// NextVersion issues a fresh attempt token. Tokens are strictly
// increasing and shared with the reset path, so a reset dominates every
// attempt initiated before it.
func (s *State) NextVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// CommitIfLatest applies a summarization result only if its token is
// still the highest issued. Returns the committed snapshot and whether
// the commit took effect; a superseded result leaves the cell untouched.
func (s *State) CommitIfLatest(text string, version int64) (model.SummarySnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if version != s.issued || version <= s.committed.Version {
		return s.committed, false
	}

	s.committed = model.SummarySnapshot{Text: text, Version: version}
	return s.committed, true
}

// Reset clears the cell to the canonical empty snapshot under a freshly
// issued version. The counter keeps increasing so in-flight results from
// before the clear can never commit.
func (s *State) Reset() model.SummarySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	s.committed = model.SummarySnapshot{Text: EmptyText, Version: s.issued}
	return s.committed
}

// Observe adopts a summary committed by another instance. Relay
// envelopes carry versions from the same logical token space, so
// observation also advances the issued counter: a local in-flight
// attempt older than the observed version can no longer commit.
func (s *State) Observe(text string, version int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if version <= s.committed.Version {
		return false
	}

	s.committed = model.SummarySnapshot{Text: text, Version: version}
	if version > s.issued {
		s.issued = version
	}
	return true
}

// Snapshot returns the latest committed summary.
func (s *State) Snapshot() model.SummarySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}
