// Package draftworker implements the draft-side worker process: it hosts
// a small, fast model and proposes candidate continuations for each
// active session, tracking enough rollback state to undo a round the
// orchestrator only partially accepts.
package draftworker

import (
	"fmt"
	"sync"

	"github.com/choral-spec/choral-go/internal/model"
)

// Phase is a session's position in its state machine: Open, then
// alternating Proposed/Committed for each round, until Closed.
type Phase int

const (
	PhaseOpen Phase = iota
	PhaseProposed
	PhaseCommitted
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseProposed:
		return "proposed"
	case PhaseCommitted:
		return "committed"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// snapshot is one entry in a session's rollback stack. distribution is
// nil for the base (index 0) entry — no token was sampled to reach it —
// and otherwise holds the filtered probability distribution the worker
// sampled token index from, retrievable via GetSnapshotDistribution for
// the orchestrator's residual-sampling fallback.
type snapshot struct {
	cache        model.CacheState
	logits       model.Logits
	distribution []float64
	token        int32 // token sampled to reach this entry; unset on the base entry
}

// Session is the draft worker's per-session rollback state: tokens is
// the full committed history (prompt plus every token ever finalized by
// a prior round); stack holds the current round's speculative proposal,
// one entry per proposed token plus the base entry at index 0.
type Session struct {
	mu     sync.Mutex
	ID     string
	Phase  Phase
	tokens []int32
	stack  []snapshot
}

// committed returns the cache/logits a new round proposes from: the top
// of the stack, which is the base entry outside a round and the last
// accepted entry once UpdateDraftContext has run.
func (s *Session) committed() (model.CacheState, model.Logits) {
	top := s.stack[len(s.stack)-1]
	return top.cache, top.logits
}

// reset discards everything above the base entry, returning the session
// to PhaseCommitted with no in-flight proposal.
func (s *Session) reset() {
	s.stack = s.stack[:1]
	s.Phase = PhaseCommitted
}

// Registry is the draft worker's session table, guarded by an RWMutex in
// the style of the teacher's agent registry: reads (routine lookups
// during a round) are far more common than writes (session open/close).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	gamma    int
}

func NewRegistry(gamma int) *Registry {
	if gamma <= 0 {
		gamma = 8
	}
	return &Registry{sessions: make(map[string]*Session), gamma: gamma}
}

func (r *Registry) Open(id string, cache model.CacheState, logits model.Logits, tokens []int32) *Session {
	s := &Session{
		ID:     id,
		Phase:  PhaseOpen,
		tokens: append([]int32{}, tokens...),
		stack:  []snapshot{{cache: cache, logits: logits}},
	}
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("draftworker: unknown session %q", id)
	}
	return s, nil
}

func (r *Registry) Close(id string) {
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		s.Phase = PhaseClosed
	}
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Gamma is the configured cap on proposal length, bounding snapshot
// stack depth per session (invariant: the stack never holds more than
// Gamma+1 entries).
func (r *Registry) Gamma() int {
	return r.gamma
}
