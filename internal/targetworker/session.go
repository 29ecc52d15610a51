// Package targetworker implements the target-side worker process: it
// hosts the large model, scores each round's draft proposal against its
// own distribution, and samples the bonus token that guarantees every
// round advances by at least one token.
package targetworker

import (
	"fmt"
	"sync"

	"github.com/choral-spec/choral-go/internal/model"
)

// trailEntry is one position in a round's verification scratch: the
// cache/logits reached after stepping through i of the round's draft
// tokens, i = 0..len(draftTokens). Unlike the draft worker's rollback
// stack, nothing here is ever rolled back or committed — it is only
// discarded, by FinalizeBatchTokens (which re-steps the committed tokens
// from the last committed state and clears the trail) or by the next
// round's VerifyBatchTokens call, which overwrites it.
type trailEntry struct {
	cache  model.CacheState
	logits model.Logits
}

// Session is the target worker's per-session state. tokens is the
// append-only committed history; trail is the current round's
// discardable scratch region, valid only between a VerifyBatchTokens
// call and the matching FinalizeBatchTokens call.
type Session struct {
	mu     sync.Mutex
	ID     string
	tokens []int32
	cache  model.CacheState
	logits model.Logits
	trail  []trailEntry

	// Idempotence tracking for FinalizeBatchTokens: a repeat call with an
	// identical token list returns the cached outcome instead of
	// re-stepping the model.
	lastFinalizedTokens []int32
	lastFinalizedResult bool
	finalizedOnce       bool
}

func (s *Session) committed() (model.CacheState, model.Logits) {
	return s.cache, s.logits
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Open(id string, cache model.CacheState, logits model.Logits, tokens []int32) *Session {
	s := &Session{ID: id, tokens: append([]int32{}, tokens...), cache: cache, logits: logits}
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
		return nil, fmt.Errorf("targetworker: unknown session %q", id)
	}
	return s, nil
}

func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// sameTokens compares two token lists for FinalizeBatchTokens
// idempotence checks.
func sameTokens(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
