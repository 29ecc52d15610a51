package draftworker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/choral-spec/choral-go/internal/kernel"
	"github.com/choral-spec/choral-go/internal/model"
	"github.com/choral-spec/choral-go/internal/werr"
	"github.com/choral-spec/choral-go/internal/wire"
)

// Server implements wire.DraftServiceServer. modelMu serializes every
// forward pass against the single underlying model.Model instance, per
// its documented non-concurrency-safety; session bookkeeping itself is
// independently guarded per-session so that serialization doesn't
// collapse into a single global session lock.
type Server struct {
	log *slog.Logger

	modelMu sync.Mutex
	mdl     model.Model
	loaded  bool
	sig     string // model load signature, for LoadModel idempotence

	registry *Registry
	rngMu    sync.Mutex
	rngs     map[string]*rand.Rand
	seed     int64
	ordinal  int64
}

// NewServer wires mdl behind a draft worker exposing the DraftService
// RPCs. baseSeed seeds each session's independent RNG stream, per
// section on per-session reproducibility: session N draws from
// rand.NewSource(baseSeed + N), N assigned in StartSession call order.
func NewServer(mdl model.Model, baseSeed int64, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log:      log,
		mdl:      mdl,
		registry: NewRegistry(8),
		rngs:     make(map[string]*rand.Rand),
		seed:     baseSeed,
	}
}

func (s *Server) LoadModel(ctx context.Context, req *wire.LoadModelRequest) (*wire.Ack, error) {
	sig := fmt.Sprintf("%s|%d|%d|%d|%s", req.ModelPath, req.NPositions, req.BatchSize, req.TPDegree, req.AMP)

	s.modelMu.Lock()
	defer s.modelMu.Unlock()
	if s.loaded {
		if s.sig != sig {
			return nil, werr.New(werr.LoadFailure, "DraftService.LoadModel",
				fmt.Errorf("model already loaded with a different configuration"))
		}
		return &wire.Ack{Success: true, Message: "already loaded"}, nil
	}

	gamma := int(req.Gamma)
	s.registry = NewRegistry(gamma)
	s.loaded = true
	s.sig = sig
	s.log.Info("draft model loaded", "path", req.ModelPath, "gamma", gamma)
	return &wire.Ack{Success: true}, nil
}

func (s *Server) StartSession(ctx context.Context, req *wire.StartSessionRequest) (*wire.StartSessionResponse, error) {
	s.modelMu.Lock()
	cache, logits, err := s.mdl.Prefill(ctx, req.InputIDs)
	s.modelMu.Unlock()
	if err != nil {
		return nil, werr.New(werr.WorkerFault, "DraftService.StartSession", err)
	}

	s.registry.Open(req.SessionID, cache, logits, req.InputIDs)

	s.rngMu.Lock()
	ord := s.ordinal
	s.ordinal++
	s.rngs[req.SessionID] = rand.New(rand.NewSource(s.seed + ord))
	s.rngMu.Unlock()

	s.log.Debug("draft session started", "session_id", req.SessionID, "prompt_len", len(req.InputIDs))
	return &wire.StartSessionResponse{SessionID: req.SessionID, Success: true, EOSToken: s.mdl.EOS()}, nil
}

func (s *Server) EndSession(ctx context.Context, req *wire.StartSessionRequest) (*wire.Ack, error) {
	s.registry.Close(req.SessionID)
	s.rngMu.Lock()
	delete(s.rngs, req.SessionID)
	s.rngMu.Unlock()
	return &wire.Ack{Success: true}, nil
}

// GenerateDraft proposes up to req.DraftLength tokens for every listed
// session. Sessions are independent: a forward-pass failure or an
// early EOS on one session truncates only that session's Tokens slice
// and never aborts the batch.
func (s *Server) GenerateDraft(ctx context.Context, req *wire.GenerateDraftRequest) (*wire.GenerateDraftResponse, error) {
	outputs := make([]wire.DraftOutput, len(req.SessionIDs))
	for i, id := range req.SessionIDs {
		outputs[i] = s.generateOne(ctx, id, req.DraftLength, req.Temperature, req.TopP)
	}
	return &wire.GenerateDraftResponse{Outputs: outputs}, nil
}

func (s *Server) generateOne(ctx context.Context, id string, length int32, temperature, topP float32) wire.DraftOutput {
	sess, err := s.registry.Get(id)
	if err != nil {
		return wire.DraftOutput{SessionID: id, Error: err.Error()}
	}
	rng := s.rngFor(id)
	if g := int32(s.registry.Gamma()); length > g {
		length = g
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.reset() // a fresh proposal always starts from the last committed state
	cache, logits := sess.committed()

	tokens := make([]int32, 0, length)
	probs := make([]float64, 0, length)

	for step := int32(0); step < length; step++ {
		dist := kernel.TopP(kernel.Softmax(logits, temperature), topP)
		tok := int32(kernel.Sample(rng, dist))

		sess.stack = append(sess.stack, snapshot{distribution: dist, token: tok})

		s.modelMu.Lock()
		newCache, newLogits, err := s.mdl.Step(ctx, cache, tok)
		s.modelMu.Unlock()
		if err != nil {
			return wire.DraftOutput{SessionID: id, Tokens: tokens, Probs: probs, Error: err.Error()}
		}

		sess.stack[len(sess.stack)-1].cache = newCache
		sess.stack[len(sess.stack)-1].logits = newLogits

		tokens = append(tokens, tok)
		probs = append(probs, dist[tok])
		cache, logits = newCache, newLogits

		if tok == s.mdl.EOS() {
			break
		}
	}

	sess.Phase = PhaseProposed
	return wire.DraftOutput{SessionID: id, Tokens: tokens, Probs: probs}
}

// GetSnapshotDistribution returns the filtered draft distribution Q used
// to sample the token at 1-based position req.Index in the session's
// current proposal, for the orchestrator's residual-sampling fallback on
// partial acceptance. Index 0 is never valid: it names the pre-round
// base snapshot, which has no attached distribution.
func (s *Server) GetSnapshotDistribution(ctx context.Context, req *wire.SnapshotDistributionRequest) (*wire.SnapshotDistributionResponse, error) {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return &wire.SnapshotDistributionResponse{Success: false, Message: err.Error()}, nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	idx := int(req.Index)
	if idx <= 0 || idx >= len(sess.stack) {
		return &wire.SnapshotDistributionResponse{
			Success: false,
			Message: fmt.Sprintf("snapshot index %d out of range (stack depth %d)", idx, len(sess.stack)),
		}, nil
	}
	return &wire.SnapshotDistributionResponse{Success: true, Distribution: sess.stack[idx].distribution}, nil
}

// UpdateDraftContext rolls the session back to the accepted prefix and
// advances it by the bonus token the target worker sampled, leaving the
// session PhaseCommitted and ready for the next round's GenerateDraft.
func (s *Server) UpdateDraftContext(ctx context.Context, req *wire.UpdateDraftContextRequest) (*wire.Ack, error) {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return nil, werr.New(werr.SessionAbsent, "DraftService.UpdateDraftContext", err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	accepted := int(req.AcceptedCount)
	if accepted < 0 || accepted >= len(sess.stack) {
		return nil, werr.New(werr.ProtocolError, "DraftService.UpdateDraftContext",
			fmt.Errorf("accepted_count %d out of range for stack depth %d", accepted, len(sess.stack)))
	}
	// Discard every speculative entry past the accepted prefix.
	sess.stack = sess.stack[:accepted+1]
	for _, entry := range sess.stack[1:] {
		sess.tokens = append(sess.tokens, entry.token)
	}

	cache, logits := sess.committed()
	if req.NewToken != 0 {
		s.modelMu.Lock()
		newCache, newLogits, err := s.mdl.Step(ctx, cache, req.NewToken)
		s.modelMu.Unlock()
		if err != nil {
			return nil, werr.New(werr.WorkerFault, "DraftService.UpdateDraftContext", err)
		}
		cache, logits = newCache, newLogits
		sess.tokens = append(sess.tokens, req.NewToken)
	}
	sess.stack = []snapshot{{cache: cache, logits: logits}}
	sess.Phase = PhaseCommitted
	return &wire.Ack{Success: true}, nil
}

func (s *Server) rngFor(id string) *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	r, ok := s.rngs[id]
	if !ok {
		r = rand.New(rand.NewSource(s.seed))
		s.rngs[id] = r
	}
	return r
}
