package targetworker

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

// Server implements wire.TargetServiceServer.
type Server struct {
	log *slog.Logger

	modelMu sync.Mutex
	mdl     model.Model
	loaded  bool
	sig     string

	registry *Registry
	rngMu    sync.Mutex
	rngs     map[string]*rand.Rand
	seed     int64
	ordinal  int64
}

func NewServer(mdl model.Model, baseSeed int64, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log:      log,
		mdl:      mdl,
		registry: NewRegistry(),
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
			return nil, werr.New(werr.LoadFailure, "TargetService.LoadModel",
				fmt.Errorf("model already loaded with a different configuration"))
		}
		return &wire.Ack{Success: true, Message: "already loaded"}, nil
	}
	s.loaded = true
	s.sig = sig
	s.log.Info("target model loaded", "path", req.ModelPath)
	return &wire.Ack{Success: true}, nil
}

func (s *Server) StartSession(ctx context.Context, req *wire.StartSessionRequest) (*wire.StartSessionResponse, error) {
	s.modelMu.Lock()
	cache, logits, err := s.mdl.Prefill(ctx, req.InputIDs)
	s.modelMu.Unlock()
	if err != nil {
		return nil, werr.New(werr.WorkerFault, "TargetService.StartSession", err)
	}

	s.registry.Open(req.SessionID, cache, logits, req.InputIDs)

	s.rngMu.Lock()
	ord := s.ordinal
	s.ordinal++
	s.rngs[req.SessionID] = rand.New(rand.NewSource(s.seed + ord))
	s.rngMu.Unlock()

	s.log.Debug("target session started", "session_id", req.SessionID, "prompt_len", len(req.InputIDs))
	return &wire.StartSessionResponse{SessionID: req.SessionID, Success: true, EOSToken: s.mdl.EOS()}, nil
}

func (s *Server) EndSession(ctx context.Context, req *wire.StartSessionRequest) (*wire.Ack, error) {
	s.registry.Close(req.SessionID)
	s.rngMu.Lock()
	delete(s.rngs, req.SessionID)
	s.rngMu.Unlock()
	return &wire.Ack{Success: true}, nil
}

// VerifyBatchTokens scores each session's proposed draft tokens against
// the target model's own distribution, stepping through all of them
// regardless of where a mismatch would occur: the resulting trail is
// kept as scratch so GenerateTargetToken can later condition on whatever
// prefix length the orchestrator's acceptance test accepts, without a
// second forward pass.
func (s *Server) VerifyBatchTokens(ctx context.Context, req *wire.VerifyBatchRequest) (*wire.VerifyBatchResponse, error) {
	results := make([]wire.VerifyResult, len(req.Sequences))
	for i, seq := range req.Sequences {
		results[i] = s.verifyOne(ctx, seq, req.Temperature, req.VerifyMode)
	}
	return &wire.VerifyBatchResponse{Results: results}, nil
}

func (s *Server) verifyOne(ctx context.Context, seq wire.VerifySequence, temperature float32, verifyMode string) wire.VerifyResult {
	sess, err := s.registry.Get(seq.SessionID)
	if err != nil {
		return wire.VerifyResult{SessionID: seq.SessionID, Error: err.Error()}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	cache, logits := sess.committed()
	trail := make([]trailEntry, 0, len(seq.DraftTokens)+1)
	trail = append(trail, trailEntry{cache: cache, logits: logits})

	targetProbs := make([]float64, len(seq.DraftTokens))
	greedy := verifyMode == "greedy"
	tokensAccepted := int32(0)
	mismatched := false
	var targetTokenAtMismatch int32

	for i, tok := range seq.DraftTokens {
		probs := kernel.Softmax(logits, temperature)
		targetProbs[i] = probs[tok]

		if greedy && !mismatched {
			best := argmax(probs)
			if int32(best) == tok {
				tokensAccepted++
			} else {
				mismatched = true
				targetTokenAtMismatch = int32(best)
			}
		}

		s.modelMu.Lock()
		newCache, newLogits, err := s.mdl.Step(ctx, cache, tok)
		s.modelMu.Unlock()
		if err != nil {
			return wire.VerifyResult{SessionID: seq.SessionID, Error: err.Error()}
		}
		cache, logits = newCache, newLogits
		trail = append(trail, trailEntry{cache: cache, logits: logits})
	}

	sess.trail = trail

	if greedy {
		if !mismatched {
			tokensAccepted = int32(len(seq.DraftTokens))
		}
		return wire.VerifyResult{
			SessionID:      seq.SessionID,
			TokensAccepted: tokensAccepted,
			TargetToken:    targetTokenAtMismatch,
		}
	}
	return wire.VerifyResult{SessionID: seq.SessionID, TargetProbs: targetProbs}
}

func argmax(probs []float64) int {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best
}

// FinalizeBatchTokens commits each session's accepted-prefix-plus-bonus
// token list to the permanent (append-only) cache, recomputed fresh from
// the last committed state rather than spliced from the verify-time
// scratch trail: the trail was built by stepping through the FULL draft
// proposal, which can be longer than the accepted-plus-bonus list being
// finalized, and splicing a partial prefix back out of it is more
// bookkeeping than it's worth for what is, at most, gamma+1 forward
// steps per round.
func (s *Server) FinalizeBatchTokens(ctx context.Context, req *wire.FinalizeBatchRequest) (*wire.FinalizeBatchResponse, error) {
	results := make([]wire.FinalizeResult, len(req.Sequences))
	for i, seq := range req.Sequences {
		results[i] = s.finalizeOne(ctx, seq)
	}
	return &wire.FinalizeBatchResponse{Results: results}, nil
}

func (s *Server) finalizeOne(ctx context.Context, seq wire.FinalizeSequence) wire.FinalizeResult {
	sess, err := s.registry.Get(seq.SessionID)
	if err != nil {
		return wire.FinalizeResult{SessionID: seq.SessionID, Error: err.Error()}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.finalizedOnce && sameTokens(sess.lastFinalizedTokens, seq.Tokens) {
		return wire.FinalizeResult{SessionID: seq.SessionID, Finished: sess.lastFinalizedResult}
	}

	cache, logits := sess.committed()
	finished := false
	for _, tok := range seq.Tokens {
		s.modelMu.Lock()
		newCache, newLogits, err := s.mdl.Step(ctx, cache, tok)
		s.modelMu.Unlock()
		if err != nil {
			return wire.FinalizeResult{SessionID: seq.SessionID, Error: err.Error()}
		}
		cache, logits = newCache, newLogits
		sess.tokens = append(sess.tokens, tok)
		if tok == s.mdl.EOS() {
			finished = true
			break
		}
	}

	sess.cache, sess.logits = cache, logits
	sess.trail = nil
	sess.lastFinalizedTokens = append([]int32{}, seq.Tokens...)
	sess.lastFinalizedResult = finished
	sess.finalizedOnce = true

	return wire.FinalizeResult{SessionID: seq.SessionID, Finished: finished}
}

// CheckTokenProbability and AppendToken are the single-token equivalents
// of VerifyBatchTokens/FinalizeBatchTokens. The scheduler's rounds do not
// call them; they always use the batched RPCs.
func (s *Server) CheckTokenProbability(ctx context.Context, req *wire.CheckTokenRequest) (*wire.CheckTokenResponse, error) {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return &wire.CheckTokenResponse{Success: false, Message: err.Error()}, nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	_, logits := sess.committed()
	probs := kernel.Softmax(logits, req.Temperature)
	return &wire.CheckTokenResponse{Success: true, Prob: probs[req.Token]}, nil
}

func (s *Server) AppendToken(ctx context.Context, req *wire.AppendTokenRequest) (*wire.AppendTokenResponse, error) {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return &wire.AppendTokenResponse{Success: false, Message: err.Error()}, nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	cache, _ := sess.committed()
	s.modelMu.Lock()
	newCache, newLogits, err := s.mdl.Step(ctx, cache, req.Token)
	s.modelMu.Unlock()
	if err != nil {
		return &wire.AppendTokenResponse{Success: false, Message: err.Error()}, nil
	}
	sess.cache, sess.logits = newCache, newLogits
	sess.tokens = append(sess.tokens, req.Token)

	return &wire.AppendTokenResponse{Success: true, Finished: req.Token == s.mdl.EOS()}, nil
}

// GenerateTargetToken samples the bonus token at position
// req.AcceptedCount of the round's verify-time trail. When
// req.DraftDistribution is supplied it samples from the residual
// max(P-Q,0); an empty proposal (AcceptedCount == 0 with no verify call
// this round) falls back to the session's committed logits directly.
func (s *Server) GenerateTargetToken(ctx context.Context, req *wire.GenerateTargetRequest) (*wire.GenerateTargetResponse, error) {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return &wire.GenerateTargetResponse{Success: false, Message: err.Error()}, nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	idx := int(req.AcceptedCount)
	var logits model.Logits
	if idx < len(sess.trail) {
		logits = sess.trail[idx].logits
	} else {
		_, logits = sess.committed()
	}

	p := kernel.Softmax(logits, req.Temperature)
	sampleFrom := p
	if len(req.DraftDistribution) == len(p) {
		sampleFrom = kernel.Residual(p, req.DraftDistribution)
	}

	rng := s.rngFor(req.SessionID)
	tok := int32(kernel.Sample(rng, sampleFrom))
	return &wire.GenerateTargetResponse{Success: true, TokenID: tok}, nil
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
