package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/choral-spec/choral-go/internal/kernel"
	"github.com/choral-spec/choral-go/internal/werr"
	"github.com/choral-spec/choral-go/internal/wire"
)

// Config holds the scheduler's round-shape knobs, set once at startup
// from the CLI flags in internal/config.
type Config struct {
	DraftLength   int32
	Temperature   float32
	TopP          float32
	MaxTokens     int
	Seed          int64
	NoBatchVerify bool // not read: rounds always use VerifyBatchTokens/FinalizeBatchTokens
	VerifyMode    string
}

// Scheduler drives the round algorithm across every active session. It
// holds no model state: draft and target are RPC clients (or, in tests,
// in-process fakes satisfying the same interfaces) wrapping the two
// worker processes.
type Scheduler struct {
	draft  wire.DraftServiceClient
	target wire.TargetServiceClient
	cfg    Config
	log    *slog.Logger

	registry *Registry
	ordMu    sync.Mutex
	ordinal  int64
}

func New(draft wire.DraftServiceClient, target wire.TargetServiceClient, cfg Config, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.DraftLength <= 0 {
		cfg.DraftLength = 4
	}
	return &Scheduler{draft: draft, target: target, cfg: cfg, log: log, registry: NewRegistry()}
}

// Start opens a new session on both workers and registers its
// orchestrator-side bookkeeping. Each session's RNG stream is seeded
// independently off cfg.Seed and an ordinal assigned in call order, so
// session N's acceptance draws are reproducible and never perturbed by
// any other session's activity. Bonus tokens are sampled by the target
// worker from its own per-session stream, not from this one.
func (sc *Scheduler) Start(ctx context.Context, id string, prompt []int32) (*Session, error) {
	if _, err := sc.draft.StartSession(ctx, &wire.StartSessionRequest{SessionID: id, InputIDs: prompt}); err != nil {
		return nil, werr.New(werr.WorkerFault, "Scheduler.Start[draft]", err)
	}
	tresp, err := sc.target.StartSession(ctx, &wire.StartSessionRequest{SessionID: id, InputIDs: prompt})
	if err != nil {
		return nil, werr.New(werr.WorkerFault, "Scheduler.Start[target]", err)
	}

	sc.ordMu.Lock()
	ord := sc.ordinal
	sc.ordinal++
	sc.ordMu.Unlock()

	s := &Session{
		ID:        id,
		Status:    StatusActive,
		MaxTokens: sc.cfg.MaxTokens,
		EOSToken:  tresp.EOSToken,
		rng:       rand.New(rand.NewSource(sc.cfg.Seed + ord)),
	}
	sc.registry.Add(s)
	sc.log.Debug("session started", "session_id", id, "prompt_len", len(prompt))
	return s, nil
}

// Session looks up a previously started session.
func (sc *Scheduler) Session(id string) (*Session, bool) {
	return sc.registry.Get(id)
}

// Run drives rounds until every registered session leaves StatusActive.
func (sc *Scheduler) Run(ctx context.Context) error {
	for {
		progressed, err := sc.StepRound(ctx)
		if err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
}

type roundItem struct {
	id          string
	draftTokens []int32
	draftProbs  []float64
	committed   []int32
	finished    bool
	failed      bool
}

// StepRound runs exactly one round across every currently active session:
// one batched GenerateDraft, one batched VerifyBatchTokens, then per
// session (concurrently) the acceptance test, GetSnapshotDistribution on
// partial acceptance, GenerateTargetToken and UpdateDraftContext, and
// finally one batched FinalizeBatchTokens. It returns false once no
// session is active, which is Run's termination signal.
func (sc *Scheduler) StepRound(ctx context.Context) (bool, error) {
	ids := sc.registry.Active()
	if len(ids) == 0 {
		return false, nil
	}

	items, err := sc.propose(ctx, ids)
	if err != nil {
		return false, err
	}

	if err := sc.verifyAndAccept(ctx, items); err != nil {
		return false, err
	}

	sc.finalize(ctx, items)
	return true, nil
}

func (sc *Scheduler) propose(ctx context.Context, ids []string) ([]*roundItem, error) {
	resp, err := sc.draft.GenerateDraft(ctx, &wire.GenerateDraftRequest{
		SessionIDs:  ids,
		DraftLength: sc.cfg.DraftLength,
		Temperature: sc.cfg.Temperature,
		TopP:        sc.cfg.TopP,
	})
	if err != nil {
		return nil, werr.New(werr.WorkerFault, "Scheduler.propose", err)
	}

	items := make([]*roundItem, len(resp.Outputs))
	for i, out := range resp.Outputs {
		it := &roundItem{id: out.SessionID, draftTokens: out.Tokens, draftProbs: out.Probs}
		if out.Error != "" {
			it.failed = true
			sc.fail(out.SessionID, fmt.Errorf("draft worker: %s", out.Error))
		}
		items[i] = it
	}
	return items, nil
}

// verifyAndAccept scores every non-failed item's proposal against the
// target model, then fans out the per-session acceptance test plus
// bonus-token sampling via an errgroup. Every goroutine always returns
// nil: a single session's WorkerFault is recorded on that session and
// must never cancel its siblings' goroutines, per the no-cross-session-
// ordering guarantee.
func (sc *Scheduler) verifyAndAccept(ctx context.Context, items []*roundItem) error {
	seqs := make([]wire.VerifySequence, 0, len(items))
	live := make([]*roundItem, 0, len(items))
	for _, it := range items {
		if it.failed {
			continue
		}
		seqs = append(seqs, wire.VerifySequence{SessionID: it.id, DraftTokens: it.draftTokens})
		live = append(live, it)
	}
	if len(live) == 0 {
		return nil
	}

	vresp, err := sc.target.VerifyBatchTokens(ctx, &wire.VerifyBatchRequest{
		Sequences:   seqs,
		Temperature: sc.cfg.Temperature,
		VerifyMode:  sc.cfg.VerifyMode,
	})
	if err != nil {
		return werr.New(werr.WorkerFault, "Scheduler.verify", err)
	}
	results := make(map[string]wire.VerifyResult, len(vresp.Results))
	for _, r := range vresp.Results {
		results[r.SessionID] = r
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, it := range live {
		it := it
		g.Go(func() error {
			sc.acceptOne(gctx, it, results[it.id])
			return nil
		})
	}
	_ = g.Wait() // goroutines never return non-nil; errors live on each session
	return nil
}

func (sc *Scheduler) acceptOne(ctx context.Context, it *roundItem, result wire.VerifyResult) {
	sess, ok := sc.registry.Get(it.id)
	if !ok {
		return
	}
	if result.Error != "" {
		it.failed = true
		sc.fail(it.id, fmt.Errorf("target worker: %s", result.Error))
		return
	}

	var accepted int
	if sc.cfg.VerifyMode == "greedy" {
		accepted = int(result.TokensAccepted)
	} else {
		accepted = kernel.Verify(sess.rng, it.draftProbs, result.TargetProbs)
	}

	sess.mu.Lock()
	sess.TokensProposed += len(it.draftTokens)
	sess.TokensAccepted += accepted
	sess.mu.Unlock()

	// The draft only ever proposes EOS as the final token of a round's
	// sequence (DraftOutput's doc comment), so an EOS inside the accepted
	// prefix means the session ends on the accepted tokens alone: no
	// bonus token is sampled or committed after EOS.
	if accepted > 0 && it.draftTokens[accepted-1] == sess.EOSToken {
		sc.commit(sess, it, it.draftTokens[:accepted])
		it.finished = true
		return
	}

	var draftDist []float64
	if accepted < len(it.draftTokens) {
		snap, err := sc.draft.GetSnapshotDistribution(ctx, &wire.SnapshotDistributionRequest{
			SessionID: it.id, Index: int32(accepted + 1),
		})
		if err == nil && snap.Success {
			draftDist = snap.Distribution
		}
	}

	tresp, err := sc.target.GenerateTargetToken(ctx, &wire.GenerateTargetRequest{
		SessionID:         it.id,
		AcceptedCount:     int32(accepted),
		DraftDistribution: draftDist,
		Temperature:       sc.cfg.Temperature,
	})
	if err != nil || !tresp.Success {
		it.failed = true
		sc.fail(it.id, fmt.Errorf("target worker bonus token: %v", err))
		return
	}

	if _, err := sc.draft.UpdateDraftContext(ctx, &wire.UpdateDraftContextRequest{
		SessionID: it.id, AcceptedCount: int32(accepted), NewToken: tresp.TokenID,
	}); err != nil {
		it.failed = true
		sc.fail(it.id, fmt.Errorf("draft worker update: %w", err))
		return
	}

	committed := append(append([]int32{}, it.draftTokens[:accepted]...), tresp.TokenID)
	sc.commit(sess, it, committed)
}

// commit trims tokens to whatever remains of the session's MaxTokens
// budget, appends the survivors to both the round item (for finalize)
// and the session's generated output, and marks the item finished once
// the budget is exhausted. A round that overshoots MaxTokens never
// reports or finalizes the excess beyond the cutoff.
func (sc *Scheduler) commit(sess *Session, it *roundItem, tokens []int32) {
	sess.mu.Lock()
	if sess.MaxTokens > 0 {
		room := sess.MaxTokens - len(sess.Tokens)
		if room < 0 {
			room = 0
		}
		if len(tokens) > room {
			tokens = tokens[:room]
		}
	}
	sess.Tokens = append(sess.Tokens, tokens...)
	reachedMax := sess.MaxTokens > 0 && len(sess.Tokens) >= sess.MaxTokens
	sess.mu.Unlock()

	it.committed = tokens
	if reachedMax {
		it.finished = true
	}
}

func (sc *Scheduler) finalize(ctx context.Context, items []*roundItem) {
	seqs := make([]wire.FinalizeSequence, 0, len(items))
	for _, it := range items {
		if it.failed || len(it.committed) == 0 {
			continue
		}
		seqs = append(seqs, wire.FinalizeSequence{SessionID: it.id, Tokens: it.committed})
	}
	if len(seqs) == 0 {
		return
	}

	fresp, err := sc.target.FinalizeBatchTokens(ctx, &wire.FinalizeBatchRequest{Sequences: seqs})
	if err != nil {
		for _, seq := range seqs {
			sc.fail(seq.SessionID, fmt.Errorf("target worker finalize: %w", err))
		}
		return
	}

	byID := make(map[string]wire.FinalizeResult, len(fresp.Results))
	for _, r := range fresp.Results {
		byID[r.SessionID] = r
	}
	for _, it := range items {
		if it.failed {
			continue
		}
		r, ok := byID[it.id]
		if !ok {
			continue
		}
		if r.Error != "" {
			sc.fail(it.id, fmt.Errorf("target worker finalize: %s", r.Error))
			continue
		}
		if r.Finished || it.finished {
			sc.finish(it.id)
		}
	}
}

func (sc *Scheduler) fail(id string, err error) {
	if sess, ok := sc.registry.Get(id); ok {
		sess.mu.Lock()
		sess.Status = StatusFailed
		sess.Err = err
		sess.mu.Unlock()
	}
	sc.log.Warn("session failed", "session_id", id, "error", err)
}

func (sc *Scheduler) finish(id string) {
	if sess, ok := sc.registry.Get(id); ok {
		sess.mu.Lock()
		sess.Status = StatusFinished
		sess.mu.Unlock()
	}
	sc.log.Debug("session finished", "session_id", id)
}
