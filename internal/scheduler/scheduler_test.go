package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/choral-spec/choral-go/internal/draftworker"
	"github.com/choral-spec/choral-go/internal/model"
	"github.com/choral-spec/choral-go/internal/targetworker"
	"github.com/choral-spec/choral-go/internal/wire"
)

// localDraftClient and localTargetClient satisfy wire.DraftServiceClient
// and wire.TargetServiceClient by calling the corresponding in-process
// Server directly, skipping the network entirely. This is the same
// shape a generated gRPC client takes, so the scheduler under test is
// exercised through the exact interfaces it uses in production.
type localDraftClient struct{ srv *draftworker.Server }

func (c *localDraftClient) LoadModel(ctx context.Context, in *wire.LoadModelRequest, _ ...grpc.CallOption) (*wire.Ack, error) {
	return c.srv.LoadModel(ctx, in)
}
func (c *localDraftClient) StartSession(ctx context.Context, in *wire.StartSessionRequest, _ ...grpc.CallOption) (*wire.StartSessionResponse, error) {
	return c.srv.StartSession(ctx, in)
}
func (c *localDraftClient) GenerateDraft(ctx context.Context, in *wire.GenerateDraftRequest, _ ...grpc.CallOption) (*wire.GenerateDraftResponse, error) {
	return c.srv.GenerateDraft(ctx, in)
}
func (c *localDraftClient) GetSnapshotDistribution(ctx context.Context, in *wire.SnapshotDistributionRequest, _ ...grpc.CallOption) (*wire.SnapshotDistributionResponse, error) {
	return c.srv.GetSnapshotDistribution(ctx, in)
}
func (c *localDraftClient) UpdateDraftContext(ctx context.Context, in *wire.UpdateDraftContextRequest, _ ...grpc.CallOption) (*wire.Ack, error) {
	return c.srv.UpdateDraftContext(ctx, in)
}
func (c *localDraftClient) EndSession(ctx context.Context, in *wire.StartSessionRequest, _ ...grpc.CallOption) (*wire.Ack, error) {
	return c.srv.EndSession(ctx, in)
}

type localTargetClient struct{ srv *targetworker.Server }

func (c *localTargetClient) LoadModel(ctx context.Context, in *wire.LoadModelRequest, _ ...grpc.CallOption) (*wire.Ack, error) {
	return c.srv.LoadModel(ctx, in)
}
func (c *localTargetClient) StartSession(ctx context.Context, in *wire.StartSessionRequest, _ ...grpc.CallOption) (*wire.StartSessionResponse, error) {
	return c.srv.StartSession(ctx, in)
}
func (c *localTargetClient) VerifyBatchTokens(ctx context.Context, in *wire.VerifyBatchRequest, _ ...grpc.CallOption) (*wire.VerifyBatchResponse, error) {
	return c.srv.VerifyBatchTokens(ctx, in)
}
func (c *localTargetClient) FinalizeBatchTokens(ctx context.Context, in *wire.FinalizeBatchRequest, _ ...grpc.CallOption) (*wire.FinalizeBatchResponse, error) {
	return c.srv.FinalizeBatchTokens(ctx, in)
}
func (c *localTargetClient) CheckTokenProbability(ctx context.Context, in *wire.CheckTokenRequest, _ ...grpc.CallOption) (*wire.CheckTokenResponse, error) {
	return c.srv.CheckTokenProbability(ctx, in)
}
func (c *localTargetClient) AppendToken(ctx context.Context, in *wire.AppendTokenRequest, _ ...grpc.CallOption) (*wire.AppendTokenResponse, error) {
	return c.srv.AppendToken(ctx, in)
}
func (c *localTargetClient) GenerateTargetToken(ctx context.Context, in *wire.GenerateTargetRequest, _ ...grpc.CallOption) (*wire.GenerateTargetResponse, error) {
	return c.srv.GenerateTargetToken(ctx, in)
}
func (c *localTargetClient) EndSession(ctx context.Context, in *wire.StartSessionRequest, _ ...grpc.CallOption) (*wire.Ack, error) {
	return c.srv.EndSession(ctx, in)
}

// harness wires a draft worker and a target worker around two MockModels
// sharing the same NextFn, so the two models agree exactly (the greedy-
// equivalence scenario) unless a test overrides one side's NextFn to
// diverge.
type harness struct {
	draftSrv  *draftworker.Server
	targetSrv *targetworker.Server
	sched     *Scheduler
}

func newHarness(t *testing.T, cfg Config, draftModel, targetModel *model.MockModel) *harness {
	t.Helper()
	ds := draftworker.NewServer(draftModel, 1, nil)
	ts := targetworker.NewServer(targetModel, 1, nil)

	_, err := ds.LoadModel(context.Background(), &wire.LoadModelRequest{ModelPath: "mock", Gamma: 8})
	require.NoError(t, err)
	_, err = ts.LoadModel(context.Background(), &wire.LoadModelRequest{ModelPath: "mock"})
	require.NoError(t, err)

	sched := New(&localDraftClient{srv: ds}, &localTargetClient{srv: ts}, cfg, nil)
	return &harness{draftSrv: ds, targetSrv: ts, sched: sched}
}

func TestGreedyEquivalenceFullAcceptanceEveryRound(t *testing.T) {
	draftModel := model.NewMockModel(128, 99)
	targetModel := model.NewMockModel(128, 99)
	h := newHarness(t, Config{DraftLength: 3, Temperature: 0, TopP: 1, MaxTokens: 9, Seed: 1}, draftModel, targetModel)

	ctx := context.Background()
	_, err := h.sched.Start(ctx, "s1", []int32{5})
	require.NoError(t, err)

	require.NoError(t, h.sched.Run(ctx))

	sess, ok := h.sched.Session("s1")
	require.True(t, ok)
	require.Equal(t, StatusFinished, sess.Status)
	require.GreaterOrEqual(t, len(sess.Tokens), 9)
	require.Equal(t, 1.0, sess.MatchRate())
}

func TestSingleRejectionTruncatesProposal(t *testing.T) {
	draftModel := model.NewMockModel(128, 99)
	// The target disagrees after the first token: it always predicts
	// last+2 instead of last+1.
	targetModel := &model.MockModel{Vocab: 128, EOSToken: 99, NextFn: func(tokens []int32) int32 {
		if len(tokens) < 2 {
			return tokens[len(tokens)-1] + 1
		}
		return tokens[len(tokens)-1] + 2
	}}
	h := newHarness(t, Config{DraftLength: 3, Temperature: 0, TopP: 1, MaxTokens: 2, Seed: 1}, draftModel, targetModel)

	ctx := context.Background()
	_, err := h.sched.Start(ctx, "s1", []int32{5})
	require.NoError(t, err)

	progressed, err := h.sched.StepRound(ctx)
	require.NoError(t, err)
	require.True(t, progressed)

	sess, ok := h.sched.Session("s1")
	require.True(t, ok)
	require.NotEqual(t, StatusFailed, sess.Status)
	require.Less(t, sess.TokensAccepted, sess.TokensProposed)
}

func TestDraftEarlyEOSShortensProposal(t *testing.T) {
	draftModel := &model.MockModel{Vocab: 100, EOSToken: 99, NextFn: func(tokens []int32) int32 {
		return 99 // drafts EOS immediately every step
	}}
	targetModel := &model.MockModel{Vocab: 100, EOSToken: 99, NextFn: func(tokens []int32) int32 {
		return 99
	}}
	h := newHarness(t, Config{DraftLength: 4, Temperature: 0, TopP: 1, MaxTokens: 5, Seed: 1}, draftModel, targetModel)

	ctx := context.Background()
	_, err := h.sched.Start(ctx, "s1", []int32{5})
	require.NoError(t, err)

	require.NoError(t, h.sched.Run(ctx))

	sess, ok := h.sched.Session("s1")
	require.True(t, ok)
	require.Equal(t, StatusFinished, sess.Status)
	require.Equal(t, 1, len(sess.Tokens))
}

func TestMultiSessionRoundProcessesAllSessions(t *testing.T) {
	draftModel := model.NewMockModel(128, 99)
	targetModel := model.NewMockModel(128, 99)
	h := newHarness(t, Config{DraftLength: 2, Temperature: 0, TopP: 1, MaxTokens: 4, Seed: 1}, draftModel, targetModel)

	ctx := context.Background()
	_, err := h.sched.Start(ctx, "s1", []int32{5})
	require.NoError(t, err)
	_, err = h.sched.Start(ctx, "s2", []int32{20})
	require.NoError(t, err)

	require.NoError(t, h.sched.Run(ctx))

	for _, id := range []string{"s1", "s2"} {
		sess, ok := h.sched.Session(id)
		require.True(t, ok)
		require.Equal(t, StatusFinished, sess.Status)
	}
}

func TestEmptyProposalStillProducesBonusToken(t *testing.T) {
	draftModel := model.NewMockModel(128, 99)
	targetModel := model.NewMockModel(128, 99)
	// DraftLength 0: the draft worker proposes nothing every round, so
	// every round's progress must come entirely from the bonus token.
	// New substitutes its default for a zero DraftLength, so the length
	// is zeroed on the built scheduler.
	h := newHarness(t, Config{DraftLength: 0, Temperature: 0, TopP: 1, MaxTokens: 3, Seed: 1}, draftModel, targetModel)
	h.sched.cfg.DraftLength = 0

	ctx := context.Background()
	_, err := h.sched.Start(ctx, "s1", []int32{5})
	require.NoError(t, err)

	progressed, err := h.sched.StepRound(ctx)
	require.NoError(t, err)
	require.True(t, progressed)

	sess, ok := h.sched.Session("s1")
	require.True(t, ok)
	require.NotEqual(t, StatusFailed, sess.Status)
	require.Equal(t, 1, len(sess.Tokens))
	require.Equal(t, 0, sess.TokensProposed)
}

func TestMaxTokensCutoff(t *testing.T) {
	draftModel := model.NewMockModel(128, 99)
	targetModel := model.NewMockModel(128, 99)
	h := newHarness(t, Config{DraftLength: 4, Temperature: 0, TopP: 1, MaxTokens: 3, Seed: 1}, draftModel, targetModel)

	ctx := context.Background()
	_, err := h.sched.Start(ctx, "s1", []int32{5})
	require.NoError(t, err)

	require.NoError(t, h.sched.Run(ctx))

	sess, ok := h.sched.Session("s1")
	require.True(t, ok)
	require.Equal(t, StatusFinished, sess.Status)
	require.Equal(t, 3, len(sess.Tokens))
}
