package targetworker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/choral-spec/choral-go/internal/model"
	"github.com/choral-spec/choral-go/internal/wire"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mdl := model.NewMockModel(64, 99)
	srv := NewServer(mdl, 1, nil)
	_, err := srv.LoadModel(context.Background(), &wire.LoadModelRequest{ModelPath: "mock"})
	require.NoError(t, err)
	return srv
}

func TestVerifyBatchTokensGreedyEquivalenceAcceptsMatchingDraft(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	_, err := srv.StartSession(ctx, &wire.StartSessionRequest{SessionID: "s1", InputIDs: []int32{5}})
	require.NoError(t, err)

	// MockModel's "count up" model agrees exactly with the draft tokens
	// 6,7,8, so probability-mode verification should report p_i ~= 1.
	resp, err := srv.VerifyBatchTokens(ctx, &wire.VerifyBatchRequest{
		Sequences:   []wire.VerifySequence{{SessionID: "s1", DraftTokens: []int32{6, 7, 8}}},
		Temperature: 1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	for _, p := range resp.Results[0].TargetProbs {
		require.Greater(t, p, 0.9)
	}
}

func TestVerifyBatchTokensGreedyModeDetectsMismatch(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	_, err := srv.StartSession(ctx, &wire.StartSessionRequest{SessionID: "s1", InputIDs: []int32{5}})
	require.NoError(t, err)

	resp, err := srv.VerifyBatchTokens(ctx, &wire.VerifyBatchRequest{
		Sequences:   []wire.VerifySequence{{SessionID: "s1", DraftTokens: []int32{6, 40, 8}}},
		Temperature: 0,
		VerifyMode:  "greedy",
	})
	require.NoError(t, err)
	require.Equal(t, int32(1), resp.Results[0].TokensAccepted)
	require.Equal(t, int32(7), resp.Results[0].TargetToken)
}

func TestGenerateTargetTokenUsesResidualWhenDraftDistributionGiven(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	_, err := srv.StartSession(ctx, &wire.StartSessionRequest{SessionID: "s1", InputIDs: []int32{5}})
	require.NoError(t, err)
	_, err = srv.VerifyBatchTokens(ctx, &wire.VerifyBatchRequest{
		Sequences:   []wire.VerifySequence{{SessionID: "s1", DraftTokens: []int32{6}}},
		Temperature: 1,
	})
	require.NoError(t, err)

	draftDist := make([]float64, 64)
	draftDist[6] = 1 // draft put all its mass on the rejected token 6; residual excludes it
	resp, err := srv.GenerateTargetToken(ctx, &wire.GenerateTargetRequest{
		SessionID: "s1", AcceptedCount: 0, DraftDistribution: draftDist, Temperature: 1,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotEqual(t, int32(6), resp.TokenID)
}

func TestFinalizeBatchTokensIdempotent(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	_, err := srv.StartSession(ctx, &wire.StartSessionRequest{SessionID: "s1", InputIDs: []int32{5}})
	require.NoError(t, err)

	req := &wire.FinalizeBatchRequest{Sequences: []wire.FinalizeSequence{{SessionID: "s1", Tokens: []int32{6, 7}}}}
	first, err := srv.FinalizeBatchTokens(ctx, req)
	require.NoError(t, err)
	require.False(t, first.Results[0].Finished)

	sess, err := srv.registry.Get("s1")
	require.NoError(t, err)
	require.Equal(t, []int32{5, 6, 7}, sess.tokens)

	second, err := srv.FinalizeBatchTokens(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first.Results[0].Finished, second.Results[0].Finished)
	// Token history must not double-append on the idempotent repeat.
	require.Equal(t, []int32{5, 6, 7}, sess.tokens)
}

func TestFinalizeBatchTokensDetectsEOS(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	_, err := srv.StartSession(ctx, &wire.StartSessionRequest{SessionID: "s1", InputIDs: []int32{98}})
	require.NoError(t, err)

	resp, err := srv.FinalizeBatchTokens(ctx, &wire.FinalizeBatchRequest{
		Sequences: []wire.FinalizeSequence{{SessionID: "s1", Tokens: []int32{99}}},
	})
	require.NoError(t, err)
	require.True(t, resp.Results[0].Finished)
}

func TestCheckTokenProbabilityAndAppendToken(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	_, err := srv.StartSession(ctx, &wire.StartSessionRequest{SessionID: "s1", InputIDs: []int32{5}})
	require.NoError(t, err)

	check, err := srv.CheckTokenProbability(ctx, &wire.CheckTokenRequest{SessionID: "s1", Token: 6, Temperature: 1})
	require.NoError(t, err)
	require.True(t, check.Success)
	require.Greater(t, check.Prob, 0.9)

	appended, err := srv.AppendToken(ctx, &wire.AppendTokenRequest{SessionID: "s1", Token: 6})
	require.NoError(t, err)
	require.True(t, appended.Success)
	require.False(t, appended.Finished)
}
