package draftworker

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
	_, err := srv.LoadModel(context.Background(), &wire.LoadModelRequest{ModelPath: "mock", Gamma: 4})
	require.NoError(t, err)
	return srv
}

func TestStartSessionThenGenerateDraft(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := srv.StartSession(ctx, &wire.StartSessionRequest{SessionID: "s1", InputIDs: []int32{5}})
	require.NoError(t, err)

	resp, err := srv.GenerateDraft(ctx, &wire.GenerateDraftRequest{
		SessionIDs:  []string{"s1"},
		DraftLength: 3,
		Temperature: 1,
		TopP:        1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Outputs, 1)
	out := resp.Outputs[0]
	require.Equal(t, "s1", out.SessionID)
	require.Empty(t, out.Error)
	require.Len(t, out.Tokens, 3)
	// MockModel's default next(tokens) = last+1, sharply peaked: expect
	// the count-up sequence from the prompt's last token.
	require.Equal(t, []int32{6, 7, 8}, out.Tokens)
	require.Len(t, out.Probs, 3)
	for _, p := range out.Probs {
		require.Greater(t, p, 0.9)
	}
}

func TestGenerateDraftUnknownSessionReportsError(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.GenerateDraft(context.Background(), &wire.GenerateDraftRequest{
		SessionIDs:  []string{"missing"},
		DraftLength: 2,
		Temperature: 1,
		TopP:        1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Outputs, 1)
	require.NotEmpty(t, resp.Outputs[0].Error)
}

func TestGetSnapshotDistributionRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	_, err := srv.StartSession(ctx, &wire.StartSessionRequest{SessionID: "s1", InputIDs: []int32{5}})
	require.NoError(t, err)
	_, err = srv.GenerateDraft(ctx, &wire.GenerateDraftRequest{
		SessionIDs: []string{"s1"}, DraftLength: 2, Temperature: 1, TopP: 1,
	})
	require.NoError(t, err)

	dist, err := srv.GetSnapshotDistribution(ctx, &wire.SnapshotDistributionRequest{SessionID: "s1", Index: 1})
	require.NoError(t, err)
	require.True(t, dist.Success)
	require.Len(t, dist.Distribution, 64)

	bad, err := srv.GetSnapshotDistribution(ctx, &wire.SnapshotDistributionRequest{SessionID: "s1", Index: 0})
	require.NoError(t, err)
	require.False(t, bad.Success)
}

func TestUpdateDraftContextRollsBackAndAdvances(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	_, err := srv.StartSession(ctx, &wire.StartSessionRequest{SessionID: "s1", InputIDs: []int32{5}})
	require.NoError(t, err)
	_, err = srv.GenerateDraft(ctx, &wire.GenerateDraftRequest{
		SessionIDs: []string{"s1"}, DraftLength: 3, Temperature: 1, TopP: 1,
	})
	require.NoError(t, err)

	// Only the first proposed token is accepted; the bonus token is 100.
	ack, err := srv.UpdateDraftContext(ctx, &wire.UpdateDraftContextRequest{
		SessionID: "s1", AcceptedCount: 1, NewToken: 100,
	})
	require.NoError(t, err)
	require.True(t, ack.Success)

	sess, err := srv.registry.Get("s1")
	require.NoError(t, err)
	require.Equal(t, PhaseCommitted, sess.Phase)
	require.Len(t, sess.stack, 1)
	require.Equal(t, []int32{5, 6, 100}, sess.tokens)
}

func TestLoadModelIdempotentOnMatchingSignature(t *testing.T) {
	srv := newTestServer(t)
	ack, err := srv.LoadModel(context.Background(), &wire.LoadModelRequest{ModelPath: "mock", Gamma: 4})
	require.NoError(t, err)
	require.True(t, ack.Success)
}

func TestLoadModelRejectsConflictingSignature(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.LoadModel(context.Background(), &wire.LoadModelRequest{ModelPath: "different", Gamma: 4})
	require.Error(t, err)
}
