// Package wire defines the message schemas and gRPC service wiring shared
// by the orchestrator, draft worker, and target worker processes. Framing
// is JSON-over-gRPC (see codec.go): the schemas below are the contract: a
// worker written in any language that speaks this JSON shape over the
// registered "json" gRPC content-subtype can stand in for either process.
package wire

// Ack is the generic recoverable-error response shape: workers report
// failures as {success: false, message} rather than only relying on the
// RPC transport error, matching spec section 7's propagation rule.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// LoadModelRequest configures and loads a worker's model. LoadModel is
// idempotent: a second call with an identical signature is a no-op
// success; a second call with a different signature is rejected.
type LoadModelRequest struct {
	ModelPath  string  `json:"model_path"`
	NPositions int32   `json:"n_positions"`
	BatchSize  int32   `json:"batch_size"`
	TPDegree   int32   `json:"tp_degree"`
	AMP        string  `json:"amp"`
	Gamma      int32   `json:"gamma,omitempty"` // draft worker only: cap on snapshot stack depth
}

// StartSessionRequest opens a new session on a worker and primes its KV
// cache with a forward pass over the prompt.
type StartSessionRequest struct {
	SessionID string  `json:"session_id"`
	InputIDs  []int32 `json:"input_ids"`
}

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	// EOSToken reports the hosted model's end-of-sequence id, so the
	// orchestrator can recognize an EOS inside an accepted draft prefix
	// without needing its own model capability.
	EOSToken int32 `json:"eos_token"`
}

// GenerateDraftRequest asks the draft worker to propose up to
// DraftLength tokens for each listed session, batched in one RPC.
type GenerateDraftRequest struct {
	SessionIDs  []string `json:"session_ids"`
	DraftLength int32    `json:"draft_length"`
	Temperature float32  `json:"temperature"`
	TopP        float32  `json:"top_p"`
}

// DraftOutput is one session's share of a GenerateDraftResponse. Probs[i]
// is the draft's own probability for Tokens[i] within the
// temperature/top-p-filtered distribution it sampled from — q_i in the
// acceptance test. len(Tokens) < DraftLength only if the draft hit EOS,
// a forward-pass failure partway through the round, or DraftLength
// exceeds the draft worker's configured gamma (proposals are capped at
// gamma tokens).
type DraftOutput struct {
	SessionID string    `json:"session_id"`
	Tokens    []int32   `json:"tokens"`
	Probs     []float64 `json:"probabilities"`
	Error     string    `json:"error,omitempty"`
}

type GenerateDraftResponse struct {
	Outputs []DraftOutput `json:"outputs"`
}

// SnapshotDistributionRequest fetches the full filtered draft
// distribution Q stored in a session's snapshot stack at Index — needed
// by the orchestrator only on partial acceptance, to hand Q to the target
// worker's bonus-token residual sampling. Index 0 is the pre-round
// distribution slot (always empty; slot 0 never has a sampled-from
// distribution attached) and is never a valid request.
type SnapshotDistributionRequest struct {
	SessionID string `json:"session_id"`
	Index     int32  `json:"index"`
}

type SnapshotDistributionResponse struct {
	Distribution []float64 `json:"distribution"`
	Success      bool      `json:"success"`
	Message      string    `json:"message,omitempty"`
}

// UpdateDraftContextRequest rolls the draft worker's session back to
// snapshot AcceptedCount and, if NewToken is nonzero, ingests it with one
// forward step. AcceptedCount == len(tokens proposed this round) is the
// full-acceptance case (no rollback, just advance).
type UpdateDraftContextRequest struct {
	SessionID     string `json:"session_id"`
	AcceptedCount int32  `json:"accepted_count"`
	NewToken      int32  `json:"new_token"`
}

// VerifySequence is one session's draft tokens awaiting a target
// probability check.
type VerifySequence struct {
	SessionID   string  `json:"session_id"`
	DraftTokens []int32 `json:"draft_tokens"`
}

type VerifyBatchRequest struct {
	Sequences   []VerifySequence `json:"sequences"`
	Temperature float32          `json:"temperature"`
	// VerifyMode selects "probability" (default: return target_probs for
	// the orchestrator's own acceptance kernel) or "greedy" (target does
	// its own argmax comparison). Greedy is only distributionally correct
	// at temperature 0; callers outside internal/scheduler must not set it
	// otherwise.
	VerifyMode string `json:"verify_mode,omitempty"`
}

// VerifyResult reports, per session, the target's probability for each
// proposed draft token (probability mode) or the worker's own greedy
// comparison (greedy mode).
type VerifyResult struct {
	SessionID     string    `json:"session_id"`
	TargetProbs   []float64 `json:"target_probs,omitempty"`
	TokensAccepted int32    `json:"tokens_accepted,omitempty"`
	TargetToken    int32    `json:"target_token,omitempty"`
	Error         string    `json:"error,omitempty"`
}

type VerifyBatchResponse struct {
	Results []VerifyResult `json:"results"`
}

// FinalizeSequence is one session's committed-this-round token list:
// the accepted draft prefix plus the bonus token.
type FinalizeSequence struct {
	SessionID string  `json:"session_id"`
	Tokens    []int32 `json:"tokens"`
}

type FinalizeBatchRequest struct {
	Sequences []FinalizeSequence `json:"sequences"`
}

type FinalizeResult struct {
	SessionID string `json:"session_id"`
	Finished  bool   `json:"finished"`
	Error     string `json:"error,omitempty"`
}

type FinalizeBatchResponse struct {
	Results []FinalizeResult `json:"results"`
}

// CheckTokenRequest/Response and AppendTokenRequest/Response are the
// single-token backward-compatible variants of VerifyBatchTokens and
// FinalizeBatchTokens, semantically identical to a length-1 batch call.
type CheckTokenRequest struct {
	SessionID   string  `json:"session_id"`
	Token       int32   `json:"token"`
	Temperature float32 `json:"temperature"`
}

type CheckTokenResponse struct {
	Prob    float64 `json:"prob"`
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
}

type AppendTokenRequest struct {
	SessionID string `json:"session_id"`
	Token     int32  `json:"token"`
}

type AppendTokenResponse struct {
	Finished bool   `json:"finished"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
}

// GenerateTargetRequest asks the target worker to emit the bonus token at
// the position AcceptedCount tokens into the round's draft proposal (0
// when the draft proposed nothing at all). When DraftDistribution is
// non-empty the worker samples from the residual max(P-Q,0); otherwise it
// samples freely from its own softmax distribution P.
//
// AcceptedCount is a necessary addition beyond the literal schema in
// spec.md section 6, which names only {session_id, draft_distribution[]}:
// see DESIGN.md for why bit-exact distributional equivalence requires the
// worker to know which position in its verify-time scratch trail to
// condition on.
type GenerateTargetRequest struct {
	SessionID         string    `json:"session_id"`
	AcceptedCount     int32     `json:"accepted_count"`
	DraftDistribution []float64 `json:"draft_distribution,omitempty"`
	Temperature       float32   `json:"temperature"`
}

type GenerateTargetResponse struct {
	TokenID int32  `json:"token_id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
