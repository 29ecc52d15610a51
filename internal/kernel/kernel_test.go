package kernel

import (
	"math/rand"
	"testing"
)

func TestVerifyFullAcceptance(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	draftProbs := []float64{0.9, 0.9, 0.9, 0.9}
	targetProbs := []float64{1, 1, 1, 1}
	if a := Verify(rng, draftProbs, targetProbs); a != 4 {
		t.Fatalf("Verify() = %d, want 4 (p/q clamps to 1, always accept)", a)
	}
}

func TestVerifyRejectsAtFirstMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// p/q = 0 at index 2 guarantees rejection regardless of the draw.
	draftProbs := []float64{0.9, 0.9, 0.9, 0.9}
	targetProbs := []float64{0.9, 0.9, 0, 0.9}
	if a := Verify(rng, draftProbs, targetProbs); a != 2 {
		t.Fatalf("Verify() = %d, want 2", a)
	}
}

func TestVerifyDegenerateDraftProbAlwaysAccepts(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	draftProbs := []float64{0}
	targetProbs := []float64{0.5}
	if a := Verify(rng, draftProbs, targetProbs); a != 1 {
		t.Fatalf("Verify() = %d, want 1 (q_i=0 treated as r_i=1)", a)
	}
}

func TestVerifyEmptyProposal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if a := Verify(rng, nil, nil); a != 0 {
		t.Fatalf("Verify() = %d, want 0", a)
	}
}

func TestResidualRenormalizes(t *testing.T) {
	target := []float64{0.1, 0.6, 0.3}
	draft := []float64{0.5, 0.4, 0.1}
	out := Residual(target, draft)
	// max(P-Q,0) = [0, 0.2, 0.2], sum=0.4 -> [0, 0.5, 0.5]
	want := []float64{0, 0.5, 0.5}
	for i := range want {
		if diff := out[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("Residual()[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestResidualFallsBackToTargetWhenDegenerate(t *testing.T) {
	target := []float64{0.5, 0.5}
	draft := []float64{0.9, 0.9} // max(P-Q,0) = [0,0], sum below epsilon
	out := Residual(target, draft)
	for i := range target {
		if out[i] != target[i] {
			t.Fatalf("Residual() = %v, want fallback to target %v", out, target)
		}
	}
}

func TestSampleRespectsDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	probs := []float64{0, 1, 0}
	for i := 0; i < 100; i++ {
		if idx := Sample(rng, probs); idx != 1 {
			t.Fatalf("Sample() = %d, want 1", idx)
		}
	}
}

func TestSoftmaxGreedyAtZeroTemperature(t *testing.T) {
	logits := []float32{1, 5, 2}
	probs := Softmax(logits, 0)
	if probs[1] != 1 {
		t.Fatalf("Softmax(T=0) = %v, want all mass on index 1", probs)
	}
}

func TestSoftmaxSumsToOne(t *testing.T) {
	logits := []float32{1, 2, 3, 0.5}
	probs := Softmax(logits, 1.0)
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	if diff := sum - 1; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("Softmax() sums to %v, want 1", sum)
	}
}

func TestTopPNoOpAtOne(t *testing.T) {
	probs := []float64{0.2, 0.3, 0.5}
	out := TopP(probs, 1.0)
	for i := range probs {
		if out[i] != probs[i] {
			t.Fatalf("TopP(1.0) changed distribution: %v", out)
		}
	}
}

func TestTopPTruncatesTail(t *testing.T) {
	probs := []float64{0.05, 0.05, 0.9}
	out := TopP(probs, 0.9)
	if out[2] < 0.99 {
		t.Fatalf("TopP(0.9) = %v, want nearly all mass on index 2", out)
	}
	if out[0] != 0 || out[1] != 0 {
		t.Fatalf("TopP(0.9) = %v, want tail zeroed", out)
	}
}
