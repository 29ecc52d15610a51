// Package kernel implements the Leviathan/Chen speculative-decoding
// acceptance-and-resampling rule. It is a pure, deterministic-given-an-RNG
// function of probabilities; it holds no session state and makes no RPCs.
// This is the only place acceptance math lives — the orchestrator runs it
// against probabilities the workers report, and the target worker runs it
// against its own locally-held distribution when sampling a bonus token.
package kernel

import (
	"math"
	"math/rand"
)

// Epsilon guards against division by (and acceptance of) a degenerate
// draft probability of zero.
const Epsilon = 1e-9

// Verify walks the proposed draft tokens against the target's reported
// probability for each one, applying the rule:
//
//	r_i = min(1, p_i / max(q_i, Epsilon))
//	accept token i if u_i < r_i, u_i ~ Uniform[0,1) drawn from rng
//
// and returns the length of the accepted prefix, 0 <= a <= len(draftProbs).
// draftProbs and targetProbs must have equal length; index i holds q_i and
// p_i for the i-th proposed token respectively.
func Verify(rng *rand.Rand, draftProbs, targetProbs []float64) int {
	l := len(draftProbs)
	for i := 0; i < l; i++ {
		q := draftProbs[i]
		p := targetProbs[i]

		var r float64
		if q <= Epsilon {
			// Degenerate draft distribution: the draft thought this token
			// impossible, but proposed it anyway (or the target simply
			// produced what the draft could not have). Always accept.
			r = 1
		} else {
			r = p / q
			if r > 1 {
				r = 1
			}
		}

		if rng.Float64() >= r {
			return i
		}
	}
	return l
}

// Residual computes max(target-draft, 0) renormalized to sum to 1. If the
// unnormalized sum falls below Epsilon, it returns target unchanged — the
// fallback the spec mandates when the residual is degenerate. target and
// draft must have equal length (both full vocabulary distributions).
func Residual(target, draft []float64) []float64 {
	out := make([]float64, len(target))
	sum := 0.0
	for i := range target {
		d := target[i] - draft[i]
		if d < 0 {
			d = 0
		}
		out[i] = d
		sum += d
	}
	if sum < Epsilon {
		copy(out, target)
		return out
	}
	inv := 1 / sum
	for i := range out {
		out[i] *= inv
	}
	return out
}

// Sample draws a single index from a categorical distribution using rng.
// probs need not be perfectly normalized; floating point drift is
// absorbed by falling back to the last index once u exceeds the running
// cumulative sum, so Sample always returns a valid index for a non-empty
// slice.
func Sample(rng *rand.Rand, probs []float64) int {
	u := rng.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if u < cum {
			return i
		}
	}
	return len(probs) - 1
}

// Softmax converts raw logits to a probability distribution at the given
// temperature. A temperature of 0 is treated as greedy: all mass on the
// single largest logit (ties broken toward the lowest index).
func Softmax(logits []float32, temperature float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}

	if temperature <= 0 {
		best := 0
		for i := 1; i < len(logits); i++ {
			if logits[i] > logits[best] {
				best = i
			}
		}
		out[best] = 1
		return out
	}

	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	sum := 0.0
	for i, l := range logits {
		e := math.Exp(float64(l-maxLogit) / float64(temperature))
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// TopP renormalizes probs to the smallest prefix (by descending
// probability) whose cumulative mass reaches p, zeroing everything else.
// p >= 1 is a no-op copy. The returned slice is in the same index order
// as probs (token identity is preserved; only mass outside the nucleus is
// zeroed), so callers can keep sampling by index into the original
// vocabulary.
func TopP(probs []float64, p float32) []float64 {
	out := make([]float64, len(probs))
	copy(out, probs)
	if p >= 1 {
		return out
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	// Simple insertion sort by descending probability: vocabularies in
	// tests are small; a real deployment would use a partial selection
	// sort or heap over logits before converting to probabilities.
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && out[order[j]] > out[order[j-1]] {
			order[j], order[j-1] = order[j-1], order[j]
			j--
		}
	}

	cum := 0.0
	cutoff := len(order)
	for i, idx := range order {
		cum += out[idx]
		if cum >= float64(p) {
			cutoff = i + 1
			break
		}
	}

	mass := 0.0
	keep := make(map[int]bool, cutoff)
	for i := 0; i < cutoff; i++ {
		keep[order[i]] = true
		mass += out[order[i]]
	}
	if mass < Epsilon {
		return out
	}
	for i := range out {
		if !keep[i] {
			out[i] = 0
		} else {
			out[i] /= mass
		}
	}
	return out
}
