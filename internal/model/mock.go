package model

import "context"

// sliceCache is the CacheState used by MockModel: just the token history,
// which is all a deterministic mock needs to compute its next logits.
type sliceCache struct {
	tokens []int32
}

func (c sliceCache) Clone() CacheState {
	cp := make([]int32, len(c.tokens))
	copy(cp, c.tokens)
	return sliceCache{tokens: cp}
}

// MockModel is a deterministic stand-in for a real tensor runtime, used
// in tests. NextFn computes the "correct" next token given the full
// token history so far (prompt plus everything generated); the returned
// logits put essentially all mass on that token, with Sharpness
// controlling how peaked the rest of the distribution is. A zero-value
// MockModel defaults to NextFn(tokens) = tokens[len(tokens)-1] + 1, i.e.
// the "always count up" model used by the greedy-equivalence scenarios.
type MockModel struct {
	Vocab     int
	EOSToken  int32
	Sharpness float32 // logit gap between the correct token and everything else; 0 uses 8
	NextFn    func(tokens []int32) int32
}

func NewMockModel(vocab int, eos int32) *MockModel {
	return &MockModel{Vocab: vocab, EOSToken: eos}
}

func (m *MockModel) VocabSize() int {
	if m.Vocab == 0 {
		return 256
	}
	return m.Vocab
}

func (m *MockModel) EOS() int32 {
	return m.EOSToken
}

func (m *MockModel) Prefill(ctx context.Context, tokens []int32) (CacheState, Logits, error) {
	c := sliceCache{tokens: append([]int32{}, tokens...)}
	return c, m.logitsFor(c.tokens), nil
}

func (m *MockModel) Step(ctx context.Context, state CacheState, token int32) (CacheState, Logits, error) {
	sc := state.(sliceCache)
	tokens := append(append([]int32{}, sc.tokens...), token)
	c := sliceCache{tokens: tokens}
	return c, m.logitsFor(tokens), nil
}

func (m *MockModel) logitsFor(tokens []int32) Logits {
	next := m.next(tokens)
	sharp := m.Sharpness
	if sharp == 0 {
		sharp = 8
	}
	v := m.VocabSize()
	logits := make(Logits, v)
	idx := int(next) % v
	if idx < 0 {
		idx += v
	}
	for i := range logits {
		logits[i] = 0
	}
	logits[idx] = sharp
	return logits
}

func (m *MockModel) next(tokens []int32) int32 {
	if m.NextFn != nil {
		return m.NextFn(tokens)
	}
	if len(tokens) == 0 {
		return 1
	}
	return tokens[len(tokens)-1] + 1
}
