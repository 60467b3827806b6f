package seq2seq

import "context"

// Candidate is a scored next-token proposal.
type Candidate struct {
	Token   int     `json:"token"`
	LogProb float64 `json:"logprob"`
}

// Scorer is the model backend driven by beam search. Given the encoder
// input and one decoder prefix per live beam (each starting with the
// decoder start marker) it returns up to topK candidates per prefix,
// most likely first. Implementations must not retain the slices.
type Scorer interface {
	Next(ctx context.Context, source []int, prefixes [][]int, topK int) ([][]Candidate, error)
}

// ConcurrencySafe is implemented by scorers that tolerate parallel Next calls.
type ConcurrencySafe interface {
	ConcurrencySafe() bool
}

func concurrencySafe(s Scorer) bool {
	cs, ok := s.(ConcurrencySafe)
	return ok && cs.ConcurrencySafe()
}
