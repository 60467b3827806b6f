package seq2seq

import (
	"context"
	"math"
	"sort"
	"strings"
)

const (
	// instructionWindow bounds how far into the source a task marker such
	// as "summarize:" is searched for.
	instructionWindow = 8
	eosAfterSentence  = 0.35
	eosMidSentence    = 0.002
	repeatDiscount    = 0.25
)

// LexicalScorer is an extractive sequence model: next-token probabilities
// come from the token transitions of the source text itself, so generated
// summaries recombine source phrases. It needs no weights and holds no
// mutable state.
type LexicalScorer struct {
	tok *Tokenizer
}

// NewLexicalScorer builds the copy model over tok's vocabulary.
func NewLexicalScorer(tok *Tokenizer) *LexicalScorer {
	return &LexicalScorer{tok: tok}
}

// ConcurrencySafe implements ConcurrencySafe.
func (s *LexicalScorer) ConcurrencySafe() bool { return true }

// Next implements Scorer.
func (s *LexicalScorer) Next(_ context.Context, source []int, prefixes [][]int, topK int) ([][]Candidate, error) {
	table := s.build(source)
	out := make([][]Candidate, len(prefixes))
	for i, prefix := range prefixes {
		out[i] = table.next(prefix, topK)
	}
	return out, nil
}

type transitionTable struct {
	eos       int
	successor map[int]map[int]int
	starts    map[int]int
	unigram   map[int]int
	sentence  map[int]bool
}

func (s *LexicalScorer) build(source []int) *transitionTable {
	body := s.body(source)
	t := &transitionTable{
		eos:       s.tok.EOS(),
		successor: make(map[int]map[int]int, len(body)),
		starts:    make(map[int]int),
		unigram:   make(map[int]int, len(body)),
		sentence:  make(map[int]bool),
	}
	for i, id := range body {
		t.unigram[id]++
		if endsSentence(s.tok.Piece(id)) {
			t.sentence[id] = true
		}
		if i == 0 || t.sentence[body[i-1]] {
			t.starts[id]++
		}
		if i+1 < len(body) {
			next, ok := t.successor[id]
			if !ok {
				next = make(map[int]int)
				t.successor[id] = next
			}
			next[body[i+1]]++
		}
	}
	return t
}

// body strips the end marker and a leading "<task>:" instruction.
func (s *LexicalScorer) body(source []int) []int {
	body := make([]int, 0, len(source))
	for _, id := range source {
		if !s.tok.IsSpecial(id) {
			body = append(body, id)
		}
	}
	limit := instructionWindow
	if limit > len(body)-1 {
		limit = len(body) - 1
	}
	for i := 0; i < limit; i++ {
		if strings.HasSuffix(strings.TrimSpace(s.tok.Piece(body[i])), ":") {
			return body[i+1:]
		}
	}
	return body
}

func (t *transitionTable) next(prefix []int, topK int) []Candidate {
	last := -1
	if len(prefix) > 1 {
		last = prefix[len(prefix)-1]
	}

	var dist map[int]int
	switch {
	case last == -1:
		dist = t.starts
	case len(t.successor[last]) > 0:
		dist = t.successor[last]
	default:
		dist = t.unigram
	}

	seen := make(map[[2]int]bool, len(prefix))
	for i := 1; i+1 < len(prefix); i++ {
		seen[[2]int{prefix[i], prefix[i+1]}] = true
	}

	eosMass := eosMidSentence
	if last != -1 && t.sentence[last] {
		eosMass = eosAfterSentence
	}
	if len(dist) == 0 {
		return []Candidate{{Token: t.eos, LogProb: 0}}
	}

	weights := make(map[int]float64, len(dist))
	total := 0.0
	for id, count := range dist {
		w := float64(count)
		if last != -1 && seen[[2]int{last, id}] {
			w *= repeatDiscount
		}
		weights[id] = w
		total += w
	}

	candidates := make([]Candidate, 0, len(weights)+1)
	for id, w := range weights {
		candidates = append(candidates, Candidate{Token: id, LogProb: math.Log((1 - eosMass) * w / total)})
	}
	candidates = append(candidates, Candidate{Token: t.eos, LogProb: math.Log(eosMass)})
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].LogProb != candidates[j].LogProb {
			return candidates[i].LogProb > candidates[j].LogProb
		}
		return candidates[i].Token < candidates[j].Token
	})
	if topK > 0 && len(candidates) > topK {
		// keep the end marker reachable so hypotheses can always finish
		trimmed := candidates[:topK]
		if !containsToken(trimmed, t.eos) {
			trimmed = append(trimmed[:topK-1:topK-1], eosCandidate(candidates, t.eos))
		}
		candidates = trimmed
	}
	return candidates
}

func containsToken(cands []Candidate, token int) bool {
	for _, c := range cands {
		if c.Token == token {
			return true
		}
	}
	return false
}

func eosCandidate(cands []Candidate, eos int) Candidate {
	for _, c := range cands {
		if c.Token == eos {
			return c
		}
	}
	return Candidate{Token: eos, LogProb: math.Inf(-1)}
}
