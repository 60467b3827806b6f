package seq2seq

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

var errNoCandidates = errors.New("model proposed no admissible continuation")

type hypothesis struct {
	tokens []int
	score  float64
}

type expansion struct {
	beam  int
	token int
	score float64
}

type beamSearch struct {
	cfg    GenerationConfig
	scorer Scorer
	start  int
	eos    int
}

// run returns start marker + content tokens, followed by the end marker
// when the winning hypothesis emitted one.
func (b *beamSearch) run(ctx context.Context, source []int) ([]int, error) {
	finished := newHypothesisSet(b.cfg)
	live := []hypothesis{{}}
	numBeams := b.cfg.NumBeams

	for curLen := 0; ; {
		prefixes := make([][]int, len(live))
		for i, h := range live {
			prefix := make([]int, 0, len(h.tokens)+1)
			prefix = append(prefix, b.start)
			prefixes[i] = append(prefix, h.tokens...)
		}

		proposals, err := b.scorer.Next(ctx, source, prefixes, 2*numBeams)
		if err != nil {
			return nil, err
		}
		if len(proposals) != len(live) {
			return nil, fmt.Errorf("model scored %d prefixes, want %d", len(proposals), len(live))
		}

		expansions := make([]expansion, 0, len(live)*2*numBeams)
		for i, candidates := range proposals {
			for _, c := range candidates {
				if math.IsNaN(c.LogProb) {
					return nil, fmt.Errorf("model returned NaN score for token %d", c.Token)
				}
				if c.Token < 0 {
					return nil, fmt.Errorf("model returned invalid token %d", c.Token)
				}
				if c.Token == b.start || math.IsInf(c.LogProb, -1) {
					continue
				}
				if c.Token == b.eos && curLen < b.cfg.MinOutputTokens {
					continue
				}
				expansions = append(expansions, expansion{beam: i, token: c.Token, score: live[i].score + c.LogProb})
			}
		}
		sort.Slice(expansions, func(i, j int) bool {
			a, c := expansions[i], expansions[j]
			if a.score != c.score {
				return a.score > c.score
			}
			if a.beam != c.beam {
				return a.beam < c.beam
			}
			return a.token < c.token
		})

		next := make([]hypothesis, 0, numBeams)
		for rank, e := range expansions {
			if e.token == b.eos {
				// only end markers ranked within the beam width may finish a hypothesis
				if rank < numBeams {
					finished.add(live[e.beam].tokens, e.score)
				}
				continue
			}
			tokens := make([]int, len(live[e.beam].tokens), len(live[e.beam].tokens)+1)
			copy(tokens, live[e.beam].tokens)
			next = append(next, hypothesis{tokens: append(tokens, e.token), score: e.score})
			if len(next) == numBeams {
				break
			}
		}
		curLen++

		if len(next) == 0 {
			break
		}
		live = next
		if curLen >= b.cfg.MaxOutputTokens {
			for _, h := range live {
				finished.addForced(h.tokens, h.score)
			}
			break
		}
		if finished.done(live[0].score, curLen) {
			break
		}
	}

	best, ok := finished.best()
	if !ok {
		return nil, errNoCandidates
	}
	out := make([]int, 0, len(best.tokens)+2)
	out = append(out, b.start)
	out = append(out, best.tokens...)
	if best.ended {
		out = append(out, b.eos)
	}
	return out, nil
}

type scoredHypothesis struct {
	tokens []int
	score  float64
	ended  bool
}

// hypothesisSet keeps the NumBeams best finished hypotheses by
// length-normalised score.
type hypothesisSet struct {
	cfg   GenerationConfig
	items []scoredHypothesis
	worst float64
}

func newHypothesisSet(cfg GenerationConfig) *hypothesisSet {
	return &hypothesisSet{cfg: cfg, worst: math.Inf(1)}
}

func (s *hypothesisSet) normalise(sum float64, length int) float64 {
	if length < 1 {
		length = 1
	}
	return sum / math.Pow(float64(length), s.cfg.LengthPenalty)
}

func (s *hypothesisSet) add(tokens []int, sum float64) {
	s.insert(tokens, sum, true)
}

func (s *hypothesisSet) addForced(tokens []int, sum float64) {
	s.insert(tokens, sum, false)
}

func (s *hypothesisSet) insert(tokens []int, sum float64, ended bool) {
	score := s.normalise(sum, len(tokens))
	if len(s.items) >= s.cfg.NumBeams && score <= s.worst {
		return
	}
	kept := make([]int, len(tokens))
	copy(kept, tokens)
	s.items = append(s.items, scoredHypothesis{tokens: kept, score: score, ended: ended})
	if len(s.items) > s.cfg.NumBeams {
		worstIdx := 0
		for i, item := range s.items {
			if item.score < s.items[worstIdx].score {
				worstIdx = i
			}
		}
		s.items = append(s.items[:worstIdx], s.items[worstIdx+1:]...)
	}
	s.worst = math.Inf(1)
	for _, item := range s.items {
		s.worst = math.Min(s.worst, item.score)
	}
}

// done reports whether no live beam can still improve the set.
func (s *hypothesisSet) done(bestLiveSum float64, curLen int) bool {
	if len(s.items) < s.cfg.NumBeams {
		return false
	}
	if s.cfg.EarlyStopping {
		return true
	}
	return s.worst >= s.normalise(bestLiveSum, curLen)
}

func (s *hypothesisSet) best() (scoredHypothesis, bool) {
	if len(s.items) == 0 {
		return scoredHypothesis{}, false
	}
	best := s.items[0]
	for _, item := range s.items[1:] {
		if item.score > best.score {
			best = item
		}
	}
	return best, true
}
