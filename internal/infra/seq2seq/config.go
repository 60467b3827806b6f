package seq2seq

import "errors"

// GenerationConfig bounds and shapes one beam search run.
type GenerationConfig struct {
	// MaxOutputTokens caps generated content tokens; hypotheses still alive
	// at this length are finished as they stand.
	MaxOutputTokens int
	// MinOutputTokens is the shortest content length at which the
	// end-of-sequence marker may be emitted.
	MinOutputTokens int
	// LengthPenalty is the exponent applied to the hypothesis length when
	// normalising its log-probability. Values above zero favour longer output.
	LengthPenalty float64
	NumBeams      int
	// EarlyStopping ends the search as soon as NumBeams hypotheses finished.
	EarlyStopping bool
}

// Validate rejects configurations the search cannot honour.
func (c GenerationConfig) Validate() error {
	if c.NumBeams <= 0 {
		return errors.New("num beams must be positive")
	}
	if c.MaxOutputTokens <= 0 {
		return errors.New("max output tokens must be positive")
	}
	if c.MinOutputTokens < 0 {
		return errors.New("min output tokens cannot be negative")
	}
	if c.MinOutputTokens > c.MaxOutputTokens {
		return errors.New("min output tokens cannot exceed max output tokens")
	}
	return nil
}
