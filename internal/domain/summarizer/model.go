package summarizer

import (
	"github.com/yanqian/seq2seq-summarizer/internal/infra/seq2seq"
	apperrors "github.com/yanqian/seq2seq-summarizer/pkg/errors"
	"github.com/yanqian/seq2seq-summarizer/pkg/metrics"
)

// Error codes carried by failed results.
const (
	CodeInvalidInput    = "invalid_input"
	CodeGenerationError = "generation_error"
)

// TaskPrefix conditions the model on the summarization task.
const TaskPrefix = "summarize: "

// MsgNoText is reported when the request carries no usable text.
const MsgNoText = "No text provided"

// MaxInputTokens bounds the encoder input, end marker included.
const MaxInputTokens = 512

// Generation is the process-wide decoding contract. It is never mutated.
var Generation = seq2seq.GenerationConfig{
	MaxOutputTokens: 150,
	MinOutputTokens: 40,
	LengthPenalty:   2.0,
	NumBeams:        4,
	EarlyStopping:   true,
}

// Request represents the incoming summarization payload.
type Request struct {
	Text string `json:"text"`
}

// Result is the outcome of one pipeline run: a summary or an error whose
// code is CodeInvalidInput or CodeGenerationError.
type Result struct {
	Summary string
	Usage   metrics.TokenUsage
	Err     error
}

// OK reports whether the result carries a summary.
func (r Result) OK() bool {
	return r.Err == nil
}

// Kind labels the result for metrics and logs.
func (r Result) Kind() string {
	switch {
	case r.Err == nil:
		return "success"
	case apperrors.IsCode(r.Err, CodeInvalidInput):
		return CodeInvalidInput
	default:
		return CodeGenerationError
	}
}
