package seq2seq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yanqian/seq2seq-summarizer/pkg/metrics"
)

// Provider owns a tokenizer and a model backend. It is built once at
// startup and is read-only afterwards; Generate calls are gated so that no
// more than the configured number run at once.
type Provider struct {
	name      string
	tokenizer *Tokenizer
	scorer    Scorer
	gate      *semaphore.Weighted
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// NewProvider wires a provider. Backends that do not declare themselves
// concurrency-safe are limited to one generation at a time.
func NewProvider(name string, tokenizer *Tokenizer, scorer Scorer, maxConcurrent int, recorder metrics.Recorder, logger *slog.Logger) *Provider {
	if maxConcurrent < 1 || !concurrencySafe(scorer) {
		maxConcurrent = 1
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Provider{
		name:      name,
		tokenizer: tokenizer,
		scorer:    scorer,
		gate:      semaphore.NewWeighted(int64(maxConcurrent)),
		recorder:  recorder,
		logger:    logger.With("component", "seq2seq.provider", "model", name),
	}
}

// Name identifies the loaded model.
func (p *Provider) Name() string { return p.name }

// Tokenizer exposes the paired tokenizer.
func (p *Provider) Tokenizer() *Tokenizer { return p.tokenizer }

// Encode tokenizes text and terminates it with the end marker. Longer input
// is cut from the end so the result holds exactly maxLength tokens.
func (p *Provider) Encode(_ context.Context, text string, maxLength int) (ids []int, err error) {
	defer recoverInto(&err, "encode")
	if maxLength < 2 {
		return nil, fmt.Errorf("encode: max length %d leaves no room for content", maxLength)
	}
	ids = p.tokenizer.Encode(text)
	if len(ids) > maxLength-1 {
		p.logger.Debug("input truncated", "tokens", len(ids)+1, "max_length", maxLength)
		p.recorder.IncTruncated()
		ids = ids[:maxLength-1]
	}
	return append(ids, p.tokenizer.EOS()), nil
}

// Generate runs beam search over the backend under cfg. Waiting for a
// generation slot honours ctx; a started generation runs to completion.
func (p *Provider) Generate(ctx context.Context, tokens []int, cfg GenerationConfig) (out []int, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if len(tokens) == 0 {
		return nil, errors.New("generate: empty input sequence")
	}
	for _, id := range tokens {
		if id < 0 {
			return nil, fmt.Errorf("generate: invalid input token %d", id)
		}
	}

	if err := p.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("generate: wait for model: %w", err)
	}
	defer p.gate.Release(1)
	defer recoverInto(&err, "generate")

	start := time.Now()
	search := &beamSearch{cfg: cfg, scorer: p.scorer, start: p.tokenizer.Start(), eos: p.tokenizer.EOS()}
	out, err = search.run(context.WithoutCancel(ctx), tokens)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	elapsed := time.Since(start)
	p.recorder.ObserveGeneration(elapsed, metrics.NewTokenUsage(len(tokens), p.tokenizer.CountContent(out)))
	p.logger.Debug("generation finished", "input_tokens", len(tokens), "output_tokens", len(out), "duration_ms", elapsed.Milliseconds())
	return out, nil
}

// Decode converts ids back into prose without control markers.
func (p *Provider) Decode(_ context.Context, tokens []int) (text string, err error) {
	defer recoverInto(&err, "decode")
	for _, id := range tokens {
		if id < 0 {
			return "", fmt.Errorf("decode: invalid token %d", id)
		}
	}
	return strings.TrimSpace(p.tokenizer.Decode(tokens)), nil
}

// CountContent reports the number of non-marker tokens in tokens.
func (p *Provider) CountContent(tokens []int) int {
	return p.tokenizer.CountContent(tokens)
}

// Close releases backend resources.
func (p *Provider) Close() error {
	if closer, ok := p.scorer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func recoverInto(err *error, op string) {
	if rec := recover(); rec != nil {
		*err = fmt.Errorf("%s: model execution panicked: %v", op, rec)
	}
}
