package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/yanqian/seq2seq-summarizer/internal/infra/seq2seq"
	apperrors "github.com/yanqian/seq2seq-summarizer/pkg/errors"
	"github.com/yanqian/seq2seq-summarizer/pkg/metrics"
	"github.com/yanqian/seq2seq-summarizer/pkg/util"
)

// Service exposes summarization capabilities.
type Service interface {
	// Summarize never panics and never returns without a Result.
	Summarize(ctx context.Context, req Request) Result
}

// ModelProvider is the tokenizer + sequence-to-sequence model the pipeline drives.
type ModelProvider interface {
	Encode(ctx context.Context, text string, maxLength int) ([]int, error)
	Generate(ctx context.Context, tokens []int, cfg seq2seq.GenerationConfig) ([]int, error)
	Decode(ctx context.Context, tokens []int) (string, error)
	// CountContent reports how many of tokens are content rather than markers.
	CountContent(tokens []int) int
}

type service struct {
	provider ModelProvider
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewService is a wire provider for the summarizer domain.
func NewService(provider ModelProvider, recorder metrics.Recorder, logger *slog.Logger) Service {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &service{provider: provider, recorder: recorder, logger: logger.With("component", "summarizer.service")}
}

func (s *service) Summarize(ctx context.Context, req Request) (res Result) {
	start := util.NowUTC()
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("summarization panicked", "panic", rec)
			res = Result{Err: apperrors.Wrap(CodeGenerationError, "summary generation failed", fmt.Errorf("%v", rec))}
		}
		s.recorder.IncResult(res.Kind())
		if res.Err != nil && !apperrors.IsCode(res.Err, CodeInvalidInput) {
			s.logger.Error("summary generation failed", "error", res.Err)
		}
	}()

	text := normalize(req.Text)
	if text == "" {
		return Result{Err: apperrors.Wrap(CodeInvalidInput, MsgNoText, nil)}
	}

	input, err := s.provider.Encode(ctx, TaskPrefix+text, MaxInputTokens)
	if err != nil {
		return Result{Err: apperrors.Wrap(CodeGenerationError, "encode input failed", err)}
	}

	output, err := s.provider.Generate(ctx, input, Generation)
	if err != nil {
		return Result{Err: apperrors.Wrap(CodeGenerationError, "generate summary failed", err)}
	}

	summary, err := s.provider.Decode(ctx, output)
	if err != nil {
		return Result{Err: apperrors.Wrap(CodeGenerationError, "decode summary failed", err)}
	}

	usage := metrics.NewTokenUsage(len(input), s.provider.CountContent(output))
	s.logger.Debug("summary generated",
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens,
		"duration_ms", util.NowUTC().Sub(start).Milliseconds(),
	)
	return Result{Summary: summary, Usage: usage}
}

func normalize(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}
