package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/seq2seq-summarizer/internal/infra/config"
	"github.com/yanqian/seq2seq-summarizer/internal/infra/seq2seq"
)

type closingScorer struct {
	closed bool
}

func (s *closingScorer) Next(context.Context, []int, [][]int, int) ([][]seq2seq.Candidate, error) {
	return nil, nil
}

func (s *closingScorer) Close() error {
	s.closed = true
	return nil
}

type closingLimiter struct {
	closed bool
}

func (l *closingLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

func (l *closingLimiter) Close() { l.closed = true }

func TestAppRunShutsDownOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{HTTP: config.HTTPConfig{Address: "127.0.0.1:0", WriteTimeout: time.Second}}
	scorer := &closingScorer{}
	limiter := &closingLimiter{}
	provider := seq2seq.NewProvider("lexical-copy", nil, scorer, 1, nil, logger)
	server := &http.Server{Addr: cfg.HTTP.Address, Handler: http.NotFoundHandler()}

	app := NewApp(cfg, logger, server, provider, limiter)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
	require.True(t, scorer.closed)
	require.True(t, limiter.closed)
}
