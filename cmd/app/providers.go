package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/seq2seq-summarizer/internal/infra/artifacts"
	"github.com/yanqian/seq2seq-summarizer/internal/infra/config"
	"github.com/yanqian/seq2seq-summarizer/internal/infra/ratelimit"
	"github.com/yanqian/seq2seq-summarizer/internal/infra/seq2seq"
	"github.com/yanqian/seq2seq-summarizer/pkg/metrics"
)

func provideRecorder(reg *prometheus.Registry) metrics.Recorder {
	return metrics.NewPrometheusRecorder(reg)
}

func provideTokenizer(cfg *config.Config, logger *slog.Logger) (*seq2seq.Tokenizer, error) {
	var loader tiktoken.BpeLoader
	if cfg.Model.Artifacts.Enabled {
		a := cfg.Model.Artifacts
		store, err := artifacts.NewMinioStore(a.Endpoint, a.AccessKey, a.SecretKey, a.Bucket, a.Region, logger)
		if err != nil {
			return nil, fmt.Errorf("init tokenizer artifact store: %w", err)
		}
		loader = artifacts.NewBpeLoader(store, a.Prefix, a.CacheDir, logger)
		logger.Info("tokenizer vocabulary served from artifact store", "bucket", a.Bucket, "prefix", a.Prefix)
	}
	return seq2seq.NewTokenizer(cfg.Model.Encoding, loader)
}

func provideScorer(cfg *config.Config, tok *seq2seq.Tokenizer, logger *slog.Logger) (seq2seq.Scorer, error) {
	switch cfg.Model.Backend {
	case config.BackendRemote:
		scorer, err := seq2seq.NewRemoteScorer(cfg.Model.Remote.BaseURL, cfg.Model.Name, cfg.Model.Remote.Timeout, logger)
		if err != nil {
			return nil, err
		}
		return scorer, nil
	case config.BackendLexical:
		return seq2seq.NewLexicalScorer(tok), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Model.Backend)
	}
}

func provideModelProvider(cfg *config.Config, tok *seq2seq.Tokenizer, scorer seq2seq.Scorer, recorder metrics.Recorder, logger *slog.Logger) *seq2seq.Provider {
	logger.Info("model loaded", "model", cfg.Model.Name, "backend", cfg.Model.Backend, "encoding", cfg.Model.Encoding)
	return seq2seq.NewProvider(cfg.Model.Name, tok, scorer, cfg.Model.MaxConcurrentGenerations, recorder, logger)
}

func provideRateLimitStore(cfg *config.Config, logger *slog.Logger) ratelimit.Store {
	rl := cfg.HTTP.RateLimit
	if !rl.Enabled {
		logger.Info("rate limiting disabled")
		return nil
	}
	fallback := ratelimit.NewMemoryStore(rl.RequestsPerMinute, rl.Burst)
	if !rl.Valkey.Enabled {
		return fallback
	}
	opt, err := buildValkeyOptions(rl.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory rate limiter", "error", err)
		return fallback
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory rate limiter", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory rate limiter", "error", err)
		client.Close()
		return fallback
	}
	logger.Info("valkey rate limiter enabled", "addr", rl.Valkey.Addr)
	return ratelimit.NewValkeyStore(client, "summarizer:ratelimit", rl.RequestsPerMinute, rl.Burst)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
