//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/seq2seq-summarizer/internal/bootstrap"
	"github.com/yanqian/seq2seq-summarizer/internal/domain/summarizer"
	"github.com/yanqian/seq2seq-summarizer/internal/infra/config"
	"github.com/yanqian/seq2seq-summarizer/internal/infra/seq2seq"
	httpiface "github.com/yanqian/seq2seq-summarizer/internal/interface/http"
	"github.com/yanqian/seq2seq-summarizer/pkg/logger"
	"github.com/yanqian/seq2seq-summarizer/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewRegistry,
		provideRecorder,
		provideTokenizer,
		provideScorer,
		provideModelProvider,
		provideRateLimitStore,
		summarizer.NewService,
		wire.Bind(new(summarizer.ModelProvider), new(*seq2seq.Provider)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
