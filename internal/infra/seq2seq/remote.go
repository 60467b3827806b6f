package seq2seq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// RemoteScorer asks an inference sidecar for next-token scores. The sidecar
// hosts the model weights; beam search stays in process.
type RemoteScorer struct {
	model      string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

type nextTokenRequest struct {
	Model    string  `json:"model"`
	Source   []int   `json:"source_ids"`
	Prefixes [][]int `json:"prefixes"`
	TopK     int     `json:"top_k"`
}

type nextTokenResponse struct {
	Candidates [][]Candidate `json:"candidates"`
}

// NewRemoteScorer constructs a scorer for the sidecar at baseURL.
func NewRemoteScorer(baseURL, model string, timeout time.Duration, logger *slog.Logger) (*RemoteScorer, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("remote model base url cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "seq2seq.remote")
	settings := gobreaker.Settings{
		Name:        "seq2seq-remote",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "circuit", name, "from", from.String(), "to", to.String())
		},
	}
	return &RemoteScorer{
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}, nil
}

// ConcurrencySafe implements ConcurrencySafe; the sidecar serialises on its side.
func (s *RemoteScorer) ConcurrencySafe() bool { return true }

// Next implements Scorer.
func (s *RemoteScorer) Next(ctx context.Context, source []int, prefixes [][]int, topK int) ([][]Candidate, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.doRequest(ctx, nextTokenRequest{Model: s.model, Source: source, Prefixes: prefixes, TopK: topK})
	})
	if err != nil {
		return nil, err
	}
	return out.([][]Candidate), nil
}

func (s *RemoteScorer) doRequest(ctx context.Context, req nextTokenRequest) ([][]Candidate, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode next-token request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/next-token", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build next-token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request next-token scores: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("model server failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out nextTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode next-token response: %w", err)
	}
	return out.Candidates, nil
}
