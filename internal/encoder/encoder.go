// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package encoder maps text units to fixed-length vectors via an HTTP
// embedding service. The service itself is an external capability; this
// package only wraps the call, bounds its concurrency, and classifies
// its failures.
package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/pdiddy/litwatch/internal/httputil"
	"github.com/pdiddy/litwatch/pkg/types"
)

// EncodingError marks a failure to obtain a vector: the service was
// unreachable, rejected the input, or returned a malformed response.
// Callers abort the current rebuild/update/score call on it; the outer
// run loop decides whether to retry the whole run.
type EncodingError struct {
	Cause error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("encoding failed: %v", e.Cause) }

func (e *EncodingError) Unwrap() error { return e.Cause }

// Encoder turns one text unit into a vector. Implementations must be
// safe for concurrent use.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// HTTPEncoder calls a JSON embedding endpoint:
//
//	POST {BaseURL}  {"model": "...", "input": "..."}
//	→ {"embedding": [0.1, ...]}
type HTTPEncoder struct {
	Client  *http.Client
	BaseURL string
	Model   string
	APIKey  string
	Cfg     types.EncoderConfig
}

// New returns an HTTPEncoder configured from cfg.
func New(cfg types.EncoderConfig) *HTTPEncoder {
	return &HTTPEncoder{
		Client:  httputil.NewClient(cfg.Timeout),
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		Cfg:     cfg,
	}
}

type embedRequest struct {
	Model string `json:"model,omitempty"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Encode requests a vector for text. All failure modes surface as
// *EncodingError. Rate limiting is retried a small bounded number of
// times inside the HTTP layer, never beyond.
func (e *HTTPEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &EncodingError{Cause: fmt.Errorf("empty input text")}
	}

	body, err := json.Marshal(embedRequest{Model: e.Model, Input: text})
	if err != nil {
		return nil, &EncodingError{Cause: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, &EncodingError{Cause: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", e.Cfg.UserAgent)
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, e.Client, req, 0)
	if err != nil {
		return nil, &EncodingError{Cause: fmt.Errorf("embedding service request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &EncodingError{Cause: fmt.Errorf("embedding service returned HTTP %d", resp.StatusCode)}
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, &EncodingError{Cause: fmt.Errorf("parsing embedding response: %w", err)}
	}
	if len(er.Embedding) == 0 {
		return nil, &EncodingError{Cause: fmt.Errorf("embedding service returned empty vector")}
	}

	return er.Embedding, nil
}

// EncodeBatch encodes texts concurrently with a bounded worker pool and
// returns vectors in input order. The first error cancels the remaining
// work and is returned; partial results are discarded.
func EncodeBatch(ctx context.Context, enc Encoder, texts []string, workers int) ([][]float32, error) {
	if workers <= 0 {
		workers = 4
	}
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(texts))
	errs := make(chan error, 1)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			vec, err := enc.Encode(ctx, text)
			if err != nil {
				select {
				case errs <- err:
				default:
				}
				cancel()
				return
			}
			vectors[i] = vec
		}(i, text)
	}

	wg.Wait()

	select {
	case err := <-errs:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}
