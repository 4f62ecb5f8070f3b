// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package encoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litwatch/pkg/types"
)

func newTestEncoder(url string) *HTTPEncoder {
	cfg := types.EncoderConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		BaseURL:    url,
		Model:      "test-model",
		Workers:    4,
	}
	return New(cfg)
}

func TestEncode_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "hello world", req.Input)

		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer ts.Close()

	vec, err := newTestEncoder(ts.URL).Encode(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEncode_ServerErrorIsEncodingError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := newTestEncoder(ts.URL).Encode(context.Background(), "text")
	require.Error(t, err)

	var encErr *EncodingError
	assert.True(t, errors.As(err, &encErr))
}

func TestEncode_EmptyInput(t *testing.T) {
	_, err := newTestEncoder("http://127.0.0.1:0").Encode(context.Background(), "")
	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
}

func TestEncode_EmptyVectorRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{})
	}))
	defer ts.Close()

	_, err := newTestEncoder(ts.URL).Encode(context.Background(), "text")
	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
}

// stubEncoder returns a deterministic vector derived from the text length.
type stubEncoder struct {
	calls int32
	fail  string
}

func (s *stubEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.fail != "" && text == s.fail {
		return nil, &EncodingError{Cause: fmt.Errorf("boom")}
	}
	return []float32{float32(len(text))}, nil
}

func TestEncodeBatch_PreservesOrder(t *testing.T) {
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := EncodeBatch(context.Background(), &stubEncoder{}, texts, 2)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0], "index %d", i)
	}
}

func TestEncodeBatch_FirstErrorWins(t *testing.T) {
	texts := []string{"ok1", "bad", "ok2"}
	_, err := EncodeBatch(context.Background(), &stubEncoder{fail: "bad"}, texts, 1)
	require.Error(t, err)

	var encErr *EncodingError
	assert.True(t, errors.As(err, &encErr))
}

func TestEncodeBatch_Empty(t *testing.T) {
	vectors, err := EncodeBatch(context.Background(), &stubEncoder{}, nil, 4)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}
