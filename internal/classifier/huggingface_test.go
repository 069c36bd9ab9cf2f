package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspend/smartspend/internal/common"
	"github.com/smartspend/smartspend/internal/service"
)

// fastRetry keeps retried paths within test deadlines.
var fastRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	Multiplier:   2.0,
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *HFClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewHFClient(Config{
		Token:       "test-token",
		Endpoint:    server.URL,
		Timeout:     5 * time.Second,
		MinInterval: time.Millisecond,
		Retry:       fastRetry,
	}, nil)
}

func TestHFClient_Classify(t *testing.T) {
	var gotRequest classifyRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		_ = json.NewEncoder(w).Encode([]classifyResult{{
			Labels: []string{"Groceries", "Dining", "Shopping"},
			Scores: []float64{0.87, 0.08, 0.05},
		}})
	})

	label, err := client.Classify(context.Background(), "WHOLE FOODS MARKET")
	require.NoError(t, err)

	assert.Equal(t, "Groceries", label, "top-ranked label wins")
	assert.Equal(t, "WHOLE FOODS MARKET", gotRequest.Inputs)
	assert.Equal(t, Labels(), gotRequest.Parameters.CandidateLabels)
}

func TestHFClient_Classify_NoToken(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	t.Cleanup(server.Close)

	client := NewHFClient(Config{Endpoint: server.URL, MinInterval: time.Millisecond}, nil)

	_, err := client.Classify(context.Background(), "ANYTHING")

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ReasonNoCredential, cerr.Reason)
	assert.False(t, called, "no network call without a credential")
}

func TestHFClient_Classify_ErrorStatus(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	})

	_, err := client.Classify(context.Background(), "WHOLE FOODS")

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ReasonStatus, cerr.Reason)
	assert.Contains(t, cerr.Error(), "503")
	assert.Equal(t, int32(1), calls.Load(), "a bad status is not retried")
}

func TestHFClient_Classify_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>gateway error</html>"},
		{name: "empty array", body: "[]"},
		{name: "no labels", body: `[{"labels": [], "scores": []}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Classify(context.Background(), "WHOLE FOODS")

			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, ReasonMalformed, cerr.Reason)
		})
	}
}

func TestHFClient_Classify_RetriesTransport(t *testing.T) {
	// First connection is hijacked and dropped mid-request; the retry
	// must recover and return the label.
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_ = json.NewEncoder(w).Encode([]classifyResult{{Labels: []string{"Dining"}}})
	})

	label, err := client.Classify(context.Background(), "PIZZA PLACE")
	require.NoError(t, err)

	assert.Equal(t, "Dining", label)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHFClient_Classify_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode([]classifyResult{{Labels: []string{"Groceries"}}})
	})

	label, err := client.Classify(context.Background(), "WHOLE FOODS")
	require.NoError(t, err)

	assert.Equal(t, "Groceries", label)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHFClient_Classify_TransportExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	})

	_, err := client.Classify(context.Background(), "WHOLE FOODS")

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ReasonTransport, cerr.Reason, "caller still sees the classified failure")
	assert.Equal(t, int32(fastRetry.MaxAttempts), calls.Load())
}

func TestHFClient_Classify_Transport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewHFClient(Config{
		Token:       "test-token",
		Endpoint:    server.URL,
		Timeout:     time.Second,
		MinInterval: time.Millisecond,
		Retry:       fastRetry,
	}, nil)

	_, err := client.Classify(context.Background(), "WHOLE FOODS")

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ReasonTransport, cerr.Reason)
}

func TestHFClient_Classify_PacesAfterSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]classifyResult{{Labels: []string{"Dining"}}})
	})
	client.pacer.interval = 50 * time.Millisecond

	start := time.Now()
	_, err := client.Classify(context.Background(), "PIZZA")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond,
		"a completed round-trip must absorb the inter-call delay")
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&Error{Reason: ReasonTransport}))
	assert.True(t, retryable(&Error{Reason: ReasonStatus, Err: common.ErrRateLimit}))
	assert.False(t, retryable(&Error{Reason: ReasonStatus}))
	assert.False(t, retryable(&Error{Reason: ReasonMalformed}))
}

func TestPacer_ContextCancel(t *testing.T) {
	p := pacer{interval: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	p.pause(ctx)
	assert.Less(t, time.Since(start), time.Second)
}
