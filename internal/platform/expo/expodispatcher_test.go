package expo_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezvera/go-push-service/internal/platform/expo"
	"github.com/rezvera/go-push-service/pkg/push"
	"github.com/rezvera/go-push-service/pushservice/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedBatch struct {
	messages []map[string]string
}

// newMockGateway returns a fake Expo endpoint. statusFor decides the
// per-message ticket status; a nil statusFor answers "ok" for everything.
func newMockGateway(t *testing.T, batches *[]recordedBatch, statusFor func(index int) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var messages []map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&messages))
		*batches = append(*batches, recordedBatch{messages: messages})

		type ticket struct {
			Status string `json:"status"`
		}
		tickets := make([]ticket, len(messages))
		for i := range messages {
			if statusFor == nil {
				tickets[i] = ticket{Status: "ok"}
			} else {
				tickets[i] = ticket{Status: statusFor(i)}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": tickets})
	}))
}

func makeTokens(n int) []string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("ExponentPushToken[%04d]", i)
	}
	return tokens
}

func TestDispatch_Batching(t *testing.T) {
	var batches []recordedBatch
	server := newMockGateway(t, &batches, nil)
	defer server.Close()

	dispatcher := expo.NewDispatcher(config.ExpoConfig{URL: server.URL, Timeout: 5 * time.Second}, newTestLogger())

	receipt, err := dispatcher.Dispatch(context.Background(), makeTokens(250), push.Content{Title: "Hello", Body: "World"})
	require.NoError(t, err)

	// 250 endpoints must produce exactly 3 gateway calls: 100, 100, 50.
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].messages, 100)
	assert.Len(t, batches[1].messages, 100)
	assert.Len(t, batches[2].messages, 50)

	assert.Equal(t, push.Receipt{Sent: 250, Failed: 0, Total: 250}, receipt)
	assert.Equal(t, "default", batches[0].messages[0]["sound"])
}

func TestDispatch_StatusTally(t *testing.T) {
	// First 90 tickets "ok", last 10 "error".
	var batches []recordedBatch
	server := newMockGateway(t, &batches, func(index int) string {
		if index < 90 {
			return "ok"
		}
		return "error"
	})
	defer server.Close()

	dispatcher := expo.NewDispatcher(config.ExpoConfig{URL: server.URL, Timeout: 5 * time.Second}, newTestLogger())

	receipt, err := dispatcher.Dispatch(context.Background(), makeTokens(100), push.Content{Title: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, push.Receipt{Sent: 90, Failed: 10, Total: 100}, receipt)
}

func TestDispatch_RejectedChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	dispatcher := expo.NewDispatcher(config.ExpoConfig{URL: server.URL, Timeout: 5 * time.Second}, newTestLogger())

	// The whole chunk is tallied as failed; no error surfaces.
	receipt, err := dispatcher.Dispatch(context.Background(), makeTokens(40), push.Content{Title: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, push.Receipt{Sent: 0, Failed: 40, Total: 40}, receipt)
}

func TestDispatch_Validation(t *testing.T) {
	var batches []recordedBatch
	server := newMockGateway(t, &batches, nil)
	defer server.Close()

	dispatcher := expo.NewDispatcher(config.ExpoConfig{URL: server.URL, Timeout: 5 * time.Second}, newTestLogger())
	ctx := context.Background()

	t.Run("Rejects Blank Title", func(t *testing.T) {
		_, err := dispatcher.Dispatch(ctx, makeTokens(1), push.Content{Title: "   "})
		require.Error(t, err)
		assert.Empty(t, batches)
	})

	t.Run("Body Falls Back To Title", func(t *testing.T) {
		batches = nil
		_, err := dispatcher.Dispatch(ctx, makeTokens(1), push.Content{Title: "Reminder"})
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, "Reminder", batches[0].messages[0]["body"])
	})

	t.Run("No Tokens No Call", func(t *testing.T) {
		batches = nil
		receipt, err := dispatcher.Dispatch(ctx, nil, push.Content{Title: "Reminder"})
		require.NoError(t, err)
		assert.Equal(t, push.Receipt{}, receipt)
		assert.Empty(t, batches)
	})
}
