// Package expo sends push notifications through the Expo push gateway.
// Expo performs the FCM/APNs fan-out server-side, so this service only
// ever talks one HTTPS wire format.
package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rezvera/go-push-service/pkg/push"
	"github.com/rezvera/go-push-service/pushservice/config"
)

// BatchSize is the maximum number of messages the gateway accepts per call.
const BatchSize = 100

type pushMessage struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound"`
}

// ticketResponse mirrors the gateway's per-message status array. Entries
// are positional relative to the request batch.
type ticketResponse struct {
	Data []struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"data"`
}

type Dispatcher struct {
	url         string
	accessToken string
	batchSize   int
	cb          *gobreaker.CircuitBreaker
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewDispatcher(cfg config.ExpoConfig, logger *slog.Logger) *Dispatcher {
	settings := gobreaker.Settings{
		Name:        "expo-push",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     1 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.TotalFailures >= 3
		},
	}
	return &Dispatcher{
		url:         cfg.URL,
		accessToken: cfg.AccessToken,
		batchSize:   BatchSize,
		cb:          gobreaker.NewCircuitBreaker(settings),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger.With("component", "ExpoDispatcher"),
	}
}

// Dispatch partitions tokens into gateway-sized chunks and tallies the
// outcome. A rejected chunk (transport error, non-2xx, open breaker)
// counts entirely as failed; no retries are attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, tokens []string, content push.Content) (push.Receipt, error) {
	title := strings.TrimSpace(content.Title)
	if title == "" {
		return push.Receipt{}, fmt.Errorf("push title must not be empty")
	}
	body := strings.TrimSpace(content.Body)
	if body == "" {
		body = title
	}

	receipt := push.Receipt{Total: len(tokens)}
	if len(tokens) == 0 {
		return receipt, nil
	}

	for start := 0; start < len(tokens); start += d.batchSize {
		end := min(start+d.batchSize, len(tokens))
		chunk := tokens[start:end]

		statuses, err := d.sendChunk(ctx, chunk, title, body)
		if err != nil {
			d.logger.Warn("Gateway rejected chunk", "size", len(chunk), "err", err)
			receipt.Failed += len(chunk)
			continue
		}

		// Positional tally; a short status array fails the tail.
		for i := range chunk {
			if i < len(statuses) && statuses[i] == "ok" {
				receipt.Sent++
			} else {
				receipt.Failed++
			}
		}
	}

	return receipt, nil
}

func (d *Dispatcher) sendChunk(ctx context.Context, chunk []string, title, body string) ([]string, error) {
	messages := make([]pushMessage, 0, len(chunk))
	for _, token := range chunk {
		messages = append(messages, pushMessage{
			To:    token,
			Title: title,
			Body:  body,
			Sound: "default",
		})
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	result, err := d.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if d.accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+d.accessToken)
		}

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}

		var tickets ticketResponse
		if err := json.Unmarshal(raw, &tickets); err != nil {
			return nil, fmt.Errorf("failed to decode gateway response: %w", err)
		}

		statuses := make([]string, 0, len(tickets.Data))
		for _, entry := range tickets.Data {
			statuses = append(statuses, entry.Status)
		}
		return statuses, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}
