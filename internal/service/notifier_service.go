package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// notifyRetryIntervals defines the delivery retry backoff.
var notifyRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	5 * time.Minute,
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NotificationPayload is the JSON structure posted to the notification
// service.
type NotificationPayload struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	RelatedID string `json:"related_id"`
	Timestamp int64  `json:"timestamp"`
}

// HTTPNotifier implements ports.Notifier against an internal notification
// service. Delivery is fire-and-forget with retries; a notification that
// never lands is logged and dropped, business state is already committed.
type HTTPNotifier struct {
	baseURL    string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewHTTPNotifier creates a new HTTPNotifier.
func NewHTTPNotifier(baseURL string, httpClient HTTPClient, log zerolog.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		baseURL:    baseURL,
		httpClient: httpClient,
		log:        log,
	}
}

// Notify dispatches one notification asynchronously.
func (n *HTTPNotifier) Notify(ctx context.Context, userID uuid.UUID, message string, relatedID uuid.UUID) error {
	if n.baseURL == "" {
		n.log.Debug().Str("user_id", userID.String()).Msg("notify: no notification URL configured, skipping")
		return nil
	}

	payload := NotificationPayload{
		UserID:    userID.String(),
		Message:   message,
		RelatedID: relatedID.String(),
		Timestamp: time.Now().Unix(),
	}

	go n.deliverWithRetries(payload)
	return nil
}

// deliverWithRetries attempts delivery with backoff.
func (n *HTTPNotifier) deliverWithRetries(payload NotificationPayload) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		n.log.Error().Err(err).Str("user_id", payload.UserID).Msg("notify: failed to marshal payload")
		return
	}
	url := n.baseURL + "/notifications"

	for attempt := 0; attempt <= len(notifyRetryIntervals); attempt++ {
		if attempt > 0 {
			time.Sleep(notifyRetryIntervals[attempt-1])
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payloadBytes))
		if err != nil {
			n.log.Error().Err(err).Int("attempt", attempt+1).Msg("notify: failed to create request")
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			n.log.Warn().Err(err).Int("attempt", attempt+1).Msg("notify: delivery failed")
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			n.log.Info().Str("user_id", payload.UserID).Int("attempt", attempt+1).Msg("notify: delivered")
			return
		}

		n.log.Warn().Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("notify: non-2xx response, retrying")
	}

	n.log.Error().Str("user_id", payload.UserID).Msg("notify: all retry attempts exhausted")
}
