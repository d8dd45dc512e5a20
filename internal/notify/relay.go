package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one push notification addressed to a single device token.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a message to a device.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// RelayError is returned when the relay answers with a non-2xx status.
type RelayError struct {
	Status int
	Body   string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay responded %d: %s", e.Status, e.Body)
}

type relayNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type relayRequest struct {
	FCMToken     string            `json:"fcmToken"`
	Notification relayNotification `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

// Relay posts messages to the hosted send-notification function.
type Relay struct {
	url    string
	apiKey string
	client *http.Client
}

// NewRelay creates a Relay. A zero timeout falls back to 10 seconds.
func NewRelay(url, apiKey string, timeout time.Duration) *Relay {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Relay{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

// Send implements Sender.
func (r *Relay) Send(ctx context.Context, msg Message) error {
	if msg.Token == "" {
		return fmt.Errorf("device token is required")
	}

	payload, err := json.Marshal(relayRequest{
		FCMToken:     msg.Token,
		Notification: relayNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	})
	if err != nil {
		return fmt.Errorf("encode relay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("call relay: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RelayError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	return nil
}
