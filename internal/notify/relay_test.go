package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRelaySendsPayload(t *testing.T) {
	var got relayRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	r := NewRelay(srv.URL, "secret", time.Second)
	err := r.Send(context.Background(), Message{
		Token: "device-1",
		Title: "t",
		Body:  "b",
		Data:  map[string]string{"plantId": "p1"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.FCMToken != "device-1" || got.Notification.Title != "t" || got.Notification.Body != "b" || got.Data["plantId"] != "p1" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestRelayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer srv.Close()

	err := NewRelay(srv.URL, "", time.Second).Send(context.Background(), Message{Token: "bad"})
	var relayErr *RelayError
	if !errors.As(err, &relayErr) {
		t.Fatalf("expected RelayError, got %v", err)
	}
	if relayErr.Status != http.StatusBadRequest || relayErr.Body != `{"error":"invalid token"}` {
		t.Fatalf("unexpected relay error %+v", relayErr)
	}
}

func TestRelayRequiresToken(t *testing.T) {
	if err := NewRelay("http://127.0.0.1:0", "", time.Second).Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestRelayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if err := NewRelay(url, "", time.Second).Send(context.Background(), Message{Token: "x"}); err == nil {
		t.Fatal("expected network error")
	}
}
