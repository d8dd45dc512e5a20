package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ponytojas/plant-mood/internal/models"
)

type fakeTokens map[string][]models.DeviceToken

func (f fakeTokens) DeviceTokens(_ context.Context, userID string) ([]models.DeviceToken, error) {
	return f[userID], nil
}

type fakeInbox struct {
	entries []*models.Notification
	err     error
}

func (f *fakeInbox) InsertNotification(_ context.Context, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, n)
	return nil
}

type fakeSender struct {
	failFor map[string]bool
	sent    []Message
}

func (f *fakeSender) Send(_ context.Context, m Message) error {
	if f.failFor[m.Token] {
		return &RelayError{Status: 404, Body: "unregistered"}
	}
	f.sent = append(f.sent, m)
	return nil
}

func TestPushDispatcherPartialDelivery(t *testing.T) {
	tokens := fakeTokens{"u1": {{UserID: "u1", Token: "a"}, {UserID: "u1", Token: "b"}}}
	inbox := &fakeInbox{}
	sender := &fakeSender{failFor: map[string]bool{"a": true}}
	d := NewPushDispatcher(tokens, inbox, sender, testLogger())

	if err := d.Dispatch(context.Background(), alert(models.Thirsty, t0)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].Token != "b" {
		t.Fatalf("unexpected sends %+v", sender.sent)
	}
	if sender.sent[0].Data["emotion"] != "thirsty" || sender.sent[0].Data["plantId"] != "p1" {
		t.Fatalf("unexpected data %+v", sender.sent[0].Data)
	}
	if len(inbox.entries) != 1 {
		t.Fatalf("expected one inbox entry, got %d", len(inbox.entries))
	}
	n := inbox.entries[0]
	if n.Type != models.NotificationWatering || n.UserID != "u1" || n.PlantID != "p1" || !strings.Contains(n.Body, "Fern") {
		t.Fatalf("unexpected inbox entry %+v", n)
	}
}

func TestPushDispatcherAllDevicesFail(t *testing.T) {
	tokens := fakeTokens{"u1": {{Token: "a"}, {Token: "b"}}}
	inbox := &fakeInbox{}
	sender := &fakeSender{failFor: map[string]bool{"a": true, "b": true}}
	d := NewPushDispatcher(tokens, inbox, sender, testLogger())

	err := d.Dispatch(context.Background(), alert(models.TooCold, t0))
	var relayErr *RelayError
	if !errors.As(err, &relayErr) {
		t.Fatalf("expected wrapped RelayError, got %v", err)
	}
	if len(inbox.entries) != 0 {
		t.Fatal("an undelivered alert must not reach the inbox")
	}
}

func TestPushDispatcherInboxOnly(t *testing.T) {
	inbox := &fakeInbox{}
	d := NewPushDispatcher(fakeTokens{}, inbox, &fakeSender{}, testLogger())

	if err := d.Dispatch(context.Background(), alert(models.TooDark, t0)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(inbox.entries) != 1 || inbox.entries[0].Type != models.NotificationEnvironment {
		t.Fatalf("unexpected inbox %+v", inbox.entries)
	}

	failing := NewPushDispatcher(fakeTokens{}, &fakeInbox{err: errors.New("db down")}, &fakeSender{}, testLogger())
	if err := failing.Dispatch(context.Background(), alert(models.TooDark, t0)); err == nil {
		t.Fatal("inbox-only delivery must fail when the inbox write fails")
	}
}

func TestTextCoversEveryAlertState(t *testing.T) {
	for _, s := range models.EmotionalStates {
		if s == models.Happy {
			continue
		}
		title, body := Text("Basil", s)
		if title == "" || !strings.HasPrefix(body, "Basil ") || strings.Contains(body, "check-up") {
			t.Errorf("state %s: title=%q body=%q", s, title, body)
		}
	}
}
