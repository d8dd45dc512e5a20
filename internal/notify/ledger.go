// Package notify decides when a plant's state warrants a push notification
// and delivers it through the hosted relay.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/ponytojas/plant-mood/internal/models"
)

// Ledger remembers which (plant, state) alerts went out recently.
type Ledger interface {
	// Reserve records (plantID, state, now) unless a record for the same pair
	// exists after now-window. It reports whether the record was written.
	// The check and the write happen atomically.
	Reserve(ctx context.Context, plantID string, state models.EmotionalState, now time.Time, window time.Duration) (bool, error)

	// Release removes a reservation made at sentAt, used when dispatch failed.
	Release(ctx context.Context, plantID string, state models.EmotionalState, sentAt time.Time) error

	// Prune deletes records sent before the cutoff and returns how many went.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type ledgerKey struct {
	plantID string
	state   models.EmotionalState
}

// MemoryLedger is a process-local Ledger.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[ledgerKey]time.Time
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[ledgerKey]time.Time)}
}

// Reserve implements Ledger.
func (l *MemoryLedger) Reserve(_ context.Context, plantID string, state models.EmotionalState, now time.Time, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := ledgerKey{plantID, state}
	if sentAt, ok := l.records[k]; ok && sentAt.After(now.Add(-window)) {
		return false, nil
	}
	l.records[k] = now
	return true, nil
}

// Release implements Ledger.
func (l *MemoryLedger) Release(_ context.Context, plantID string, state models.EmotionalState, sentAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := ledgerKey{plantID, state}
	if cur, ok := l.records[k]; ok && cur.Equal(sentAt) {
		delete(l.records, k)
	}
	return nil
}

// Prune implements Ledger.
func (l *MemoryLedger) Prune(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for k, sentAt := range l.records {
		if sentAt.Before(before) {
			delete(l.records, k)
			n++
		}
	}
	return n, nil
}
