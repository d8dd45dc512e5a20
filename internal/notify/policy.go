package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ponytojas/plant-mood/internal/models"
)

// Outcome is what the policy did with an alert.
type Outcome string

const (
	OutcomeSkipped    Outcome = "skipped_happy"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeDispatched Outcome = "dispatched"
	OutcomeFailed     Outcome = "failed"
)

// Decision is the result of Policy.Consider. Err is set only for
// OutcomeFailed and is never fatal: the next evaluation cycle retries.
type Decision struct {
	Outcome Outcome
	Err     error
}

// Policy sends at most one notification per (plant, state) per cool-down
// window and stays silent for happy plants.
type Policy struct {
	ledger     Ledger
	dispatcher Dispatcher
	cooldown   time.Duration
	lg         *slog.Logger
}

// NewPolicy creates a Policy.
func NewPolicy(ledger Ledger, dispatcher Dispatcher, cooldown time.Duration, lg *slog.Logger) *Policy {
	return &Policy{ledger: ledger, dispatcher: dispatcher, cooldown: cooldown, lg: lg}
}

// Cooldown returns the configured window.
func (p *Policy) Cooldown() time.Duration {
	return p.cooldown
}

// Consider decides whether to dispatch a and, if so, dispatches it.
func (p *Policy) Consider(ctx context.Context, a Alert) Decision {
	if a.State == models.Happy {
		return Decision{Outcome: OutcomeSkipped}
	}

	reserved, err := p.ledger.Reserve(ctx, a.PlantID, a.State, a.At, p.cooldown)
	if err != nil {
		p.lg.Error("Notification ledger unavailable", "plant_id", a.PlantID, "state", a.State, "error", err)
		return Decision{Outcome: OutcomeFailed, Err: err}
	}
	if !reserved {
		p.lg.Debug("Notification suppressed by cool-down", "plant_id", a.PlantID, "state", a.State)
		return Decision{Outcome: OutcomeSuppressed}
	}

	if err := p.dispatcher.Dispatch(ctx, a); err != nil {
		p.lg.Warn("Notification dispatch failed, will retry next cycle",
			"plant_id", a.PlantID, "state", a.State, "error", err)
		// The release must outlive a cancelled request context.
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if relErr := p.ledger.Release(relCtx, a.PlantID, a.State, a.At); relErr != nil {
			p.lg.Error("Failed to release notification record", "plant_id", a.PlantID, "error", relErr)
		}
		return Decision{Outcome: OutcomeFailed, Err: fmt.Errorf("dispatch: %w", err)}
	}
	return Decision{Outcome: OutcomeDispatched}
}

// Prune drops ledger records that can no longer suppress anything.
func (p *Policy) Prune(ctx context.Context, now time.Time) (int64, error) {
	return p.ledger.Prune(ctx, now.Add(-2*p.cooldown))
}
