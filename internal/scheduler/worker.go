// Package scheduler re-evaluates every plant on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ponytojas/plant-mood/internal/evaluator"
	"github.com/ponytojas/plant-mood/internal/models"
)

// PlantLister lists every registered plant.
type PlantLister interface {
	ListAllPlants(ctx context.Context) ([]*models.Plant, error)
}

// PlantEvaluator evaluates one plant.
type PlantEvaluator interface {
	EvaluatePlant(ctx context.Context, p *models.Plant) (*evaluator.Result, error)
}

// Pruner drops notification records that have outlived the cool-down.
type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int64, error)
}

// Summary counts the results of one sweep.
type Summary struct {
	Plants    int
	Evaluated int
	Skipped   int
	Failed    int
}

// Worker sweeps all plants every interval.
type Worker struct {
	plants      PlantLister
	eval        PlantEvaluator
	pruner      Pruner
	interval    time.Duration
	concurrency int
	lg          *slog.Logger
}

// NewWorker creates a Worker. pruner may be nil.
func NewWorker(plants PlantLister, eval PlantEvaluator, pruner Pruner, interval time.Duration, concurrency int, lg *slog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		plants:      plants,
		eval:        eval,
		pruner:      pruner,
		interval:    interval,
		concurrency: concurrency,
		lg:          lg,
	}
}

// Start runs a sweep immediately and then on every tick until ctx is done.
// It returns a channel closed when the loop has exited.
func (w *Worker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		w.lg.Info("Evaluation worker started", "interval", w.interval, "concurrency", w.concurrency)

		w.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				w.lg.Info("Evaluation worker stopped")
				return
			case <-ticker.C:
				w.RunOnce(ctx)
			}
		}
	}()
	return done
}

// RunOnce evaluates every plant once. Plants are independent: one failing
// plant is logged and does not stop the others.
func (w *Worker) RunOnce(ctx context.Context) Summary {
	start := time.Now()
	var sum Summary

	plants, err := w.plants.ListAllPlants(ctx)
	if err != nil {
		w.lg.Error("Failed to list plants for evaluation", "error", err)
		return sum
	}
	sum.Plants = len(plants)

	results := make([]outcome, len(plants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, p := range plants {
		g.Go(func() error {
			res, err := w.eval.EvaluatePlant(gctx, p)
			switch {
			case err != nil:
				w.lg.Warn("Plant evaluation failed", "plant_id", p.ID, "error", err)
				results[i] = outcomeFailed
			case !res.Evaluated:
				w.lg.Debug("Plant not evaluated", "plant_id", p.ID, "reason", res.Reason)
				results[i] = outcomeSkipped
			default:
				results[i] = outcomeEvaluated
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range results {
		switch o {
		case outcomeEvaluated:
			sum.Evaluated++
		case outcomeSkipped:
			sum.Skipped++
		case outcomeFailed:
			sum.Failed++
		}
	}

	if w.pruner != nil {
		n, err := w.pruner.Prune(ctx, time.Now())
		if err != nil {
			w.lg.Warn("Failed to prune notification records", "error", err)
		} else if n > 0 {
			w.lg.Debug("Pruned notification records", "count", n)
		}
	}

	w.lg.Info("Evaluation sweep complete",
		"plants", sum.Plants,
		"evaluated", sum.Evaluated,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"took", time.Since(start),
	)
	return sum
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeSkipped
	outcomeEvaluated
)
