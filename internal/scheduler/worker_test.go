package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ponytojas/plant-mood/internal/evaluator"
	"github.com/ponytojas/plant-mood/internal/models"
)

type fakeLister struct {
	plants []*models.Plant
	err    error
}

func (f *fakeLister) ListAllPlants(context.Context) ([]*models.Plant, error) {
	return f.plants, f.err
}

type fakeEvaluator struct {
	mu    sync.Mutex
	seen  map[string]int
	fail  map[string]bool
	empty map[string]bool
}

func (f *fakeEvaluator) EvaluatePlant(_ context.Context, p *models.Plant) (*evaluator.Result, error) {
	f.mu.Lock()
	f.seen[p.ID]++
	f.mu.Unlock()
	if f.fail[p.ID] {
		return nil, errors.New("store unreachable")
	}
	if f.empty[p.ID] {
		return &evaluator.Result{PlantID: p.ID, Reason: evaluator.ReasonNoReading}, nil
	}
	return &evaluator.Result{PlantID: p.ID, Evaluated: true, State: models.Happy}, nil
}

type fakePruner struct {
	calls int
}

func (f *fakePruner) Prune(context.Context, time.Time) (int64, error) {
	f.calls++
	return 0, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnceEvaluatesEveryPlant(t *testing.T) {
	lister := &fakeLister{plants: []*models.Plant{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}}
	eval := &fakeEvaluator{
		seen:  map[string]int{},
		fail:  map[string]bool{"b": true},
		empty: map[string]bool{"c": true},
	}
	pruner := &fakePruner{}
	w := NewWorker(lister, eval, pruner, time.Hour, 2, testLogger())

	sum := w.RunOnce(context.Background())
	if sum != (Summary{Plants: 4, Evaluated: 2, Skipped: 1, Failed: 1}) {
		t.Fatalf("unexpected summary %+v", sum)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if eval.seen[id] != 1 {
			t.Fatalf("plant %s evaluated %d times", id, eval.seen[id])
		}
	}
	if pruner.calls != 1 {
		t.Fatalf("expected one prune, got %d", pruner.calls)
	}
}

func TestRunOnceListFailure(t *testing.T) {
	w := NewWorker(&fakeLister{err: errors.New("down")}, &fakeEvaluator{seen: map[string]int{}}, nil, time.Hour, 1, testLogger())
	if sum := w.RunOnce(context.Background()); sum != (Summary{}) {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
}

func TestStartStopsWithContext(t *testing.T) {
	eval := &fakeEvaluator{seen: map[string]int{}}
	w := NewWorker(&fakeLister{plants: []*models.Plant{{ID: "a"}}}, eval, nil, time.Hour, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := w.Start(ctx)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	eval.mu.Lock()
	defer eval.mu.Unlock()
	if eval.seen["a"] != 1 {
		t.Fatalf("expected the initial sweep to run once, got %d", eval.seen["a"])
	}
}
