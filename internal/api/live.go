package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/ponytojas/plant-mood/internal/database"
	"github.com/ponytojas/plant-mood/internal/evaluator"
)

// livePlant streams the plant's latest reading and state until the client
// goes away. The plant is reloaded on every tick so edits and watering
// confirmations show up. A result computed after the client left is dropped.
func (h *Handler) livePlant(origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.store.GetPlant(r.Context(), chi.URLParam(r, "plantID"))
		if err != nil {
			h.storeError(w, r, err)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: origins})
		if err != nil {
			h.lg.Warn("Websocket accept failed", "plant_id", p.ID, "error", err)
			return
		}
		defer c.CloseNow()

		// Reads are not expected; CloseRead cancels ctx once the peer closes.
		ctx := c.CloseRead(r.Context())
		if err := h.streamPlant(ctx, c, p.ID); err != nil && !isClosed(err) {
			h.lg.Warn("Live stream ended", "plant_id", p.ID, "error", err)
			c.Close(websocket.StatusInternalError, "stream failed")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

func (h *Handler) streamPlant(ctx context.Context, c *websocket.Conn, plantID string) error {
	ticker := time.NewTicker(h.liveInterval)
	defer ticker.Stop()

	for {
		res, err := h.snapshot(ctx, plantID)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, database.ErrNotFound) {
			return c.Close(websocket.StatusNormalClosure, "plant deleted")
		}
		if err != nil {
			h.lg.Warn("Live snapshot failed", "plant_id", plantID, "error", err)
		} else {
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = wsjson.Write(writeCtx, c, res)
			cancel()
			if err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (h *Handler) snapshot(ctx context.Context, plantID string) (*evaluator.Result, error) {
	p, err := h.store.GetPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}
	return h.eval.Snapshot(ctx, p)
}

func isClosed(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	status := websocket.CloseStatus(err)
	return status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway
}
