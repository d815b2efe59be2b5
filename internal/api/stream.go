package api

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// planUpdate is one websocket frame: the event that triggered the rebuild
// (absent for the initial push) and the fresh plan.
type planUpdate struct {
	Event any `json:"event,omitempty"`
	Plan  any `json:"plan"`
}

// handleStream upgrades to a websocket and pushes a fresh study plan after
// every attempt the learner records, starting with the current plan.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "learner_id", learnerID, "error", err)
		return
	}
	defer conn.CloseNow()

	// The stream is write-only; CloseRead surfaces client disconnects
	// through the context.
	ctx := conn.CloseRead(r.Context())

	events, cancel := s.engine.Broker().Subscribe(learnerID)
	defer cancel()

	plan, err := s.engine.NextTasks(ctx, learnerID, s.planLimit, "")
	if err != nil {
		slog.Error("failed to build initial plan for stream", "learner_id", learnerID, "error", err)
		conn.Close(websocket.StatusInternalError, "failed to build plan")
		return
	}
	if err := wsjson.Write(ctx, conn, planUpdate{Plan: plan}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			plan, err := s.engine.NextTasks(ctx, learnerID, s.planLimit, "")
			if err != nil {
				slog.Error("failed to rebuild plan for stream", "learner_id", learnerID, "error", err)
				continue
			}
			if err := wsjson.Write(ctx, conn, planUpdate{Event: ev, Plan: plan}); err != nil {
				return
			}
		}
	}
}
