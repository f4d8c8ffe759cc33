package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sprintwell/sprintwell/internal/models"
)

const (
	ssePollInterval      = 3 * time.Second
	sseHeartbeatInterval = 15 * time.Second
)

// taskEvent is one board activity entry pushed over SSE.
type taskEvent struct {
	TaskID string  `json:"taskId"`
	Kind   string  `json:"kind"`
	From   string  `json:"from,omitempty"`
	To     string  `json:"to,omitempty"`
	Hours  float64 `json:"hours,omitempty"`
	Actor  string  `json:"actor,omitempty"`
}

// handleSSE streams task activity by polling the history table. Clients get
// a connected event, then one event per new history entry, plus periodic
// heartbeats.
func handleSSE(svc *services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		// Only alert on activity after the connection was opened.
		lastSeenID, err := svc.store.LatestHistoryID()
		if err != nil {
			return
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(ssePollInterval)
		heartbeat := time.NewTicker(sseHeartbeatInterval)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				entries, err := svc.store.HistorySince(lastSeenID)
				if err != nil || len(entries) == 0 {
					continue
				}
				lastSeenID = entries[len(entries)-1].ID
				for _, e := range entries {
					writeSSE(c.Writer, eventName(e.Kind), taskEvent{
						TaskID: e.TaskID,
						Kind:   e.Kind,
						From:   string(e.FromStatus),
						To:     string(e.ToStatus),
						Hours:  e.Hours,
						Actor:  e.Actor,
					})
				}
				c.Writer.Flush()
			}
		}
	}
}

// eventName maps a history kind to its SSE event name.
func eventName(kind string) string {
	switch kind {
	case models.HistoryTransition:
		return "task-moved"
	case models.HistoryTimeLog:
		return "time-logged"
	case models.HistoryAssignment:
		return "task-assigned"
	}
	return "task-updated"
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
