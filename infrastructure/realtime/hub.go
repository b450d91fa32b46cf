package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"vidwatch/domain/model"
	"vidwatch/infrastructure/logger"
)

const heartbeatInterval = 25 * time.Second

// Hub fans viewer events out to every connected SSE client.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan model.ViewerEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan model.ViewerEvent]struct{})}
}

// Serve streams events to the client until it disconnects.
func (h *Hub) Serve(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			_, _ = c.Writer.Write([]byte(":ping\n\n"))
			c.Writer.Flush()
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				logger.GetLogger().WithField("error", err).Warn("Dropping unencodable viewer event")
				continue
			}
			_, _ = fmt.Fprintf(c.Writer, "id: %s\nevent: %s\ndata: %s\n\n", evt.ID, evt.Type, data)
			c.Writer.Flush()
		}
	}
}

// Subscribe registers a buffered listener channel
func (h *Hub) Subscribe() chan model.ViewerEvent {
	ch := make(chan model.ViewerEvent, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan model.ViewerEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// Broadcast never blocks; slow subscribers miss events.
func (h *Hub) Broadcast(evt model.ViewerEvent) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
