package sse

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types pushed to subscribers.
const (
	EventMarketPrice      = "market_price"
	EventStanceSpike      = "stance_spike"
	EventReputationChange = "reputation_change"
)

// DebateChannel keys market and spike events for one debate.
func DebateChannel(debateID string) string { return "debate:" + debateID }

// UserChannel keys reputation and notification events for one user.
func UserChannel(userID string) string { return "user:" + userID }

type Event struct {
	Channel string `json:"channel"`
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
}

type Client struct {
	ID       string
	Channels map[string]bool
	Outbound chan Event
	done     chan struct{}
}

// Hub fans events out to subscribed clients. Slow clients drop messages
// rather than blocking the writer.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Client]bool)}
}

func (h *Hub) NewClient() *Client {
	return &Client{
		ID:       uuid.NewString(),
		Channels: make(map[string]bool),
		Outbound: make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

func (h *Hub) Subscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client.Channels[channel] = true
	clients, ok := h.subs[channel]
	if !ok {
		clients = make(map[*Client]bool)
		h.subs[channel] = clients
	}
	clients[client] = true
}

func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range client.Channels {
		if clients, ok := h.subs[ch]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.subs, ch)
			}
		}
	}
	client.Channels = make(map[string]bool)
}

func (h *Hub) Broadcast(ev Event) {
	if ev.Channel == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.subs[ev.Channel] {
		select {
		case c.Outbound <- ev:
		default:
			log.Printf("sse: dropping event for client %s; outbound buffer full", c.ID)
		}
	}
}

// ServeStream writes the event stream until the request context ends.
func (h *Hub) ServeStream(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-client.Outbound:
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Printf("sse: failed to marshal event: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}

func (h *Hub) CloseClient(client *Client) {
	close(client.done)
	h.RemoveClient(client)
}
