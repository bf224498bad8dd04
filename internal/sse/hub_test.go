package sse

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHub_BroadcastReachesSubscribers(t *testing.T) {
	hub := NewHub()
	client := hub.NewClient()
	hub.Subscribe(client, DebateChannel("d1"))

	hub.Broadcast(Event{
		Channel: DebateChannel("d1"),
		Type:    EventMarketPrice,
		Data:    map[string]int{"support_price": 62},
	})

	select {
	case ev := <-client.Outbound:
		if ev.Type != EventMarketPrice {
			t.Errorf("event type = %q, want %q", ev.Type, EventMarketPrice)
		}
	default:
		t.Fatal("subscribed client received nothing")
	}
}

func TestHub_ChannelIsolation(t *testing.T) {
	hub := NewHub()
	d1Client := hub.NewClient()
	d2Client := hub.NewClient()
	hub.Subscribe(d1Client, DebateChannel("d1"))
	hub.Subscribe(d2Client, DebateChannel("d2"))

	hub.Broadcast(Event{Channel: DebateChannel("d1"), Type: EventStanceSpike})

	select {
	case <-d2Client.Outbound:
		t.Error("client on another channel received the event")
	default:
	}
	select {
	case <-d1Client.Outbound:
	default:
		t.Error("client on the target channel received nothing")
	}
}

func TestHub_RemovedClientStopsReceiving(t *testing.T) {
	hub := NewHub()
	client := hub.NewClient()
	hub.Subscribe(client, UserChannel("u1"))
	hub.RemoveClient(client)

	hub.Broadcast(Event{Channel: UserChannel("u1"), Type: EventReputationChange})

	select {
	case <-client.Outbound:
		t.Error("removed client still received an event")
	default:
	}
}

// TestHub_SlowClientDoesNotBlock fills one client's buffer and verifies the
// broadcast still returns and still reaches healthy clients.
func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()
	slow := hub.NewClient()
	healthy := hub.NewClient()
	hub.Subscribe(slow, DebateChannel("d1"))
	hub.Subscribe(healthy, DebateChannel("d1"))

	// One past capacity; the overflow event is dropped for the slow client.
	for i := 0; i < cap(slow.Outbound)+1; i++ {
		done := make(chan struct{})
		go func() {
			hub.Broadcast(Event{Channel: DebateChannel("d1"), Type: EventMarketPrice})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("broadcast blocked on a full client buffer")
		}
		// Drain the healthy client so only the slow one backs up.
		<-healthy.Outbound
	}

	if got := len(slow.Outbound); got != cap(slow.Outbound) {
		t.Errorf("slow client buffered %d events, want full buffer of %d", got, cap(slow.Outbound))
	}
}

func TestHub_ServeStreamWritesEventFrames(t *testing.T) {
	hub := NewHub()
	client := hub.NewClient()
	hub.Subscribe(client, DebateChannel("d1"))

	req := httptest.NewRequest("GET", "/events", nil)
	rec := httptest.NewRecorder()

	streamDone := make(chan struct{})
	go func() {
		hub.ServeStream(rec, req, client)
		close(streamDone)
	}()

	hub.Broadcast(Event{
		Channel: DebateChannel("d1"),
		Type:    EventStanceSpike,
		Data:    map[string]string{"label": "+23 toward Support"},
	})

	// Give the stream loop a moment to write the frame, then shut down.
	time.Sleep(50 * time.Millisecond)
	hub.CloseClient(client)
	select {
	case <-streamDone:
	case <-time.After(time.Second):
		t.Fatal("ServeStream did not stop after CloseClient")
	}

	body := rec.Body.String()
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(body, "event: "+EventStanceSpike+"\n") {
		t.Errorf("stream body missing event line, got %q", body)
	}

	// The data line must be the JSON-encoded event.
	var dataLine string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			dataLine = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if dataLine == "" {
		t.Fatalf("stream body missing data line, got %q", body)
	}
	var ev Event
	if err := json.Unmarshal([]byte(dataLine), &ev); err != nil {
		t.Fatalf("data line is not valid JSON: %v", err)
	}
	if ev.Channel != DebateChannel("d1") || ev.Type != EventStanceSpike {
		t.Errorf("decoded event = %+v, want d1 stance spike", ev)
	}
}

func TestChannelHelpers(t *testing.T) {
	if got := DebateChannel("abc"); got != "debate:abc" {
		t.Errorf("DebateChannel = %q", got)
	}
	if got := UserChannel("u9"); got != "user:u9" {
		t.Errorf("UserChannel = %q", got)
	}
}
