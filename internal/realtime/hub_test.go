package realtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

func testSample(user string, risk float64) *telemetry.Sample {
	return &telemetry.Sample{
		Timestamp: time.Now(),
		User:      user,
		Behavior:  telemetry.Behavior{FlowState: telemetry.FlowNormal},
		AI:        risk,
	}
}

// ---------------------------------------------------------------------------
// shouldSend tests
// ---------------------------------------------------------------------------

func TestShouldSend_AllEvents(t *testing.T) {
	h := testHub()
	client := &Client{sub: Subscription{AllEvents: true}}

	event := &Event{Type: EventSample, Timestamp: time.Now()}
	if !h.shouldSend(client, event) {
		t.Error("AllEvents client should receive all events")
	}
}

func TestShouldSend_EventTypeFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		EventTypes: []EventType{EventSample, EventVerification},
	}}

	sampleEvent := &Event{Type: EventSample}
	verifyEvent := &Event{Type: EventVerification}
	rosterEvent := &Event{Type: EventRosterChange}

	if !h.shouldSend(client, sampleEvent) {
		t.Error("Should receive sample events")
	}
	if !h.shouldSend(client, verifyEvent) {
		t.Error("Should receive verification events")
	}
	if h.shouldSend(client, rosterEvent) {
		t.Error("Should NOT receive roster events")
	}
}

func TestShouldSend_UserFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		Users: []string{"student_001"},
	}}

	matching := &Event{Type: EventSample, Data: testSample("student_001", 0)}
	notMatching := &Event{Type: EventSample, Data: testSample("student_002", 0)}
	matchingMap := &Event{
		Type: EventVerification,
		Data: map[string]interface{}{"user": "student_001", "granted": true},
	}

	if !h.shouldSend(client, matching) {
		t.Error("Should match on sample user")
	}
	if h.shouldSend(client, notMatching) {
		t.Error("Should NOT match other students")
	}
	if !h.shouldSend(client, matchingMap) {
		t.Error("Should match on map payload user")
	}
}

func TestShouldSend_MinRiskFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		MinRisk: 0.5,
	}}

	risky := &Event{Type: EventSample, Data: testSample("alice", 0.8)}
	calm := &Event{Type: EventSample, Data: testSample("alice", 0.2)}
	roster := &Event{
		Type: EventRosterChange,
		Data: map[string]interface{}{"user": "alice", "active": true},
	}

	if !h.shouldSend(client, risky) {
		t.Error("Should receive high-risk sample")
	}
	if h.shouldSend(client, calm) {
		t.Error("Should NOT receive low-risk sample")
	}
	if !h.shouldSend(client, roster) {
		t.Error("MinRisk filter should only apply to sample events")
	}
}

func TestShouldSend_EmptySubscription(t *testing.T) {
	h := testHub()

	// No filters, not AllEvents
	client := &Client{sub: Subscription{}}

	event := &Event{Type: EventSample}
	if !h.shouldSend(client, event) {
		t.Error("Empty subscription (no filters) should receive events")
	}
}

func TestShouldSend_NonMapData(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		Users: []string{"student_001"},
	}}

	// Event with opaque data should not crash; the user filter cannot match
	// an empty user.
	event := &Event{
		Type: EventRosterChange,
		Data: "string data not a map",
	}

	if h.shouldSend(client, event) {
		t.Error("User filter should reject events without an extractable user")
	}
}

// ---------------------------------------------------------------------------
// Hub lifecycle tests
// ---------------------------------------------------------------------------

func TestHub_Stats_Initial(t *testing.T) {
	h := testHub()

	stats := h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients, got %v", stats["connectedClients"])
	}
	if stats["totalEvents"].(int64) != 0 {
		t.Errorf("Expected 0 total events, got %v", stats["totalEvents"])
	}
}

func TestHub_BroadcastAndStats(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	h.EmitSample(testSample("alice", 0.1))
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["totalEvents"].(int64) != 1 {
		t.Errorf("Expected 1 total event, got %v", stats["totalEvents"])
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["connectedClients"].(int) != 1 {
		t.Errorf("Expected 1 connected client, got %v", stats["connectedClients"])
	}
	if stats["peakClients"].(int64) != 1 {
		t.Errorf("Expected peak 1, got %v", stats["peakClients"])
	}

	h.unregister <- client
	time.Sleep(50 * time.Millisecond)

	stats = h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients after unregister, got %v", stats["connectedClients"])
	}
	// Peak should still be 1
	if stats["peakClients"].(int64) != 1 {
		t.Errorf("Expected peak still 1, got %v", stats["peakClients"])
	}
}

func TestHub_BroadcastToClient(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	h.EmitSample(testSample("alice", 0.4))

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestHub_EmitHelpers(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Should not panic
	h.EmitVerification("student_001", true)
	h.EmitRosterChange("student_001", false)
}

func TestHub_ContextCancellation(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Hub stopped
	case <-time.After(2 * time.Second):
		t.Error("Hub did not stop after context cancellation")
	}
}

func TestHub_FilteredBroadcast(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Client only wants roster changes
	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{EventTypes: []EventType{EventRosterChange}},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	// Send a sample event (should be filtered out)
	h.EmitSample(testSample("alice", 0.9))
	time.Sleep(100 * time.Millisecond)

	select {
	case <-client.send:
		t.Error("Client should NOT receive sample event")
	default:
		// Good - filtered out
	}

	// Send a roster event (should be received)
	h.EmitRosterChange("alice", true)

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Client should receive roster event")
	}
}
