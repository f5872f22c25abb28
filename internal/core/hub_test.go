package core

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func TestHubSubscribePublishFanOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	operator := NewClient("op", "operator", true, true)
	overlay := NewClient("ov", "overlay", true, false)

	hub.RegisterClient(operator)
	hub.RegisterClient(overlay)

	overlay.Commands <- &Command{Kind: CommandSubscribe, Channel: "love-and-war-display-update"}
	// Give the subscribe a moment to land before publishing.
	time.Sleep(50 * time.Millisecond)

	payload := json.RawMessage(`{"teamId":42,"visible":true}`)
	operator.Commands <- &Command{Kind: CommandPublish, Channel: "love-and-war-display-update", Payload: payload}

	ev := mustEvent(t, overlay.Events, EventChannelMessage)
	if ev.Channel != "love-and-war-display-update" {
		t.Fatalf("unexpected channel: %s", ev.Channel)
	}
	if string(ev.Payload) != string(payload) {
		t.Fatalf("unexpected payload: %s", ev.Payload)
	}
}

func TestHubDeliversInPublishOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	operator := NewClient("op", "operator", true, true)
	overlay := NewClient("ov", "overlay", true, false)
	hub.RegisterClient(operator)
	hub.RegisterClient(overlay)

	overlay.Commands <- &Command{Kind: CommandSubscribe, Channel: "lnw-display-mode"}
	time.Sleep(50 * time.Millisecond)

	const n = 5
	for i := 0; i < n; i++ {
		payload := json.RawMessage(fmt.Sprintf(`{"seq":%d}`, i))
		operator.Commands <- &Command{Kind: CommandPublish, Channel: "lnw-display-mode", Payload: payload}
	}

	for i := 0; i < n; i++ {
		ev := mustEvent(t, overlay.Events, EventChannelMessage)
		var got struct {
			Seq int `json:"seq"`
		}
		if err := json.Unmarshal(ev.Payload, &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got.Seq != i {
			t.Fatalf("out of order: got seq %d, want %d", got.Seq, i)
		}
	}
}

func TestHubNoReplayForLateSubscriber(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	operator := NewClient("op", "operator", true, true)
	hub.RegisterClient(operator)

	operator.Commands <- &Command{
		Kind:    CommandPublish,
		Channel: "iff-player-update",
		Payload: json.RawMessage(`{"id":7}`),
	}
	time.Sleep(50 * time.Millisecond)

	// A subscriber joining after the publish must not be delivered it.
	late := NewClient("late", "overlay", true, false)
	hub.RegisterClient(late)
	late.Commands <- &Command{Kind: CommandSubscribe, Channel: "iff-player-update"}

	mustNoEvent(t, late.Events, 200*time.Millisecond)

	// The next publish reaches it.
	operator.Commands <- &Command{
		Kind:    CommandPublish,
		Channel: "iff-player-update",
		Payload: json.RawMessage(`{"id":8}`),
	}
	ev := mustEvent(t, late.Events, EventChannelMessage)
	if string(ev.Payload) != `{"id":8}` {
		t.Fatalf("unexpected payload: %s", ev.Payload)
	}
}

func TestHubChannelsAreIndependent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	operator := NewClient("op", "operator", true, true)
	overlay := NewClient("ov", "overlay", true, false)
	hub.RegisterClient(operator)
	hub.RegisterClient(overlay)

	overlay.Commands <- &Command{Kind: CommandSubscribe, Channel: "lnw-match-data"}
	time.Sleep(50 * time.Millisecond)

	operator.Commands <- &Command{
		Kind:    CommandPublish,
		Channel: "lnw-display-mode",
		Payload: json.RawMessage(`{"mode":"idle","visible":false}`),
	}

	mustNoEvent(t, overlay.Events, 200*time.Millisecond)
}

func TestHubUnauthorizedPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	viewer := NewClient("v", "viewer", true, false)
	hub.RegisterClient(viewer)

	viewer.Commands <- &Command{
		Kind:    CommandPublish,
		Channel: "lnw-display-mode",
		Payload: json.RawMessage(`{}`),
	}

	ev := mustEvent(t, viewer.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", ev)
	}
}

func TestHubDoubleSubscribeProducesError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	overlay := NewClient("ov", "overlay", true, false)
	hub.RegisterClient(overlay)

	overlay.Commands <- &Command{Kind: CommandSubscribe, Channel: "lnw-match-data"}
	overlay.Commands <- &Command{Kind: CommandSubscribe, Channel: "lnw-match-data"}

	ev := mustEvent(t, overlay.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeAlreadySubscribed {
		t.Fatalf("expected already_subscribed error, got %+v", ev)
	}
}

func TestHubUnsubscribeUnknownChannelError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	overlay := NewClient("ov", "overlay", true, false)
	hub.RegisterClient(overlay)

	overlay.Commands <- &Command{Kind: CommandUnsubscribe, Channel: "ghost"}

	ev := mustEvent(t, overlay.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeChannelNotFound {
		t.Fatalf("expected channel_not_found error, got %+v", ev)
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	operator := NewClient("op", "operator", true, true)
	overlay := NewClient("ov", "overlay", true, false)
	hub.RegisterClient(operator)
	hub.RegisterClient(overlay)

	overlay.Commands <- &Command{Kind: CommandSubscribe, Channel: "iff-player-update"}
	time.Sleep(50 * time.Millisecond)

	hub.UnregisterClient(overlay)
	time.Sleep(50 * time.Millisecond)

	operator.Commands <- &Command{
		Kind:    CommandPublish,
		Channel: "iff-player-update",
		Payload: json.RawMessage(`{"id":1}`),
	}

	mustNoEvent(t, overlay.Events, 200*time.Millisecond)
}

func TestHubDegradedConnectionGetsNoLiveUpdates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	// Connection with no valid token: registered but not authorized.
	degraded := NewClient("d", "", false, false)
	hub.RegisterClient(degraded)

	degraded.Commands <- &Command{Kind: CommandSubscribe, Channel: "lnw-display-mode"}

	ev := mustEvent(t, degraded.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", ev)
	}
}
