package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/iffduels/overlay-server/internal/auth"
	"github.com/iffduels/overlay-server/internal/proto"
)

func wsURL(e *testEnv, token string) string {
	u := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func dialWS(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendSubscribe(t *testing.T, ctx context.Context, conn *websocket.Conn, channel string) {
	t.Helper()
	data, _ := json.Marshal(proto.SubscribeData{Channel: channel})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSubscribe, Data: data}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}
}

func sendPublish(t *testing.T, ctx context.Context, conn *websocket.Conn, channel string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	data, _ := json.Marshal(proto.PublishData{Channel: channel, Payload: raw})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypePublish, Data: data}); err != nil {
		t.Fatalf("write publish: %v", err)
	}
}

func readOutbound(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Outbound {
	t.Helper()
	var out proto.Outbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t)

	resp, err := env.ts.Client().Get(env.ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketConnectErrorWithoutToken(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The handshake must succeed even with no token at all.
	conn := dialWS(t, ctx, wsURL(env, ""))

	out := readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeConnectError {
		t.Fatalf("expected connect_error, got %q", out.Type)
	}
	if out.Error == nil || out.Error.Code != "missing_token" {
		t.Fatalf("unexpected error: %+v", out.Error)
	}

	// The degraded connection stays open but cannot subscribe.
	sendSubscribe(t, ctx, conn, proto.ChannelDisplayMode)
	out = readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != "unauthorized" {
		t.Fatalf("expected unauthorized error, got %+v", out)
	}
}

func TestWebSocketConnectErrorInvalidToken(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, wsURL(env, "not-a-real-token"))

	out := readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeConnectError {
		t.Fatalf("expected connect_error, got %q", out.Type)
	}
	if out.Error == nil || out.Error.Code != "invalid_token" {
		t.Fatalf("unexpected error: %+v", out.Error)
	}
}

func TestWebSocketPublishFanOut(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	operator := dialWS(t, ctx, wsURL(env, env.grantToken(t, "control", auth.RoleOperator)))
	overlay := dialWS(t, ctx, wsURL(env, env.grantToken(t, "obs", auth.RoleOverlay)))

	sendSubscribe(t, ctx, overlay, proto.ChannelMatchData)
	// Give the subscribe time to land before publishing.
	time.Sleep(50 * time.Millisecond)

	match := proto.MatchData{
		Team1: proto.TeamSnapshot{Name: "Team Mishima", Score: 2},
		Team2: proto.TeamSnapshot{Name: "Team Kazama", Score: 1},
		Round: "Winners Finals",
	}
	sendPublish(t, ctx, operator, proto.ChannelMatchData, match)

	out := readOutbound(t, ctx, overlay)
	if out.Type != proto.OutboundTypeEvent {
		t.Fatalf("expected event, got %q", out.Type)
	}
	if out.Channel != proto.ChannelMatchData {
		t.Fatalf("unexpected channel: %q", out.Channel)
	}

	var got proto.MatchData
	if err := json.Unmarshal(out.Data, &got); err != nil {
		t.Fatalf("unmarshal match data: %v", err)
	}
	if got.Team1.Name != "Team Mishima" || got.Team2.Score != 1 || got.Round != "Winners Finals" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestWebSocketNoReplayOnSubscribe(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	operator := dialWS(t, ctx, wsURL(env, env.grantToken(t, "control", auth.RoleOperator)))

	update := proto.DisplayModeUpdate{Mode: "team-stats", Visible: true}
	sendPublish(t, ctx, operator, proto.ChannelDisplayMode, update)
	time.Sleep(50 * time.Millisecond)

	// A subscriber arriving after the publish must get nothing until the
	// next update; it bootstraps over REST instead.
	late := dialWS(t, ctx, wsURL(env, env.grantToken(t, "obs", auth.RoleOverlay)))
	sendSubscribe(t, ctx, late, proto.ChannelDisplayMode)

	readCtx, readCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer readCancel()
	var out proto.Outbound
	if err := wsjson.Read(readCtx, late, &out); err == nil {
		t.Fatalf("late subscriber got unexpected message: %+v", out)
	}
}

func TestWebSocketOverlayCannotPublish(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	overlay := dialWS(t, ctx, wsURL(env, env.grantToken(t, "obs", auth.RoleOverlay)))

	sendPublish(t, ctx, overlay, proto.ChannelDisplayMode, proto.DisplayModeUpdate{Mode: "idle"})

	out := readOutbound(t, ctx, overlay)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != "unauthorized" {
		t.Fatalf("expected unauthorized error, got %+v", out)
	}
}

func TestWebSocketPublishOrderPreserved(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	operator := dialWS(t, ctx, wsURL(env, env.grantToken(t, "control", auth.RoleOperator)))
	overlay := dialWS(t, ctx, wsURL(env, env.grantToken(t, "obs", auth.RoleOverlay)))

	sendSubscribe(t, ctx, overlay, proto.ChannelMatchData)
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 5; i++ {
		sendPublish(t, ctx, operator, proto.ChannelMatchData, map[string]int{"seq": i})
	}

	for i := 0; i < 5; i++ {
		out := readOutbound(t, ctx, overlay)
		var got struct {
			Seq int `json:"seq"`
		}
		if err := json.Unmarshal(out.Data, &got); err != nil {
			t.Fatalf("unmarshal seq payload: %v", err)
		}
		if got.Seq != i {
			t.Fatalf("out of order: expected seq %d, got %d", i, got.Seq)
		}
	}
}
