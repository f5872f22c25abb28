// Command ws_smoke exercises a running overlay server end to end: it
// trades the access key for tokens, opens an overlay connection listening
// on the display channels, then publishes a display-mode event as an
// operator and waits for it to come back around.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/iffduels/overlay-server/internal/proto"
	"github.com/iffduels/overlay-server/pkg/overlay"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "overlay server base URL")
	accessKey := flag.String("access-key", "", "shared access key")
	teamID := flag.Int64("team", 1, "team id to select")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	overlayToken, err := overlay.Access(ctx, *server, *accessKey, "smoke-overlay", "overlay")
	if err != nil {
		log.Fatalf("overlay access: %v", err)
	}
	operatorToken, err := overlay.Access(ctx, *server, *accessKey, "smoke-operator", "operator")
	if err != nil {
		log.Fatalf("operator access: %v", err)
	}

	received := make(chan json.RawMessage, 1)
	listener, err := overlay.Dial(ctx, overlay.Session{BaseURL: *server, Token: overlayToken}, &overlay.Options{
		OnConnectError: func(code, msg string) {
			log.Fatalf("connect error: %s (%s)", code, msg)
		},
	})
	if err != nil {
		log.Fatalf("dial listener: %v", err)
	}
	defer listener.Close()

	sub, err := listener.Subscribe(ctx, proto.ChannelDisplayMode, func(payload json.RawMessage) {
		select {
		case received <- payload:
		default:
		}
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	operator, err := overlay.Dial(ctx, overlay.Session{BaseURL: *server, Token: operatorToken}, nil)
	if err != nil {
		log.Fatalf("dial operator: %v", err)
	}
	defer operator.Close()

	update := proto.DisplayModeUpdate{Mode: "team-stats", TeamID: teamID, Visible: true}
	if err := operator.Publish(ctx, proto.ChannelDisplayMode, update); err != nil {
		log.Fatalf("publish: %v", err)
	}

	select {
	case payload := <-received:
		fmt.Printf("round trip ok: %s\n", payload)
	case <-ctx.Done():
		log.Fatal("timed out waiting for display event")
	}
}
