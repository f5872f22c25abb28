package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/iffduels/overlay-server/internal/auth"
	"github.com/iffduels/overlay-server/internal/core"
	"github.com/iffduels/overlay-server/internal/proto"
	"github.com/iffduels/overlay-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub  *core.Hub
	auth *auth.Service
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, auth: authService, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	// The handshake itself never rejects on auth: an invalid or absent
	// token still yields a connected socket, followed by a connect_error
	// message. The connection then stays registered in a degraded state.
	identity := ""
	authorized, canPublish := false, false
	var connectErr *proto.Error
	token := r.URL.Query().Get("token")
	switch {
	case token == "":
		connectErr = &proto.Error{Code: "missing_token", Msg: "no connection token presented"}
	default:
		claims, err := h.auth.ValidateToken(token)
		if err != nil {
			h.log.Warn().Err(err).Msg("ws token rejected")
			connectErr = &proto.Error{Code: "invalid_token", Msg: "connection token rejected"}
		} else {
			identity = claims.Name
			authorized = true
			canPublish = claims.Role == auth.RoleOperator
		}
	}

	client := core.NewClient(utils.NewID(), identity, authorized, canPublish)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)
	// Both loops have exited by the time defers run, so nothing can still
	// send on Commands. Closing it releases the hub's pump goroutine.
	defer close(client.Commands)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if connectErr != nil {
		if err := wsjson.Write(ctx, conn, proto.Outbound{
			Type:  proto.OutboundTypeConnectError,
			Error: connectErr,
		}); err != nil {
			return
		}
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		cmd, protoErr, err := inboundToCommand(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("failed to map inbound")
			return err
		}
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd != nil {
			client.Commands <- cmd
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
