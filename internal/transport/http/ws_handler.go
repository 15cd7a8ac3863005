package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/matchup-server/internal/core"
	"github.com/vovakirdan/matchup-server/internal/proto"
	"github.com/vovakirdan/matchup-server/internal/utils"
)

const writeTimeout = 5 * time.Second

// WSConfig tunes per-connection limits.
type WSConfig struct {
	MaxMessageBytes int64
	RateLimitPerMin int
	ClientBuffer    int
}

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub     *core.Hub
	origins *originPolicy
	cfg     WSConfig
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, origins *originPolicy, cfg WSConfig, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, origins: origins, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.origins.acceptPatterns(),
		InsecureSkipVerify: h.origins.allowAll,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	client := core.NewClientWithBuffer(utils.NewID(), "", h.cfg.ClientBuffer)
	if err := h.hub.RegisterClient(client); err != nil {
		h.log.Warn().Err(err).Msg("ws rejected, hub not running")
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)

	h.log.Debug().Str("client_id", client.ID).Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := &session{
		client: client,
		author: core.Author{ID: client.ID, Name: client.Name},
	}
	limiter := newRateLimiter(h.cfg.RateLimitPerMin)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess, limiter)
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
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Debug().Str("client_id", client.ID).Int("status", int(status)).Msg("ws disconnected")
	conn.Close(status, reason)
}

// readLoop decodes client frames. Frames that cannot be decoded are answered
// with an error frame and otherwise ignored; only transport failures end it.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *session, limiter *rateLimiter) error {
	client := sess.client
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("malformed ws frame ignored")
			if err := h.write(ctx, conn, errorFrame(core.ErrCodeBadRequest, "malformed message")); err != nil {
				return err
			}
			continue
		}

		if inbound.Type == proto.InboundTypeHello {
			if err := h.hello(ctx, conn, sess, inbound); err != nil {
				return err
			}
			continue
		}

		if !limiter.allow() {
			h.log.Debug().Str("client_id", client.ID).Msg("ws frame rate limited")
			if err := h.write(ctx, conn, errorFrame(core.ErrCodeRateLimited, "too many messages")); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr, err := inboundToCommand(sess, inbound)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Str("type", inbound.Type).Msg("failed to map inbound")
			protoErr = &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed " + inbound.Type + " data"}
		}
		if protoErr != nil {
			if err := h.write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr}); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// hello sets the default author of the connection.
func (h *WSHandler) hello(ctx context.Context, conn *websocket.Conn, sess *session, inbound proto.Inbound) error {
	var hello proto.HelloData
	if err := json.Unmarshal(inbound.Data, &hello); err != nil {
		return h.write(ctx, conn, errorFrame(core.ErrCodeBadRequest, "malformed hello data"))
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		h.log.Debug().Str("client_id", sess.client.ID).Int("protocol", hello.Protocol).Msg("unsupported protocol version")
		return h.write(ctx, conn, errorFrame(core.ErrCodeUnsupportedVersion, "unsupported protocol version"))
	}

	sess.author = core.Author{
		ID:   lo.CoalesceOrEmpty(hello.UserID, sess.client.ID),
		Name: lo.CoalesceOrEmpty(hello.User, sess.client.Name),
	}

	return h.write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventNameHello,
		Data: proto.EventHello{
			ClientID: sess.client.ID,
			User:     sess.author.Name,
			Protocol: proto.ProtocolVersion,
		},
	})
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				// unregistered, evicted, or the hub stopped
				return nil
			}
			if err := h.write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, out proto.Outbound) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, out)
}
