package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/matchup-server/internal/proto"
)

// frame is proto.Outbound with undecoded data.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	origin := flag.String("origin", "", "Origin header to send, empty for none")
	user := flag.String("user", "tester", "username to announce with hello")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var opts *websocket.DialOptions
	if *origin != "" {
		opts = &websocket.DialOptions{HTTPHeader: http.Header{"Origin": []string{*origin}}}
	}
	conn, resp, err := websocket.Dial(ctx, *addr, opts)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeHello, proto.HelloData{User: *user, Protocol: proto.ProtocolVersion}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeJoin, proto.JoinData{Room: *room}); err != nil {
		return err
	}

	sent := false
	for {
		var out frame
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if out.Type == proto.OutboundTypeError {
			if out.Error != nil {
				return fmt.Errorf("server error %s: %s", out.Error.Code, out.Error.Msg)
			}
			return fmt.Errorf("server error")
		}

		switch out.Event {
		case proto.EventNameHello:
			var evt proto.EventHello
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				return fmt.Errorf("unmarshal hello: %w", err)
			}
			fmt.Printf("Hello: client=%s user=%s protocol=%d\n", evt.ClientID, evt.User, evt.Protocol)
		case proto.EventNameHistory:
			var evt proto.EventHistory
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				return fmt.Errorf("unmarshal history: %w", err)
			}
			fmt.Printf("History: room=%s messages=%d\n", evt.Room, len(evt.Messages))
			for _, msg := range evt.Messages {
				fmt.Printf("  %s %s: %s\n", time.UnixMilli(msg.TS).Format(time.TimeOnly), msg.Author.Name, msg.Text)
			}
			// Send only once joined so the echo is guaranteed to reach us.
			if !sent {
				if err := send(proto.InboundTypeMsg, proto.MsgData{Room: *room, Text: *text}); err != nil {
					return err
				}
				sent = true
			}
		case proto.EventNameMessage:
			var evt proto.EventMessage
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				fmt.Printf("Raw data: %s\n", string(out.Data))
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("EventMessage: id=%s room=%s author=%s text=%q ts=%d\n", evt.ID, evt.Room, evt.Author.Name, evt.Text, evt.TS)
			if evt.Text == *text {
				return nil
			}
		default:
			fmt.Printf("Received outbound: type=%s event=%s\n", out.Type, out.Event)
		}
	}
}
