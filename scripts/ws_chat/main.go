package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/matchup-server/internal/proto"
)

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "username")
	room := flag.String("room", "general", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	c := &chat{conn: conn, room: *room}
	if err := c.send(ctx, proto.InboundTypeHello, proto.HelloData{User: *user, Protocol: proto.ProtocolVersion}); err != nil {
		return err
	}
	if err := c.send(ctx, proto.InboundTypeJoin, proto.JoinData{Room: *room}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s in room %s\n", *addr, *user, *room)
	fmt.Println("Type messages and press Enter to send. /join <room> switches rooms. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	c.writeLoop(ctx)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

type chat struct {
	conn *websocket.Conn
	room string
}

func (c *chat) send(ctx context.Context, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	return wsjson.Write(ctx, c.conn, proto.Inbound{Type: typ, Data: payload})
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var out frame
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if out.Type == proto.OutboundTypeError && out.Error != nil {
			fmt.Printf("! %s: %s\n", out.Error.Code, out.Error.Msg)
			continue
		}

		switch out.Event {
		case proto.EventNameMessage:
			var evt proto.EventMessage
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			printMessage(evt)
		case proto.EventNameHistory:
			var evt proto.EventHistory
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				log.Printf("unmarshal history: %v", err)
				continue
			}
			fmt.Printf("-- %d earlier messages in %s --\n", len(evt.Messages), evt.Room)
			for _, msg := range evt.Messages {
				printMessage(msg)
			}
		case proto.EventNameGameUpdated:
			var evt proto.EventGameUpdated
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				log.Printf("unmarshal game_updated: %v", err)
				continue
			}
			fmt.Printf("* %s (%s): %d/%d players\n", evt.Game.Title, evt.Game.Sport, evt.Game.Players, evt.Game.MaxPlayers)
		case proto.EventNameHello:
			// acknowledged
		default:
			fmt.Printf("event=%s data=%s\n", out.Event, string(out.Data))
		}
	}
}

func printMessage(msg proto.EventMessage) {
	at := time.UnixMilli(msg.TS).Format(time.TimeOnly)
	fmt.Printf("[%s %s] %s: %s\n", msg.Room, at, msg.Author.Name, msg.Text)
}

func (c *chat) writeLoop(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			var err error
			if next, found := strings.CutPrefix(text, "/join "); found {
				err = c.switchRoom(ctx, strings.TrimSpace(next))
			} else {
				err = c.send(ctx, proto.InboundTypeMsg, proto.MsgData{Room: c.room, Text: text})
			}
			if err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

func (c *chat) switchRoom(ctx context.Context, room string) error {
	if room == "" || room == c.room {
		return nil
	}
	if err := c.send(ctx, proto.InboundTypeLeave, proto.JoinData{Room: c.room}); err != nil {
		return err
	}
	c.room = room
	return c.send(ctx, proto.InboundTypeJoin, proto.JoinData{Room: room})
}
