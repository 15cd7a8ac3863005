package http

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/matchup-server/internal/core"
	"github.com/vovakirdan/matchup-server/internal/proto"
	"github.com/vovakirdan/matchup-server/internal/store"
)

// session is the per-connection state the reader keeps between frames.
type session struct {
	client *core.Client
	author core.Author
}

// inboundToCommand maps a client frame to a hub command. An empty room is
// passed through; the hub drops such commands.
func inboundToCommand(sess *session, inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: join.Room,
		}, nil, nil
	case proto.InboundTypeLeave:
		var leave proto.JoinData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind: core.CommandLeaveRoom,
			Room: leave.Room,
		}, nil, nil
	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		author := sess.author
		if msg.Author != nil {
			author = core.Author{ID: msg.Author.ID, Name: msg.Author.Name}
		}
		return &core.Command{
			Kind: core.CommandSendRoomMessage,
			Room: msg.Room,
			Message: core.Message{
				// ID and CreatedAt are assigned by the hub
				Room: msg.Room,
				From: author,
				Text: msg.Text,
			},
		}, nil, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data:  messageToProto(event.Message),
		}
	case core.EventHistory:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameHistory,
			Data: proto.EventHistory{
				Room:     event.Room,
				Messages: lo.Map(event.Messages, func(msg core.Message, _ int) proto.EventMessage { return messageToProto(msg) }),
			},
		}
	case core.EventGameUpdated:
		if event.Game == nil {
			return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventNameGameUpdated}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameGameUpdated,
			Data:  proto.EventGameUpdated{Game: gameToProto(event.Game)},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func messageToProto(msg core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:     msg.ID,
		Room:   msg.Room,
		Author: proto.Author{ID: msg.From.ID, Name: msg.From.Name},
		Text:   msg.Text,
		TS:     msg.CreatedAt.UnixMilli(),
	}
}

func gameToProto(game *store.Game) proto.Game {
	return proto.Game{
		ID:         game.ID,
		Title:      game.Title,
		Sport:      game.Sport,
		Time:       game.ScheduledAt.UTC().Format(time.RFC3339),
		Location:   game.Location,
		Players:    game.Players,
		MaxPlayers: game.MaxPlayers,
		CreatedAt:  game.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func errorFrame(code, msg string) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: code, Msg: msg}}
}
