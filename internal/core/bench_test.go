package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, nil, nil, WithHistoryLimit(1))
	go hub.Run(ctx)

	sender := NewClient("sender", "sender")
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench"}
	<-sender.Events

	clients := make([]*Client, 0, recipients)
	for i := range recipients {
		c := NewClient(fmt.Sprintf("c%d", i), "client")
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench"}
		<-c.Events
		clients = append(clients, c)
	}

	// Drain events for everyone but the first recipient to avoid eviction.
	target := clients[0]
	for _, c := range append(clients[1:], sender) {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{
			Kind: CommandSendRoomMessage,
			Room: "bench",
			Message: Message{
				Text: "payload",
			},
		}
		<-target.Events
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
