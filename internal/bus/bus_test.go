package bus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/matchup-server/internal/store"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	b := New(nil)

	first, cancelFirst := b.Subscribe(1)
	defer cancelFirst()
	second, cancelSecond := b.Subscribe(1)
	defer cancelSecond()

	b.Publish(GameUpdated{Game: store.Game{ID: "g1", Players: 3}})

	for _, ch := range []<-chan Event{first, second} {
		ev := <-ch
		updated, ok := ev.(GameUpdated)
		require.True(t, ok)
		require.Equal(t, "g1", updated.Game.ID)
		require.Equal(t, 3, updated.Game.Players)
	}
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := New(nil)

	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(GameUpdated{Game: store.Game{ID: "first"}})
	b.Publish(GameUpdated{Game: store.Game{ID: "dropped"}})

	ev := <-ch
	require.Equal(t, "first", ev.(GameUpdated).Game.ID)
	require.Empty(t, ch)
}

func TestCancelClosesChannel(t *testing.T) {
	b := New(nil)

	ch, cancel := b.Subscribe(1)
	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)

	b.Publish(GameUpdated{})
}

func TestCloseStopsSubscribers(t *testing.T) {
	b := New(nil)

	ch, cancel := b.Subscribe(1)
	b.Close()
	cancel()

	_, ok := <-ch
	require.False(t, ok)

	late, _ := b.Subscribe(1)
	_, ok = <-late
	require.False(t, ok)
}
