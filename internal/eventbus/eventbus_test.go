package eventbus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/fieldplan/internal/eventbus"
)

type ping struct{ n int }
type pong struct{ n int }

func TestPublishSubscribe(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	var got []int
	unsub := eventbus.Subscribe(func(ctx context.Context, e ping) {
		got = append(got, e.n)
	})

	eventbus.Publish(context.Background(), ping{1})
	eventbus.Publish(context.Background(), pong{99}) // different type, not delivered
	eventbus.Publish(context.Background(), ping{2})
	require.Equal(t, []int{1, 2}, got)

	unsub()
	eventbus.Publish(context.Background(), ping{3})
	require.Equal(t, []int{1, 2}, got)
}

func TestMultipleSubscribers(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	count := 0
	defer eventbus.Subscribe(func(ctx context.Context, e ping) { count++ })()
	defer eventbus.Subscribe(func(ctx context.Context, e ping) { count++ })()

	eventbus.Publish(context.Background(), ping{1})
	require.Equal(t, 2, count)
}

func TestPublishWithoutBus(t *testing.T) {
	eventbus.Use(nil)
	// Must not panic and must return a working no-op unsubscribe.
	unsub := eventbus.Subscribe(func(ctx context.Context, e ping) {})
	eventbus.Publish(context.Background(), ping{1})
	unsub()
}
