package pubsub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gregoryjjb/cyclist/pubsub"
)

func TestPubsub(t *testing.T) {
	ps := pubsub.New[string]()

	_, ch1 := ps.Subscribe(4)
	id2, ch2 := ps.Subscribe(4)
	assert.Equal(t, 2, ps.Len())

	ps.Publish("a")
	assert.Equal(t, "a", <-ch1)
	assert.Equal(t, "a", <-ch2)

	ps.Unsubscribe(id2)
	assert.Equal(t, 1, ps.Len())
	_, open := <-ch2
	assert.False(t, open)

	ps.Publish("b")
	assert.Equal(t, "b", <-ch1)

	// Unknown and repeated unsubscribes are ignored.
	ps.Unsubscribe(id2)
	assert.Equal(t, 1, ps.Len())
}

func TestPubsubDropsWhenFull(t *testing.T) {
	var dropped []string
	ps := pubsub.New[string](pubsub.WithDropHandler(func(_ pubsub.SubscriptionID, msg string) {
		dropped = append(dropped, msg)
	}))

	id, ch := ps.Subscribe(1)
	ps.Publish("kept")
	ps.Publish("lost")

	require.Len(t, ch, 1)
	assert.Equal(t, "kept", <-ch)
	assert.Equal(t, []string{"lost"}, dropped)

	ps.Unsubscribe(id)
}
