package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub Subscription) Change {
	t.Helper()
	select {
	case c, ok := <-sub.Changes():
		require.True(t, ok, "subscription closed")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	a, err := hub.Subscribe(ctx)
	require.NoError(t, err)
	b, err := hub.Subscribe(ctx)
	require.NoError(t, err)

	change := Change{Table: TableLists, Op: OpUpdate, ListID: "l1", UserID: "u1", Origin: "o1"}
	require.NoError(t, hub.Publish(ctx, change))

	assert.Equal(t, change, receive(t, a))
	assert.Equal(t, change, receive(t, b))
}

func TestHubCloseIsIdempotent(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, hub.Subscribers())

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Changes()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers())
	assert.NoError(t, hub.Publish(context.Background(), Change{Op: OpInsert}))
}

func TestHubContextCancelClosesSubscription(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := hub.Subscribe(ctx)
	require.NoError(t, err)

	cancel()

	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
	_, ok := <-sub.Changes()
	assert.False(t, ok)
}

func TestHubOverflowCollapsesToResync(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background())
	require.NoError(t, err)

	for i := 0; i < subscriptionBuffer+5; i++ {
		require.NoError(t, hub.Publish(context.Background(), Change{Table: TableLists, Op: OpUpdate, ListID: "l"}))
	}

	var sawResync bool
	for i := 0; i < subscriptionBuffer; i++ {
		if receive(t, sub).Op == OpResync {
			sawResync = true
		}
	}
	assert.True(t, sawResync)
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background())
	require.NoError(t, err)

	hub.Close()
	_, ok := <-sub.Changes()
	assert.False(t, ok)

	late, err := hub.Subscribe(context.Background())
	require.NoError(t, err)
	_, ok = <-late.Changes()
	assert.False(t, ok)
	assert.NoError(t, late.Close())
}

func TestDecode(t *testing.T) {
	c, err := Decode([]byte(`{"table":"list_members","op":"INSERT","list_id":"l1","user_id":"u2"}`))
	require.NoError(t, err)
	assert.Equal(t, Change{Table: TableMembers, Op: OpInsert, ListID: "l1", UserID: "u2"}, c)

	_, err = Decode([]byte(`{"table":"lists"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	data, err := Encode(c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "origin")
}
