//go:build integration

package redisfeed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/listsync/internal/realtime"
	"github.com/vbonduro/listsync/internal/testutil/containers"
)

func TestPublishSubscribe(t *testing.T) {
	client := containers.NewRedis(t)
	feed := New(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	change := realtime.Change{Table: realtime.TableLists, Op: realtime.OpUpdate, ListID: "l1", UserID: "u1", Origin: "o1"}
	require.NoError(t, feed.Publish(ctx, change))

	select {
	case got := <-sub.Changes():
		assert.Equal(t, change, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	client := containers.NewRedis(t)
	feed := New(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	require.NoError(t, client.Publish(ctx, Channel, "garbage").Err())
	change := realtime.Change{Table: realtime.TableMembers, Op: realtime.OpDelete, ListID: "l2", UserID: "u2"}
	require.NoError(t, feed.Publish(ctx, change))

	select {
	case got := <-sub.Changes():
		assert.Equal(t, change, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestCloseEndsChanges(t *testing.T) {
	client := containers.NewRedis(t)
	feed := New(client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	sub, err := feed.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Changes():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("changes channel not closed")
	}
}
