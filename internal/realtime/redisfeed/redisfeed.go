// Package redisfeed distributes list changes over a Redis Pub/Sub channel,
// for deployments where several server processes share one database.
package redisfeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/vbonduro/listsync/internal/realtime"
)

// Channel is the Pub/Sub channel carrying encoded realtime.Change values.
const Channel = "listsync:changes"

const bufferSize = 64

// Feed is both a realtime.Feed and a realtime.Publisher.
type Feed struct {
	client *redis.Client
	logger *slog.Logger
}

func New(client *redis.Client, logger *slog.Logger) *Feed {
	return &Feed{client: client, logger: logger}
}

func (f *Feed) Publish(ctx context.Context, c realtime.Change) error {
	data, err := realtime.Encode(c)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, Channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

func (f *Feed) Subscribe(ctx context.Context) (realtime.Subscription, error) {
	ps := f.client.Subscribe(ctx, Channel)
	// Wait for the subscription confirmation so no publish after this
	// call returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", Channel, err)
	}

	s := &subscription{
		ps:     ps,
		out:    make(chan realtime.Change, bufferSize),
		stop:   make(chan struct{}),
		logger: f.logger,
	}
	go s.pump(ctx)
	return s, nil
}

type subscription struct {
	ps     *redis.PubSub
	out    chan realtime.Change
	stop   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func (s *subscription) Changes() <-chan realtime.Change {
	return s.out
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		err = s.ps.Close()
	})
	return err
}

func (s *subscription) pump(ctx context.Context) {
	defer close(s.out)
	msgs := s.ps.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.stop:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			c, err := realtime.Decode([]byte(msg.Payload))
			if err != nil {
				s.logger.Warn("dropping malformed list change", "error", err)
				continue
			}
			select {
			case s.out <- c:
			case <-s.stop:
				return
			}
		}
	}
}
