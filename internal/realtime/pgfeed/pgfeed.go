// Package pgfeed reads list changes from Postgres LISTEN/NOTIFY. The
// payloads are produced by the triggers installed by cloud/postgres.
package pgfeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/vbonduro/listsync/internal/realtime"
)

// Channel is the NOTIFY channel the list triggers publish on.
const Channel = "list_changes"

const (
	minReconnect = 10 * time.Second
	maxReconnect = time.Minute
	pingInterval = 90 * time.Second
	bufferSize   = 64
)

// Feed opens one pq.Listener connection per subscription.
type Feed struct {
	dsn    string
	logger *slog.Logger
}

func New(dsn string, logger *slog.Logger) *Feed {
	return &Feed{dsn: dsn, logger: logger}
}

func (f *Feed) Subscribe(ctx context.Context) (realtime.Subscription, error) {
	listener := pq.NewListener(f.dsn, minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			f.logger.Warn("list change listener event", "event", ev, "error", err)
		}
	})
	if err := listener.Listen(Channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", Channel, err)
	}

	s := &subscription{
		listener: listener,
		out:      make(chan realtime.Change, bufferSize),
		stop:     make(chan struct{}),
		logger:   f.logger,
	}
	go s.pump(ctx)
	return s, nil
}

type subscription struct {
	listener *pq.Listener
	out      chan realtime.Change
	stop     chan struct{}
	once     sync.Once
	logger   *slog.Logger
}

func (s *subscription) Changes() <-chan realtime.Change {
	return s.out
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		err = s.listener.Close()
	})
	return err
}

func (s *subscription) pump(ctx context.Context) {
	defer close(s.out)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.stop:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			// A nil notification means the connection was re-established.
			if n == nil {
				s.emit(realtime.Resync())
				continue
			}
			c, err := realtime.Decode([]byte(n.Extra))
			if err != nil {
				s.logger.Warn("dropping malformed list change", "error", err)
				continue
			}
			s.emit(c)
		case <-ticker.C:
			go func() {
				if err := s.listener.Ping(); err != nil {
					s.logger.Debug("list change listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (s *subscription) emit(c realtime.Change) {
	select {
	case s.out <- c:
	case <-s.stop:
	}
}
