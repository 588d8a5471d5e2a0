package listener

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const channelName = "content_updates"

// ChangeEvent tells clients that a table changed. It deliberately
// carries no row data: consumers re-fetch through the API, which is the
// only source of truth.
type ChangeEvent struct {
	Table string `json:"table"`
	Kind  string `json:"kind"`
}

// Sink receives change events for fan-out.
type Sink interface {
	Publish(event ChangeEvent)
}

// Listener holds a dedicated connection on LISTEN content_updates and
// forwards trigger notifications to the sink.
type Listener struct {
	pool *pgxpool.Pool
	sink Sink
}

func New(pool *pgxpool.Pool, sink Sink) *Listener {
	return &Listener{pool: pool, sink: sink}
}

// Run blocks until ctx is cancelled, reconnecting with backoff when the
// listening connection drops.
func (l *Listener) Run(ctx context.Context) {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Warn("change listener disconnected", "error", err.Error(), "retry_in", backoff.String())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return err
	}
	slog.Info("listening for content updates", "channel", channelName)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var event ChangeEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			slog.Warn("dropping malformed change notification", "payload", notification.Payload)
			continue
		}

		l.sink.Publish(event)
	}
}
