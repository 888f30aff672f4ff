package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"roombook/internal/events"
)

const defaultPublishTimeout = 2 * time.Second

// Relay forwards broadcast events to a Redis pub/sub channel so other
// processes can follow the schedule without holding a stream open.
type Relay struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	logger  zerolog.Logger
}

func New(client *redis.Client, channel string, logger zerolog.Logger) *Relay {
	return &Relay{
		client:  client,
		channel: channel,
		timeout: defaultPublishTimeout,
		logger:  logger.With().Str("component", "relay").Str("channel", channel).Logger(),
	}
}

// Listener returns an events.Listener publishing every event in its wire form.
func (r *Relay) Listener() events.Listener {
	return func(event events.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		return r.Publish(ctx, event)
	}
}

// Publish sends one event to the channel.
func (r *Relay) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	r.logger.Debug().Str("event", string(event.Type)).Msg("event relayed")
	return nil
}

// Ping reports whether Redis is reachable.
func (r *Relay) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
