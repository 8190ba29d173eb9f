package realtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "studyhub:room:"

// RedisBroker fans frames out through Redis pub/sub so every API instance
// delivers to its own sockets.
type RedisBroker struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisBroker(client *redis.Client, log zerolog.Logger) *RedisBroker {
	return &RedisBroker{
		client: client,
		log:    log.With().Str("component", "realtime-broker").Logger(),
	}
}

func (b *RedisBroker) Publish(ctx context.Context, room string, payload []byte) error {
	if err := b.client.Publish(ctx, channelPrefix+room, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", room, err)
	}
	return nil
}

// Run subscribes to every room channel and hands messages to hub until ctx
// is cancelled. ready is closed once the subscription is confirmed.
func (b *RedisBroker) Run(ctx context.Context, hub *Hub, ready chan<- struct{}) error {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe room channels: %w", err)
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			room := strings.TrimPrefix(msg.Channel, channelPrefix)
			hub.Deliver(room, []byte(msg.Payload))
		}
	}
}
