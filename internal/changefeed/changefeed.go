package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const channelPrefix = "fitplan-changes||"

// Event describes a row-level change on one of the watched tables.
// Subscribers use events purely as refetch triggers - no row content
// travels with them, the subscriber re-reads storage instead.
type Event struct {
	Table   string `json:"table"`
	OwnerID string `json:"ownerId"`
	Op      string `json:"op"` // insert | update | delete
}

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

func channelFor(table string) string {
	return channelPrefix + table
}

type Publisher struct {
	redisClient *redis.Client
}

func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{
		redisClient: redisClient,
	}
}

// Publish is best-effort: a lost change event only delays convergence
// until the next refetch, so failures are logged and swallowed.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("changefeed: marshal event %+v: %s", event, err)
		return
	}

	cmd := p.redisClient.Publish(ctx, channelFor(event.Table), payload)
	if err := cmd.Err(); err != nil {
		log.Errorf("changefeed: publish to %s: %s", channelFor(event.Table), err)
	}
}

type Subscriber struct {
	redisClient *redis.Client
}

func NewSubscriber(redisClient *redis.Client) *Subscriber {
	return &Subscriber{
		redisClient: redisClient,
	}
}

// Subscribe invokes onChange for every change on the given table that
// belongs to ownerID (empty ownerID matches all owners). It returns an
// unsubscribe func. Delivery stops when ctx is done or unsubscribe is
// called.
func (s *Subscriber) Subscribe(
	ctx context.Context,
	table, ownerID string,
	onChange func(event Event),
) (func() error, error) {
	pubsub := s.redisClient.Subscribe(ctx, channelFor(table))

	// make sure the subscription is live before returning
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("changefeed subscribe to %s: %w", table, err)
	}

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Errorf("changefeed: unmarshal change event: %s", err)
					continue
				}
				if ownerID != "" && event.OwnerID != ownerID {
					continue
				}
				onChange(event)
			}
		}
	}()

	return pubsub.Close, nil
}
