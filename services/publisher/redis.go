package publisher

import (
	"context"
	"encoding/base64"

	"sjsage522/carlistingworker/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// MessageField is the stream entry field holding the base64 encoded listing
const MessageField = "b64_listing"

// RedisPublisher implements Publisher using Redis streams, one stream per site
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamMaxLength: streamMaxLength,
	}
}

// Ping checks the connection, used at startup to decide whether to publish at all
func (p *RedisPublisher) Ping() error {
	if err := p.client.Ping(p.ctx).Err(); err != nil {
		return errors.NewPublisher("Redis", "ping failed", err)
	}
	return nil
}

// Stream returns the stream name of key, e.g. listings:autoesa
func (p *RedisPublisher) Stream(key string) string {
	return p.streamPrefix + ":" + key
}

// Publish publishes a message to the stream of key.
// The message is base64 encoded before publishing.
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	err := p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: p.Stream(key),
		Values: map[string]interface{}{
			MessageField: encodedMessage,
		},
	}).Err()
	if err != nil {
		return errors.NewPublisher(key, "XADD failed", err)
	}
	return nil
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	if p.streamMaxLength <= 0 {
		return nil
	}

	streams, err := p.client.Keys(p.ctx, p.streamPrefix+":*").Result()
	if err != nil {
		return errors.NewPublisher("Redis", "listing streams failed", err)
	}

	for _, stream := range streams {
		if err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return errors.NewPublisher(stream, "XTRIM failed", err)
		}
	}

	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
