package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"sjsage522/hsmoadigest/internal/scraper"
	"sjsage522/hsmoadigest/logger"
	apperrors "sjsage522/hsmoadigest/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// Stream entry fields
const (
	FieldDate     = "date"
	FieldCount    = "count"
	FieldSchedule = "b64_schedule"
)

// RedisPublisher implements Publisher using a Redis stream
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int
	log             *logger.Logger
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, stream string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher(),
	}
}

// Ping checks that Redis is reachable
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// PublishSchedule appends one entry per run to the stream. The item list is
// JSON, base64 encoded; the stream is trimmed to the configured length.
func (p *RedisPublisher) PublishSchedule(ctx context.Context, runAt time.Time, items []scraper.ScheduleItem) error {
	if items == nil {
		items = []scraper.ScheduleItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return apperrors.NewDelivery("redis", "failed to encode schedule", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: int64(p.streamMaxLength),
		Approx: true,
		Values: map[string]interface{}{
			FieldDate:     runAt.Format(time.RFC3339),
			FieldCount:    strconv.Itoa(len(items)),
			FieldSchedule: base64.StdEncoding.EncodeToString(data),
		},
	}).Result()
	if err != nil {
		return apperrors.NewDelivery("redis", fmt.Sprintf("failed to append to stream %s", p.stream), err)
	}

	p.log.Info().Str("stream", p.stream).Str("id", id).Int("items", len(items)).Msg("Schedule published")
	return nil
}

// DecodeSchedule reverses the encoding of a stream entry's schedule field
func DecodeSchedule(encoded string) ([]scraper.ScheduleItem, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	var items []scraper.ScheduleItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
