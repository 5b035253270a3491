package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

// priorityOrder fixes the BLPOP key order: a high task is always taken
// before a medium one, and medium before low.
var priorityOrder = []models.JobPriority{
	models.PriorityHigh,
	models.PriorityMedium,
	models.PriorityLow,
}

// RedisQueue implements the JobQueue interface on three Redis lists, one
// per priority. Producers RPUSH, workers BLPOP, so each list is FIFO.
type RedisQueue struct {
	client      *redis.Client
	queuePrefix string
	pollTimeout time.Duration
	logger      arbor.ILogger
}

// NewRedisQueue connects to Redis and verifies the connection
func NewRedisQueue(ctx context.Context, logger arbor.ILogger, config *common.BrokerConfig) (interfaces.JobQueue, error) {
	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Debug().Str("url", common.RedactURL(config.URL)).Msg("Redis connection established")

	return &RedisQueue{
		client:      client,
		queuePrefix: config.QueuePrefix,
		pollTimeout: common.Duration(config.PollTimeout, 60*time.Second),
		logger:      logger,
	}, nil
}

// key returns the list key for a priority, e.g. "scraping_agent_scrape_high"
func (q *RedisQueue) key(priority models.JobPriority) string {
	return q.queuePrefix + string(priority)
}

// Enqueue pushes a task envelope onto the list for the given priority
func (q *RedisQueue) Enqueue(ctx context.Context, task *interfaces.ScrapeTask, priority models.JobPriority) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.client.RPush(ctx, q.key(priority), payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	q.logger.Debug().
		Str("job_id", task.JobID).
		Str("priority", string(priority)).
		Str("type_page", string(task.TypePage)).
		Msg("Task enqueued")
	return nil
}

// Dequeue blocks across all three lists in priority order until a task
// arrives or the poll timeout elapses. An idle timeout returns (nil, nil)
// so worker loops can check for shutdown between waits.
func (q *RedisQueue) Dequeue(ctx context.Context) (*interfaces.ScrapeTask, error) {
	keys := make([]string, 0, len(priorityOrder))
	for _, priority := range priorityOrder {
		keys = append(keys, q.key(priority))
	}

	result, err := q.client.BLPop(ctx, q.pollTimeout, keys...).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue task: %w", err)
	}

	// BLPOP returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected blpop reply length %d", len(result))
	}

	var task interfaces.ScrapeTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}

	q.logger.Debug().Str("job_id", task.JobID).Str("queue", result[0]).Msg("Task dequeued")
	return &task, nil
}

// Ping verifies the Redis connection
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close releases the Redis client
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
