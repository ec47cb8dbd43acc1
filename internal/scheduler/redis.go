package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultQueueKey = "scheduler:jobs"

// RedisScheduler stores jobs in a sorted set scored by their run time.
type RedisScheduler struct {
	client *redis.Client
	key    string
}

func NewRedisScheduler(client *redis.Client, key string) *RedisScheduler {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisScheduler{client: client, key: key}
}

func (s *RedisScheduler) Schedule(ctx context.Context, job Job, runAt time.Time) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return s.client.ZAdd(ctx, s.key, &redis.Z{
		Score:  float64(runAt.Unix()),
		Member: string(b),
	}).Err()
}

var _ Scheduler = (*RedisScheduler)(nil)

// Worker polls the sorted set and dispatches due jobs to the handler.
// ZRem decides the winner when several workers see the same job, so a
// job runs at most once across processes.
type Worker struct {
	client  *redis.Client
	key     string
	handler Handler
	poll    time.Duration
}

func NewWorker(client *redis.Client, key string, handler Handler, poll time.Duration) *Worker {
	if key == "" {
		key = DefaultQueueKey
	}
	if poll <= 0 {
		poll = time.Second
	}
	return &Worker{client: client, key: key, handler: handler, poll: poll}
}

func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Drain(ctx, time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// Drain dispatches every job due at `now`. Exported so tests can step
// the worker without waiting on the ticker.
func (w *Worker) Drain(ctx context.Context, now time.Time) {
	members, err := w.client.ZRangeByScore(ctx, w.key, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		log.Println("scheduler poll error:", err)
		return
	}

	for _, member := range members {
		removed, err := w.client.ZRem(ctx, w.key, member).Result()
		if err != nil {
			log.Println("scheduler dequeue error:", err)
			continue
		}
		if removed == 0 {
			// another worker claimed it
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			log.Println("scheduler bad job payload:", err)
			continue
		}

		w.handler(ctx, job)
	}
}
