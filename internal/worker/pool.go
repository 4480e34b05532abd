package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"turing-backend/internal/models"
	"turing-backend/internal/services"
)

const (
	retryQueue  = "queue:round-retry"
	maxAttempts = 5
)

// RetryJob is a round submission that failed against the round log and was
// parked in Redis for another try.
type RetryJob struct {
	Identity models.Identity           `json:"identity"`
	Request  models.SubmitRoundRequest `json:"request"`
	Attempts int                       `json:"attempts"`
}

// Queue parks failed submissions for the retry pool.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

func (q *Queue) Enqueue(ctx context.Context, job RetryJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal retry job: %w", err)
	}
	if err := q.redis.LPush(ctx, retryQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue retry job: %w", err)
	}
	return nil
}

// Pool drains the retry queue through the normal submission path. Because
// round IDs are idempotency keys, re-submitting a round that actually made
// it to the log the first time is harmless.
type Pool struct {
	redis       *redis.Client
	submit      *services.SubmitService
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, submit *services.SubmitService, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		submit:      submit,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d retry worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Retry worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, 30*time.Second, retryQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		var job RetryJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Retry worker %d: failed to parse job: %v", id, err)
			continue
		}

		// One worker per round at a time. A job popped while another
		// worker holds its round goes back on the queue tail; dropping
		// it here would abandon the retry for good.
		lockKey := "retry_lock:" + job.Request.RoundID
		locked, err := p.redis.SetNX(ctx, lockKey, "1", time.Minute).Result()
		if err != nil || !locked {
			if pushErr := p.redis.RPush(ctx, retryQueue, result[1]).Err(); pushErr != nil {
				log.Printf("Retry worker %d: failed to re-enqueue contended round %s: %v",
					id, job.Request.RoundID, pushErr)
			}
			time.Sleep(time.Second)
			continue
		}

		p.process(ctx, id, job)
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) process(ctx context.Context, id int, job RetryJob) {
	outcome, err := p.submit.Submit(ctx, job.Identity, job.Request)
	if err == nil {
		log.Printf("Retry worker %d: round %s logged (%s) after %d failed attempts",
			id, job.Request.RoundID, outcome, job.Attempts)
		return
	}

	// Invalid payloads can never succeed; drop them rather than spin.
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		log.Printf("Retry worker %d: dropping invalid round %s: %v", id, job.Request.RoundID, err)
		return
	}

	job.Attempts++
	if job.Attempts >= maxAttempts {
		log.Printf("Retry worker %d: giving up on round %s after %d attempts: %v",
			id, job.Request.RoundID, job.Attempts, err)
		return
	}

	// Back off before the job becomes visible again.
	time.Sleep(time.Duration(job.Attempts) * time.Second)

	data, marshalErr := json.Marshal(job)
	if marshalErr != nil {
		log.Printf("Retry worker %d: failed to re-marshal job: %v", id, marshalErr)
		return
	}
	if pushErr := p.redis.LPush(ctx, retryQueue, data).Err(); pushErr != nil {
		log.Printf("Retry worker %d: failed to re-enqueue round %s: %v", id, job.Request.RoundID, pushErr)
	}
}
