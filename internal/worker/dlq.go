package worker

// Jobs whose handler failed are parked in dlq:{queue}. The re-drive cron
// puts them back on their queue until they reach maxRedriveAttempts, after
// which they move to dlq:{queue}:parked for manual inspection.

import (
	"context"
	"encoding/json"
	"time"

	"repairpos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix    = "dlq:"
	parkedSuffix = ":parked"

	maxRedriveAttempts = 5
	redriveBatchSize   = 20
)

type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // RFC 3339
	Attempts      int             `json:"attempts"`
}

func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      job.Attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries waiting for re-drive.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// RedriveConfig holds the dependencies of the DLQ re-drive goroutine.
type RedriveConfig struct {
	RDB      *redis.Client
	Queue    string
	Interval time.Duration
	// CB is the breaker of the gateway the queue's handler calls; nothing is
	// re-driven while it is open.
	CB *infra.CircuitBreaker
}

// StartRedriveCron ticks every cfg.Interval until ctx is cancelled.
func StartRedriveCron(ctx context.Context, cfg RedriveConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Str("queue", cfg.Queue).Dur("interval", cfg.Interval).Msg("dlq_redrive: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("dlq_redrive: shutting down")
				return
			case <-ticker.C:
				if n := redriveDLQ(ctx, cfg); n > 0 {
					log.Info().Str("queue", cfg.Queue).Int("jobs", n).Msg("dlq_redrive: jobs re-queued")
				}
			}
		}
	}()
}

// redriveDLQ moves up to redriveBatchSize entries back to their queue and
// returns how many were re-queued.
func redriveDLQ(ctx context.Context, cfg RedriveConfig) int {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("dlq_redrive: circuit breaker is open, skipping tick")
		return 0
	}

	dlqKey := DLQPrefix + cfg.Queue
	requeued := 0
	for i := 0; i < redriveBatchSize; i++ {
		raw, err := cfg.RDB.RPop(ctx, dlqKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq_redrive: rpop failed")
			}
			return requeued
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("dlq_redrive: dropping unreadable entry")
			continue
		}

		if entry.Attempts >= maxRedriveAttempts {
			_ = cfg.RDB.LPush(ctx, dlqKey+parkedSuffix, raw).Err()
			log.Error().Str("job_type", entry.JobType).Int("attempts", entry.Attempts).Msg("dlq_redrive: max attempts reached, parked")
			continue
		}

		job, _ := json.Marshal(Job{Type: entry.JobType, Payload: entry.Payload, Attempts: entry.Attempts})
		if err := cfg.RDB.LPush(ctx, entry.OriginalQueue, job).Err(); err != nil {
			// put it back for the next tick
			_ = cfg.RDB.RPush(ctx, dlqKey, raw).Err()
			log.Error().Err(err).Msg("dlq_redrive: re-queue failed")
			return requeued
		}
		requeued++
	}
	return requeued
}
