package worker

// retry_cron.go
// Background goroutine that periodically re-attempts delivery of failed
// notifications whose next_retry_at is in the past. SMS calls go through the
// circuit breaker to avoid hammering a downed gateway.

import (
	"context"
	"fmt"
	"time"

	"clinicdesk/internal/infra"
	"clinicdesk/internal/model"
	"clinicdesk/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	NotificationRepo repository.NotificationRepository
	Mailer           *infra.Mailer
	SMSClient        *infra.SMSClient
	CB               *infra.CircuitBreaker
	RDB              *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries failed notifications due for retry, and re-attempts delivery.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed gateway
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	notifications, err := cfg.NotificationRepo.FindDueRetries(ctx, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query due retries")
		return
	}

	if len(notifications) == 0 {
		return
	}

	log.Info().Int("count", len(notifications)).Msg("retry_cron: processing due notifications")

	for i := range notifications {
		n := &notifications[i]

		// Check CB state before each call — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		cbErr := cfg.CB.Execute(func() error {
			return deliverNotification(ctx, cfg, n)
		})

		if cbErr != nil {
			n.RetryCount++
			errMsg := cbErr.Error()
			n.LastError = &errMsg

			if n.RetryCount >= MaxNotificationRetries {
				n.NextRetryAt = nil
				log.Error().
					Str("notification_id", n.ID.String()).
					Str("recipient", n.Recipient).
					Int("retries", n.RetryCount).
					Msg("retry_cron: max retries exceeded, moving to DLQ")

				payload := fmt.Sprintf(`{"notification_id":"%s","recipient":"%s"}`, n.ID, n.Recipient)
				SendToDLQ(ctx, cfg.RDB, QueueNotify, "notify", []byte(payload),
					fmt.Sprintf("max retries (%d) exceeded: %s", MaxNotificationRetries, errMsg),
					n.RetryCount)
			} else {
				next := time.Now().Add(computeRetryBackoff(n.RetryCount))
				n.NextRetryAt = &next
				log.Warn().
					Str("notification_id", n.ID.String()).
					Int("retry_count", n.RetryCount).
					Time("next_retry_at", *n.NextRetryAt).
					Msg("retry_cron: delivery failed, scheduled next attempt")
			}

			_ = cfg.NotificationRepo.Update(ctx, n)
			continue
		}

		n.Status = "sent"
		n.NextRetryAt = nil
		n.LastError = nil
		_ = cfg.NotificationRepo.Update(ctx, n)

		log.Info().
			Str("notification_id", n.ID.String()).
			Str("recipient", n.Recipient).
			Int("total_retries", n.RetryCount).
			Msg("retry_cron: delivered after retry")
	}
}

func deliverNotification(ctx context.Context, cfg RetryCronConfig, n *model.Notification) error {
	if n.Kind == "sms" {
		_, err := cfg.SMSClient.Send(ctx, n.Recipient, n.Body)
		return err
	}
	subject := ""
	if n.Subject != nil {
		subject = *n.Subject
	}
	return cfg.Mailer.SendReceipt(n.Recipient, subject, n.Body, "")
}
