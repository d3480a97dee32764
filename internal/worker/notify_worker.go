package worker

// notify_worker.go
// Processes notification jobs from QueueNotify. Each job gets a Notification
// row so the retry cron can re-attempt failed gateway calls later.
// Delivery runs with exponential backoff (max 3 attempts) before the row is
// marked failed and scheduled for the cron.

import (
	"context"
	"encoding/json"
	"time"

	"clinicdesk/internal/infra"
	"clinicdesk/internal/model"
	"clinicdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxNotificationRetries is the total attempt budget across the worker and
// the retry cron before a notification lands in the DLQ.
const MaxNotificationRetries = 5

// NotifyJobPayload is the job envelope sent to QueueNotify.
type NotifyJobPayload struct {
	Kind        string  `json:"kind"` // "sms" | "email"
	Recipient   string  `json:"recipient"`
	Subject     string  `json:"subject,omitempty"`
	Body        string  `json:"body"`
	PDFPath     string  `json:"pdf_path,omitempty"`
	ReferenceID *string `json:"reference_id,omitempty"`
}

type NotifyWorker struct {
	notificationRepo repository.NotificationRepository
	mailer           *infra.Mailer
	smsClient        *infra.SMSClient
}

func NewNotifyWorker(
	notificationRepo repository.NotificationRepository,
	mailer *infra.Mailer,
	smsClient *infra.SMSClient,
) *NotifyWorker {
	return &NotifyWorker{
		notificationRepo: notificationRepo,
		mailer:           mailer,
		smsClient:        smsClient,
	}
}

// Process records the notification and attempts delivery.
func (w *NotifyWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload NotifyJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notify_worker: invalid payload")
		return
	}
	if payload.Recipient == "" {
		log.Warn().Msg("notify_worker: empty recipient — skipping")
		return
	}

	n := &model.Notification{
		Kind:      payload.Kind,
		Recipient: payload.Recipient,
		Body:      payload.Body,
		Status:    "pending",
	}
	if payload.Subject != "" {
		subject := payload.Subject
		n.Subject = &subject
	}
	if payload.ReferenceID != nil {
		if ref, err := uuid.Parse(*payload.ReferenceID); err == nil {
			n.ReferenceID = &ref
		}
	}
	if err := w.notificationRepo.Create(ctx, n); err != nil {
		log.Error().Err(err).Msg("notify_worker: failed to record notification")
		return
	}

	sendErr := withRetry(ctx, 3, func(attempt int) error {
		err := w.deliver(ctx, payload)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("kind", payload.Kind).
				Str("recipient", payload.Recipient).
				Msg("notify_worker: delivery attempt failed, retrying")
		}
		return err
	})

	if sendErr != nil {
		n.Status = "failed"
		n.RetryCount = 3
		errMsg := sendErr.Error()
		n.LastError = &errMsg
		next := time.Now().Add(computeRetryBackoff(n.RetryCount))
		n.NextRetryAt = &next
		_ = w.notificationRepo.Update(ctx, n)
		log.Error().
			Err(sendErr).
			Str("kind", payload.Kind).
			Str("recipient", payload.Recipient).
			Msg("notify_worker: delivery failed, scheduled for retry cron")
		return
	}

	n.Status = "sent"
	_ = w.notificationRepo.Update(ctx, n)
	log.Info().Str("kind", payload.Kind).Str("recipient", payload.Recipient).Msg("notify_worker: delivered")
}

func (w *NotifyWorker) deliver(ctx context.Context, payload NotifyJobPayload) error {
	if payload.Kind == "sms" {
		_, err := w.smsClient.Send(ctx, payload.Recipient, payload.Body)
		return err
	}
	return w.mailer.SendReceipt(payload.Recipient, payload.Subject, payload.Body, payload.PDFPath)
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			// 1s, 2s … (exponential backoff)
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// computeRetryBackoff maps a retry count to the delay before the cron's next
// attempt: 1m, 2m, 4m … capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	d := time.Duration(1<<uint(retryCount-1)) * time.Minute
	if d > 30*time.Minute {
		d = 30 * time.Minute
	}
	return d
}
