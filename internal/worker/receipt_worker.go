package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders the PDF for the paid
// invoice and, when the payer left an email, chains a notify job with the
// attachment.

import (
	"context"
	"encoding/json"
	"fmt"

	"clinicdesk/internal/infra"
	"clinicdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
type ReceiptJobPayload struct {
	InvoiceID     string  `json:"invoice_id"`
	ReceiptNumber string  `json:"receipt_number"`
	NotifyEmail   *string `json:"notify_email,omitempty"`
}

type ReceiptWorker struct {
	invoiceRepo    repository.InvoiceRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
	clinicName     string
}

func NewReceiptWorker(
	invoiceRepo repository.InvoiceRepository,
	dispatcher *Dispatcher,
	pdfStoragePath string,
	clinicName string,
) *ReceiptWorker {
	return &ReceiptWorker{
		invoiceRepo:    invoiceRepo,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
		clinicName:     clinicName,
	}
}

// Process renders the receipt PDF and optionally chains an email job.
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		log.Error().Str("invoice_id", payload.InvoiceID).Msg("receipt_worker: invalid invoice_id")
		return
	}

	inv, err := w.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		log.Error().Err(err).Str("invoice_id", payload.InvoiceID).Msg("receipt_worker: invoice not found")
		return
	}

	pdfPath, err := infra.GenerateReceiptPDF(inv, payload.ReceiptNumber, w.clinicName, w.pdfStoragePath)
	if err != nil {
		log.Warn().Err(err).Str("invoice_id", payload.InvoiceID).Msg("receipt_worker: PDF generation failed")
		return
	}
	log.Info().Str("pdf", pdfPath).Str("invoice_id", payload.InvoiceID).Msg("receipt_worker: PDF generated")

	if payload.NotifyEmail != nil && *payload.NotifyEmail != "" {
		notifyJob := NotifyJobPayload{
			Kind:        "email",
			Recipient:   *payload.NotifyEmail,
			Subject:     fmt.Sprintf("%s — Receipt %s", w.clinicName, payload.ReceiptNumber),
			Body:        fmt.Sprintf("Please find attached your receipt for invoice %s.\nAmount paid: %s", inv.InvoiceNumber, inv.AmountPaid.StringFixed(2)),
			PDFPath:     pdfPath,
			ReferenceID: &payload.InvoiceID,
		}
		if err := w.dispatcher.EnqueueNotify(ctx, notifyJob); err != nil {
			log.Warn().Err(err).Str("email", *payload.NotifyEmail).Msg("receipt_worker: failed to enqueue notify job")
		} else {
			log.Info().Str("email", *payload.NotifyEmail).Msg("receipt_worker: notify job enqueued")
		}
	}
}
