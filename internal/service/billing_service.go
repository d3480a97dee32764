package service

import (
	"context"
	"fmt"
	"time"

	"clinicdesk/internal/billing"
	"clinicdesk/internal/dto"
	"clinicdesk/internal/model"
	"clinicdesk/internal/repository"
	"clinicdesk/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BillingService interface {
	// CreateInvoiceTx opens the visit's invoice inside the caller's
	// transaction. One invoice per visit — a second create surfaces
	// billing.ErrDuplicateIdentifier via the unique visit index.
	CreateInvoiceTx(ctx context.Context, tx *gorm.DB, visit *model.Visit, discount, tax decimal.Decimal) (*model.Invoice, error)

	// AddChargeTx allocates one charge against the visit's insurance and
	// appends it to the invoice, all inside the caller's transaction. The
	// visit row is locked FOR UPDATE first, so concurrent charges for the
	// same visit serialize in occurrence order.
	AddChargeTx(ctx context.Context, tx *gorm.DB, visitID uuid.UUID, amount decimal.Decimal, description string, occurredAt time.Time) (*model.Charge, error)

	AddCharge(ctx context.Context, visitID uuid.UUID, req dto.AddChargeRequest) (*dto.InvoiceResponse, error)
	ApplyPayment(ctx context.Context, invoiceID uuid.UUID, receivedBy *uuid.UUID, req dto.ApplyPaymentRequest) (*dto.InvoiceResponse, error)
	Refund(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	GetInvoiceByVisit(ctx context.Context, visitID uuid.UUID) (*dto.InvoiceResponse, error)
}

type billingService struct {
	invoiceRepo repository.InvoiceRepository
	visitRepo   repository.VisitRepository
	dispatcher  *worker.Dispatcher
}

func NewBillingService(
	invoiceRepo repository.InvoiceRepository,
	visitRepo repository.VisitRepository,
	dispatcher *worker.Dispatcher,
) BillingService {
	return &billingService{
		invoiceRepo: invoiceRepo,
		visitRepo:   visitRepo,
		dispatcher:  dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Invoice creation ─────────────────────────────────────────────────────────

func (s *billingService) CreateInvoiceTx(ctx context.Context, tx *gorm.DB, visit *model.Visit, discount, tax decimal.Decimal) (*model.Invoice, error) {
	total, err := billing.ComputeTotal(decimal.Zero, discount, tax)
	if err != nil {
		return nil, err
	}

	num, err := s.invoiceRepo.NextInvoiceNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	inv := &model.Invoice{
		InvoiceNumber: fmt.Sprintf("INV-%06d", num),
		VisitID:       visit.ID,
		PatientID:     visit.PatientID,
		Subtotal:      decimal.Zero,
		Discount:      discount,
		Tax:           tax,
		TotalAmount:   total,
		AmountPaid:    decimal.Zero,
		Balance:       total,
		Status:        string(billing.StatusPending),
	}
	if err := s.invoiceRepo.CreateTx(tx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ── Charge accumulation ──────────────────────────────────────────────────────

func (s *billingService) AddChargeTx(ctx context.Context, tx *gorm.DB, visitID uuid.UUID, amount decimal.Decimal, description string, occurredAt time.Time) (*model.Charge, error) {
	if !amount.IsPositive() {
		return nil, billing.ErrInvalidAmount
	}

	// Lock order: visit first, then invoice. Every writer takes the same
	// order, so two concurrent charges on one visit cannot deadlock.
	visit, err := s.visitRepo.FindByIDForUpdateTx(tx, visitID)
	if err != nil {
		return nil, fmt.Errorf("visit %s not found: %w", visitID, err)
	}
	inv, err := s.invoiceRepo.FindByVisitIDForUpdateTx(tx, visitID)
	if err != nil {
		return nil, fmt.Errorf("no invoice for visit %s: %w", visitID, err)
	}
	if billing.Status(inv.Status).Settled() {
		return nil, billing.ErrInvoiceAlreadySettled
	}

	alloc, err := billing.Allocate(visit.InsuranceLimit, visit.InsuranceUsed, amount)
	if err != nil {
		return nil, err
	}

	visit.InsuranceUsed = visit.InsuranceUsed.Add(alloc.Covered)
	visit.PatientTopup = visit.PatientTopup.Add(alloc.Topup)
	if err := s.visitRepo.UpdateInsuranceTx(tx, visit); err != nil {
		return nil, err
	}

	seq, err := s.invoiceRepo.MaxChargeSequenceTx(tx, inv.ID)
	if err != nil {
		return nil, err
	}
	charge := &model.Charge{
		InvoiceID:     inv.ID,
		Description:   description,
		Amount:        amount,
		CoveredAmount: alloc.Covered,
		PatientAmount: alloc.Topup,
		OccurredAt:    occurredAt,
		Sequence:      seq + 1,
	}
	if err := s.invoiceRepo.AddChargeTx(tx, charge); err != nil {
		return nil, err
	}

	inv.Subtotal = inv.Subtotal.Add(amount)
	total, err := billing.ComputeTotal(inv.Subtotal, inv.Discount, inv.Tax)
	if err != nil {
		return nil, err
	}
	inv.TotalAmount = total
	inv.Balance = total.Sub(inv.AmountPaid)
	if err := s.invoiceRepo.UpdateTotalsTx(tx, inv); err != nil {
		return nil, err
	}
	return charge, nil
}

func (s *billingService) AddCharge(ctx context.Context, visitID uuid.UUID, req dto.AddChargeRequest) (*dto.InvoiceResponse, error) {
	occurredAt := time.Now()
	if req.OccurredAt != nil {
		t, err := time.Parse(time.RFC3339, *req.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("occurred_at: %w", err)
		}
		occurredAt = t
	}

	txErr := runTx(ctx, s.invoiceRepo.DB(), func(tx *gorm.DB) error {
		_, err := s.AddChargeTx(ctx, tx, visitID, req.Amount, req.Description, occurredAt)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.GetInvoiceByVisit(ctx, visitID)
}

// ── Payment application ──────────────────────────────────────────────────────

func (s *billingService) ApplyPayment(ctx context.Context, invoiceID uuid.UUID, receivedBy *uuid.UUID, req dto.ApplyPaymentRequest) (*dto.InvoiceResponse, error) {
	var receiptNumber string

	txErr := runTx(ctx, s.invoiceRepo.DB(), func(tx *gorm.DB) error {
		inv, err := s.invoiceRepo.FindByIDForUpdateTx(tx, invoiceID)
		if err != nil {
			return fmt.Errorf("invoice %s not found: %w", invoiceID, err)
		}

		result, err := billing.ApplyPayment(inv.TotalAmount, inv.AmountPaid, billing.Status(inv.Status), req.Amount)
		if err != nil {
			return err
		}

		num, err := s.invoiceRepo.NextReceiptNumber(ctx, tx)
		if err != nil {
			return err
		}
		receiptNumber = fmt.Sprintf("RCT-%06d", num)

		payment := &model.Payment{
			InvoiceID:     inv.ID,
			ReceiptNumber: receiptNumber,
			Amount:        req.Amount,
			Method:        req.Method,
			Reference:     req.Reference,
			ReceivedByID:  receivedBy,
		}
		if err := s.invoiceRepo.AddPaymentTx(tx, payment); err != nil {
			return err
		}

		inv.AmountPaid = result.AmountPaid
		inv.Balance = result.Balance
		inv.Status = string(result.Status)
		return s.invoiceRepo.UpdateTotalsTx(tx, inv)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Receipt PDF + optional email — best-effort, outside the transaction.
	if s.dispatcher != nil {
		payload := worker.ReceiptJobPayload{
			InvoiceID:     invoiceID.String(),
			ReceiptNumber: receiptNumber,
		}
		if req.NotifyEmail != nil && *req.NotifyEmail != "" {
			payload.NotifyEmail = req.NotifyEmail
		}
		_ = s.dispatcher.EnqueueReceipt(ctx, payload)

		if req.NotifySMS != nil && *req.NotifySMS != "" {
			ref := invoiceID.String()
			_ = s.dispatcher.EnqueueNotify(ctx, worker.NotifyJobPayload{
				Kind:        "sms",
				Recipient:   *req.NotifySMS,
				Body:        fmt.Sprintf("Payment of %s received, receipt %s. Thank you.", req.Amount.StringFixed(2), receiptNumber),
				ReferenceID: &ref,
			})
		}
	}

	return s.GetInvoice(ctx, invoiceID)
}

// ── Refund ───────────────────────────────────────────────────────────────────

// Refund marks the invoice REFUNDED and snapshots the amount refunded.
// Totals and payment history are preserved — REFUNDED is a terminal marker,
// not a balance reset.
func (s *billingService) Refund(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceResponse, error) {
	txErr := runTx(ctx, s.invoiceRepo.DB(), func(tx *gorm.DB) error {
		inv, err := s.invoiceRepo.FindByIDForUpdateTx(tx, invoiceID)
		if err != nil {
			return fmt.Errorf("invoice %s not found: %w", invoiceID, err)
		}

		newStatus, err := billing.Refund(billing.Status(inv.Status))
		if err != nil {
			return err
		}

		refunded := inv.AmountPaid
		inv.RefundedAmount = &refunded
		inv.Status = string(newStatus)
		return s.invoiceRepo.UpdateTotalsTx(tx, inv)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.GetInvoice(ctx, invoiceID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *billingService) GetInvoice(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("invoice not found")
	}
	return invoiceToResponse(inv), nil
}

func (s *billingService) GetInvoiceByVisit(ctx context.Context, visitID uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByVisitID(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("no invoice for visit %s", visitID)
	}
	return invoiceToResponse(inv), nil
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	charges := make([]dto.ChargeResponse, 0, len(inv.Charges))
	for _, c := range inv.Charges {
		charges = append(charges, dto.ChargeResponse{
			Description:   c.Description,
			Amount:        c.Amount,
			CoveredAmount: c.CoveredAmount,
			PatientAmount: c.PatientAmount,
			OccurredAt:    c.OccurredAt.Format(time.RFC3339),
			Sequence:      c.Sequence,
		})
	}
	payments := make([]dto.PaymentResponse, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		payments = append(payments, dto.PaymentResponse{
			ReceiptNumber: p.ReceiptNumber,
			Amount:        p.Amount,
			Method:        p.Method,
			Reference:     p.Reference,
			CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		})
	}
	return &dto.InvoiceResponse{
		ID:             inv.ID.String(),
		InvoiceNumber:  inv.InvoiceNumber,
		VisitID:        inv.VisitID.String(),
		PatientID:      inv.PatientID.String(),
		Subtotal:       inv.Subtotal,
		Discount:       inv.Discount,
		Tax:            inv.Tax,
		TotalAmount:    inv.TotalAmount,
		AmountPaid:     inv.AmountPaid,
		Balance:        inv.Balance,
		RefundedAmount: inv.RefundedAmount,
		Status:         inv.Status,
		Charges:        charges,
		Payments:       payments,
		CreatedAt:      inv.CreatedAt.Format(time.RFC3339),
	}
}
