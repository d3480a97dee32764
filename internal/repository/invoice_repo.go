package repository

import (
	"context"
	"errors"
	"strings"

	"clinicdesk/internal/billing"
	"clinicdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceRepository owns the invoice aggregate and its append-only charges
// and payments. Document numbers come from Postgres sequences; a unique
// violation on insert surfaces as billing.ErrDuplicateIdentifier so the
// caller sees the conflict instead of a silent retry.
type InvoiceRepository interface {
	CreateTx(tx *gorm.DB, inv *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByVisitID(ctx context.Context, visitID uuid.UUID) (*model.Invoice, error)
	// FindByIDForUpdateTx takes a SELECT ... FOR UPDATE lock on the invoice row.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error)
	FindByVisitIDForUpdateTx(tx *gorm.DB, visitID uuid.UUID) (*model.Invoice, error)
	// MaxChargeSequenceTx returns the highest charge sequence on the
	// invoice, 0 when none. Call under the invoice row lock.
	MaxChargeSequenceTx(tx *gorm.DB, invoiceID uuid.UUID) (int, error)
	NextInvoiceNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	NextReceiptNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	AddChargeTx(tx *gorm.DB, c *model.Charge) error
	AddPaymentTx(tx *gorm.DB, p *model.Payment) error
	UpdateTotalsTx(tx *gorm.DB, inv *model.Invoice) error
	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

// translateDuplicate maps unique-violation errors onto the domain sentinel.
func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "SQLSTATE 23505") {
		return billing.ErrDuplicateIdentifier
	}
	return err
}

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	return translateDuplicate(tx.Create(inv).Error)
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Charges", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&inv, id).Error
	return &inv, err
}

func (r *invoiceRepo) FindByVisitID(ctx context.Context, visitID uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Charges", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("visit_id = ?", visitID).
		First(&inv).Error
	return &inv, err
}

func (r *invoiceRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, id).Error
	return &inv, err
}

func (r *invoiceRepo) FindByVisitIDForUpdateTx(tx *gorm.DB, visitID uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("visit_id = ?", visitID).First(&inv).Error
	return &inv, err
}

func (r *invoiceRepo) MaxChargeSequenceTx(tx *gorm.DB, invoiceID uuid.UUID) (int, error) {
	var max int
	err := tx.Model(&model.Charge{}).Where("invoice_id = ?", invoiceID).
		Select("COALESCE(MAX(sequence), 0)").Scan(&max).Error
	return max, err
}

func (r *invoiceRepo) NextInvoiceNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	var num int64
	err := tx.WithContext(ctx).Raw("SELECT nextval('invoices_number_seq')").Scan(&num).Error
	return num, err
}

func (r *invoiceRepo) NextReceiptNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	var num int64
	err := tx.WithContext(ctx).Raw("SELECT nextval('payments_receipt_seq')").Scan(&num).Error
	return num, err
}

func (r *invoiceRepo) AddChargeTx(tx *gorm.DB, c *model.Charge) error {
	return translateDuplicate(tx.Create(c).Error)
}

func (r *invoiceRepo) AddPaymentTx(tx *gorm.DB, p *model.Payment) error {
	return translateDuplicate(tx.Create(p).Error)
}

func (r *invoiceRepo) UpdateTotalsTx(tx *gorm.DB, inv *model.Invoice) error {
	updates := map[string]interface{}{
		"subtotal":     inv.Subtotal,
		"total_amount": inv.TotalAmount,
		"amount_paid":  inv.AmountPaid,
		"balance":      inv.Balance,
		"status":       inv.Status,
	}
	if inv.RefundedAmount != nil {
		updates["refunded_amount"] = *inv.RefundedAmount
	}
	return tx.Model(&model.Invoice{}).Where("id = ?", inv.ID).Updates(updates).Error
}
