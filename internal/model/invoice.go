package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice aggregates the charges and payments of exactly one visit.
// InvoiceNumber is issued from a Postgres sequence and immutable once set.
// Status: "PENDING" | "PARTIAL" | "PAID" | "REFUNDED".
//
// Invariants: TotalAmount = Subtotal − Discount + Tax (never negative);
// Balance = TotalAmount − AmountPaid; AmountPaid equals the sum of Payments.
// A refund sets RefundedAmount to the settled AmountPaid snapshot and leaves
// the payment history untouched.
type Invoice struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceNumber  string    `gorm:"uniqueIndex;not null"`
	VisitID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	PatientID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Subtotal       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	Discount       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	Tax            decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	AmountPaid     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	Balance        decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	RefundedAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status         string           `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Charges  []Charge  `gorm:"foreignKey:InvoiceID"`
	Payments []Payment `gorm:"foreignKey:InvoiceID"`
}

// Charge is one billable line appended to an invoice: the consultation fee
// or a dispensed product. CoveredAmount/PatientAmount record the insurance
// split decided at allocation time. Sequence is the per-invoice allocation
// order — gap-free, assigned under the visit row lock.
type Charge struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID     uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_invoice_sequence"`
	Description   string    `gorm:"not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CoveredAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PatientAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	OccurredAt    time.Time       `gorm:"not null"`
	Sequence      int             `gorm:"not null;uniqueIndex:idx_invoice_sequence"`
	CreatedAt     time.Time
}

// Payment is an append-only record against one invoice. Never mutated or
// deleted — corrections are compensating payments or an explicit refund.
type Payment struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID     uuid.UUID `gorm:"type:uuid;index;not null"`
	ReceiptNumber string    `gorm:"uniqueIndex;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method        string          `gorm:"type:varchar(30);not null"`
	Reference     *string
	ReceivedByID  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
}
