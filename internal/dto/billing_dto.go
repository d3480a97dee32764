package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AddChargeRequest appends one billable line to a visit's invoice. The
// engine splits the amount between insurer and patient before appending.
type AddChargeRequest struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount"      validate:"required"`
	// OccurredAt orders concurrent charges; RFC 3339. Defaults to now.
	OccurredAt *string `json:"occurred_at" validate:"omitempty"`
}

type ApplyPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"    validate:"required"`
	Method    string          `json:"method"    validate:"required,oneof=cash card transfer mobile_money"`
	Reference *string         `json:"reference"`
	// NotifyEmail: when present, the receipt worker mails the PDF receipt.
	NotifyEmail *string `json:"notify_email" validate:"omitempty,email"`
	// NotifySMS: when present, a payment confirmation is texted to this number.
	NotifySMS *string `json:"notify_sms" validate:"omitempty,e164"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ChargeResponse struct {
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	CoveredAmount decimal.Decimal `json:"covered_amount"`
	PatientAmount decimal.Decimal `json:"patient_amount"`
	OccurredAt    string          `json:"occurred_at"`
	Sequence      int             `json:"sequence"`
}

type PaymentResponse struct {
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Reference     *string         `json:"reference,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type InvoiceResponse struct {
	ID             string            `json:"id"`
	InvoiceNumber  string            `json:"invoice_number"`
	VisitID        string            `json:"visit_id"`
	PatientID      string            `json:"patient_id"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	Discount       decimal.Decimal   `json:"discount"`
	Tax            decimal.Decimal   `json:"tax"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	AmountPaid     decimal.Decimal   `json:"amount_paid"`
	Balance        decimal.Decimal   `json:"balance"`
	RefundedAmount *decimal.Decimal  `json:"refunded_amount,omitempty"`
	Status         string            `json:"status"`
	Charges        []ChargeResponse  `json:"charges"`
	Payments       []PaymentResponse `json:"payments"`
	CreatedAt      string            `json:"created_at"`
}
