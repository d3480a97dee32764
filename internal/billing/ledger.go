package billing

import "github.com/shopspring/decimal"

// Status is the invoice lifecycle state.
//
//	PENDING --(partial payment)--> PARTIAL --(balance reaches 0)--> PAID
//	PENDING --(payment == total)--> PAID
//	PARTIAL|PAID --(refund)--> REFUNDED (terminal)
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPartial  Status = "PARTIAL"
	StatusPaid     Status = "PAID"
	StatusRefunded Status = "REFUNDED"
)

// Settled reports whether the invoice accepts no further payments.
func (s Status) Settled() bool { return s == StatusPaid || s == StatusRefunded }

// ComputeTotal derives total_amount = subtotal − discount + tax.
// Negative inputs, or a discount exceeding subtotal+tax (which would drive
// the total negative), are rejected with ErrInvalidAmount.
func ComputeTotal(subtotal, discount, tax decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.IsNegative() || discount.IsNegative() || tax.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	total := subtotal.Sub(discount).Add(tax)
	if total.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return total, nil
}

// PaymentResult is the new aggregate state after applying one payment.
type PaymentResult struct {
	AmountPaid decimal.Decimal
	Balance    decimal.Decimal
	Status     Status
}

// ApplyPayment validates amount against the invoice's current state and
// returns the recomputed totals and status. It never mutates anything — the
// caller persists the result atomically under the invoice row lock.
//
// Rejections: non-positive amount (ErrInvalidAmount), PAID/REFUNDED invoice
// (ErrInvoiceAlreadySettled), amount above the open balance
// (ErrOverpaymentNotAllowed — partial-to-exact payments only).
func ApplyPayment(total, paid decimal.Decimal, status Status, amount decimal.Decimal) (PaymentResult, error) {
	if !amount.IsPositive() {
		return PaymentResult{}, ErrInvalidAmount
	}
	if status.Settled() {
		return PaymentResult{}, ErrInvoiceAlreadySettled
	}
	balance := total.Sub(paid)
	if amount.GreaterThan(balance) {
		return PaymentResult{}, ErrOverpaymentNotAllowed
	}

	newPaid := paid.Add(amount)
	newBalance := total.Sub(newPaid)
	newStatus := StatusPartial
	if newBalance.IsZero() {
		newStatus = StatusPaid
	}
	return PaymentResult{AmountPaid: newPaid, Balance: newBalance, Status: newStatus}, nil
}

// Refund validates the transition to REFUNDED. Permitted only from PAID or
// PARTIAL; REFUNDED is terminal. Payment history is preserved — the service
// records the refunded amount as a snapshot next to the untouched totals.
func Refund(status Status) (Status, error) {
	switch status {
	case StatusPaid, StatusPartial:
		return StatusRefunded, nil
	default:
		return status, ErrRefundNotAllowed
	}
}
