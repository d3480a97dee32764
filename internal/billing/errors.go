// Package billing implements the visit billing engine: fee-tier
// classification, insurance coverage allocation against a per-visit limit,
// and the invoice/payment reconciliation state machine. The package is pure
// domain logic — persistence and locking live in the service layer.
package billing

import "errors"

// Sentinel errors surfaced to callers. Handlers map these to HTTP statuses;
// nothing here is auto-corrected (an overpayment is a cashier error, not
// something to clamp silently).
var (
	// ErrConfigurationMissing means no global fee settings row exists.
	// Fee resolution cannot proceed without the seed row.
	ErrConfigurationMissing = errors.New("fee settings not configured")

	// ErrInvalidAmount covers zero/negative amounts and discounts that
	// would drive an invoice total negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrOverpaymentNotAllowed is returned when a payment exceeds the
	// invoice balance. No change/credit is ever generated implicitly.
	ErrOverpaymentNotAllowed = errors.New("payment exceeds invoice balance")

	// ErrInvoiceAlreadySettled is returned for payment attempts against a
	// PAID or REFUNDED invoice.
	ErrInvoiceAlreadySettled = errors.New("invoice already settled")

	// ErrRefundNotAllowed is returned for refund attempts on invoices that
	// are not in PAID or PARTIAL status.
	ErrRefundNotAllowed = errors.New("refund only allowed from paid or partial status")

	// ErrDuplicateIdentifier signals an invoice/receipt number collision.
	// The caller must see the conflict — it is never retried silently.
	ErrDuplicateIdentifier = errors.New("duplicate document identifier")
)
