package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CheckInRequest opens a visit: the engine resolves the fee tier from the
// patient's history, prices the consultation, and bills it onto a fresh
// invoice in one transaction.
type CheckInRequest struct {
	PatientID        string  `json:"patient_id"        validate:"required,uuid"`
	BranchID         string  `json:"branch_id"         validate:"required,uuid"`
	ClinicianID      *string `json:"clinician_id"      validate:"omitempty,uuid"`
	VisitDate        string  `json:"visit_date"        validate:"required,datetime=2006-01-02"`
	ConsultationType string  `json:"consultation_type" validate:"required"`
	// InsuranceLimit fixes the per-visit coverage cap at check-in.
	// Omitted or zero means a cash visit.
	InsuranceLimit *decimal.Decimal `json:"insurance_limit" validate:"omitempty"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VisitResponse struct {
	ID               string           `json:"id"`
	PatientID        string           `json:"patient_id"`
	BranchID         string           `json:"branch_id"`
	VisitDate        string           `json:"visit_date"`
	ConsultationType string           `json:"consultation_type"`
	Tier             string           `json:"tier"`
	ConsultationFee  decimal.Decimal  `json:"consultation_fee"`
	Insurer          *string          `json:"insurer,omitempty"`
	InsuranceLimit   *decimal.Decimal `json:"insurance_limit,omitempty"`
	InsuranceUsed    decimal.Decimal  `json:"insurance_used"`
	PatientTopup     decimal.Decimal  `json:"patient_topup"`
	InvoiceID        *string          `json:"invoice_id,omitempty"`
	CreatedAt        string           `json:"created_at"`
}

type VisitListResponse struct {
	Data []VisitResponse `json:"data"`
}
