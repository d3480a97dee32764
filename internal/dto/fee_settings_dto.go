package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// UpsertFeeSettingsRequest writes the global schedule, or a branch override
// when branch_id is present in the route.
type UpsertFeeSettingsRequest struct {
	InitialFee       decimal.Decimal `json:"initial_fee"        validate:"required"`
	ReviewFee        decimal.Decimal `json:"review_fee"         validate:"required"`
	SubsequentFee    decimal.Decimal `json:"subsequent_fee"     validate:"required"`
	ReviewPeriodDays int             `json:"review_period_days" validate:"required,min=1"`
}

type UpsertOverrideRequest struct {
	Insurer          string           `json:"insurer"           validate:"required"`
	ConsultationType string           `json:"consultation_type" validate:"required"`
	OverrideFee      *decimal.Decimal `json:"override_fee"`
	InitialFee       *decimal.Decimal `json:"initial_fee"`
	ReviewFee        *decimal.Decimal `json:"review_fee"`
	SubsequentFee    *decimal.Decimal `json:"subsequent_fee"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type FeeSettingsResponse struct {
	ID               string          `json:"id"`
	BranchID         *string         `json:"branch_id,omitempty"` // absent = global
	InitialFee       decimal.Decimal `json:"initial_fee"`
	ReviewFee        decimal.Decimal `json:"review_fee"`
	SubsequentFee    decimal.Decimal `json:"subsequent_fee"`
	ReviewPeriodDays int             `json:"review_period_days"`
}

type OverrideResponse struct {
	ID               string           `json:"id"`
	Insurer          string           `json:"insurer"`
	ConsultationType string           `json:"consultation_type"`
	OverrideFee      *decimal.Decimal `json:"override_fee,omitempty"`
	InitialFee       *decimal.Decimal `json:"initial_fee,omitempty"`
	ReviewFee        *decimal.Decimal `json:"review_fee,omitempty"`
	SubsequentFee    *decimal.Decimal `json:"subsequent_fee,omitempty"`
}

// ResolvedFeesResponse is the read-through resolution for a branch +
// optional insurer/consultation pair (what the front desk quotes).
type ResolvedFeesResponse struct {
	Initial          decimal.Decimal `json:"initial"`
	Review           decimal.Decimal `json:"review"`
	Subsequent       decimal.Decimal `json:"subsequent"`
	ReviewPeriodDays int             `json:"review_period_days"`
}
