package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeSettings is one fee-tier configuration row. BranchID nil is the single
// global default; a branch row overrides it wholesale. The nullable column
// is a storage detail only — resolution is an explicit two-level lookup in
// the repository (FindByBranch, then FindGlobal), never a sentinel check in
// business logic.
type FeeSettings struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BranchID         *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	InitialFee       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ReviewFee        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SubsequentFee    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ReviewPeriodDays int             `gorm:"not null;default:14"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// InsuranceOverride holds insurer-specific fees for one consultation type.
// Per-tier fees take priority over the flat OverrideFee; OverrideFee takes
// priority over the plain FeeSettings tier price. Configuration only —
// mutated by administrators, read-only to the billing engine.
type InsuranceOverride struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Insurer          string    `gorm:"uniqueIndex:idx_insurer_consultation;not null"`
	ConsultationType string    `gorm:"uniqueIndex:idx_insurer_consultation;not null"`
	OverrideFee      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	InitialFee       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ReviewFee        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	SubsequentFee    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
