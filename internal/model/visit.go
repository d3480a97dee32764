package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Visit is one patient attendance. Tier and ConsultationFee are resolved at
// check-in and immutable once billed — later settings changes never alter
// an already-billed visit.
//
// Insurance tracking invariants (enforced by BillingService under a row
// lock): InsuranceUsed ≤ InsuranceLimit at all times; PatientTopup only
// grows. InsuranceLimit nil means cash visit.
type Visit struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PatientID        uuid.UUID  `gorm:"type:uuid;index;not null"`
	BranchID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	ClinicianID      *uuid.UUID `gorm:"type:uuid;index"`
	VisitDate        time.Time  `gorm:"index;not null"`
	ConsultationType string     `gorm:"not null"`
	Tier             string     `gorm:"type:varchar(20);not null"`
	ConsultationFee  decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Insurer          *string
	InsuranceLimit   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	InsuranceUsed    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	PatientTopup     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Patient *Patient `gorm:"foreignKey:PatientID"`
	Branch  *Branch  `gorm:"foreignKey:BranchID"`
}
