package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a dispensable item (medication, consumable, retail good).
type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU          string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"index;not null"`
	Description  *string
	Category     string          `gorm:"not null"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockOnHand  int             `gorm:"not null;default:0"`
	ReorderLevel int             `gorm:"not null;default:5"`
	BranchID     *uuid.UUID      `gorm:"type:uuid;index"`
	Active       bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StockMovement is the immutable audit trail of every stock change.
// Kind: "dispense" | "adjustment" | "restock" | "restore".
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Kind        string    `gorm:"type:varchar(20);not null"`
	Quantity    int       `gorm:"not null"` // signed: negative on dispense
	StockBefore int       `gorm:"not null"`
	StockAfter  int       `gorm:"not null"`
	Reason      string    `gorm:"not null"`
	ReferenceID *uuid.UUID `gorm:"type:uuid;index"` // visit or invoice that caused it
	CreatedAt   time.Time
}
