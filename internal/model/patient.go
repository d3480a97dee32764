package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient holds the demographic record plus the insurance membership used
// at check-in. Insurer is free-form (the clinic's internal payer list) —
// nil means cash patient.
type Patient struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FileNumber  string    `gorm:"uniqueIndex;not null"`
	FirstName   string    `gorm:"not null"`
	LastName    string    `gorm:"index;not null"`
	Phone       *string
	Email       *string
	DateOfBirth *time.Time
	Gender      *string    `gorm:"type:varchar(20)"`
	BranchID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	Insurer     *string    `gorm:"index"`
	MemberID    *string    `gorm:"column:member_id"`
	Active      bool       `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Branch *Branch `gorm:"foreignKey:BranchID"`
}
