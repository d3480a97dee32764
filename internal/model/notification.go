package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is one outbound message (payment receipt SMS, visit
// reminder). Kind: "sms" | "email". Status: "pending" | "sent" | "failed".
// Retry fields are used by the retry cron to re-attempt failed gateway
// calls.
type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Kind        string    `gorm:"type:varchar(10);not null"`
	Recipient   string    `gorm:"not null"`
	Subject     *string
	Body        string     `gorm:"not null"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'"`
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	ReferenceID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
