package models

import (
	"time"
)

// StatusAudit records one loan status transition
type StatusAudit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LoanID     uint      `gorm:"not null;index" json:"loan_id"`
	FromStatus string    `gorm:"size:50;not null" json:"from_status"`
	ToStatus   string    `gorm:"size:50;not null" json:"to_status"`
	Reason     string    `gorm:"type:text" json:"reason"`
	Actor      string    `gorm:"size:100;not null" json:"actor"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for StatusAudit
func (StatusAudit) TableName() string {
	return "status_audits"
}
