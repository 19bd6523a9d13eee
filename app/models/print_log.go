package models

import "time"

// Print job kinds
const (
	KindKitchen      = "kitchen"
	KindCancellation = "cancellation"
	KindPayment      = "payment"
	KindTest         = "test"
)

// Print job outcomes
const (
	PrintStatusSent    = "sent"
	PrintStatusFailed  = "failed"
	PrintStatusDropped = "dropped" // Printer busy with another job
	PrintStatusSkipped = "skipped" // Nothing to print
)

// PrintLog records one delivery attempt for auditing
type PrintLog struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	JobID      string      `gorm:"index;size:36" json:"job_id"`
	Role       PrinterRole `json:"role"`
	PrinterIP  string      `json:"printer_ip"`
	Kind       string      `json:"kind"`
	TableLabel string      `json:"table_label"`
	Bytes      int         `json:"bytes"`
	Status     string      `gorm:"index" json:"status"`
	Error      string      `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
