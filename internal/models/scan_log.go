package models

import "time"

const (
	ScanTypeGate  = "gate"
	ScanTypeStall = "stall"

	ScanActionCheckIn   = "gate-check-in"
	ScanActionCheckOut  = "gate-check-out"
	ScanActionStallScan = "stall-scan"
)

// ScanLog is an append-only audit row, written in the same transaction as the
// state change it records. Never updated or deleted.
type ScanLog struct {
	ID        uint   `gorm:"primaryKey"`
	ActorID   uint   `gorm:"index"`
	StudentID uint   `gorm:"index"`
	EventID   uint   `gorm:"index"`
	StallID   *uint  `gorm:"index"`
	ScanType  string `gorm:"size:16"`
	Action    string `gorm:"size:32;index"`
	Success   bool
	Detail    string `gorm:"size:255"`
	CreatedAt time.Time
}
