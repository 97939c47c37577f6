package models

import "time"

// Stall is an exhibitor booth inside an event. Its QR token is a long-lived
// physical print, so the row carries a human-readable short code as well.
type Stall struct {
	ID          uint   `gorm:"primaryKey"`
	EventID     uint   `gorm:"index;not null"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Department  string `gorm:"size:64;index"`
	Code        string `gorm:"size:16;uniqueIndex"`
	Active      bool   `gorm:"index"`
	ScanCount   int    `gorm:"default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
