package models

import "time"

// Feedback is written once per (student, stall, event) and never updated here;
// rating corrections are an admin concern.
type Feedback struct {
	ID        uint `gorm:"primaryKey"`
	StudentID uint `gorm:"uniqueIndex:uniq_feedback_triple;not null"`
	StallID   uint `gorm:"uniqueIndex:uniq_feedback_triple;not null"`
	EventID   uint `gorm:"uniqueIndex:uniq_feedback_triple;index;not null"`
	Rating    int
	Comment   string `gorm:"type:text"`
	CreatedAt time.Time
}
