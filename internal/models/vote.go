package models

import "time"

// Vote rows are inserted by the engagement gate once all eligibility checks
// pass inside the same transaction. The unique index is the storage backstop
// against concurrent duplicate submissions.
type Vote struct {
	ID        uint `gorm:"primaryKey"`
	StudentID uint `gorm:"uniqueIndex:uniq_vote_triple;not null"`
	StallID   uint `gorm:"uniqueIndex:uniq_vote_triple;not null"`
	EventID   uint `gorm:"uniqueIndex:uniq_vote_triple;index;not null"`
	CreatedAt time.Time
}
