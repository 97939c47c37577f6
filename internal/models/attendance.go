package models

import "time"

const (
	SessionCheckedIn  = "checked-in"
	SessionCheckedOut = "checked-out"
)

// AttendanceSession is one continuous presence interval of a student at the
// venue for one event. The open/closed state is explicit in Status; at most one
// checked-in row may exist per (student, event) — enforced by a partial unique
// index created in database.Migrate.
type AttendanceSession struct {
	ID              uint `gorm:"primaryKey"`
	StudentID       uint `gorm:"index:idx_session_pair;not null"`
	EventID         uint `gorm:"index:idx_session_pair;not null"`
	CheckInTime     time.Time
	CheckOutTime    *time.Time
	Status          string `gorm:"size:16;index"`
	DurationSeconds int

	// Nullification fields are set only by the end-of-event sweep,
	// never by a normal checkout.
	IsNullified       bool
	NullifiedReason   string `gorm:"size:255"`
	NullifiedDuration int
	EventStopTime     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
