package models

import "time"

type Event struct {
	ID                 uint      `gorm:"primaryKey"`
	Name               string    `gorm:"size:255;not null"`
	Description        string    `gorm:"type:text"`
	Location           string    `gorm:"size:255"`
	StartDate          time.Time `gorm:"index"`
	EndDate            time.Time `gorm:"index"`
	Active             bool      `gorm:"index"`
	AllowVoting        bool
	MaxVotesPerStudent int `gorm:"default:3"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
