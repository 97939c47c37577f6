package models

import (
	"time"
)

type User struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     string `gorm:"uniqueIndex"`
	FullName   string
	Email      string `gorm:"uniqueIndex"`
	Password   string
	Role       string `gorm:"size:16;index"`
	Department string `gorm:"size:64;index"`
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
