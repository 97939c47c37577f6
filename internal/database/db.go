package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/config"
	"github.com/expofest/engage_backend/internal/models"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
	)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Stall{},
		&models.AttendanceSession{},
		&models.ScanLog{},
		&models.Feedback{},
		&models.Vote{},
	); err != nil {
		return err
	}

	// At most one open session per (student, event). A partial unique index is
	// the storage-level guarantee behind the gate toggle; the scan engine also
	// checks transactionally.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_session
		 ON attendance_sessions (student_id, event_id)
		 WHERE status = 'checked-in'`,
	).Error
}
