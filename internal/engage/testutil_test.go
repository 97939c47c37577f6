package engage

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/database"
	"github.com/expofest/engage_backend/internal/models"
	"github.com/expofest/engage_backend/internal/qrtoken"
)

var testBase = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// newTestService returns a service pinned to testBase; tests advance the
// clock through the returned setter.
func newTestService(t *testing.T) (*Service, *gorm.DB, func(time.Time)) {
	t.Helper()
	db := openTestDB(t)
	svc := NewService(db, qrtoken.NewCodec("test-secret"), zap.NewNop(), nil)

	current := testBase
	svc.now = func() time.Time { return current }
	return svc, db, func(ts time.Time) { current = ts }
}

func seedUser(t *testing.T, db *gorm.DB, role, dept string) models.User {
	t.Helper()
	u := models.User{
		UserID:     uuid.NewString(),
		FullName:   "Test " + role,
		Email:      uuid.NewString() + "@example.com",
		Role:       role,
		Department: dept,
		Active:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedEvent(t *testing.T, db *gorm.DB) models.Event {
	t.Helper()
	e := models.Event{
		Name:               "Tech Expo",
		StartDate:          testBase.Add(-time.Hour),
		EndDate:            testBase.Add(8 * time.Hour),
		Active:             true,
		AllowVoting:        true,
		MaxVotesPerStudent: 3,
	}
	require.NoError(t, db.Create(&e).Error)
	return e
}

func seedStall(t *testing.T, db *gorm.DB, eventID uint, dept string) models.Stall {
	t.Helper()
	s := models.Stall{
		EventID:    eventID,
		Name:       "Stall " + uuid.NewString()[:8],
		Department: dept,
		Code:       uuid.NewString()[:8],
		Active:     true,
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func seedFeedback(t *testing.T, db *gorm.DB, studentID, stallID, eventID uint) {
	t.Helper()
	fb := models.Feedback{StudentID: studentID, StallID: stallID, EventID: eventID, Rating: 4}
	require.NoError(t, db.Create(&fb).Error)
}

func studentToken(t *testing.T, svc *Service, studentID, eventID uint) string {
	t.Helper()
	raw, err := svc.codec.Sign(studentID, eventID, qrtoken.TypeStudent, time.Hour)
	require.NoError(t, err)
	return raw
}

func stallToken(t *testing.T, svc *Service, stallID, eventID uint) string {
	t.Helper()
	raw, err := svc.codec.Sign(stallID, eventID, qrtoken.TypeStall, qrtoken.StallTokenTTL)
	require.NoError(t, err)
	return raw
}

// checkIn drives a real gate scan so sessions carry the exact state the
// engine writes.
func checkIn(t *testing.T, svc *Service, actor models.User, student models.User, eventID uint) models.AttendanceSession {
	t.Helper()
	res, err := svc.ScanStudent(actor, studentToken(t, svc, student.ID, eventID))
	require.NoError(t, err)
	require.Equal(t, ActionIn, res.Action)
	return res.Session
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, kind, e.Kind)
	return e
}
