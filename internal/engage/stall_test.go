package engage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expofest/engage_backend/internal/models"
)

func TestScanStallRecordsEngagement(t *testing.T) {
	svc, db, _ := newTestService(t)
	volunteer := seedUser(t, db, models.RoleVolunteer, "")
	student := seedUser(t, db, models.RoleStudent, "CSE")
	event := seedEvent(t, db)
	stall := seedStall(t, db, event.ID, "CSE")

	checkIn(t, svc, volunteer, student, event.ID)

	res, err := svc.ScanStall(student, stallToken(t, svc, stall.ID, event.ID))
	require.NoError(t, err)
	assert.Equal(t, stall.ID, res.Stall.ID)
	assert.True(t, res.CanFeedback)
	assert.False(t, res.CanVote) // no feedback yet

	var reloaded models.Stall
	require.NoError(t, db.First(&reloaded, stall.ID).Error)
	assert.Equal(t, 1, reloaded.ScanCount)

	var log models.ScanLog
	require.NoError(t, db.Where("action = ?", models.ScanActionStallScan).First(&log).Error)
	assert.Equal(t, student.ID, log.StudentID)
	require.NotNil(t, log.StallID)
	assert.Equal(t, stall.ID, *log.StallID)

	// Attendance is untouched.
	var open int64
	require.NoError(t, db.Model(&models.AttendanceSession{}).
		Where("status = ?", models.SessionCheckedIn).Count(&open).Error)
	assert.Equal(t, int64(1), open)

	// Second scan still works; canFeedback flips once feedback exists.
	seedFeedback(t, db, student.ID, stall.ID, event.ID)
	res, err = svc.ScanStall(student, stallToken(t, svc, stall.ID, event.ID))
	require.NoError(t, err)
	assert.False(t, res.CanFeedback)
}

func TestScanStallRequiresCheckIn(t *testing.T) {
	svc, db, _ := newTestService(t)
	student := seedUser(t, db, models.RoleStudent, "CSE")
	event := seedEvent(t, db)
	stall := seedStall(t, db, event.ID, "CSE")

	_, err := svc.ScanStall(student, stallToken(t, svc, stall.ID, event.ID))
	requireKind(t, err, KindNotCheckedIn)

	// Rejection left no trace.
	var reloaded models.Stall
	require.NoError(t, db.First(&reloaded, stall.ID).Error)
	assert.Equal(t, 0, reloaded.ScanCount)
	var logs int64
	require.NoError(t, db.Model(&models.ScanLog{}).Count(&logs).Error)
	assert.Equal(t, int64(0), logs)
}

func TestScanStallValidation(t *testing.T) {
	svc, db, _ := newTestService(t)
	volunteer := seedUser(t, db, models.RoleVolunteer, "")
	student := seedUser(t, db, models.RoleStudent, "CSE")
	event := seedEvent(t, db)
	checkIn(t, svc, volunteer, student, event.ID)

	t.Run("student token on stall endpoint", func(t *testing.T) {
		_, err := svc.ScanStall(student, studentToken(t, svc, student.ID, event.ID))
		requireKind(t, err, KindTokenTypeMismatch)
	})

	t.Run("unknown stall", func(t *testing.T) {
		_, err := svc.ScanStall(student, stallToken(t, svc, 9999, event.ID))
		requireKind(t, err, KindStallNotFound)
	})

	t.Run("inactive stall", func(t *testing.T) {
		off := seedStall(t, db, event.ID, "CSE")
		require.NoError(t, db.Model(&off).Update("active", false).Error)
		_, err := svc.ScanStall(student, stallToken(t, svc, off.ID, event.ID))
		requireKind(t, err, KindStallInactive)
	})

	t.Run("inactive event", func(t *testing.T) {
		closed := seedEvent(t, db)
		require.NoError(t, db.Model(&closed).Update("active", false).Error)
		closedStall := seedStall(t, db, closed.ID, "CSE")
		_, err := svc.ScanStall(student, stallToken(t, svc, closedStall.ID, closed.ID))
		requireKind(t, err, KindEventInactive)
	})
}
