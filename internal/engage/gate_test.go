package engage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expofest/engage_backend/internal/models"
	"github.com/expofest/engage_backend/internal/qrtoken"
)

func TestGateScanToggle(t *testing.T) {
	svc, db, setNow := newTestService(t)
	volunteer := seedUser(t, db, models.RoleVolunteer, "")
	student := seedUser(t, db, models.RoleStudent, "CSE")
	event := seedEvent(t, db)
	token := studentToken(t, svc, student.ID, event.ID)

	res, err := svc.ScanStudent(volunteer, token)
	require.NoError(t, err)
	assert.Equal(t, ActionIn, res.Action)
	assert.Equal(t, models.SessionCheckedIn, res.Session.Status)
	assert.Nil(t, res.Session.CheckOutTime)

	setNow(testBase.Add(45 * time.Second))
	res, err = svc.ScanStudent(volunteer, token)
	require.NoError(t, err)
	assert.Equal(t, ActionOut, res.Action)
	assert.Equal(t, models.SessionCheckedOut, res.Session.Status)
	require.NotNil(t, res.Session.CheckOutTime)
	assert.Equal(t, 45, res.Session.DurationSeconds)
	assert.False(t, res.Session.IsNullified)

	// Past the re-check-in debounce a new session opens.
	setNow(testBase.Add(2 * time.Minute))
	res, err = svc.ScanStudent(volunteer, token)
	require.NoError(t, err)
	assert.Equal(t, ActionIn, res.Action)

	// At most one open session per pair, ever.
	var open int64
	require.NoError(t, db.Model(&models.AttendanceSession{}).
		Where("student_id = ? AND event_id = ? AND status = ?", student.ID, event.ID, models.SessionCheckedIn).
		Count(&open).Error)
	assert.Equal(t, int64(1), open)

	var total int64
	require.NoError(t, db.Model(&models.AttendanceSession{}).
		Where("student_id = ? AND event_id = ?", student.ID, event.ID).Count(&total).Error)
	assert.Equal(t, int64(2), total)
}

func TestGateScanDebounce(t *testing.T) {
	svc, db, setNow := newTestService(t)
	volunteer := seedUser(t, db, models.RoleVolunteer, "")
	student := seedUser(t, db, models.RoleStudent, "CSE")
	event := seedEvent(t, db)
	token := studentToken(t, svc, student.ID, event.ID)

	checkIn(t, svc, volunteer, student, event.ID)

	// Checkout inside the 30s window is rejected.
	setNow(testBase.Add(10 * time.Second))
	_, err := svc.ScanStudent(volunteer, token)
	requireKind(t, err, KindTooSoonToCheckOut)

	// Checkout succeeds at 31s.
	setNow(testBase.Add(31 * time.Second))
	res, err := svc.ScanStudent(volunteer, token)
	require.NoError(t, err)
	assert.Equal(t, ActionOut, res.Action)
	assert.Equal(t, 31, res.Session.DurationSeconds)

	// Re-check-in 9s after that checkout is inside the 60s window.
	setNow(testBase.Add(40 * time.Second))
	_, err = svc.ScanStudent(volunteer, token)
	requireKind(t, err, KindTooSoonToCheckIn)

	// 60s past the checkout it opens again.
	setNow(testBase.Add(91 * time.Second))
	res, err = svc.ScanStudent(volunteer, token)
	require.NoError(t, err)
	assert.Equal(t, ActionIn, res.Action)
}

func TestGateScanValidation(t *testing.T) {
	svc, db, setNow := newTestService(t)
	volunteer := seedUser(t, db, models.RoleVolunteer, "")
	student := seedUser(t, db, models.RoleStudent, "CSE")
	event := seedEvent(t, db)

	t.Run("missing token", func(t *testing.T) {
		_, err := svc.ScanStudent(volunteer, "  ")
		requireKind(t, err, KindMissingToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := svc.ScanStudent(volunteer, "garbage")
		requireKind(t, err, KindTokenMalformed)
	})

	t.Run("expired token", func(t *testing.T) {
		raw, err := svc.codec.Sign(student.ID, event.ID, qrtoken.TypeStudent, -time.Minute)
		require.NoError(t, err)
		_, err = svc.ScanStudent(volunteer, raw)
		requireKind(t, err, KindTokenExpired)
	})

	t.Run("stall token on gate endpoint", func(t *testing.T) {
		stall := seedStall(t, db, event.ID, "CSE")
		_, err := svc.ScanStudent(volunteer, stallToken(t, svc, stall.ID, event.ID))
		requireKind(t, err, KindTokenTypeMismatch)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.ScanStudent(volunteer, studentToken(t, svc, 9999, event.ID))
		requireKind(t, err, KindSubjectNotFound)
	})

	t.Run("inactive student", func(t *testing.T) {
		inactive := seedUser(t, db, models.RoleStudent, "CSE")
		require.NoError(t, db.Model(&inactive).Update("active", false).Error)
		_, err := svc.ScanStudent(volunteer, studentToken(t, svc, inactive.ID, event.ID))
		requireKind(t, err, KindSubjectInactive)
	})

	t.Run("role mismatch", func(t *testing.T) {
		other := seedUser(t, db, models.RoleVolunteer, "")
		_, err := svc.ScanStudent(volunteer, studentToken(t, svc, other.ID, event.ID))
		requireKind(t, err, KindRoleMismatch)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := svc.ScanStudent(volunteer, studentToken(t, svc, student.ID, 9999))
		requireKind(t, err, KindEventNotFound)
	})

	t.Run("inactive event", func(t *testing.T) {
		closed := seedEvent(t, db)
		require.NoError(t, db.Model(&closed).Update("active", false).Error)
		_, err := svc.ScanStudent(volunteer, studentToken(t, svc, student.ID, closed.ID))
		requireKind(t, err, KindEventInactive)
	})

	t.Run("event not started", func(t *testing.T) {
		setNow(event.StartDate.Add(-time.Minute))
		_, err := svc.ScanStudent(volunteer, studentToken(t, svc, student.ID, event.ID))
		requireKind(t, err, KindEventNotStarted)
		setNow(testBase)
	})

	t.Run("event ended", func(t *testing.T) {
		setNow(event.EndDate.Add(time.Minute))
		_, err := svc.ScanStudent(volunteer, studentToken(t, svc, student.ID, event.ID))
		requireKind(t, err, KindEventEnded)
		setNow(testBase)
	})

	// None of the rejected scans may have left a session or a log row.
	var sessions, logs int64
	require.NoError(t, db.Model(&models.AttendanceSession{}).Count(&sessions).Error)
	require.NoError(t, db.Model(&models.ScanLog{}).Count(&logs).Error)
	assert.Equal(t, int64(0), sessions)
	assert.Equal(t, int64(0), logs)
}

func TestGateScanWritesScanLog(t *testing.T) {
	svc, db, setNow := newTestService(t)
	volunteer := seedUser(t, db, models.RoleVolunteer, "")
	student := seedUser(t, db, models.RoleStudent, "CSE")
	event := seedEvent(t, db)
	token := studentToken(t, svc, student.ID, event.ID)

	_, err := svc.ScanStudent(volunteer, token)
	require.NoError(t, err)
	setNow(testBase.Add(time.Minute))
	_, err = svc.ScanStudent(volunteer, token)
	require.NoError(t, err)

	var logs []models.ScanLog
	require.NoError(t, db.Order("id ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ScanActionCheckIn, logs[0].Action)
	assert.Equal(t, models.ScanActionCheckOut, logs[1].Action)
	for _, l := range logs {
		assert.Equal(t, volunteer.ID, l.ActorID)
		assert.Equal(t, student.ID, l.StudentID)
		assert.Equal(t, event.ID, l.EventID)
		assert.Equal(t, models.ScanTypeGate, l.ScanType)
		assert.True(t, l.Success)
	}
}
