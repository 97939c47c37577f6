package engage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expofest/engage_backend/internal/models"
)

func TestNullifyOpenSessions(t *testing.T) {
	svc, db, setNow := newTestService(t)
	volunteer := seedUser(t, db, models.RoleVolunteer, "")
	left := seedUser(t, db, models.RoleStudent, "CSE")     // checks out properly
	stranded := seedUser(t, db, models.RoleStudent, "ECE") // never checks out
	event := seedEvent(t, db)

	checkIn(t, svc, volunteer, left, event.ID)
	setNow(testBase.Add(60 * time.Second))
	res, err := svc.ScanStudent(volunteer, studentToken(t, svc, left.ID, event.ID))
	require.NoError(t, err)
	require.Equal(t, ActionOut, res.Action)

	checkIn(t, svc, volunteer, stranded, event.ID)

	// Event ends 500s after the stranded student's check-in.
	setNow(testBase.Add(560 * time.Second))
	swept, err := svc.NullifyOpenSessions(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	var sess models.AttendanceSession
	require.NoError(t, db.Where("student_id = ?", stranded.ID).First(&sess).Error)
	assert.Equal(t, models.SessionCheckedOut, sess.Status)
	assert.True(t, sess.IsNullified)
	assert.Equal(t, NullifiedReasonEventEnded, sess.NullifiedReason)
	assert.Equal(t, 500, sess.NullifiedDuration)
	require.NotNil(t, sess.EventStopTime)
	require.NotNil(t, sess.CheckOutTime)

	// The properly closed session is untouched.
	var closed models.AttendanceSession
	require.NoError(t, db.Where("student_id = ?", left.ID).First(&closed).Error)
	assert.False(t, closed.IsNullified)
	assert.Equal(t, 60, closed.DurationSeconds)
}

func TestNullifyOpenSessionsIdempotent(t *testing.T) {
	svc, db, setNow := newTestService(t)
	volunteer := seedUser(t, db, models.RoleVolunteer, "")
	student := seedUser(t, db, models.RoleStudent, "CSE")
	event := seedEvent(t, db)

	checkIn(t, svc, volunteer, student, event.ID)

	setNow(testBase.Add(500 * time.Second))
	swept, err := svc.NullifyOpenSessions(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	var first models.AttendanceSession
	require.NoError(t, db.Where("student_id = ?", student.ID).First(&first).Error)

	// A later second run is a no-op: nothing is still checked in.
	setNow(testBase.Add(900 * time.Second))
	swept, err = svc.NullifyOpenSessions(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	var second models.AttendanceSession
	require.NoError(t, db.Where("student_id = ?", student.ID).First(&second).Error)
	assert.Equal(t, first.NullifiedDuration, second.NullifiedDuration)
	assert.Equal(t, first.EventStopTime.Unix(), second.EventStopTime.Unix())
}

func TestNullifyOnlyTargetsGivenEvent(t *testing.T) {
	svc, db, _ := newTestService(t)
	volunteer := seedUser(t, db, models.RoleVolunteer, "")
	s1 := seedUser(t, db, models.RoleStudent, "CSE")
	s2 := seedUser(t, db, models.RoleStudent, "CSE")
	e1 := seedEvent(t, db)
	e2 := seedEvent(t, db)

	checkIn(t, svc, volunteer, s1, e1.ID)
	checkIn(t, svc, volunteer, s2, e2.ID)

	swept, err := svc.NullifyOpenSessions(e1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	var stillOpen int64
	require.NoError(t, db.Model(&models.AttendanceSession{}).
		Where("event_id = ? AND status = ?", e2.ID, models.SessionCheckedIn).
		Count(&stillOpen).Error)
	assert.Equal(t, int64(1), stillOpen)
}
