package engage

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/models"
)

// NullifiedReasonEventEnded is recorded on every session the sweep closes.
const NullifiedReasonEventEnded = "Event ended without checkout"

// NullifyOpenSessions force-closes every session still checked in for the
// event, marking the open-ended elapsed time as nullified rather than silently
// dropping or crediting it. Idempotent: it only targets rows still checked in,
// so a second run is a no-op. Invoked synchronously from the event-end
// transition; there is no timer here.
func (s *Service) NullifyOpenSessions(eventID uint) (int, error) {
	now := s.now()

	var swept int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var open []models.AttendanceSession
		if err := lockForUpdate(tx).
			Where("event_id = ? AND status = ?", eventID, models.SessionCheckedIn).
			Find(&open).Error; err != nil {
			return err
		}
		for i := range open {
			sess := &open[i]
			stop := now
			out := now
			sess.EventStopTime = &stop
			sess.CheckOutTime = &out
			sess.NullifiedDuration = int(now.Sub(sess.CheckInTime).Seconds())
			sess.IsNullified = true
			sess.NullifiedReason = NullifiedReasonEventEnded
			sess.Status = models.SessionCheckedOut
			if err := tx.Save(sess).Error; err != nil {
				return err
			}
		}
		swept = len(open)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		s.log.Info("nullified open sessions",
			zap.Uint("event_id", eventID),
			zap.Int("count", swept),
		)
	}
	return swept, nil
}
