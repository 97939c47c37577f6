package engage

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/models"
	"github.com/expofest/engage_backend/internal/qrtoken"
)

type StallScanResult struct {
	Stall       models.Stall
	CanFeedback bool
	CanVote     bool
}

// ScanStall records a student's engagement scan at a stall. Attendance state
// is read, never mutated: the student must already hold an open gate session
// for the stall's event. The scan counter bump and the scan log share one
// transaction with the validation reads.
func (s *Service) ScanStall(student models.User, rawToken string) (*StallScanResult, error) {
	now := s.now()

	if strings.TrimSpace(rawToken) == "" {
		return nil, badRequest(KindMissingToken, "qr token is required")
	}
	claims, err := s.verifyToken(rawToken, qrtoken.TypeStall)
	if err != nil {
		return nil, err
	}

	var result *StallScanResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var stall models.Stall
		if err := tx.First(&stall, claims.SubjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(KindStallNotFound, "stall not found")
			}
			return err
		}
		if !stall.Active {
			return forbidden(KindStallInactive, "stall is not active")
		}

		event, err := s.requireEvent(tx, stall.EventID)
		if err != nil {
			return err
		}

		var open models.AttendanceSession
		err = tx.Where("student_id = ? AND event_id = ? AND status = ?",
			student.ID, event.ID, models.SessionCheckedIn).First(&open).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return forbidden(KindNotCheckedIn, "check in at the venue gate before scanning stalls")
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&stall).
			UpdateColumn("scan_count", gorm.Expr("scan_count + 1")).Error; err != nil {
			return err
		}
		stall.ScanCount++

		log := models.ScanLog{
			ActorID:   student.ID,
			StudentID: student.ID,
			EventID:   event.ID,
			StallID:   &stall.ID,
			ScanType:  models.ScanTypeStall,
			Action:    models.ScanActionStallScan,
			Success:   true,
		}
		if err := tx.Create(&log).Error; err != nil {
			return err
		}

		var feedbackCount int64
		if err := tx.Model(&models.Feedback{}).
			Where("student_id = ? AND stall_id = ? AND event_id = ?", student.ID, stall.ID, event.ID).
			Count(&feedbackCount).Error; err != nil {
			return err
		}

		// Advisory only; the vote write path re-checks everything.
		canVote := false
		if verr := s.checkVote(tx, student, stall, *event); verr == nil {
			canVote = true
		} else {
			var rejection *Error
			if !errors.As(verr, &rejection) {
				return verr
			}
		}

		result = &StallScanResult{
			Stall:       stall,
			CanFeedback: feedbackCount == 0,
			CanVote:     canVote,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("stall scan",
		zap.Uint("student_id", student.ID),
		zap.Uint("stall_id", result.Stall.ID),
		zap.Uint("event_id", result.Stall.EventID),
	)
	s.publish(ScanEvent{
		ScanType:    models.ScanTypeStall,
		Action:      models.ScanActionStallScan,
		StudentID:   student.ID,
		StudentName: student.FullName,
		EventID:     result.Stall.EventID,
		StallID:     &result.Stall.ID,
		Timestamp:   now,
	})
	return result, nil
}
