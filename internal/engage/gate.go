package engage

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/models"
	"github.com/expofest/engage_backend/internal/qrtoken"
)

const (
	ActionIn  = "in"
	ActionOut = "out"
)

type GateScanResult struct {
	Action    string
	Student   models.User
	Session   models.AttendanceSession
	Timestamp time.Time
}

// ScanStudent consumes a raw student QR token presented to a volunteer and
// toggles the student's attendance for the encoded event. The whole operation
// — validation chain, session mutation, scan log — is one transaction; any
// rejection rolls back with no partial writes. The returned Action tells the
// caller which transition happened: this is a toggle, not two endpoints.
func (s *Service) ScanStudent(actor models.User, rawToken string) (*GateScanResult, error) {
	now := s.now()

	if strings.TrimSpace(rawToken) == "" {
		return nil, badRequest(KindMissingToken, "qr token is required")
	}
	claims, err := s.verifyToken(rawToken, qrtoken.TypeStudent)
	if err != nil {
		return nil, err
	}

	var result *GateScanResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var student models.User
		if err := tx.First(&student, claims.SubjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(KindSubjectNotFound, "student not found")
			}
			return err
		}
		if !student.Active {
			return forbidden(KindSubjectInactive, "student account is inactive")
		}
		if student.Role != models.RoleStudent {
			return forbidden(KindRoleMismatch, "token subject is not a student")
		}

		event, err := s.requireEvent(tx, claims.EventID)
		if err != nil {
			return err
		}
		if now.Before(event.StartDate) {
			return forbidden(KindEventNotStarted, "event has not started yet")
		}
		if now.After(event.EndDate) {
			return forbidden(KindEventEnded, "event has already ended")
		}

		session, action, err := s.toggleSession(tx, student.ID, event.ID, now)
		if err != nil {
			return err
		}

		log := models.ScanLog{
			ActorID:   actor.ID,
			StudentID: student.ID,
			EventID:   event.ID,
			ScanType:  models.ScanTypeGate,
			Action:    actionLogName(action),
			Success:   true,
		}
		if err := tx.Create(&log).Error; err != nil {
			return err
		}

		result = &GateScanResult{
			Action:    action,
			Student:   student,
			Session:   *session,
			Timestamp: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("gate scan",
		zap.String("action", result.Action),
		zap.Uint("student_id", result.Student.ID),
		zap.Uint("event_id", result.Session.EventID),
		zap.Uint("actor_id", actor.ID),
	)
	s.publish(ScanEvent{
		ScanType:    models.ScanTypeGate,
		Action:      actionLogName(result.Action),
		StudentID:   result.Student.ID,
		StudentName: result.Student.FullName,
		EventID:     result.Session.EventID,
		Timestamp:   now,
	})
	return result, nil
}

// toggleSession drives the two-state machine, keyed by the presence of an
// open session row read under a row lock.
func (s *Service) toggleSession(tx *gorm.DB, studentID, eventID uint, now time.Time) (*models.AttendanceSession, string, error) {
	var open models.AttendanceSession
	err := lockForUpdate(tx).
		Where("student_id = ? AND event_id = ? AND status = ?", studentID, eventID, models.SessionCheckedIn).
		First(&open).Error
	switch {
	case err == nil:
		// CheckedIn -> NoOpenSession
		if now.Sub(open.CheckInTime) < CheckOutDebounce {
			return nil, "", badRequest(KindTooSoonToCheckOut, "checked in moments ago, wait before checking out")
		}
		out := now
		open.CheckOutTime = &out
		open.Status = models.SessionCheckedOut
		open.DurationSeconds = int(now.Sub(open.CheckInTime).Seconds())
		if err := tx.Save(&open).Error; err != nil {
			return nil, "", err
		}
		return &open, ActionOut, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		// NoOpenSession -> CheckedIn, unless a checkout happened too recently.
		var last models.AttendanceSession
		err := tx.
			Where("student_id = ? AND event_id = ? AND status = ? AND check_out_time IS NOT NULL",
				studentID, eventID, models.SessionCheckedOut).
			Order("check_out_time DESC").
			First(&last).Error
		if err == nil && now.Sub(*last.CheckOutTime) < CheckInDebounce {
			return nil, "", badRequest(KindTooSoonToCheckIn, "checked out moments ago, wait before checking in again")
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", err
		}
		session := models.AttendanceSession{
			StudentID:   studentID,
			EventID:     eventID,
			CheckInTime: now,
			Status:      models.SessionCheckedIn,
		}
		if err := tx.Create(&session).Error; err != nil {
			return nil, "", err
		}
		return &session, ActionIn, nil

	default:
		return nil, "", err
	}
}

func (s *Service) verifyToken(raw string, want qrtoken.TokenType) (*qrtoken.Claims, error) {
	claims, err := s.codec.Verify(raw, want)
	if err != nil {
		switch {
		case errors.Is(err, qrtoken.ErrTokenExpired):
			return nil, badRequest(KindTokenExpired, "qr token has expired")
		case errors.Is(err, qrtoken.ErrTokenTypeMismatch):
			return nil, badRequest(KindTokenTypeMismatch, "wrong kind of qr token for this endpoint")
		default:
			return nil, badRequest(KindTokenMalformed, "qr token is invalid")
		}
	}
	return claims, nil
}

func (s *Service) requireEvent(tx *gorm.DB, eventID uint) (*models.Event, error) {
	var event models.Event
	if err := tx.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(KindEventNotFound, "event not found")
		}
		return nil, err
	}
	if !event.Active {
		return nil, forbidden(KindEventInactive, "event is not active")
	}
	return &event, nil
}

func actionLogName(action string) string {
	if action == ActionOut {
		return models.ScanActionCheckOut
	}
	return models.ScanActionCheckIn
}
