package engage

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/models"
)

type VotingEligibility struct {
	VotingUnlocked     bool   `json:"voting_unlocked"`
	FeedbacksInOwnDept int    `json:"feedbacks_in_own_dept"`
	FeedbacksRequired  int    `json:"feedbacks_required"`
	VoteCount          int    `json:"vote_count"`
	VotesRemaining     int    `json:"votes_remaining"`
	EligibleStallIDs   []uint `json:"eligible_stall_ids"`
}

// CastVote inserts a Vote row for (student, stall, event) if the full
// eligibility predicate holds. Every condition is re-checked inside the insert
// transaction — a stale advisory answer from ScanStall or GetVotingEligibility
// can never be exploited after checkout or after a concurrent vote. The unique
// index on the triple is the storage backstop.
func (s *Service) CastVote(student models.User, stallID, eventID uint) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var stall models.Stall
		if err := tx.First(&stall, stallID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(KindStallNotFound, "stall not found")
			}
			return err
		}
		if !stall.Active {
			return forbidden(KindStallInactive, "stall is not active")
		}
		if stall.EventID != eventID {
			return notFound(KindStallNotFound, "stall does not belong to this event")
		}

		event, err := s.requireEvent(tx, eventID)
		if err != nil {
			return err
		}

		// Lock the student's open session row: it doubles as the
		// per-(student,event) mutex that serializes concurrent vote
		// submissions, keeping the cap check stable.
		var open models.AttendanceSession
		err = lockForUpdate(tx).
			Where("student_id = ? AND event_id = ? AND status = ?",
				student.ID, eventID, models.SessionCheckedIn).
			First(&open).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return forbidden(KindNotCheckedIn, "you must be checked in to vote")
		}
		if err != nil {
			return err
		}

		if verr := s.checkVote(tx, student, stall, *event); verr != nil {
			return verr
		}

		vote = models.Vote{
			StudentID: student.ID,
			StallID:   stallID,
			EventID:   eventID,
		}
		if err := tx.Create(&vote).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return conflict(KindAlreadyVoted, "you have already voted for this stall")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("vote cast",
		zap.Uint("student_id", student.ID),
		zap.Uint("stall_id", stallID),
		zap.Uint("event_id", eventID),
	)
	return &vote, nil
}

// checkVote evaluates the eligibility predicate shared by the write path and
// the advisory reads. The checked-in condition is validated (and locked) by
// the caller where that matters; the remaining conditions live here so both
// paths count the same way. Returns *Error for rejections, a raw error for
// infrastructure failures.
func (s *Service) checkVote(tx *gorm.DB, student models.User, stall models.Stall, event models.Event) error {
	if !event.AllowVoting {
		return forbidden(KindVotingDisabled, "voting is not enabled for this event")
	}
	if student.Department == "" || student.Department != stall.Department {
		return forbidden(KindDepartmentMismatch, "you can only vote for stalls in your own department")
	}

	var hasFeedback int64
	if err := tx.Model(&models.Feedback{}).
		Where("student_id = ? AND stall_id = ? AND event_id = ?", student.ID, stall.ID, event.ID).
		Count(&hasFeedback).Error; err != nil {
		return err
	}
	if hasFeedback == 0 {
		return forbidden(KindFeedbackRequired, "review this stall before voting for it")
	}

	deptFeedbacks, err := s.countDeptFeedbacks(tx, student, event.ID)
	if err != nil {
		return err
	}
	if deptFeedbacks < MinFeedbackForVoting {
		return errInsufficientFeedback(deptFeedbacks)
	}

	var existing int64
	if err := tx.Model(&models.Vote{}).
		Where("student_id = ? AND stall_id = ? AND event_id = ?", student.ID, stall.ID, event.ID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return conflict(KindAlreadyVoted, "you have already voted for this stall")
	}

	voteCount, err := s.countVotes(tx, student.ID, event.ID)
	if err != nil {
		return err
	}
	if voteCount >= maxVotes(event) {
		return errVoteLimitReached(maxVotes(event))
	}
	return nil
}

// GetVotingEligibility recomputes the aggregate conditions for UI display
// using the same counting queries as the write path, so the UI never promises
// eligibility the write path will then reject.
func (s *Service) GetVotingEligibility(student models.User, eventID uint) (*VotingEligibility, error) {
	var out *VotingEligibility
	err := s.db.Transaction(func(tx *gorm.DB) error {
		event, err := s.requireEvent(tx, eventID)
		if err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&models.AttendanceSession{}).
			Where("student_id = ? AND event_id = ? AND status = ?",
				student.ID, eventID, models.SessionCheckedIn).
			Count(&open).Error; err != nil {
			return err
		}

		deptFeedbacks, err := s.countDeptFeedbacks(tx, student, eventID)
		if err != nil {
			return err
		}
		voteCount, err := s.countVotes(tx, student.ID, eventID)
		if err != nil {
			return err
		}

		var stallIDs []uint
		if err := tx.Model(&models.Feedback{}).
			Joins("JOIN stalls ON stalls.id = feedbacks.stall_id").
			Where("feedbacks.student_id = ? AND feedbacks.event_id = ? AND stalls.department = ?",
				student.ID, eventID, student.Department).
			Distinct().
			Pluck("feedbacks.stall_id", &stallIDs).Error; err != nil {
			return err
		}

		remaining := maxVotes(*event) - voteCount
		if remaining < 0 {
			remaining = 0
		}
		out = &VotingEligibility{
			VotingUnlocked: event.AllowVoting && open > 0 &&
				deptFeedbacks >= MinFeedbackForVoting && remaining > 0,
			FeedbacksInOwnDept: deptFeedbacks,
			FeedbacksRequired:  MinFeedbackForVoting,
			VoteCount:          voteCount,
			VotesRemaining:     remaining,
			EligibleStallIDs:   stallIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// countDeptFeedbacks counts distinct stalls in the student's own department
// the student has reviewed for this event.
func (s *Service) countDeptFeedbacks(tx *gorm.DB, student models.User, eventID uint) (int, error) {
	var n int64
	err := tx.Model(&models.Feedback{}).
		Joins("JOIN stalls ON stalls.id = feedbacks.stall_id").
		Where("feedbacks.student_id = ? AND feedbacks.event_id = ? AND stalls.department = ?",
			student.ID, eventID, student.Department).
		Distinct("feedbacks.stall_id").
		Count(&n).Error
	return int(n), err
}

func (s *Service) countVotes(tx *gorm.DB, studentID, eventID uint) (int, error) {
	var n int64
	err := tx.Model(&models.Vote{}).
		Where("student_id = ? AND event_id = ?", studentID, eventID).
		Count(&n).Error
	return int(n), err
}

func maxVotes(event models.Event) int {
	if event.MaxVotesPerStudent <= 0 {
		return 3
	}
	return event.MaxVotesPerStudent
}
