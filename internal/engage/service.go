// Package engage holds the scan and engagement core: the gate check-in/out
// state machine, the stall scan gateway, the vote eligibility gate and the
// end-of-event nullification sweep. Every state-mutating operation runs inside
// one gorm transaction; validation reads and the eventual write share that
// transaction so no concurrent call can interleave a conflicting change.
package engage

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/expofest/engage_backend/internal/qrtoken"
)

// MinFeedbackForVoting is the number of distinct in-department stalls a
// student must have reviewed before voting unlocks for the event.
const MinFeedbackForVoting = 3

// Debounce windows for the gate toggle. Wall-clock comparisons against stored
// timestamps, not locks; they only reject redundant scans.
const (
	CheckOutDebounce = 30 * time.Second
	CheckInDebounce  = 60 * time.Second
)

// ScanEvent is pushed to live dashboards after a scan transaction commits.
type ScanEvent struct {
	ScanType    string    `json:"scan_type"`
	Action      string    `json:"action"`
	StudentID   uint      `json:"student_id"`
	StudentName string    `json:"student_name"`
	EventID     uint      `json:"event_id"`
	StallID     *uint     `json:"stall_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ScanPublisher receives committed scan outcomes. Implemented by the
// websocket feed hub; may be nil.
type ScanPublisher interface {
	PublishScan(ScanEvent)
}

type Service struct {
	db    *gorm.DB
	codec *qrtoken.Codec
	log   *zap.Logger
	feed  ScanPublisher

	// now is swapped out in tests to drive the debounce windows.
	now func() time.Time
}

func NewService(db *gorm.DB, codec *qrtoken.Codec, log *zap.Logger, feed ScanPublisher) *Service {
	return &Service{
		db:    db,
		codec: codec,
		log:   log,
		feed:  feed,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) publish(ev ScanEvent) {
	if s.feed != nil {
		s.feed.PublishScan(ev)
	}
}

// lockForUpdate applies a row lock where the dialect supports one. SQLite
// (used in tests) has no row locks and serializes writers itself.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
