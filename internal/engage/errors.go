package engage

import (
	"fmt"
	"net/http"
)

// Kind is the machine-readable reason code surfaced to API clients. The UI
// relies on these to explain what is missing, so a rejected scan or vote is
// never a generic failure.
type Kind string

const (
	KindMissingToken      Kind = "MissingToken"
	KindTokenMalformed    Kind = "TokenMalformed"
	KindTokenExpired      Kind = "TokenExpired"
	KindTokenTypeMismatch Kind = "TokenTypeMismatch"

	KindSubjectNotFound Kind = "SubjectNotFound"
	KindSubjectInactive Kind = "SubjectInactive"
	KindRoleMismatch    Kind = "RoleMismatch"

	KindEventNotFound   Kind = "EventNotFound"
	KindEventInactive   Kind = "EventInactive"
	KindEventNotStarted Kind = "EventNotStarted"
	KindEventEnded      Kind = "EventEnded"

	KindStallNotFound Kind = "StallNotFound"
	KindStallInactive Kind = "StallInactive"

	KindTooSoonToCheckIn  Kind = "TooSoonToCheckIn"
	KindTooSoonToCheckOut Kind = "TooSoonToCheckOut"
	KindNotCheckedIn      Kind = "NotCheckedIn"

	KindVotingDisabled       Kind = "VotingDisabled"
	KindDepartmentMismatch   Kind = "DepartmentMismatch"
	KindFeedbackRequired     Kind = "FeedbackRequired"
	KindInsufficientFeedback Kind = "InsufficientFeedback"
	KindAlreadyVoted         Kind = "AlreadyVoted"
	KindVoteLimitReached     Kind = "VoteLimitReached"

	KindFeedbackExists Kind = "FeedbackExists"
)

// Error is a recoverable validation failure: the scan or vote simply did not
// apply. Status is the HTTP status the handler should respond with; Fields
// carry structured detail such as current/required feedback counts.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

func badRequest(kind Kind, message string) *Error {
	return newError(kind, http.StatusBadRequest, message)
}

func forbidden(kind Kind, message string) *Error {
	return newError(kind, http.StatusForbidden, message)
}

func notFound(kind Kind, message string) *Error {
	return newError(kind, http.StatusNotFound, message)
}

func conflict(kind Kind, message string) *Error {
	return newError(kind, http.StatusConflict, message)
}

func errInsufficientFeedback(current int) *Error {
	e := badRequest(KindInsufficientFeedback,
		fmt.Sprintf("feedback for %d in-department stalls required, you have %d", MinFeedbackForVoting, current))
	e.Fields = map[string]interface{}{"current": current, "required": MinFeedbackForVoting}
	return e
}

func errVoteLimitReached(max int) *Error {
	e := forbidden(KindVoteLimitReached,
		fmt.Sprintf("vote limit of %d for this event reached", max))
	e.Fields = map[string]interface{}{"max": max}
	return e
}
