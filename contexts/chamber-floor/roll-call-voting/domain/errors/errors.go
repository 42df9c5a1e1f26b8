package errors

import (
	"errors"
	"maps"
)

// Kind groups errors by how callers must react to them.
type Kind string

const (
	KindForbidden          Kind = "forbidden"
	KindPreconditionFailed Kind = "precondition_failed"
	KindConflict           Kind = "conflict"
	KindNotFound           Kind = "not_found"
	KindInvalid            Kind = "invalid"
)

// Error is the domain error type. Kind sentinels (no Code) match every error
// of the same kind under errors.Is; coded errors match by Code.
type Error struct {
	Kind     Kind
	Code     string
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return e.Kind == t.Kind
	}
	return e.Code == t.Code
}

// With returns a copy of e carrying an extra metadata entry. Two-phase
// confirmations use it to report the conflicting item or the quorum gap.
func (e *Error) With(key string, value string) *Error {
	clone := *e
	clone.Metadata = make(map[string]string, len(e.Metadata)+1)
	maps.Copy(clone.Metadata, e.Metadata)
	clone.Metadata[key] = value
	return &clone
}

// KindOf returns the kind of err, or "" for non-domain errors.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// MetadataOf returns the metadata attached to a domain error, if any.
func MetadataOf(err error) map[string]string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Metadata
	}
	return nil
}

func coded(kind Kind, code string, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrPreconditionFailed = &Error{Kind: KindPreconditionFailed, Message: "precondition failed"}
	ErrConflict           = &Error{Kind: KindConflict, Message: "conflict"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalid            = &Error{Kind: KindInvalid, Message: "invalid input"}
)

var (
	ErrInvalidRole         = coded(KindInvalid, "INVALID_ROLE", "unknown actor role")
	ErrInvalidChoice       = coded(KindInvalid, "INVALID_CHOICE", "vote choice must be favor, against or abstain")
	ErrInvalidAttendance   = coded(KindInvalid, "INVALID_ATTENDANCE", "attendance must be present, absent or unmarked")
	ErrInvalidMajorityRule = coded(KindInvalid, "INVALID_MAJORITY_RULE", "unknown majority rule")
	ErrInvalidAgenda       = coded(KindInvalid, "INVALID_AGENDA", "agenda item is malformed")
	ErrInvalidInput        = coded(KindInvalid, "INVALID_INPUT", "invalid input")

	ErrCapabilityDenied = coded(KindForbidden, "CAPABILITY_DENIED", "actor role lacks the required capability")
	ErrNotEligible      = coded(KindForbidden, "NOT_ELIGIBLE", "legislator is not marked present in the current roll call")
	ErrVoteOnBehalf     = coded(KindForbidden, "VOTE_ON_BEHALF", "legislators may only cast their own vote")

	ErrEmptyAgenda        = coded(KindPreconditionFailed, "EMPTY_AGENDA", "session has no initiatives")
	ErrSessionNotStarted  = coded(KindPreconditionFailed, "SESSION_NOT_STARTED", "session is not started")
	ErrRollCallMissing    = coded(KindPreconditionFailed, "ROLL_CALL_MISSING", "session has no confirmed roll call with recorded attendance")
	ErrRollCallFinalized  = coded(KindPreconditionFailed, "ROLL_CALL_FINALIZED", "roll call is finalized")
	ErrQuorumNotMet       = coded(KindPreconditionFailed, "QUORUM_NOT_MET", "present legislators are below the required quorum")
	ErrInitiativeNotOpen  = coded(KindPreconditionFailed, "INITIATIVE_NOT_OPEN", "initiative is not open for voting")
	ErrInitiativePending  = coded(KindPreconditionFailed, "INITIATIVE_PENDING", "initiative was never opened")
	ErrLegislatorInactive = coded(KindPreconditionFailed, "LEGISLATOR_INACTIVE", "legislator is not active")

	ErrSessionActive          = coded(KindConflict, "SESSION_ACTIVE", "another session is already active")
	ErrSessionStateConflict   = coded(KindConflict, "SESSION_STATE_CONFLICT", "session is not in the required state")
	ErrInitiativeAlreadyOpen  = coded(KindConflict, "INITIATIVE_ALREADY_OPEN", "another initiative is open in this session")
	ErrInitiativeClosed       = coded(KindConflict, "INITIATIVE_CLOSED", "initiative is already closed")
	ErrInitiativeNotReopening = coded(KindConflict, "INITIATIVE_NOT_REOPENABLE", "only undecided initiatives can be reopened")
	ErrResultDiverged         = coded(KindConflict, "RESULT_DIVERGED", "closed initiative cannot be re-derived identically")
	ErrDuplicate              = coded(KindConflict, "DUPLICATE", "record already exists")
	ErrLegislatorSeated       = coded(KindConflict, "LEGISLATOR_SEATED", "legislator is present or holds a live vote in the active sitting")

	ErrSessionNotFound    = coded(KindNotFound, "SESSION_NOT_FOUND", "session not found")
	ErrInitiativeNotFound = coded(KindNotFound, "INITIATIVE_NOT_FOUND", "initiative not found")
	ErrRollCallNotFound   = coded(KindNotFound, "ROLL_CALL_NOT_FOUND", "roll call not found")
	ErrLegislatorNotFound = coded(KindNotFound, "LEGISLATOR_NOT_FOUND", "legislator not found")
	ErrOutboxNotFound     = coded(KindNotFound, "OUTBOX_NOT_FOUND", "outbox record not found")
)
