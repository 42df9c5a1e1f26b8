package entities

import "time"

type MajorityRule string

const (
	MajorityRuleSimple    MajorityRule = "simple"
	MajorityRuleAbsolute  MajorityRule = "absolute"
	MajorityRuleQualified MajorityRule = "qualified"
	MajorityRuleUnanimous MajorityRule = "unanimous"
)

func (r MajorityRule) Valid() bool {
	switch r {
	case MajorityRuleSimple, MajorityRuleAbsolute, MajorityRuleQualified, MajorityRuleUnanimous:
		return true
	default:
		return false
	}
}

type Result string

const (
	ResultNone     Result = ""
	ResultApproved Result = "approved"
	ResultRejected Result = "rejected"
	// ResultUndecided marks an item closed without a vote having been held.
	// It is the only result that permits a reopen.
	ResultUndecided Result = "undecided"
)

type InitiativeStatus string

const (
	InitiativeStatusPending InitiativeStatus = "pending"
	InitiativeStatusOpen    InitiativeStatus = "open"
	InitiativeStatusClosed  InitiativeStatus = "closed"
)

// Initiative is an agenda item. (Open, Closed) together form its sub-state:
// pending (false,false), open (true,false), closed (false,true).
type Initiative struct {
	InitiativeID   string
	SessionID      string
	Number         int
	Title          string
	MajorityRule   MajorityRule
	Open           bool
	Closed         bool
	Result         Result
	FinalTally     Tally
	EligibleVoters int
	OpenedAt       *time.Time
	ClosedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (i Initiative) Status() InitiativeStatus {
	switch {
	case i.Closed:
		return InitiativeStatusClosed
	case i.Open:
		return InitiativeStatusOpen
	default:
		return InitiativeStatusPending
	}
}

// AcceptsVotes reports whether casts are currently accepted.
func (i Initiative) AcceptsVotes() bool {
	return i.Open && !i.Closed
}
