package entities

import "time"

type VoteChoice string

const (
	VoteFavor   VoteChoice = "favor"
	VoteAgainst VoteChoice = "against"
	VoteAbstain VoteChoice = "abstain"
)

func (c VoteChoice) Valid() bool {
	switch c {
	case VoteFavor, VoteAgainst, VoteAbstain:
		return true
	default:
		return false
	}
}

// Vote is keyed by (InitiativeID, LegislatorID). A later cast replaces the
// earlier one; no history is kept.
type Vote struct {
	InitiativeID string
	LegislatorID string
	Choice       VoteChoice
	CastAt       time.Time
}

type Tally struct {
	Favor   int `json:"favor"`
	Against int `json:"against"`
	Abstain int `json:"abstain"`
}

func (t Tally) Total() int {
	return t.Favor + t.Against + t.Abstain
}

func TallyVotes(votes []Vote) Tally {
	var tally Tally
	for _, vote := range votes {
		switch vote.Choice {
		case VoteFavor:
			tally.Favor++
		case VoteAgainst:
			tally.Against++
		case VoteAbstain:
			tally.Abstain++
		}
	}
	return tally
}
