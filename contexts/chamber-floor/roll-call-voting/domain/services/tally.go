package services

import "plenary/contexts/chamber-floor/roll-call-voting/domain/entities"

// Evaluate applies a majority rule to a final tally. eligible is the count of
// active legislators when the item closes.
func Evaluate(rule entities.MajorityRule, tally entities.Tally, eligible int) entities.Result {
	approved := false
	switch rule {
	case entities.MajorityRuleSimple:
		approved = tally.Favor > tally.Against
	case entities.MajorityRuleAbsolute:
		// favor > eligible/2 without integer truncation.
		approved = 2*tally.Favor > eligible
	case entities.MajorityRuleQualified:
		approved = tally.Favor >= ceilTwoThirds(eligible)
	case entities.MajorityRuleUnanimous:
		approved = eligible > 0 && tally.Favor == eligible
	}
	if approved {
		return entities.ResultApproved
	}
	return entities.ResultRejected
}

// RequiredQuorum returns the present-count an item of the given rule needs.
// sessionMinimum <= 0 falls back to a plain majority of active legislators.
func RequiredQuorum(rule entities.MajorityRule, sessionMinimum int, activeLegislators int) int {
	switch rule {
	case entities.MajorityRuleQualified:
		return ceilTwoThirds(activeLegislators)
	case entities.MajorityRuleUnanimous:
		return activeLegislators
	default:
		if sessionMinimum > 0 {
			return sessionMinimum
		}
		return activeLegislators/2 + 1
	}
}

func ceilTwoThirds(n int) int {
	if n <= 0 {
		return 0
	}
	return (2*n + 2) / 3
}

// QuorumStatus compares the present-count against a required count.
type QuorumStatus struct {
	Present   int  `json:"present"`
	Required  int  `json:"required"`
	Shortfall int  `json:"shortfall"`
	Met       bool `json:"met"`
}

func CheckQuorum(present int, required int) QuorumStatus {
	status := QuorumStatus{
		Present:  present,
		Required: required,
		Met:      present >= required,
	}
	if !status.Met {
		status.Shortfall = required - present
	}
	return status
}
