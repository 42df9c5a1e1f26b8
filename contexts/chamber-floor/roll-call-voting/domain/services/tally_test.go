package services

import (
	"testing"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
)

func TestEvaluateMajorityRules(t *testing.T) {
	cases := []struct {
		name     string
		rule     entities.MajorityRule
		tally    entities.Tally
		eligible int
		want     entities.Result
	}{
		{"simple favor wins", entities.MajorityRuleSimple, entities.Tally{Favor: 6, Against: 5}, 20, entities.ResultApproved},
		{"simple tie rejects", entities.MajorityRuleSimple, entities.Tally{Favor: 5, Against: 5, Abstain: 3}, 20, entities.ResultRejected},
		{"simple ignores abstentions", entities.MajorityRuleSimple, entities.Tally{Favor: 2, Against: 1, Abstain: 10}, 20, entities.ResultApproved},
		{"absolute needs more than half of eligible", entities.MajorityRuleAbsolute, entities.Tally{Favor: 10, Against: 9}, 20, entities.ResultRejected},
		{"absolute eleven of twenty", entities.MajorityRuleAbsolute, entities.Tally{Favor: 11}, 20, entities.ResultApproved},
		{"absolute odd eligible", entities.MajorityRuleAbsolute, entities.Tally{Favor: 11}, 21, entities.ResultApproved},
		{"absolute odd eligible short", entities.MajorityRuleAbsolute, entities.Tally{Favor: 10}, 21, entities.ResultRejected},
		{"qualified two thirds of twenty", entities.MajorityRuleQualified, entities.Tally{Favor: 14, Against: 5, Abstain: 1}, 20, entities.ResultApproved},
		{"qualified one short", entities.MajorityRuleQualified, entities.Tally{Favor: 13, Against: 1}, 20, entities.ResultRejected},
		{"qualified exact thirds", entities.MajorityRuleQualified, entities.Tally{Favor: 14}, 21, entities.ResultApproved},
		{"unanimous all eligible", entities.MajorityRuleUnanimous, entities.Tally{Favor: 5}, 5, entities.ResultApproved},
		{"unanimous one abstains", entities.MajorityRuleUnanimous, entities.Tally{Favor: 4, Abstain: 1}, 5, entities.ResultRejected},
		{"unanimous nobody eligible", entities.MajorityRuleUnanimous, entities.Tally{}, 0, entities.ResultRejected},
		{"unknown rule rejects", entities.MajorityRule("plurality"), entities.Tally{Favor: 10}, 10, entities.ResultRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.rule, tc.tally, tc.eligible); got != tc.want {
				t.Fatalf("Evaluate(%s, %+v, %d) = %q, want %q", tc.rule, tc.tally, tc.eligible, got, tc.want)
			}
		})
	}
}

func TestRequiredQuorum(t *testing.T) {
	cases := []struct {
		rule    entities.MajorityRule
		minimum int
		active  int
		want    int
	}{
		{entities.MajorityRuleSimple, 11, 20, 11},
		{entities.MajorityRuleSimple, 0, 20, 11},
		{entities.MajorityRuleSimple, 0, 21, 11},
		{entities.MajorityRuleAbsolute, 8, 20, 8},
		{entities.MajorityRuleQualified, 11, 20, 14},
		{entities.MajorityRuleQualified, 11, 21, 14},
		{entities.MajorityRuleUnanimous, 11, 20, 20},
		{entities.MajorityRuleQualified, 0, 0, 0},
	}
	for _, tc := range cases {
		if got := RequiredQuorum(tc.rule, tc.minimum, tc.active); got != tc.want {
			t.Fatalf("RequiredQuorum(%s, %d, %d) = %d, want %d", tc.rule, tc.minimum, tc.active, got, tc.want)
		}
	}
}

func TestCheckQuorumReportsShortfall(t *testing.T) {
	status := CheckQuorum(12, 14)
	if status.Met {
		t.Fatalf("expected quorum not met")
	}
	if status.Shortfall != 2 {
		t.Fatalf("expected shortfall 2, got %d", status.Shortfall)
	}

	status = CheckQuorum(12, 11)
	if !status.Met || status.Shortfall != 0 {
		t.Fatalf("expected quorum met without shortfall, got %+v", status)
	}
}
