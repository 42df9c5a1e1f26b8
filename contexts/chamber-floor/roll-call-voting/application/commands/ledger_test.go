package commands_test

import (
	"context"
	"testing"

	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
)

func TestLaterVoteReplacesEarlierChoice(t *testing.T) {
	c := newChamber(t, 3)
	prepared := c.sitting("replace", 0, 3, entities.MajorityRuleSimple)
	initiativeID := prepared.Initiatives[0].InitiativeID
	c.activate(initiativeID)

	first := c.vote(initiativeID, 1, entities.VoteFavor)
	if first.Replaced || first.Tally != (entities.Tally{Favor: 1}) {
		t.Fatalf("unexpected first cast %+v", first)
	}
	second := c.vote(initiativeID, 1, entities.VoteAgainst)
	if !second.Replaced || second.Tally != (entities.Tally{Against: 1}) {
		t.Fatalf("unexpected replacement %+v", second)
	}
	if c.metrics.votes[entities.VoteFavor] != 1 || c.metrics.votes[entities.VoteAgainst] != 1 {
		t.Fatalf("expected both casts observed, got %v", c.metrics.votes)
	}
	if eventData(t, c.eventsOfType(commands.EventVoteRecorded)[1])["replaced"] != true {
		t.Fatalf("expected replaced flag on second vote event")
	}
}

func TestCastVoteRejections(t *testing.T) {
	c := newChamber(t, 6)
	ctx := context.Background()
	prepared := c.sitting("rejections", 0, 4, entities.MajorityRuleSimple)
	initiativeID := prepared.Initiatives[0].InitiativeID
	c.activate(initiativeID)

	cases := []struct {
		name   string
		actor  commands.Actor
		cmd    commands.CastVoteCommand
		target error
	}{
		{"absent legislator", member(legislatorID(5)), commands.CastVoteCommand{Choice: entities.VoteFavor}, domainerrors.ErrNotEligible},
		{"on behalf of another", member(legislatorID(1)), commands.CastVoteCommand{LegislatorID: legislatorID(2), Choice: entities.VoteFavor}, domainerrors.ErrVoteOnBehalf},
		{"public role", visitor, commands.CastVoteCommand{Choice: entities.VoteFavor}, domainerrors.ErrCapabilityDenied},
		{"secretariat role", secretariat, commands.CastVoteCommand{Choice: entities.VoteFavor}, domainerrors.ErrCapabilityDenied},
		{"invalid choice", member(legislatorID(1)), commands.CastVoteCommand{Choice: "yes"}, domainerrors.ErrInvalidChoice},
		{"unknown legislator", member("leg-99"), commands.CastVoteCommand{Choice: entities.VoteFavor}, domainerrors.ErrLegislatorNotFound},
		{"unknown role", commands.Actor{ActorID: legislatorID(1), Role: "usher"}, commands.CastVoteCommand{Choice: entities.VoteFavor}, domainerrors.ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.cmd.InitiativeID = initiativeID
			_, err := c.coordinator.CastVote(ctx, tc.actor, tc.cmd)
			expectError(t, err, tc.target)
		})
	}

	_, err := c.coordinator.CastVote(ctx, member(legislatorID(1)), commands.CastVoteCommand{InitiativeID: "missing", Choice: entities.VoteFavor})
	expectError(t, err, domainerrors.ErrInitiativeNotFound)

	_, err = c.coordinator.SetLegislatorActive(ctx, secretariat, legislatorID(2), false)
	expectError(t, err, domainerrors.ErrLegislatorSeated)
	if _, err := c.coordinator.SetLegislatorActive(ctx, secretariat, legislatorID(6), false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	_, err = c.coordinator.CastVote(ctx, member(legislatorID(6)), commands.CastVoteCommand{InitiativeID: initiativeID, Choice: entities.VoteFavor})
	expectError(t, err, domainerrors.ErrLegislatorInactive)

	if len(c.eventsOfType(commands.EventVoteRecorded)) != 0 {
		t.Fatalf("rejected casts must not emit events")
	}
	if !c.metrics.saw("vote_cast:forbidden") || !c.metrics.saw("vote_cast:invalid") || !c.metrics.saw("vote_cast:precondition_failed") {
		t.Fatalf("expected rejection outcomes observed, got %v", c.metrics.commands)
	}
}

func TestPresidingOfficerVotesAsLegislator(t *testing.T) {
	c := newChamber(t, 3)
	ctx := context.Background()
	prepared := c.sitting("presiding-vote", 0, 3, entities.MajorityRuleSimple)
	initiativeID := prepared.Initiatives[0].InitiativeID
	c.activate(initiativeID)

	officer := commands.Actor{ActorID: legislatorID(1), Role: "presiding"}
	result, err := c.coordinator.CastVote(ctx, officer, commands.CastVoteCommand{InitiativeID: initiativeID, Choice: entities.VoteAbstain})
	if err != nil {
		t.Fatalf("presiding vote failed: %v", err)
	}
	if result.Vote.LegislatorID != legislatorID(1) || result.Tally.Abstain != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}
