package commands

import (
	"context"
	"strings"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

type CastVoteCommand struct {
	InitiativeID string
	LegislatorID string
	Choice       entities.VoteChoice
}

type CastVoteResult struct {
	Vote  entities.Vote
	Tally entities.Tally
	// Replaced is true when the legislator already had a vote on the item.
	Replaced bool
}

// VoteLedger stores one vote per (initiative, legislator) and keeps the
// live tally.
type VoteLedger struct {
	Tracker RollCallTracker
}

func (l VoteLedger) Cast(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	cmd CastVoteCommand,
) (CastVoteResult, error) {
	if !cmd.Choice.Valid() {
		return CastVoteResult{}, domainerrors.ErrInvalidChoice
	}
	initiativeID := strings.TrimSpace(cmd.InitiativeID)
	legislatorID := strings.TrimSpace(cmd.LegislatorID)
	if initiativeID == "" || legislatorID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidInput
	}

	initiative, err := tx.GetInitiative(ctx, initiativeID)
	if err != nil {
		return CastVoteResult{}, err
	}
	session, err := tx.GetSession(ctx, initiative.SessionID)
	if err != nil {
		return CastVoteResult{}, err
	}
	session, err = settleSession(ctx, tx, now, out, session)
	if err != nil {
		return CastVoteResult{}, err
	}

	initiative, err = tx.LockInitiative(ctx, initiativeID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !initiative.AcceptsVotes() {
		return CastVoteResult{}, domainerrors.ErrInitiativeNotOpen.With("status", string(initiative.Status()))
	}
	if session.EffectiveState(now) != entities.SessionStateStarted {
		return CastVoteResult{}, domainerrors.ErrSessionNotStarted.With("state", string(session.EffectiveState(now)))
	}

	legislator, err := tx.GetLegislator(ctx, legislatorID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !legislator.Active {
		return CastVoteResult{}, domainerrors.ErrLegislatorInactive.With("legislator_id", legislatorID)
	}
	eligible, err := l.Tracker.IsEligibleToVote(ctx, tx, session.SessionID, legislatorID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !eligible {
		return CastVoteResult{}, domainerrors.ErrNotEligible.With("legislator_id", legislatorID)
	}

	_, replaced, err := tx.GetVote(ctx, initiativeID, legislatorID)
	if err != nil {
		return CastVoteResult{}, err
	}
	vote := entities.Vote{
		InitiativeID: initiativeID,
		LegislatorID: legislatorID,
		Choice:       cmd.Choice,
		CastAt:       now,
	}
	if err := tx.UpsertVote(ctx, vote); err != nil {
		return CastVoteResult{}, err
	}
	tally, err := liveTally(ctx, tx, initiativeID)
	if err != nil {
		return CastVoteResult{}, err
	}

	out.emit(EventVoteRecorded, session.SessionID, map[string]any{
		"initiative_id": initiativeID,
		"session_id":    session.SessionID,
		"legislator_id": legislatorID,
		"choice":        string(cmd.Choice),
		"replaced":      replaced,
		"tally":         tally,
	})
	return CastVoteResult{Vote: vote, Tally: tally, Replaced: replaced}, nil
}

func (l VoteLedger) Tally(ctx context.Context, tx ports.Tx, initiativeID string) (entities.Tally, error) {
	if _, err := tx.GetInitiative(ctx, strings.TrimSpace(initiativeID)); err != nil {
		return entities.Tally{}, err
	}
	return liveTally(ctx, tx, strings.TrimSpace(initiativeID))
}
