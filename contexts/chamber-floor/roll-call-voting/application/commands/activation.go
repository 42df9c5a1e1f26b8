package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/services"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

type ActivateInitiativeCommand struct {
	InitiativeID string
	// Force supersedes another open initiative, which returns to pending.
	Force bool
	// ForceQuorum opens the item even when present legislators fall short.
	ForceQuorum bool
}

type ReopenInitiativeCommand struct {
	InitiativeID string
	ForceQuorum  bool
}

// ActivationGate keeps at most one initiative open per session.
type ActivationGate struct {
	Tracker RollCallTracker
}

func (g ActivationGate) Activate(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	cmd ActivateInitiativeCommand,
) (entities.Initiative, bool, error) {
	session, target, err := g.lockTarget(ctx, tx, now, out, strings.TrimSpace(cmd.InitiativeID))
	if err != nil {
		return entities.Initiative{}, false, err
	}
	if target.Closed {
		return entities.Initiative{}, false, domainerrors.ErrInitiativeClosed.With("initiative_id", target.InitiativeID)
	}
	if target.Open {
		return target, false, nil
	}
	if err := g.requireRollCall(ctx, tx, session.SessionID); err != nil {
		return entities.Initiative{}, false, err
	}

	other, found, err := openInitiative(ctx, tx, session.SessionID, target.InitiativeID)
	if err != nil {
		return entities.Initiative{}, false, err
	}
	if found && !cmd.Force {
		return entities.Initiative{}, false, domainerrors.ErrInitiativeAlreadyOpen.
			With("open_initiative_id", other.InitiativeID).
			With("open_initiative_number", strconv.Itoa(other.Number))
	}
	quorum, err := g.Tracker.QuorumFor(ctx, tx, session, target.MajorityRule)
	if err != nil {
		return entities.Initiative{}, false, err
	}
	if !quorum.Met && !cmd.ForceQuorum {
		return entities.Initiative{}, false, quorumError(quorum)
	}

	superseded := ""
	if found {
		locked, err := tx.LockInitiative(ctx, other.InitiativeID)
		if err != nil {
			return entities.Initiative{}, false, err
		}
		locked.Open = false
		locked.UpdatedAt = now
		if err := tx.SaveInitiative(ctx, locked); err != nil {
			return entities.Initiative{}, false, err
		}
		superseded = locked.InitiativeID
	}

	openedAt := now
	target.Open = true
	target.OpenedAt = &openedAt
	target.UpdatedAt = now
	if err := saveOpened(ctx, tx, target); err != nil {
		return entities.Initiative{}, false, err
	}

	data := initiativePayload(target)
	data["quorum"] = quorum
	data["forced_quorum"] = !quorum.Met
	if superseded != "" {
		data["superseded_initiative_id"] = superseded
	}
	out.emit(EventInitiativeOpened, session.SessionID, data)
	return target, true, nil
}

// Reopen is the administrative Closed -> Open edge. It is only permitted for
// items closed without a decision.
func (g ActivationGate) Reopen(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	cmd ReopenInitiativeCommand,
) (entities.Initiative, error) {
	session, target, err := g.lockTarget(ctx, tx, now, out, strings.TrimSpace(cmd.InitiativeID))
	if err != nil {
		return entities.Initiative{}, err
	}
	if !target.Closed || target.Result != entities.ResultUndecided {
		return entities.Initiative{}, domainerrors.ErrInitiativeNotReopening.
			With("status", string(target.Status())).
			With("result", string(target.Result))
	}
	if err := g.requireRollCall(ctx, tx, session.SessionID); err != nil {
		return entities.Initiative{}, err
	}
	other, found, err := openInitiative(ctx, tx, session.SessionID, target.InitiativeID)
	if err != nil {
		return entities.Initiative{}, err
	}
	if found {
		return entities.Initiative{}, domainerrors.ErrInitiativeAlreadyOpen.
			With("open_initiative_id", other.InitiativeID).
			With("open_initiative_number", strconv.Itoa(other.Number))
	}
	quorum, err := g.Tracker.QuorumFor(ctx, tx, session, target.MajorityRule)
	if err != nil {
		return entities.Initiative{}, err
	}
	if !quorum.Met && !cmd.ForceQuorum {
		return entities.Initiative{}, quorumError(quorum)
	}

	openedAt := now
	target.Open = true
	target.Closed = false
	target.Result = entities.ResultNone
	target.FinalTally = entities.Tally{}
	target.EligibleVoters = 0
	target.OpenedAt = &openedAt
	target.ClosedAt = nil
	target.UpdatedAt = now
	if err := saveOpened(ctx, tx, target); err != nil {
		return entities.Initiative{}, err
	}

	data := initiativePayload(target)
	data["quorum"] = quorum
	out.emit(EventInitiativeReopened, session.SessionID, data)
	return target, nil
}

// Close settles an open initiative. Closing an already closed item replays
// the stored result when it can be re-derived identically.
func (g ActivationGate) Close(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	initiativeID string,
) (entities.Initiative, bool, error) {
	initiative, err := tx.GetInitiative(ctx, strings.TrimSpace(initiativeID))
	if err != nil {
		return entities.Initiative{}, false, err
	}
	if _, err := tx.LockSession(ctx, initiative.SessionID); err != nil {
		return entities.Initiative{}, false, err
	}
	initiative, err = tx.LockInitiative(ctx, initiative.InitiativeID)
	if err != nil {
		return entities.Initiative{}, false, err
	}

	switch initiative.Status() {
	case entities.InitiativeStatusPending:
		return entities.Initiative{}, false, domainerrors.ErrInitiativePending.With("initiative_id", initiative.InitiativeID)
	case entities.InitiativeStatusClosed:
		if err := g.verifyClosed(ctx, tx, initiative); err != nil {
			return entities.Initiative{}, false, err
		}
		return initiative, true, nil
	}

	closed, err := g.closeLocked(ctx, tx, now, out, initiative, false)
	if err != nil {
		return entities.Initiative{}, false, err
	}
	return closed, false, nil
}

// closeLocked computes the result from the live tally and the active
// legislator count. The caller must hold the initiative lock.
func (g ActivationGate) closeLocked(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	initiative entities.Initiative,
	forced bool,
) (entities.Initiative, error) {
	tally, err := liveTally(ctx, tx, initiative.InitiativeID)
	if err != nil {
		return entities.Initiative{}, err
	}
	eligible, err := tx.CountActiveLegislators(ctx)
	if err != nil {
		return entities.Initiative{}, err
	}

	closedAt := now
	initiative.Open = false
	initiative.Closed = true
	initiative.FinalTally = tally
	initiative.EligibleVoters = eligible
	initiative.Result = decide(initiative.MajorityRule, tally, eligible)
	initiative.ClosedAt = &closedAt
	initiative.UpdatedAt = now
	if err := tx.SaveInitiative(ctx, initiative); err != nil {
		return entities.Initiative{}, err
	}

	data := initiativePayload(initiative)
	data["forced"] = forced
	out.emit(EventInitiativeClosed, initiative.SessionID, data)
	return initiative, nil
}

func (g ActivationGate) verifyClosed(ctx context.Context, tx ports.Tx, initiative entities.Initiative) error {
	tally, err := liveTally(ctx, tx, initiative.InitiativeID)
	if err != nil {
		return err
	}
	if tally != initiative.FinalTally ||
		decide(initiative.MajorityRule, tally, initiative.EligibleVoters) != initiative.Result {
		return domainerrors.ErrResultDiverged.With("initiative_id", initiative.InitiativeID)
	}
	return nil
}

// lockTarget locks the owning session, settles an expired pause and then
// locks the initiative. The session must be started.
func (g ActivationGate) lockTarget(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	initiativeID string,
) (entities.Session, entities.Initiative, error) {
	initiative, err := tx.GetInitiative(ctx, initiativeID)
	if err != nil {
		return entities.Session{}, entities.Initiative{}, err
	}
	session, err := tx.LockSession(ctx, initiative.SessionID)
	if err != nil {
		return entities.Session{}, entities.Initiative{}, err
	}
	session, err = settleLocked(ctx, tx, now, out, session)
	if err != nil {
		return entities.Session{}, entities.Initiative{}, err
	}
	if session.State != entities.SessionStateStarted {
		return entities.Session{}, entities.Initiative{}, domainerrors.ErrSessionNotStarted.With("state", string(session.State))
	}
	initiative, err = tx.LockInitiative(ctx, initiative.InitiativeID)
	if err != nil {
		return entities.Session{}, entities.Initiative{}, err
	}
	return session, initiative, nil
}

func (g ActivationGate) requireRollCall(ctx context.Context, tx ports.Tx, sessionID string) error {
	current, found, err := tx.GetCurrentRollCall(ctx, sessionID)
	if err != nil {
		return err
	}
	if !found || current.Finalized || !current.Confirmed || !current.Recorded() {
		return domainerrors.ErrRollCallMissing.With("session_id", sessionID)
	}
	return nil
}

func openInitiative(
	ctx context.Context,
	tx ports.Tx,
	sessionID string,
	exceptID string,
) (entities.Initiative, bool, error) {
	initiatives, err := tx.ListInitiativesBySession(ctx, sessionID)
	if err != nil {
		return entities.Initiative{}, false, err
	}
	for _, initiative := range initiatives {
		if initiative.Open && initiative.InitiativeID != exceptID {
			return initiative, true, nil
		}
	}
	return entities.Initiative{}, false, nil
}

// saveOpened maps a lost race on the per-session open slot to a conflict.
func saveOpened(ctx context.Context, tx ports.Tx, initiative entities.Initiative) error {
	err := tx.SaveInitiative(ctx, initiative)
	if errors.Is(err, domainerrors.ErrDuplicate) {
		return domainerrors.ErrInitiativeAlreadyOpen
	}
	return err
}

func liveTally(ctx context.Context, tx ports.Tx, initiativeID string) (entities.Tally, error) {
	votes, err := tx.ListVotesByInitiative(ctx, initiativeID)
	if err != nil {
		return entities.Tally{}, err
	}
	return entities.TallyVotes(votes), nil
}

// decide is Evaluate plus the undecided sentinel for items closed without a
// single vote cast.
func decide(rule entities.MajorityRule, tally entities.Tally, eligible int) entities.Result {
	if tally.Total() == 0 {
		return entities.ResultUndecided
	}
	return services.Evaluate(rule, tally, eligible)
}
