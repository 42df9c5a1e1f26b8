package commands

import (
	"context"
	"strconv"
	"strings"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/services"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

type MarkAttendanceCommand struct {
	RollCallID   string
	LegislatorID string
	State        entities.AttendanceState
}

// RollCallTracker owns attendance and is the only place that answers
// "may this legislator vote right now".
type RollCallTracker struct {
	IDGen ports.IDGenerator
}

func (t RollCallTracker) Create(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	sessionID string,
) (entities.RollCall, error) {
	session, err := tx.LockSession(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return entities.RollCall{}, err
	}
	session, err = settleLocked(ctx, tx, now, out, session)
	if err != nil {
		return entities.RollCall{}, err
	}
	if !session.Active() {
		return entities.RollCall{}, domainerrors.ErrSessionNotStarted.With("state", string(session.State))
	}
	rollCall, created, err := t.ensureOpen(ctx, tx, now, session.SessionID)
	if err != nil {
		return entities.RollCall{}, err
	}
	if created {
		out.emit(EventRollCallOpened, session.SessionID, rollCallPayload(rollCall))
	}
	return rollCall, nil
}

// ensureOpen returns the session's non-finalized roll call, creating one when
// none exists. The caller must hold the session lock.
func (t RollCallTracker) ensureOpen(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	sessionID string,
) (entities.RollCall, bool, error) {
	current, found, err := tx.GetCurrentRollCall(ctx, sessionID)
	if err != nil {
		return entities.RollCall{}, false, err
	}
	if found && !current.Finalized {
		return current, false, nil
	}
	rollCallID, err := t.IDGen.NewID(ctx)
	if err != nil {
		return entities.RollCall{}, false, err
	}
	rollCall := entities.RollCall{
		RollCallID: rollCallID,
		SessionID:  sessionID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.CreateRollCall(ctx, rollCall); err != nil {
		return entities.RollCall{}, false, err
	}
	return rollCall, true, nil
}

func (t RollCallTracker) Mark(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	cmd MarkAttendanceCommand,
	markedBy string,
) (entities.RollCall, entities.Attendance, error) {
	if !cmd.State.Valid() {
		return entities.RollCall{}, entities.Attendance{}, domainerrors.ErrInvalidAttendance
	}
	rollCall, err := t.lockRollCall(ctx, tx, strings.TrimSpace(cmd.RollCallID))
	if err != nil {
		return entities.RollCall{}, entities.Attendance{}, err
	}
	legislator, err := tx.GetLegislator(ctx, strings.TrimSpace(cmd.LegislatorID))
	if err != nil {
		return entities.RollCall{}, entities.Attendance{}, err
	}
	if !legislator.Active {
		return entities.RollCall{}, entities.Attendance{}, domainerrors.ErrLegislatorInactive.With("legislator_id", legislator.LegislatorID)
	}

	attendance := entities.Attendance{
		RollCallID:   rollCall.RollCallID,
		LegislatorID: legislator.LegislatorID,
		State:        cmd.State,
		MarkedBy:     strings.TrimSpace(markedBy),
		UpdatedAt:    now,
	}
	if err := tx.UpsertAttendance(ctx, attendance); err != nil {
		return entities.RollCall{}, entities.Attendance{}, err
	}
	rollCall, err = t.recount(ctx, tx, now, rollCall)
	if err != nil {
		return entities.RollCall{}, entities.Attendance{}, err
	}

	data := rollCallPayload(rollCall)
	data["legislator_id"] = attendance.LegislatorID
	data["attendance"] = string(attendance.State)
	out.emit(EventAttendanceUpdated, rollCall.SessionID, data)
	return rollCall, attendance, nil
}

// Confirm freezes the current counts. Marks made afterwards are still
// accepted and re-derive the counts.
func (t RollCallTracker) Confirm(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	rollCallID string,
) (entities.RollCall, error) {
	rollCall, err := t.lockRollCall(ctx, tx, strings.TrimSpace(rollCallID))
	if err != nil {
		return entities.RollCall{}, err
	}
	confirmedAt := now
	rollCall.Confirmed = true
	rollCall.ConfirmedAt = &confirmedAt
	rollCall, err = t.recount(ctx, tx, now, rollCall)
	if err != nil {
		return entities.RollCall{}, err
	}
	out.emit(EventRollCallConfirmed, rollCall.SessionID, rollCallPayload(rollCall))
	return rollCall, nil
}

// lockRollCall takes the owning session's lock before re-reading the roll
// call so attendance writes serialize with activation and close.
func (t RollCallTracker) lockRollCall(ctx context.Context, tx ports.Tx, rollCallID string) (entities.RollCall, error) {
	rollCall, err := tx.GetRollCall(ctx, rollCallID)
	if err != nil {
		return entities.RollCall{}, err
	}
	if _, err := tx.LockSession(ctx, rollCall.SessionID); err != nil {
		return entities.RollCall{}, err
	}
	rollCall, err = tx.GetRollCall(ctx, rollCallID)
	if err != nil {
		return entities.RollCall{}, err
	}
	if rollCall.Finalized {
		return entities.RollCall{}, domainerrors.ErrRollCallFinalized.With("roll_call_id", rollCall.RollCallID)
	}
	return rollCall, nil
}

func (t RollCallTracker) recount(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	rollCall entities.RollCall,
) (entities.RollCall, error) {
	rows, err := tx.ListAttendance(ctx, rollCall.RollCallID)
	if err != nil {
		return entities.RollCall{}, err
	}
	rollCall.PresentCount, rollCall.AbsentCount = entities.CountAttendance(rows)
	rollCall.UpdatedAt = now
	if err := tx.SaveRollCall(ctx, rollCall); err != nil {
		return entities.RollCall{}, err
	}
	return rollCall, nil
}

func (t RollCallTracker) finalize(ctx context.Context, tx ports.Tx, now time.Time, sessionID string) error {
	current, found, err := tx.GetCurrentRollCall(ctx, sessionID)
	if err != nil || !found || current.Finalized {
		return err
	}
	current.Finalized = true
	current.UpdatedAt = now
	return tx.SaveRollCall(ctx, current)
}

// IsEligibleToVote is true iff the session's current roll call has the
// legislator marked present.
func (t RollCallTracker) IsEligibleToVote(
	ctx context.Context,
	tx ports.Tx,
	sessionID string,
	legislatorID string,
) (bool, error) {
	current, found, err := tx.GetCurrentRollCall(ctx, sessionID)
	if err != nil || !found {
		return false, err
	}
	attendance, found, err := tx.GetAttendance(ctx, current.RollCallID, legislatorID)
	if err != nil || !found {
		return false, err
	}
	return attendance.State == entities.AttendancePresent, nil
}

// HasQuorum compares the current roll call's present-count with required.
func (t RollCallTracker) HasQuorum(
	ctx context.Context,
	tx ports.Tx,
	sessionID string,
	required int,
) (services.QuorumStatus, error) {
	present := 0
	current, found, err := tx.GetCurrentRollCall(ctx, sessionID)
	if err != nil {
		return services.QuorumStatus{}, err
	}
	if found {
		present = current.PresentCount
	}
	return services.CheckQuorum(present, required), nil
}

// QuorumFor evaluates quorum for an item of the given majority rule.
func (t RollCallTracker) QuorumFor(
	ctx context.Context,
	tx ports.Tx,
	session entities.Session,
	rule entities.MajorityRule,
) (services.QuorumStatus, error) {
	active, err := tx.CountActiveLegislators(ctx)
	if err != nil {
		return services.QuorumStatus{}, err
	}
	required := services.RequiredQuorum(rule, session.QuorumThreshold, active)
	return t.HasQuorum(ctx, tx, session.SessionID, required)
}

func quorumError(status services.QuorumStatus) error {
	return domainerrors.ErrQuorumNotMet.
		With("present", strconv.Itoa(status.Present)).
		With("required", strconv.Itoa(status.Required)).
		With("shortfall", strconv.Itoa(status.Shortfall))
}
