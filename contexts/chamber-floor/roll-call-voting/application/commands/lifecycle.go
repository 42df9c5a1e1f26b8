package commands

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

// AgendaItem is one initiative as produced by the agenda loader.
type AgendaItem struct {
	Number       int
	Title        string
	MajorityRule entities.MajorityRule
}

type PrepareSessionCommand struct {
	Code            string
	QuorumThreshold int
	Agenda          []AgendaItem
}

// SessionLifecycle drives prepared -> started -> paused <-> started -> closed.
type SessionLifecycle struct {
	IDGen   ports.IDGenerator
	Tracker RollCallTracker
	Gate    ActivationGate
}

func (l SessionLifecycle) Prepare(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	cmd PrepareSessionCommand,
) (entities.Session, []entities.Initiative, error) {
	code := strings.TrimSpace(cmd.Code)
	if code == "" || cmd.QuorumThreshold < 0 {
		return entities.Session{}, nil, domainerrors.ErrInvalidInput
	}
	if len(cmd.Agenda) == 0 {
		return entities.Session{}, nil, domainerrors.ErrEmptyAgenda
	}
	seen := make(map[int]struct{}, len(cmd.Agenda))
	for _, item := range cmd.Agenda {
		if !item.MajorityRule.Valid() {
			return entities.Session{}, nil, domainerrors.ErrInvalidMajorityRule.With("number", strconv.Itoa(item.Number))
		}
		if item.Number <= 0 || strings.TrimSpace(item.Title) == "" {
			return entities.Session{}, nil, domainerrors.ErrInvalidAgenda.With("number", strconv.Itoa(item.Number))
		}
		if _, dup := seen[item.Number]; dup {
			return entities.Session{}, nil, domainerrors.ErrInvalidAgenda.With("duplicate_number", strconv.Itoa(item.Number))
		}
		seen[item.Number] = struct{}{}
	}

	sessionID, err := l.IDGen.NewID(ctx)
	if err != nil {
		return entities.Session{}, nil, err
	}
	session := entities.Session{
		SessionID:       sessionID,
		Code:            code,
		State:           entities.SessionStatePrepared,
		QuorumThreshold: cmd.QuorumThreshold,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tx.CreateSession(ctx, session); err != nil {
		return entities.Session{}, nil, err
	}

	agenda := append([]AgendaItem(nil), cmd.Agenda...)
	sort.Slice(agenda, func(i, j int) bool { return agenda[i].Number < agenda[j].Number })
	initiatives := make([]entities.Initiative, 0, len(agenda))
	for _, item := range agenda {
		initiativeID, err := l.IDGen.NewID(ctx)
		if err != nil {
			return entities.Session{}, nil, err
		}
		initiative := entities.Initiative{
			InitiativeID: initiativeID,
			SessionID:    sessionID,
			Number:       item.Number,
			Title:        strings.TrimSpace(item.Title),
			MajorityRule: item.MajorityRule,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.CreateInitiative(ctx, initiative); err != nil {
			return entities.Session{}, nil, err
		}
		initiatives = append(initiatives, initiative)
	}

	data := sessionPayload(session)
	data["initiative_count"] = len(initiatives)
	out.emit(EventSessionPrepared, sessionID, data)
	return session, initiatives, nil
}

func (l SessionLifecycle) Start(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	sessionID string,
	actorID string,
	supersede bool,
) (entities.Session, error) {
	session, err := tx.LockSession(ctx, sessionID)
	if err != nil {
		return entities.Session{}, err
	}
	if session.State != entities.SessionStatePrepared {
		return entities.Session{}, domainerrors.ErrSessionStateConflict.With("state", string(session.State))
	}
	initiatives, err := tx.ListInitiativesBySession(ctx, session.SessionID)
	if err != nil {
		return entities.Session{}, err
	}
	if len(initiatives) == 0 {
		return entities.Session{}, domainerrors.ErrEmptyAgenda
	}

	superseded := ""
	active, found, err := tx.GetActiveSession(ctx)
	if err != nil {
		return entities.Session{}, err
	}
	if found && active.SessionID != session.SessionID {
		if !supersede {
			return entities.Session{}, domainerrors.ErrSessionActive.With("active_session_id", active.SessionID)
		}
		if _, _, err := l.Close(ctx, tx, now, out, active.SessionID, actorID, "superseded"); err != nil {
			return entities.Session{}, err
		}
		superseded = active.SessionID
	}

	startedAt := now
	session.State = entities.SessionStateStarted
	session.StartedAt = &startedAt
	session.StartedBy = strings.TrimSpace(actorID)
	session.UpdatedAt = now
	if err := tx.SaveSession(ctx, session); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicate) {
			return entities.Session{}, domainerrors.ErrSessionActive
		}
		return entities.Session{}, err
	}
	rollCall, _, err := l.Tracker.ensureOpen(ctx, tx, now, session.SessionID)
	if err != nil {
		return entities.Session{}, err
	}

	data := sessionPayload(session)
	data["roll_call_id"] = rollCall.RollCallID
	data["started_by"] = session.StartedBy
	if superseded != "" {
		data["superseded_session_id"] = superseded
	}
	out.emit(EventSessionStarted, session.SessionID, data)
	return session, nil
}

func (l SessionLifecycle) Pause(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	sessionID string,
	minutes int,
) (entities.Session, error) {
	if minutes < 0 {
		return entities.Session{}, domainerrors.ErrInvalidInput.With("minutes", strconv.Itoa(minutes))
	}
	session, err := tx.LockSession(ctx, sessionID)
	if err != nil {
		return entities.Session{}, err
	}
	session, err = settleLocked(ctx, tx, now, out, session)
	if err != nil {
		return entities.Session{}, err
	}
	if session.State != entities.SessionStateStarted {
		return entities.Session{}, domainerrors.ErrSessionStateConflict.With("state", string(session.State))
	}
	pausedAt := now
	session.State = entities.SessionStatePaused
	session.PausedAt = &pausedAt
	session.PauseExpiresAt = nil
	if minutes > 0 {
		expiresAt := now.Add(time.Duration(minutes) * time.Minute)
		session.PauseExpiresAt = &expiresAt
	}
	session.UpdatedAt = now
	if err := tx.SaveSession(ctx, session); err != nil {
		return entities.Session{}, err
	}
	data := sessionPayload(session)
	data["minutes"] = minutes
	out.emit(EventSessionPaused, session.SessionID, data)
	return session, nil
}

func (l SessionLifecycle) Resume(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	sessionID string,
) (entities.Session, error) {
	session, err := tx.LockSession(ctx, sessionID)
	if err != nil {
		return entities.Session{}, err
	}
	if session.State != entities.SessionStatePaused {
		return entities.Session{}, domainerrors.ErrSessionStateConflict.With("state", string(session.State))
	}
	session.Resume(now)
	if err := tx.SaveSession(ctx, session); err != nil {
		return entities.Session{}, err
	}
	data := sessionPayload(session)
	data["reason"] = "manual"
	out.emit(EventSessionResumed, session.SessionID, data)
	return session, nil
}

// Close force-closes the open initiative, finalizes the roll call and ends
// the session. It is irreversible.
func (l SessionLifecycle) Close(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	sessionID string,
	actorID string,
	reason string,
) (entities.Session, []entities.Initiative, error) {
	session, err := tx.LockSession(ctx, sessionID)
	if err != nil {
		return entities.Session{}, nil, err
	}
	if !session.Active() {
		return entities.Session{}, nil, domainerrors.ErrSessionStateConflict.With("state", string(session.State))
	}
	initiatives, err := tx.ListInitiativesBySession(ctx, session.SessionID)
	if err != nil {
		return entities.Session{}, nil, err
	}
	forced := make([]entities.Initiative, 0, 1)
	for _, initiative := range initiatives {
		if !initiative.Open {
			continue
		}
		locked, err := tx.LockInitiative(ctx, initiative.InitiativeID)
		if err != nil {
			return entities.Session{}, nil, err
		}
		closed, err := l.Gate.closeLocked(ctx, tx, now, out, locked, true)
		if err != nil {
			return entities.Session{}, nil, err
		}
		forced = append(forced, closed)
	}
	if err := l.Tracker.finalize(ctx, tx, now, session.SessionID); err != nil {
		return entities.Session{}, nil, err
	}

	closedAt := now
	session.State = entities.SessionStateClosed
	session.ClosedAt = &closedAt
	session.ClosedBy = strings.TrimSpace(actorID)
	session.PausedAt = nil
	session.PauseExpiresAt = nil
	session.UpdatedAt = now
	if err := tx.SaveSession(ctx, session); err != nil {
		return entities.Session{}, nil, err
	}

	forcedIDs := make([]string, 0, len(forced))
	for _, initiative := range forced {
		forcedIDs = append(forcedIDs, initiative.InitiativeID)
	}
	data := sessionPayload(session)
	data["closed_by"] = session.ClosedBy
	data["reason"] = reason
	data["force_closed_initiatives"] = forcedIDs
	out.emit(EventSessionClosed, session.SessionID, data)
	return session, forced, nil
}

// settleSession persists the auto-resume of an expired pause. The session is
// re-read under lock so concurrent callers emit session.resumed only once.
func settleSession(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	session entities.Session,
) (entities.Session, error) {
	if !session.PauseExpired(now) {
		return session, nil
	}
	locked, err := tx.LockSession(ctx, session.SessionID)
	if err != nil {
		return entities.Session{}, err
	}
	return settleLocked(ctx, tx, now, out, locked)
}

func settleLocked(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	out *outcome,
	session entities.Session,
) (entities.Session, error) {
	if !session.PauseExpired(now) {
		return session, nil
	}
	session.Resume(now)
	if err := tx.SaveSession(ctx, session); err != nil {
		return entities.Session{}, err
	}
	data := sessionPayload(session)
	data["reason"] = "pause_expired"
	out.emit(EventSessionResumed, session.SessionID, data)
	return session, nil
}
