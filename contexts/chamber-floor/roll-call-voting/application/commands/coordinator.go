package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "plenary/contexts/chamber-floor/roll-call-voting/application"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/services"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

// Actor is the caller as resolved by the identity provider.
type Actor struct {
	ActorID string
	Role    string
}

type StartSessionCommand struct {
	SessionID string
	// Supersede closes another active session first. Presiding officers only.
	Supersede bool
}

type PreparedSession struct {
	Session     entities.Session
	Initiatives []entities.Initiative
}

type ClosedSession struct {
	Session     entities.Session
	ForceClosed []entities.Initiative
}

type CloseInitiativeResult struct {
	Initiative entities.Initiative
	Replayed   bool
}

// Coordinator is the only entry point for mutations. Each call runs the
// capability check, the mutation and the outbox append in one transaction.
type Coordinator struct {
	Store   ports.Store
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (c Coordinator) tracker() RollCallTracker {
	return RollCallTracker{IDGen: c.IDGen}
}

func (c Coordinator) gate() ActivationGate {
	return ActivationGate{Tracker: c.tracker()}
}

func (c Coordinator) lifecycle() SessionLifecycle {
	return SessionLifecycle{IDGen: c.IDGen, Tracker: c.tracker(), Gate: c.gate()}
}

func (c Coordinator) ledger() VoteLedger {
	return VoteLedger{Tracker: c.tracker()}
}

type mutation func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error

func (c Coordinator) run(
	ctx context.Context,
	operation string,
	actor Actor,
	capability services.Capability,
	attrs []any,
	fn mutation,
) error {
	logger := application.ResolveLogger(c.Logger)
	started := time.Now()
	base := append([]any{
		"module", application.Module,
		"layer", "application",
		"actor_id", strings.TrimSpace(actor.ActorID),
		"actor_role", strings.TrimSpace(actor.Role),
	}, attrs...)

	err := services.Authorize(actor.Role, capability)
	published := 0
	if err == nil {
		now := c.now()
		err = c.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
			out := &outcome{}
			if err := fn(ctx, tx, now, out); err != nil {
				return err
			}
			for _, pending := range out.events {
				eventID, err := c.IDGen.NewID(ctx)
				if err != nil {
					return err
				}
				partitionKey := pending.sessionID
				if partitionKey == "" {
					partitionKey = "registry"
				}
				envelope, err := newChamberEnvelope(eventID, pending.eventType, partitionKey, now, pending.data)
				if err != nil {
					return err
				}
				if err := tx.AppendOutbox(ctx, envelope); err != nil {
					return err
				}
			}
			published = len(out.events)
			return nil
		})
	}

	label := "ok"
	switch {
	case err == nil:
		logger.Info(operation+" committed",
			append([]any{"event", "plenary_" + operation + "_committed", "outbox_events", published}, base...)...,
		)
	case domainerrors.KindOf(err) != "":
		label = string(domainerrors.KindOf(err))
		logger.Warn(operation+" rejected",
			append([]any{
				"event", "plenary_" + operation + "_rejected",
				"kind", label,
				"error", err.Error(),
			}, base...)...,
		)
	default:
		label = "error"
		logger.Error(operation+" failed",
			append([]any{"event", "plenary_" + operation + "_failed", "error", err.Error()}, base...)...,
		)
	}
	if c.Metrics != nil {
		c.Metrics.ObserveCommand(operation, label, time.Since(started))
	}
	return err
}

func (c Coordinator) PrepareSession(ctx context.Context, actor Actor, cmd PrepareSessionCommand) (PreparedSession, error) {
	var result PreparedSession
	err := c.run(ctx, "session_prepare", actor, services.CapabilitySessionPrepare,
		[]any{"code", strings.TrimSpace(cmd.Code), "agenda_size", len(cmd.Agenda)},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			session, initiatives, err := c.lifecycle().Prepare(ctx, tx, now, out, cmd)
			result = PreparedSession{Session: session, Initiatives: initiatives}
			return err
		})
	return result, err
}

func (c Coordinator) StartSession(ctx context.Context, actor Actor, cmd StartSessionCommand) (entities.Session, error) {
	capability := services.CapabilitySessionDrive
	if cmd.Supersede {
		capability = services.CapabilitySessionSupersede
	}
	var session entities.Session
	err := c.run(ctx, "session_start", actor, capability,
		[]any{"session_id", strings.TrimSpace(cmd.SessionID), "supersede", cmd.Supersede},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			var err error
			session, err = c.lifecycle().Start(ctx, tx, now, out, strings.TrimSpace(cmd.SessionID), actor.ActorID, cmd.Supersede)
			return err
		})
	return session, err
}

// PauseSession pauses a started session. minutes of zero pauses until an
// explicit resume.
func (c Coordinator) PauseSession(ctx context.Context, actor Actor, sessionID string, minutes int) (entities.Session, error) {
	var session entities.Session
	err := c.run(ctx, "session_pause", actor, services.CapabilitySessionDrive,
		[]any{"session_id", strings.TrimSpace(sessionID), "minutes", minutes},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			var err error
			session, err = c.lifecycle().Pause(ctx, tx, now, out, strings.TrimSpace(sessionID), minutes)
			return err
		})
	return session, err
}

func (c Coordinator) ResumeSession(ctx context.Context, actor Actor, sessionID string) (entities.Session, error) {
	var session entities.Session
	err := c.run(ctx, "session_resume", actor, services.CapabilitySessionDrive,
		[]any{"session_id", strings.TrimSpace(sessionID)},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			var err error
			session, err = c.lifecycle().Resume(ctx, tx, now, out, strings.TrimSpace(sessionID))
			return err
		})
	return session, err
}

func (c Coordinator) CloseSession(ctx context.Context, actor Actor, sessionID string) (ClosedSession, error) {
	var result ClosedSession
	err := c.run(ctx, "session_close", actor, services.CapabilitySessionDrive,
		[]any{"session_id", strings.TrimSpace(sessionID)},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			session, forced, err := c.lifecycle().Close(ctx, tx, now, out, strings.TrimSpace(sessionID), actor.ActorID, "closed")
			result = ClosedSession{Session: session, ForceClosed: forced}
			return err
		})
	return result, err
}

func (c Coordinator) CreateRollCall(ctx context.Context, actor Actor, sessionID string) (entities.RollCall, error) {
	var rollCall entities.RollCall
	err := c.run(ctx, "rollcall_create", actor, services.CapabilityRollCallManage,
		[]any{"session_id", strings.TrimSpace(sessionID)},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			var err error
			rollCall, err = c.tracker().Create(ctx, tx, now, out, sessionID)
			return err
		})
	return rollCall, err
}

func (c Coordinator) MarkAttendance(ctx context.Context, actor Actor, cmd MarkAttendanceCommand) (entities.RollCall, error) {
	var rollCall entities.RollCall
	err := c.run(ctx, "attendance_mark", actor, services.CapabilityRollCallManage,
		[]any{
			"roll_call_id", strings.TrimSpace(cmd.RollCallID),
			"legislator_id", strings.TrimSpace(cmd.LegislatorID),
			"attendance", string(cmd.State),
		},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			var err error
			rollCall, _, err = c.tracker().Mark(ctx, tx, now, out, cmd, actor.ActorID)
			return err
		})
	return rollCall, err
}

func (c Coordinator) ConfirmRollCall(ctx context.Context, actor Actor, rollCallID string) (entities.RollCall, error) {
	var rollCall entities.RollCall
	err := c.run(ctx, "rollcall_confirm", actor, services.CapabilityRollCallManage,
		[]any{"roll_call_id", strings.TrimSpace(rollCallID)},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			var err error
			rollCall, err = c.tracker().Confirm(ctx, tx, now, out, rollCallID)
			return err
		})
	return rollCall, err
}

// ActivateInitiative opens an item for voting. A conflict or quorum error
// carries the context the operator needs to confirm with Force/ForceQuorum.
func (c Coordinator) ActivateInitiative(ctx context.Context, actor Actor, cmd ActivateInitiativeCommand) (entities.Initiative, error) {
	var initiative entities.Initiative
	err := c.run(ctx, "initiative_activate", actor, services.CapabilityInitiativeActivate,
		[]any{
			"initiative_id", strings.TrimSpace(cmd.InitiativeID),
			"force", cmd.Force,
			"force_quorum", cmd.ForceQuorum,
		},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			var err error
			initiative, _, err = c.gate().Activate(ctx, tx, now, out, cmd)
			return err
		})
	return initiative, err
}

func (c Coordinator) CloseInitiative(ctx context.Context, actor Actor, initiativeID string) (CloseInitiativeResult, error) {
	var result CloseInitiativeResult
	err := c.run(ctx, "initiative_close", actor, services.CapabilityInitiativeClose,
		[]any{"initiative_id", strings.TrimSpace(initiativeID)},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			initiative, replayed, err := c.gate().Close(ctx, tx, now, out, initiativeID)
			result = CloseInitiativeResult{Initiative: initiative, Replayed: replayed}
			return err
		})
	return result, err
}

func (c Coordinator) ReopenInitiative(ctx context.Context, actor Actor, cmd ReopenInitiativeCommand) (entities.Initiative, error) {
	var initiative entities.Initiative
	err := c.run(ctx, "initiative_reopen", actor, services.CapabilityInitiativeReopen,
		[]any{"initiative_id", strings.TrimSpace(cmd.InitiativeID), "force_quorum", cmd.ForceQuorum},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			var err error
			initiative, err = c.gate().Reopen(ctx, tx, now, out, cmd)
			return err
		})
	return initiative, err
}

// CastVote records the actor's own vote. An empty LegislatorID defaults to
// the actor.
func (c Coordinator) CastVote(ctx context.Context, actor Actor, cmd CastVoteCommand) (CastVoteResult, error) {
	if strings.TrimSpace(cmd.LegislatorID) == "" {
		cmd.LegislatorID = actor.ActorID
	}
	var result CastVoteResult
	err := c.run(ctx, "vote_cast", actor, services.CapabilityVoteCast,
		[]any{
			"initiative_id", strings.TrimSpace(cmd.InitiativeID),
			"legislator_id", strings.TrimSpace(cmd.LegislatorID),
			"choice", string(cmd.Choice),
		},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			if strings.TrimSpace(cmd.LegislatorID) != strings.TrimSpace(actor.ActorID) {
				return domainerrors.ErrVoteOnBehalf
			}
			var err error
			result, err = c.ledger().Cast(ctx, tx, now, out, cmd)
			return err
		})
	if err == nil && c.Metrics != nil {
		c.Metrics.ObserveVote(result.Vote.Choice)
	}
	return result, err
}

// SetLegislatorActive flips the one registry field this service owns.
func (c Coordinator) SetLegislatorActive(ctx context.Context, actor Actor, legislatorID string, active bool) (entities.Legislator, error) {
	var legislator entities.Legislator
	err := c.run(ctx, "legislator_set_active", actor, services.CapabilityLegislatorManage,
		[]any{"legislator_id", strings.TrimSpace(legislatorID), "active", active},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			var err error
			legislator, err = tx.GetLegislator(ctx, strings.TrimSpace(legislatorID))
			if err != nil {
				return err
			}
			if legislator.Active == active {
				return nil
			}
			if !active {
				if err := ensureUnseated(ctx, tx, legislator.LegislatorID); err != nil {
					return err
				}
			}
			legislator.Active = active
			if err := tx.SaveLegislator(ctx, legislator); err != nil {
				return err
			}
			out.emit(EventLegislatorUpdated, "", legislatorPayload(legislator))
			return nil
		})
	return legislator, err
}

// RegisterLegislators upserts a roster snapshot from the external registry.
func (c Coordinator) RegisterLegislators(ctx context.Context, actor Actor, roster []entities.Legislator) (int, error) {
	changed := 0
	err := c.run(ctx, "legislators_register", actor, services.CapabilityLegislatorManage,
		[]any{"roster_size", len(roster)},
		func(ctx context.Context, tx ports.Tx, now time.Time, out *outcome) error {
			changed = 0
			seen := make(map[string]struct{}, len(roster))
			for _, item := range roster {
				item.LegislatorID = strings.TrimSpace(item.LegislatorID)
				item.DisplayName = strings.TrimSpace(item.DisplayName)
				if item.LegislatorID == "" || item.DisplayName == "" {
					return domainerrors.ErrInvalidInput.With("legislator_id", item.LegislatorID)
				}
				if _, dup := seen[item.LegislatorID]; dup {
					return domainerrors.ErrInvalidInput.With("duplicate_legislator_id", item.LegislatorID)
				}
				seen[item.LegislatorID] = struct{}{}

				existing, err := tx.GetLegislator(ctx, item.LegislatorID)
				if err == nil && existing == item {
					continue
				}
				if err != nil && domainerrors.KindOf(err) != domainerrors.KindNotFound {
					return err
				}
				if err == nil && existing.Active && !item.Active {
					if err := ensureUnseated(ctx, tx, item.LegislatorID); err != nil {
						return err
					}
				}
				if err := tx.SaveLegislator(ctx, item); err != nil {
					return err
				}
				out.emit(EventLegislatorUpdated, "", legislatorPayload(item))
				changed++
			}
			return nil
		})
	return changed, err
}

// ensureUnseated refuses a deactivation that would leave the active sitting
// counting someone who can no longer vote: a present mark in the current roll
// call, or a vote on an initiative that can still be closed.
// The session lock serializes it with attendance marks.
func ensureUnseated(ctx context.Context, tx ports.Tx, legislatorID string) error {
	active, found, err := tx.GetActiveSession(ctx)
	if err != nil || !found {
		return err
	}
	session, err := tx.LockSession(ctx, active.SessionID)
	if err != nil {
		return err
	}
	current, found, err := tx.GetCurrentRollCall(ctx, session.SessionID)
	if err != nil {
		return err
	}
	if found {
		attendance, marked, err := tx.GetAttendance(ctx, current.RollCallID, legislatorID)
		if err != nil {
			return err
		}
		if marked && attendance.State == entities.AttendancePresent {
			return domainerrors.ErrLegislatorSeated.
				With("legislator_id", legislatorID).
				With("roll_call_id", current.RollCallID)
		}
	}
	initiatives, err := tx.ListInitiativesBySession(ctx, session.SessionID)
	if err != nil {
		return err
	}
	for _, initiative := range initiatives {
		if initiative.Closed && initiative.Result != entities.ResultUndecided {
			continue
		}
		_, voted, err := tx.GetVote(ctx, initiative.InitiativeID, legislatorID)
		if err != nil {
			return err
		}
		if voted {
			return domainerrors.ErrLegislatorSeated.
				With("legislator_id", legislatorID).
				With("initiative_id", initiative.InitiativeID)
		}
	}
	return nil
}

func (c Coordinator) now() time.Time {
	if c.Clock == nil {
		return time.Now().UTC()
	}
	return c.Clock.Now().UTC()
}

func legislatorPayload(legislator entities.Legislator) map[string]any {
	return map[string]any{
		"legislator_id": legislator.LegislatorID,
		"display_name":  legislator.DisplayName,
		"party":         legislator.Party,
		"seat_order":    legislator.SeatOrder,
		"active":        legislator.Active,
	}
}
