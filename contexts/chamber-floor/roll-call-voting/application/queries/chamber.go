package queries

import (
	"context"
	"strings"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/services"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

type InitiativeView struct {
	Initiative entities.Initiative
	Status     entities.InitiativeStatus
	// LiveTally is the running count while open and the frozen tally once
	// closed.
	LiveTally entities.Tally
}

type SessionOverview struct {
	Session           entities.Session
	EffectiveState    entities.SessionState
	Initiatives       []InitiativeView
	RollCall          *entities.RollCall
	ActiveLegislators int
	// Quorum is evaluated for the session default (simple majority).
	Quorum services.QuorumStatus
}

type InitiativeTally struct {
	Initiative     entities.Initiative
	Status         entities.InitiativeStatus
	Tally          entities.Tally
	EligibleVoters int
	Votes          []entities.Vote
}

type AttendanceRow struct {
	Legislator entities.Legislator
	State      entities.AttendanceState
}

type RollCallAttendance struct {
	RollCall entities.RollCall
	Rows     []AttendanceRow
}

// ChamberQueries is the read side used by the HTTP layer and the display.
// Reads never persist anything, so an expired pause is reported through
// EffectiveState only.
type ChamberQueries struct {
	Store ports.Store
	Clock ports.Clock
}

func (q ChamberQueries) ActiveSession(ctx context.Context) (SessionOverview, bool, error) {
	var (
		overview SessionOverview
		found    bool
	)
	err := q.Store.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, ok, err := tx.GetActiveSession(ctx)
		if err != nil || !ok {
			return err
		}
		found = true
		overview, err = q.overview(ctx, tx, session)
		return err
	})
	return overview, found, err
}

func (q ChamberQueries) SessionOverview(ctx context.Context, sessionID string) (SessionOverview, error) {
	var overview SessionOverview
	err := q.Store.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.GetSession(ctx, strings.TrimSpace(sessionID))
		if err != nil {
			return err
		}
		overview, err = q.overview(ctx, tx, session)
		return err
	})
	return overview, err
}

func (q ChamberQueries) ListSessions(ctx context.Context) ([]entities.Session, error) {
	var sessions []entities.Session
	err := q.Store.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		sessions, err = tx.ListSessions(ctx)
		return err
	})
	return sessions, err
}

func (q ChamberQueries) InitiativeTally(ctx context.Context, initiativeID string) (InitiativeTally, error) {
	var view InitiativeTally
	err := q.Store.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		initiative, err := tx.GetInitiative(ctx, strings.TrimSpace(initiativeID))
		if err != nil {
			return err
		}
		votes, err := tx.ListVotesByInitiative(ctx, initiative.InitiativeID)
		if err != nil {
			return err
		}
		eligible := initiative.EligibleVoters
		if !initiative.Closed {
			if eligible, err = tx.CountActiveLegislators(ctx); err != nil {
				return err
			}
		}
		view = InitiativeTally{
			Initiative:     initiative,
			Status:         initiative.Status(),
			Tally:          entities.TallyVotes(votes),
			EligibleVoters: eligible,
			Votes:          votes,
		}
		return nil
	})
	return view, err
}

// RollCallAttendance lists every active legislator in seat order, plus any
// inactive one that was marked, with unmarked as the default state.
func (q ChamberQueries) RollCallAttendance(ctx context.Context, rollCallID string) (RollCallAttendance, error) {
	var view RollCallAttendance
	err := q.Store.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		rollCall, err := tx.GetRollCall(ctx, strings.TrimSpace(rollCallID))
		if err != nil {
			return err
		}
		marks, err := tx.ListAttendance(ctx, rollCall.RollCallID)
		if err != nil {
			return err
		}
		byLegislator := make(map[string]entities.AttendanceState, len(marks))
		for _, mark := range marks {
			byLegislator[mark.LegislatorID] = mark.State
		}
		legislators, err := tx.ListLegislators(ctx, false)
		if err != nil {
			return err
		}
		rows := make([]AttendanceRow, 0, len(legislators))
		for _, legislator := range legislators {
			state, marked := byLegislator[legislator.LegislatorID]
			if !legislator.Active && !marked {
				continue
			}
			if !marked {
				state = entities.AttendanceUnmarked
			}
			rows = append(rows, AttendanceRow{Legislator: legislator, State: state})
		}
		view = RollCallAttendance{RollCall: rollCall, Rows: rows}
		return nil
	})
	return view, err
}

func (q ChamberQueries) IsEligibleToVote(ctx context.Context, sessionID string, legislatorID string) (bool, error) {
	var eligible bool
	err := q.Store.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.GetSession(ctx, strings.TrimSpace(sessionID)); err != nil {
			return err
		}
		var err error
		eligible, err = commands.RollCallTracker{}.IsEligibleToVote(ctx, tx,
			strings.TrimSpace(sessionID), strings.TrimSpace(legislatorID))
		return err
	})
	return eligible, err
}

func (q ChamberQueries) QuorumFor(ctx context.Context, sessionID string, rule entities.MajorityRule) (services.QuorumStatus, error) {
	if !rule.Valid() {
		return services.QuorumStatus{}, domainerrors.ErrInvalidMajorityRule
	}
	var status services.QuorumStatus
	err := q.Store.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.GetSession(ctx, strings.TrimSpace(sessionID))
		if err != nil {
			return err
		}
		status, err = commands.RollCallTracker{}.QuorumFor(ctx, tx, session, rule)
		return err
	})
	return status, err
}

func (q ChamberQueries) ListLegislators(ctx context.Context, activeOnly bool) ([]entities.Legislator, error) {
	var legislators []entities.Legislator
	err := q.Store.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		legislators, err = tx.ListLegislators(ctx, activeOnly)
		return err
	})
	return legislators, err
}

func (q ChamberQueries) overview(ctx context.Context, tx ports.Tx, session entities.Session) (SessionOverview, error) {
	initiatives, err := tx.ListInitiativesBySession(ctx, session.SessionID)
	if err != nil {
		return SessionOverview{}, err
	}
	views := make([]InitiativeView, 0, len(initiatives))
	for _, initiative := range initiatives {
		tally := initiative.FinalTally
		if !initiative.Closed {
			votes, err := tx.ListVotesByInitiative(ctx, initiative.InitiativeID)
			if err != nil {
				return SessionOverview{}, err
			}
			tally = entities.TallyVotes(votes)
		}
		views = append(views, InitiativeView{
			Initiative: initiative,
			Status:     initiative.Status(),
			LiveTally:  tally,
		})
	}

	overview := SessionOverview{
		Session:        session,
		EffectiveState: session.EffectiveState(q.Now()),
		Initiatives:    views,
	}
	if rollCall, found, err := tx.GetCurrentRollCall(ctx, session.SessionID); err != nil {
		return SessionOverview{}, err
	} else if found {
		overview.RollCall = &rollCall
	}
	if overview.ActiveLegislators, err = tx.CountActiveLegislators(ctx); err != nil {
		return SessionOverview{}, err
	}
	overview.Quorum, err = commands.RollCallTracker{}.QuorumFor(ctx, tx, session, entities.MajorityRuleSimple)
	if err != nil {
		return SessionOverview{}, err
	}
	return overview, nil
}

// Now is the instant reads evaluate pause expiry against.
func (q ChamberQueries) Now() time.Time {
	if q.Clock == nil {
		return time.Now().UTC()
	}
	return q.Clock.Now().UTC()
}
