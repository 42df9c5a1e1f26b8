package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	"plenary/contexts/chamber-floor/roll-call-voting/application/queries"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/services"
	httptransport "plenary/contexts/chamber-floor/roll-call-voting/transport/http"
)

type Handler struct {
	Coordinator commands.Coordinator
	Queries     queries.ChamberQueries
	Logger      *slog.Logger
}

func (h Handler) PrepareSessionHandler(
	ctx context.Context,
	actor commands.Actor,
	req httptransport.PrepareSessionRequest,
) (httptransport.PrepareSessionResponse, error) {
	cmd := commands.PrepareSessionCommand{
		Code:            req.Code,
		QuorumThreshold: req.QuorumThreshold,
		Agenda:          make([]commands.AgendaItem, 0, len(req.Initiatives)),
	}
	for _, item := range req.Initiatives {
		rule := entities.MajorityRule(strings.ToLower(strings.TrimSpace(item.MajorityRule)))
		if rule == "" {
			rule = entities.MajorityRuleSimple
		}
		cmd.Agenda = append(cmd.Agenda, commands.AgendaItem{
			Number:       item.Number,
			Title:        item.Title,
			MajorityRule: rule,
		})
	}
	prepared, err := h.Coordinator.PrepareSession(ctx, actor, cmd)
	if err != nil {
		return httptransport.PrepareSessionResponse{}, err
	}
	return httptransport.PrepareSessionResponse{
		Session:     mapSession(prepared.Session, prepared.Session.State),
		Initiatives: mapInitiatives(prepared.Initiatives),
	}, nil
}

func (h Handler) StartSessionHandler(
	ctx context.Context,
	actor commands.Actor,
	sessionID string,
	req httptransport.StartSessionRequest,
) (httptransport.SessionResponse, error) {
	session, err := h.Coordinator.StartSession(ctx, actor, commands.StartSessionCommand{
		SessionID: sessionID,
		Supersede: req.Supersede,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(session, session.State), nil
}

func (h Handler) PauseSessionHandler(
	ctx context.Context,
	actor commands.Actor,
	sessionID string,
	req httptransport.PauseSessionRequest,
) (httptransport.SessionResponse, error) {
	session, err := h.Coordinator.PauseSession(ctx, actor, sessionID, req.Minutes)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(session, session.State), nil
}

func (h Handler) ResumeSessionHandler(ctx context.Context, actor commands.Actor, sessionID string) (httptransport.SessionResponse, error) {
	session, err := h.Coordinator.ResumeSession(ctx, actor, sessionID)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(session, session.State), nil
}

func (h Handler) CloseSessionHandler(ctx context.Context, actor commands.Actor, sessionID string) (httptransport.CloseSessionResponse, error) {
	closed, err := h.Coordinator.CloseSession(ctx, actor, sessionID)
	if err != nil {
		return httptransport.CloseSessionResponse{}, err
	}
	return httptransport.CloseSessionResponse{
		Session:     mapSession(closed.Session, closed.Session.State),
		ForceClosed: mapInitiatives(closed.ForceClosed),
	}, nil
}

func (h Handler) ActiveSessionHandler(ctx context.Context, actor commands.Actor) (httptransport.SessionOverviewResponse, error) {
	if err := services.Authorize(actor.Role, services.CapabilityResultsRead); err != nil {
		return httptransport.SessionOverviewResponse{}, err
	}
	overview, found, err := h.Queries.ActiveSession(ctx)
	if err != nil {
		return httptransport.SessionOverviewResponse{}, err
	}
	if !found {
		return httptransport.SessionOverviewResponse{}, domainerrors.ErrSessionNotFound.With("reason", "no active session")
	}
	return mapOverview(overview), nil
}

func (h Handler) SessionOverviewHandler(ctx context.Context, actor commands.Actor, sessionID string) (httptransport.SessionOverviewResponse, error) {
	if err := services.Authorize(actor.Role, services.CapabilityResultsRead); err != nil {
		return httptransport.SessionOverviewResponse{}, err
	}
	overview, err := h.Queries.SessionOverview(ctx, sessionID)
	if err != nil {
		return httptransport.SessionOverviewResponse{}, err
	}
	return mapOverview(overview), nil
}

func (h Handler) ListSessionsHandler(ctx context.Context, actor commands.Actor) (httptransport.SessionListResponse, error) {
	if err := services.Authorize(actor.Role, services.CapabilityResultsRead); err != nil {
		return httptransport.SessionListResponse{}, err
	}
	sessions, err := h.Queries.ListSessions(ctx)
	if err != nil {
		return httptransport.SessionListResponse{}, err
	}
	items := make([]httptransport.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, mapSession(session, session.EffectiveState(h.Queries.Now())))
	}
	return httptransport.SessionListResponse{Items: items}, nil
}

func (h Handler) QuorumHandler(
	ctx context.Context,
	actor commands.Actor,
	sessionID string,
	rule string,
) (httptransport.QuorumResponse, error) {
	if err := services.Authorize(actor.Role, services.CapabilityResultsRead); err != nil {
		return httptransport.QuorumResponse{}, err
	}
	majority := entities.MajorityRule(strings.ToLower(strings.TrimSpace(rule)))
	if majority == "" {
		majority = entities.MajorityRuleSimple
	}
	status, err := h.Queries.QuorumFor(ctx, sessionID, majority)
	if err != nil {
		return httptransport.QuorumResponse{}, err
	}
	return mapQuorum(status), nil
}

func (h Handler) EligibilityHandler(
	ctx context.Context,
	actor commands.Actor,
	sessionID string,
	legislatorID string,
) (httptransport.EligibilityResponse, error) {
	if err := services.Authorize(actor.Role, services.CapabilityResultsRead); err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	eligible, err := h.Queries.IsEligibleToVote(ctx, sessionID, legislatorID)
	if err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	return httptransport.EligibilityResponse{
		SessionID:    strings.TrimSpace(sessionID),
		LegislatorID: strings.TrimSpace(legislatorID),
		Eligible:     eligible,
	}, nil
}

func (h Handler) CreateRollCallHandler(ctx context.Context, actor commands.Actor, sessionID string) (httptransport.RollCallResponse, error) {
	rollCall, err := h.Coordinator.CreateRollCall(ctx, actor, sessionID)
	if err != nil {
		return httptransport.RollCallResponse{}, err
	}
	return mapRollCall(rollCall), nil
}

func (h Handler) MarkAttendanceHandler(
	ctx context.Context,
	actor commands.Actor,
	rollCallID string,
	req httptransport.MarkAttendanceRequest,
) (httptransport.RollCallResponse, error) {
	rollCall, err := h.Coordinator.MarkAttendance(ctx, actor, commands.MarkAttendanceCommand{
		RollCallID:   rollCallID,
		LegislatorID: req.LegislatorID,
		State:        entities.AttendanceState(strings.ToLower(strings.TrimSpace(req.State))),
	})
	if err != nil {
		return httptransport.RollCallResponse{}, err
	}
	return mapRollCall(rollCall), nil
}

func (h Handler) ConfirmRollCallHandler(ctx context.Context, actor commands.Actor, rollCallID string) (httptransport.RollCallResponse, error) {
	rollCall, err := h.Coordinator.ConfirmRollCall(ctx, actor, rollCallID)
	if err != nil {
		return httptransport.RollCallResponse{}, err
	}
	return mapRollCall(rollCall), nil
}

func (h Handler) AttendanceHandler(ctx context.Context, actor commands.Actor, rollCallID string) (httptransport.AttendanceResponse, error) {
	if err := services.Authorize(actor.Role, services.CapabilityResultsRead); err != nil {
		return httptransport.AttendanceResponse{}, err
	}
	view, err := h.Queries.RollCallAttendance(ctx, rollCallID)
	if err != nil {
		return httptransport.AttendanceResponse{}, err
	}
	rows := make([]httptransport.AttendanceRowResponse, 0, len(view.Rows))
	for _, row := range view.Rows {
		rows = append(rows, httptransport.AttendanceRowResponse{
			LegislatorID: row.Legislator.LegislatorID,
			DisplayName:  row.Legislator.DisplayName,
			Party:        row.Legislator.Party,
			SeatOrder:    row.Legislator.SeatOrder,
			State:        string(row.State),
		})
	}
	return httptransport.AttendanceResponse{
		RollCall: mapRollCall(view.RollCall),
		Rows:     rows,
	}, nil
}

func (h Handler) ActivateInitiativeHandler(
	ctx context.Context,
	actor commands.Actor,
	initiativeID string,
	req httptransport.ActivateInitiativeRequest,
) (httptransport.InitiativeResponse, error) {
	initiative, err := h.Coordinator.ActivateInitiative(ctx, actor, commands.ActivateInitiativeCommand{
		InitiativeID: initiativeID,
		Force:        req.Force,
		ForceQuorum:  req.ForceQuorum,
	})
	if err != nil {
		return httptransport.InitiativeResponse{}, err
	}
	return mapInitiative(initiative), nil
}

func (h Handler) CloseInitiativeHandler(ctx context.Context, actor commands.Actor, initiativeID string) (httptransport.CloseInitiativeResponse, error) {
	result, err := h.Coordinator.CloseInitiative(ctx, actor, initiativeID)
	if err != nil {
		return httptransport.CloseInitiativeResponse{}, err
	}
	return httptransport.CloseInitiativeResponse{
		Initiative: mapInitiative(result.Initiative),
		Replayed:   result.Replayed,
	}, nil
}

func (h Handler) ReopenInitiativeHandler(
	ctx context.Context,
	actor commands.Actor,
	initiativeID string,
	req httptransport.ReopenInitiativeRequest,
) (httptransport.InitiativeResponse, error) {
	initiative, err := h.Coordinator.ReopenInitiative(ctx, actor, commands.ReopenInitiativeCommand{
		InitiativeID: initiativeID,
		ForceQuorum:  req.ForceQuorum,
	})
	if err != nil {
		return httptransport.InitiativeResponse{}, err
	}
	return mapInitiative(initiative), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	actor commands.Actor,
	initiativeID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Coordinator.CastVote(ctx, actor, commands.CastVoteCommand{
		InitiativeID: initiativeID,
		LegislatorID: req.LegislatorID,
		Choice:       entities.VoteChoice(strings.ToLower(strings.TrimSpace(req.Choice))),
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		InitiativeID: result.Vote.InitiativeID,
		LegislatorID: result.Vote.LegislatorID,
		Choice:       string(result.Vote.Choice),
		Replaced:     result.Replaced,
		Tally:        mapTally(result.Tally),
	}, nil
}

func (h Handler) InitiativeTallyHandler(ctx context.Context, actor commands.Actor, initiativeID string) (httptransport.InitiativeTallyResponse, error) {
	if err := services.Authorize(actor.Role, services.CapabilityResultsRead); err != nil {
		return httptransport.InitiativeTallyResponse{}, err
	}
	view, err := h.Queries.InitiativeTally(ctx, initiativeID)
	if err != nil {
		return httptransport.InitiativeTallyResponse{}, err
	}
	votes := make([]httptransport.VoteResponse, 0, len(view.Votes))
	for _, vote := range view.Votes {
		votes = append(votes, httptransport.VoteResponse{
			LegislatorID: vote.LegislatorID,
			Choice:       string(vote.Choice),
			CastAt:       vote.CastAt,
		})
	}
	return httptransport.InitiativeTallyResponse{
		Initiative:     mapInitiative(view.Initiative),
		Tally:          mapTally(view.Tally),
		EligibleVoters: view.EligibleVoters,
		Votes:          votes,
	}, nil
}

func (h Handler) ListLegislatorsHandler(ctx context.Context, actor commands.Actor, activeOnly bool) (httptransport.LegislatorListResponse, error) {
	if err := services.Authorize(actor.Role, services.CapabilityResultsRead); err != nil {
		return httptransport.LegislatorListResponse{}, err
	}
	legislators, err := h.Queries.ListLegislators(ctx, activeOnly)
	if err != nil {
		return httptransport.LegislatorListResponse{}, err
	}
	items := make([]httptransport.LegislatorResponse, 0, len(legislators))
	for _, legislator := range legislators {
		items = append(items, mapLegislator(legislator))
	}
	return httptransport.LegislatorListResponse{Items: items}, nil
}

func (h Handler) RegisterLegislatorsHandler(
	ctx context.Context,
	actor commands.Actor,
	req httptransport.RegisterLegislatorsRequest,
) (httptransport.RegisterLegislatorsResponse, error) {
	roster := make([]entities.Legislator, 0, len(req.Legislators))
	for _, item := range req.Legislators {
		roster = append(roster, entities.Legislator{
			LegislatorID: item.LegislatorID,
			DisplayName:  item.DisplayName,
			Party:        item.Party,
			SeatOrder:    item.SeatOrder,
			Active:       item.Active,
		})
	}
	changed, err := h.Coordinator.RegisterLegislators(ctx, actor, roster)
	if err != nil {
		return httptransport.RegisterLegislatorsResponse{}, err
	}
	return httptransport.RegisterLegislatorsResponse{Changed: changed}, nil
}

func (h Handler) SetLegislatorActiveHandler(
	ctx context.Context,
	actor commands.Actor,
	legislatorID string,
	req httptransport.SetLegislatorActiveRequest,
) (httptransport.LegislatorResponse, error) {
	legislator, err := h.Coordinator.SetLegislatorActive(ctx, actor, legislatorID, req.Active)
	if err != nil {
		return httptransport.LegislatorResponse{}, err
	}
	return mapLegislator(legislator), nil
}

func mapSession(session entities.Session, effective entities.SessionState) httptransport.SessionResponse {
	return httptransport.SessionResponse{
		SessionID:       session.SessionID,
		Code:            session.Code,
		State:           string(session.State),
		EffectiveState:  string(effective),
		QuorumThreshold: session.QuorumThreshold,
		StartedAt:       session.StartedAt,
		PausedAt:        session.PausedAt,
		PauseExpiresAt:  session.PauseExpiresAt,
		ClosedAt:        session.ClosedAt,
		StartedBy:       session.StartedBy,
		ClosedBy:        session.ClosedBy,
	}
}

func mapInitiative(initiative entities.Initiative) httptransport.InitiativeResponse {
	response := httptransport.InitiativeResponse{
		InitiativeID: initiative.InitiativeID,
		SessionID:    initiative.SessionID,
		Number:       initiative.Number,
		Title:        initiative.Title,
		MajorityRule: string(initiative.MajorityRule),
		Status:       string(initiative.Status()),
		Result:       string(initiative.Result),
		OpenedAt:     initiative.OpenedAt,
		ClosedAt:     initiative.ClosedAt,
	}
	if initiative.Closed {
		tally := mapTally(initiative.FinalTally)
		response.Tally = &tally
		response.EligibleVoters = initiative.EligibleVoters
	}
	return response
}

func mapInitiatives(initiatives []entities.Initiative) []httptransport.InitiativeResponse {
	items := make([]httptransport.InitiativeResponse, 0, len(initiatives))
	for _, initiative := range initiatives {
		items = append(items, mapInitiative(initiative))
	}
	return items
}

func mapOverview(overview queries.SessionOverview) httptransport.SessionOverviewResponse {
	response := httptransport.SessionOverviewResponse{
		Session:           mapSession(overview.Session, overview.EffectiveState),
		Initiatives:       make([]httptransport.InitiativeResponse, 0, len(overview.Initiatives)),
		ActiveLegislators: overview.ActiveLegislators,
		Quorum:            mapQuorum(overview.Quorum),
	}
	for _, view := range overview.Initiatives {
		item := mapInitiative(view.Initiative)
		tally := mapTally(view.LiveTally)
		item.Tally = &tally
		response.Initiatives = append(response.Initiatives, item)
	}
	if overview.RollCall != nil {
		rollCall := mapRollCall(*overview.RollCall)
		response.RollCall = &rollCall
	}
	return response
}

func mapRollCall(rollCall entities.RollCall) httptransport.RollCallResponse {
	return httptransport.RollCallResponse{
		RollCallID:   rollCall.RollCallID,
		SessionID:    rollCall.SessionID,
		Confirmed:    rollCall.Confirmed,
		ConfirmedAt:  rollCall.ConfirmedAt,
		Finalized:    rollCall.Finalized,
		PresentCount: rollCall.PresentCount,
		AbsentCount:  rollCall.AbsentCount,
	}
}

func mapQuorum(status services.QuorumStatus) httptransport.QuorumResponse {
	return httptransport.QuorumResponse{
		Present:   status.Present,
		Required:  status.Required,
		Shortfall: status.Shortfall,
		Met:       status.Met,
	}
}

func mapTally(tally entities.Tally) httptransport.TallyResponse {
	return httptransport.TallyResponse{
		Favor:   tally.Favor,
		Against: tally.Against,
		Abstain: tally.Abstain,
		Total:   tally.Total(),
	}
}

func mapLegislator(legislator entities.Legislator) httptransport.LegislatorResponse {
	return httptransport.LegislatorResponse{
		LegislatorID: legislator.LegislatorID,
		DisplayName:  legislator.DisplayName,
		Party:        legislator.Party,
		SeatOrder:    legislator.SeatOrder,
		Active:       legislator.Active,
	}
}
