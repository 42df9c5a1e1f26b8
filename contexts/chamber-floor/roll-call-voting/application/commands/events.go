package commands

import (
	"encoding/json"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

const (
	EventSessionPrepared    = "session.prepared"
	EventSessionStarted     = "session.started"
	EventSessionPaused      = "session.paused"
	EventSessionResumed     = "session.resumed"
	EventSessionClosed      = "session.closed"
	EventRollCallOpened     = "rollcall.opened"
	EventAttendanceUpdated  = "attendance.updated"
	EventRollCallConfirmed  = "rollcall.confirmed"
	EventInitiativeOpened   = "initiative.opened"
	EventInitiativeClosed   = "initiative.closed"
	EventInitiativeReopened = "initiative.reopened"
	EventVoteRecorded       = "vote.recorded"
	EventLegislatorUpdated  = "legislator.updated"
)

// EventTypes lists every topic the coordinator publishes to.
func EventTypes() []string {
	return []string{
		EventSessionPrepared,
		EventSessionStarted,
		EventSessionPaused,
		EventSessionResumed,
		EventSessionClosed,
		EventRollCallOpened,
		EventAttendanceUpdated,
		EventRollCallConfirmed,
		EventInitiativeOpened,
		EventInitiativeClosed,
		EventInitiativeReopened,
		EventVoteRecorded,
		EventLegislatorUpdated,
	}
}

type pendingEvent struct {
	eventType string
	sessionID string
	data      map[string]any
}

// outcome collects the notifications of one unit of work. They are written
// to the outbox in the same transaction as the mutation that produced them.
type outcome struct {
	events []pendingEvent
}

func (o *outcome) emit(eventType string, sessionID string, data map[string]any) {
	o.events = append(o.events, pendingEvent{
		eventType: eventType,
		sessionID: sessionID,
		data:      data,
	})
}

func newChamberEnvelope(
	eventID string,
	eventType string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// The partition key groups a sitting's events. Order holds per topic only;
	// a consumer reading several topics must order by OccurredAt itself.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "roll-call-voting",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "session_id",
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}

func sessionPayload(session entities.Session) map[string]any {
	data := map[string]any{
		"session_id":       session.SessionID,
		"code":             session.Code,
		"state":            string(session.State),
		"quorum_threshold": session.QuorumThreshold,
	}
	if session.StartedAt != nil {
		data["started_at"] = session.StartedAt.UTC().Format(time.RFC3339)
	}
	if session.PauseExpiresAt != nil {
		data["pause_expires_at"] = session.PauseExpiresAt.UTC().Format(time.RFC3339)
	}
	if session.ClosedAt != nil {
		data["closed_at"] = session.ClosedAt.UTC().Format(time.RFC3339)
	}
	return data
}

func initiativePayload(initiative entities.Initiative) map[string]any {
	data := map[string]any{
		"initiative_id": initiative.InitiativeID,
		"session_id":    initiative.SessionID,
		"number":        initiative.Number,
		"title":         initiative.Title,
		"majority_rule": string(initiative.MajorityRule),
		"status":        string(initiative.Status()),
	}
	if initiative.Closed {
		data["result"] = string(initiative.Result)
		data["tally"] = initiative.FinalTally
		data["eligible_voters"] = initiative.EligibleVoters
	}
	return data
}

func rollCallPayload(rollCall entities.RollCall) map[string]any {
	return map[string]any{
		"roll_call_id":  rollCall.RollCallID,
		"session_id":    rollCall.SessionID,
		"confirmed":     rollCall.Confirmed,
		"present_count": rollCall.PresentCount,
		"absent_count":  rollCall.AbsentCount,
	}
}
