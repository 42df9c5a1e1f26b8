package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/adapters/memory"
	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	"plenary/contexts/chamber-floor/roll-call-voting/application/queries"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

var (
	presiding   = commands.Actor{ActorID: "presiding-1", Role: "presiding"}
	deputy      = commands.Actor{ActorID: "deputy-1", Role: "deputy_presiding"}
	secretariat = commands.Actor{ActorID: "secretariat-1", Role: "secretariat"}
	visitor     = commands.Actor{ActorID: "visitor-1", Role: "public"}
)

func member(id string) commands.Actor {
	return commands.Actor{ActorID: id, Role: "legislator"}
}

func legislatorID(seat int) string {
	return fmt.Sprintf("leg-%02d", seat)
}

func roster(n int) []entities.Legislator {
	items := make([]entities.Legislator, 0, n)
	for seat := 1; seat <= n; seat++ {
		items = append(items, entities.Legislator{
			LegislatorID: legislatorID(seat),
			DisplayName:  fmt.Sprintf("Member %02d", seat),
			Party:        "independent",
			SeatOrder:    seat,
			Active:       true,
		})
	}
	return items
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMetrics struct {
	mu        sync.Mutex
	commands  []string
	votes     map[entities.VoteChoice]int
	published int
}

func (m *recordingMetrics) ObserveCommand(operation string, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, operation+":"+outcome)
}

func (m *recordingMetrics) ObserveVote(choice entities.VoteChoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.votes == nil {
		m.votes = make(map[entities.VoteChoice]int)
	}
	m.votes[choice]++
}

func (m *recordingMetrics) ObserveOutboxPublished(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published += count
}

func (m *recordingMetrics) saw(label string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.commands {
		if item == label {
			return true
		}
	}
	return false
}

type chamber struct {
	t           *testing.T
	members     int
	store       *memory.Store
	clock       *fakeClock
	metrics     *recordingMetrics
	coordinator commands.Coordinator
	queries     queries.ChamberQueries
}

func newChamber(t *testing.T, members int) *chamber {
	t.Helper()
	store := memory.NewStore(roster(members))
	clock := &fakeClock{now: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)}
	metrics := &recordingMetrics{}
	return &chamber{
		t:       t,
		members: members,
		store:   store,
		clock:   clock,
		metrics: metrics,
		coordinator: commands.Coordinator{
			Store:   store,
			Clock:   clock,
			IDGen:   store,
			Metrics: metrics,
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
		queries: queries.ChamberQueries{Store: store, Clock: clock},
	}
}

func (c *chamber) prepare(code string, threshold int, rules ...entities.MajorityRule) commands.PreparedSession {
	c.t.Helper()
	agenda := make([]commands.AgendaItem, 0, len(rules))
	for i, rule := range rules {
		agenda = append(agenda, commands.AgendaItem{
			Number:       i + 1,
			Title:        fmt.Sprintf("Initiative %d", i+1),
			MajorityRule: rule,
		})
	}
	prepared, err := c.coordinator.PrepareSession(context.Background(), secretariat, commands.PrepareSessionCommand{
		Code:            code,
		QuorumThreshold: threshold,
		Agenda:          agenda,
	})
	if err != nil {
		c.t.Fatalf("prepare %s failed: %v", code, err)
	}
	return prepared
}

func (c *chamber) start(sessionID string) entities.RollCall {
	c.t.Helper()
	if _, err := c.coordinator.StartSession(context.Background(), presiding, commands.StartSessionCommand{SessionID: sessionID}); err != nil {
		c.t.Fatalf("start failed: %v", err)
	}
	overview, err := c.queries.SessionOverview(context.Background(), sessionID)
	if err != nil {
		c.t.Fatalf("overview failed: %v", err)
	}
	if overview.RollCall == nil {
		c.t.Fatalf("expected start to open a roll call")
	}
	return *overview.RollCall
}

// seat marks seats 1..present present and the rest absent, then confirms.
func (c *chamber) seat(rollCallID string, present int) entities.RollCall {
	c.t.Helper()
	for seat := 1; seat <= c.members; seat++ {
		state := entities.AttendanceAbsent
		if seat <= present {
			state = entities.AttendancePresent
		}
		if _, err := c.coordinator.MarkAttendance(context.Background(), secretariat, commands.MarkAttendanceCommand{
			RollCallID:   rollCallID,
			LegislatorID: legislatorID(seat),
			State:        state,
		}); err != nil {
			c.t.Fatalf("mark %s failed: %v", legislatorID(seat), err)
		}
	}
	confirmed, err := c.coordinator.ConfirmRollCall(context.Background(), secretariat, rollCallID)
	if err != nil {
		c.t.Fatalf("confirm failed: %v", err)
	}
	return confirmed
}

func (c *chamber) sitting(code string, threshold int, present int, rules ...entities.MajorityRule) commands.PreparedSession {
	c.t.Helper()
	prepared := c.prepare(code, threshold, rules...)
	rollCall := c.start(prepared.Session.SessionID)
	c.seat(rollCall.RollCallID, present)
	return prepared
}

func (c *chamber) activate(initiativeID string) entities.Initiative {
	c.t.Helper()
	initiative, err := c.coordinator.ActivateInitiative(context.Background(), presiding, commands.ActivateInitiativeCommand{InitiativeID: initiativeID})
	if err != nil {
		c.t.Fatalf("activate failed: %v", err)
	}
	return initiative
}

func (c *chamber) vote(initiativeID string, seat int, choice entities.VoteChoice) commands.CastVoteResult {
	c.t.Helper()
	result, err := c.coordinator.CastVote(context.Background(), member(legislatorID(seat)), commands.CastVoteCommand{
		InitiativeID: initiativeID,
		Choice:       choice,
	})
	if err != nil {
		c.t.Fatalf("vote by %s failed: %v", legislatorID(seat), err)
	}
	return result
}

func (c *chamber) events() []ports.EventEnvelope {
	c.t.Helper()
	rows, err := c.store.ListPendingOutbox(context.Background(), 10000)
	if err != nil {
		c.t.Fatalf("list outbox failed: %v", err)
	}
	items := make([]ports.EventEnvelope, 0, len(rows))
	for _, row := range rows {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			c.t.Fatalf("decode outbox row failed: %v", err)
		}
		items = append(items, event)
	}
	return items
}

func (c *chamber) eventsOfType(eventType string) []ports.EventEnvelope {
	c.t.Helper()
	var items []ports.EventEnvelope
	for _, event := range c.events() {
		if event.EventType == eventType {
			items = append(items, event)
		}
	}
	return items
}

func eventData(t *testing.T, event ports.EventEnvelope) map[string]any {
	t.Helper()
	var data map[string]any
	if err := json.Unmarshal(event.Data, &data); err != nil {
		t.Fatalf("decode event data failed: %v", err)
	}
	return data
}

func expectError(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
