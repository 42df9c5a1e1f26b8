package memory

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"

	"github.com/google/uuid"
)

var errReadOnly = errors.New("memory store: write inside read-only view")

// outboxRecord is a pending row. Published rows are dropped so each unit of
// work only copies what the relay has not delivered yet.
type outboxRecord struct {
	message  ports.OutboxMessage
	sequence int64
}

type state struct {
	sessions    map[string]entities.Session
	initiatives map[string]entities.Initiative
	rollCalls   map[string]entities.RollCall
	attendance  map[string]map[string]entities.Attendance
	votes       map[string]map[string]entities.Vote
	legislators map[string]entities.Legislator
	outbox      map[string]outboxRecord
	sequence    int64
}

func newState() *state {
	return &state{
		sessions:    make(map[string]entities.Session),
		initiatives: make(map[string]entities.Initiative),
		rollCalls:   make(map[string]entities.RollCall),
		attendance:  make(map[string]map[string]entities.Attendance),
		votes:       make(map[string]map[string]entities.Vote),
		legislators: make(map[string]entities.Legislator),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *state) clone() *state {
	next := &state{
		sessions:    maps.Clone(s.sessions),
		initiatives: maps.Clone(s.initiatives),
		rollCalls:   maps.Clone(s.rollCalls),
		attendance:  make(map[string]map[string]entities.Attendance, len(s.attendance)),
		votes:       make(map[string]map[string]entities.Vote, len(s.votes)),
		legislators: maps.Clone(s.legislators),
		outbox:      maps.Clone(s.outbox),
		sequence:    s.sequence,
	}
	for key, rows := range s.attendance {
		next.attendance[key] = maps.Clone(rows)
	}
	for key, rows := range s.votes {
		next.votes[key] = maps.Clone(rows)
	}
	return next
}

// Store keeps all aggregates in process. Units of work run one at a time
// against a private copy that replaces the shared state only on commit.
type Store struct {
	mu    sync.RWMutex
	state *state
}

func NewStore(roster []entities.Legislator) *Store {
	current := newState()
	for _, legislator := range roster {
		current.legislators[strings.TrimSpace(legislator.LegislatorID)] = legislator
	}
	return &Store{state: current}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(ctx, &tx{state: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &tx{state: s.state, readOnly: true})
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.state.outbox))
	for _, row := range s.state.outbox {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].sequence < rows[j].sequence
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.message)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(outboxID)
	if _, ok := s.state.outbox[key]; !ok {
		return domainerrors.ErrOutboxNotFound
	}
	delete(s.state.outbox, key)
	return nil
}

// PendingOutboxCount reports rows not yet relayed.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.outbox)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type tx struct {
	state    *state
	readOnly bool
}

func (t *tx) write() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *tx) GetSession(_ context.Context, sessionID string) (entities.Session, error) {
	session, ok := t.state.sessions[strings.TrimSpace(sessionID)]
	if !ok {
		return entities.Session{}, domainerrors.ErrSessionNotFound
	}
	return session, nil
}

// LockSession is a plain read; the store-wide writer lock already
// serializes units of work.
func (t *tx) LockSession(ctx context.Context, sessionID string) (entities.Session, error) {
	return t.GetSession(ctx, sessionID)
}

func (t *tx) GetActiveSession(_ context.Context) (entities.Session, bool, error) {
	for _, session := range t.state.sessions {
		if session.Active() {
			return session, true, nil
		}
	}
	return entities.Session{}, false, nil
}

func (t *tx) ListSessions(_ context.Context) ([]entities.Session, error) {
	items := make([]entities.Session, 0, len(t.state.sessions))
	for _, session := range t.state.sessions {
		items = append(items, session)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].Code < items[j].Code
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (t *tx) CreateSession(_ context.Context, session entities.Session) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, exists := t.state.sessions[session.SessionID]; exists {
		return domainerrors.ErrDuplicate
	}
	for _, existing := range t.state.sessions {
		if existing.Code == session.Code {
			return domainerrors.ErrDuplicate.With("code", session.Code)
		}
	}
	t.state.sessions[session.SessionID] = session
	return nil
}

func (t *tx) SaveSession(_ context.Context, session entities.Session) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, exists := t.state.sessions[session.SessionID]; !exists {
		return domainerrors.ErrSessionNotFound
	}
	if session.Active() {
		for id, existing := range t.state.sessions {
			if id != session.SessionID && existing.Active() {
				return domainerrors.ErrDuplicate.With("active_session_id", id)
			}
		}
	}
	t.state.sessions[session.SessionID] = session
	return nil
}

func (t *tx) GetInitiative(_ context.Context, initiativeID string) (entities.Initiative, error) {
	initiative, ok := t.state.initiatives[strings.TrimSpace(initiativeID)]
	if !ok {
		return entities.Initiative{}, domainerrors.ErrInitiativeNotFound
	}
	return initiative, nil
}

func (t *tx) LockInitiative(ctx context.Context, initiativeID string) (entities.Initiative, error) {
	return t.GetInitiative(ctx, initiativeID)
}

func (t *tx) ListInitiativesBySession(_ context.Context, sessionID string) ([]entities.Initiative, error) {
	items := make([]entities.Initiative, 0)
	for _, initiative := range t.state.initiatives {
		if initiative.SessionID == strings.TrimSpace(sessionID) {
			items = append(items, initiative)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Number < items[j].Number
	})
	return items, nil
}

func (t *tx) CreateInitiative(_ context.Context, initiative entities.Initiative) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, exists := t.state.initiatives[initiative.InitiativeID]; exists {
		return domainerrors.ErrDuplicate
	}
	t.state.initiatives[initiative.InitiativeID] = initiative
	return nil
}

func (t *tx) SaveInitiative(_ context.Context, initiative entities.Initiative) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, exists := t.state.initiatives[initiative.InitiativeID]; !exists {
		return domainerrors.ErrInitiativeNotFound
	}
	if initiative.Open {
		for id, existing := range t.state.initiatives {
			if id != initiative.InitiativeID && existing.SessionID == initiative.SessionID && existing.Open {
				return domainerrors.ErrDuplicate.With("open_initiative_id", id)
			}
		}
	}
	t.state.initiatives[initiative.InitiativeID] = initiative
	return nil
}

func (t *tx) GetRollCall(_ context.Context, rollCallID string) (entities.RollCall, error) {
	rollCall, ok := t.state.rollCalls[strings.TrimSpace(rollCallID)]
	if !ok {
		return entities.RollCall{}, domainerrors.ErrRollCallNotFound
	}
	return rollCall, nil
}

// GetCurrentRollCall prefers the non-finalized roll call, then the newest.
func (t *tx) GetCurrentRollCall(_ context.Context, sessionID string) (entities.RollCall, bool, error) {
	var (
		current entities.RollCall
		found   bool
	)
	for _, rollCall := range t.state.rollCalls {
		if rollCall.SessionID != strings.TrimSpace(sessionID) {
			continue
		}
		switch {
		case !found,
			current.Finalized && !rollCall.Finalized,
			current.Finalized == rollCall.Finalized && rollCall.CreatedAt.After(current.CreatedAt):
			current = rollCall
			found = true
		}
	}
	return current, found, nil
}

func (t *tx) CreateRollCall(_ context.Context, rollCall entities.RollCall) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, exists := t.state.rollCalls[rollCall.RollCallID]; exists {
		return domainerrors.ErrDuplicate
	}
	for _, existing := range t.state.rollCalls {
		if existing.SessionID == rollCall.SessionID && !existing.Finalized {
			return domainerrors.ErrDuplicate.With("roll_call_id", existing.RollCallID)
		}
	}
	t.state.rollCalls[rollCall.RollCallID] = rollCall
	return nil
}

func (t *tx) SaveRollCall(_ context.Context, rollCall entities.RollCall) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, exists := t.state.rollCalls[rollCall.RollCallID]; !exists {
		return domainerrors.ErrRollCallNotFound
	}
	t.state.rollCalls[rollCall.RollCallID] = rollCall
	return nil
}

func (t *tx) UpsertAttendance(_ context.Context, attendance entities.Attendance) error {
	if err := t.write(); err != nil {
		return err
	}
	rows, ok := t.state.attendance[attendance.RollCallID]
	if !ok {
		rows = make(map[string]entities.Attendance)
		t.state.attendance[attendance.RollCallID] = rows
	}
	rows[attendance.LegislatorID] = attendance
	return nil
}

func (t *tx) GetAttendance(_ context.Context, rollCallID string, legislatorID string) (entities.Attendance, bool, error) {
	row, ok := t.state.attendance[strings.TrimSpace(rollCallID)][strings.TrimSpace(legislatorID)]
	return row, ok, nil
}

func (t *tx) ListAttendance(_ context.Context, rollCallID string) ([]entities.Attendance, error) {
	rows := t.state.attendance[strings.TrimSpace(rollCallID)]
	items := make([]entities.Attendance, 0, len(rows))
	for _, row := range rows {
		items = append(items, row)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].LegislatorID < items[j].LegislatorID
	})
	return items, nil
}

func (t *tx) UpsertVote(_ context.Context, vote entities.Vote) error {
	if err := t.write(); err != nil {
		return err
	}
	rows, ok := t.state.votes[vote.InitiativeID]
	if !ok {
		rows = make(map[string]entities.Vote)
		t.state.votes[vote.InitiativeID] = rows
	}
	rows[vote.LegislatorID] = vote
	return nil
}

func (t *tx) GetVote(_ context.Context, initiativeID string, legislatorID string) (entities.Vote, bool, error) {
	vote, ok := t.state.votes[strings.TrimSpace(initiativeID)][strings.TrimSpace(legislatorID)]
	return vote, ok, nil
}

func (t *tx) ListVotesByInitiative(_ context.Context, initiativeID string) ([]entities.Vote, error) {
	rows := t.state.votes[strings.TrimSpace(initiativeID)]
	items := make([]entities.Vote, 0, len(rows))
	for _, vote := range rows {
		items = append(items, vote)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].LegislatorID < items[j].LegislatorID
	})
	return items, nil
}

func (t *tx) GetLegislator(_ context.Context, legislatorID string) (entities.Legislator, error) {
	legislator, ok := t.state.legislators[strings.TrimSpace(legislatorID)]
	if !ok {
		return entities.Legislator{}, domainerrors.ErrLegislatorNotFound
	}
	return legislator, nil
}

func (t *tx) ListLegislators(_ context.Context, activeOnly bool) ([]entities.Legislator, error) {
	items := make([]entities.Legislator, 0, len(t.state.legislators))
	for _, legislator := range t.state.legislators {
		if activeOnly && !legislator.Active {
			continue
		}
		items = append(items, legislator)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SeatOrder == items[j].SeatOrder {
			return items[i].LegislatorID < items[j].LegislatorID
		}
		return items[i].SeatOrder < items[j].SeatOrder
	})
	return items, nil
}

func (t *tx) CountActiveLegislators(_ context.Context) (int, error) {
	count := 0
	for _, legislator := range t.state.legislators {
		if legislator.Active {
			count++
		}
	}
	return count, nil
}

func (t *tx) SaveLegislator(_ context.Context, legislator entities.Legislator) error {
	if err := t.write(); err != nil {
		return err
	}
	t.state.legislators[strings.TrimSpace(legislator.LegislatorID)] = legislator
	return nil
}

func (t *tx) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	if err := t.write(); err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := t.state.outbox[outboxID]; exists {
		return domainerrors.ErrDuplicate
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	t.state.sequence++
	t.state.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
		sequence: t.state.sequence,
	}
	return nil
}

var (
	_ ports.Store            = (*Store)(nil)
	_ ports.OutboxRepository = (*Store)(nil)
	_ ports.Tx               = (*tx)(nil)
)
