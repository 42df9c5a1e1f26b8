package postgresadapter

import (
	"strings"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
)

type legislatorModel struct {
	LegislatorID string `gorm:"column:legislator_id;primaryKey"`
	DisplayName  string `gorm:"column:display_name;not null"`
	Party        string `gorm:"column:party"`
	SeatOrder    int    `gorm:"column:seat_order"`
	Active       bool   `gorm:"column:active;index"`
}

func (legislatorModel) TableName() string {
	return "plenary_legislators"
}

func (m legislatorModel) toEntity() entities.Legislator {
	return entities.Legislator{
		LegislatorID: m.LegislatorID,
		DisplayName:  m.DisplayName,
		Party:        m.Party,
		SeatOrder:    m.SeatOrder,
		Active:       m.Active,
	}
}

// sessionModel.ActiveSlot is non-NULL only while the session is started or
// paused; its unique index admits one such row.
type sessionModel struct {
	SessionID       string     `gorm:"column:session_id;primaryKey"`
	Code            string     `gorm:"column:code;uniqueIndex;not null"`
	State           string     `gorm:"column:state;not null"`
	QuorumThreshold int        `gorm:"column:quorum_threshold"`
	ActiveSlot      *string    `gorm:"column:active_slot;uniqueIndex:idx_plenary_sessions_active_slot"`
	StartedAt       *time.Time `gorm:"column:started_at"`
	PausedAt        *time.Time `gorm:"column:paused_at"`
	PauseExpiresAt  *time.Time `gorm:"column:pause_expires_at"`
	ClosedAt        *time.Time `gorm:"column:closed_at"`
	StartedBy       string     `gorm:"column:started_by"`
	ClosedBy        string     `gorm:"column:closed_by"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string {
	return "plenary_sessions"
}

func sessionModelFromEntity(session entities.Session) sessionModel {
	row := sessionModel{
		SessionID:       strings.TrimSpace(session.SessionID),
		Code:            strings.TrimSpace(session.Code),
		State:           string(session.State),
		QuorumThreshold: session.QuorumThreshold,
		StartedAt:       utcPtr(session.StartedAt),
		PausedAt:        utcPtr(session.PausedAt),
		PauseExpiresAt:  utcPtr(session.PauseExpiresAt),
		ClosedAt:        utcPtr(session.ClosedAt),
		StartedBy:       session.StartedBy,
		ClosedBy:        session.ClosedBy,
		CreatedAt:       session.CreatedAt.UTC(),
		UpdatedAt:       session.UpdatedAt.UTC(),
	}
	if session.Active() {
		slot := activeSlot
		row.ActiveSlot = &slot
	}
	return row
}

func (m sessionModel) toEntity() entities.Session {
	return entities.Session{
		SessionID:       m.SessionID,
		Code:            m.Code,
		State:           entities.SessionState(m.State),
		QuorumThreshold: m.QuorumThreshold,
		StartedAt:       utcPtr(m.StartedAt),
		PausedAt:        utcPtr(m.PausedAt),
		PauseExpiresAt:  utcPtr(m.PauseExpiresAt),
		ClosedAt:        utcPtr(m.ClosedAt),
		StartedBy:       m.StartedBy,
		ClosedBy:        m.ClosedBy,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

// initiativeModel.OpenSlot holds the session id while the item is open, so
// a second open item in the same session violates its unique index.
type initiativeModel struct {
	InitiativeID   string     `gorm:"column:initiative_id;primaryKey"`
	SessionID      string     `gorm:"column:session_id;not null;uniqueIndex:idx_plenary_initiatives_session_number,priority:1"`
	Number         int        `gorm:"column:number;not null;uniqueIndex:idx_plenary_initiatives_session_number,priority:2"`
	Title          string     `gorm:"column:title;not null"`
	MajorityRule   string     `gorm:"column:majority_rule;not null"`
	IsOpen         bool       `gorm:"column:is_open"`
	IsClosed       bool       `gorm:"column:is_closed"`
	OpenSlot       *string    `gorm:"column:open_slot;uniqueIndex:idx_plenary_initiatives_open_slot"`
	Result         string     `gorm:"column:result"`
	TallyFavor     int        `gorm:"column:tally_favor"`
	TallyAgainst   int        `gorm:"column:tally_against"`
	TallyAbstain   int        `gorm:"column:tally_abstain"`
	EligibleVoters int        `gorm:"column:eligible_voters"`
	OpenedAt       *time.Time `gorm:"column:opened_at"`
	ClosedAt       *time.Time `gorm:"column:closed_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (initiativeModel) TableName() string {
	return "plenary_initiatives"
}

func initiativeModelFromEntity(initiative entities.Initiative) initiativeModel {
	row := initiativeModel{
		InitiativeID:   strings.TrimSpace(initiative.InitiativeID),
		SessionID:      strings.TrimSpace(initiative.SessionID),
		Number:         initiative.Number,
		Title:          initiative.Title,
		MajorityRule:   string(initiative.MajorityRule),
		IsOpen:         initiative.Open,
		IsClosed:       initiative.Closed,
		Result:         string(initiative.Result),
		TallyFavor:     initiative.FinalTally.Favor,
		TallyAgainst:   initiative.FinalTally.Against,
		TallyAbstain:   initiative.FinalTally.Abstain,
		EligibleVoters: initiative.EligibleVoters,
		OpenedAt:       utcPtr(initiative.OpenedAt),
		ClosedAt:       utcPtr(initiative.ClosedAt),
		CreatedAt:      initiative.CreatedAt.UTC(),
		UpdatedAt:      initiative.UpdatedAt.UTC(),
	}
	if initiative.Open {
		slot := row.SessionID
		row.OpenSlot = &slot
	}
	return row
}

func (m initiativeModel) toEntity() entities.Initiative {
	return entities.Initiative{
		InitiativeID: m.InitiativeID,
		SessionID:    m.SessionID,
		Number:       m.Number,
		Title:        m.Title,
		MajorityRule: entities.MajorityRule(m.MajorityRule),
		Open:         m.IsOpen,
		Closed:       m.IsClosed,
		Result:       entities.Result(m.Result),
		FinalTally: entities.Tally{
			Favor:   m.TallyFavor,
			Against: m.TallyAgainst,
			Abstain: m.TallyAbstain,
		},
		EligibleVoters: m.EligibleVoters,
		OpenedAt:       utcPtr(m.OpenedAt),
		ClosedAt:       utcPtr(m.ClosedAt),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

// rollCallModel.OpenSlot holds the session id until the roll call is
// finalized.
type rollCallModel struct {
	RollCallID   string     `gorm:"column:roll_call_id;primaryKey"`
	SessionID    string     `gorm:"column:session_id;not null;index"`
	OpenSlot     *string    `gorm:"column:open_slot;uniqueIndex:idx_plenary_roll_calls_open_slot"`
	Confirmed    bool       `gorm:"column:confirmed"`
	ConfirmedAt  *time.Time `gorm:"column:confirmed_at"`
	Finalized    bool       `gorm:"column:finalized"`
	PresentCount int        `gorm:"column:present_count"`
	AbsentCount  int        `gorm:"column:absent_count"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (rollCallModel) TableName() string {
	return "plenary_roll_calls"
}

func rollCallModelFromEntity(rollCall entities.RollCall) rollCallModel {
	row := rollCallModel{
		RollCallID:   strings.TrimSpace(rollCall.RollCallID),
		SessionID:    strings.TrimSpace(rollCall.SessionID),
		Confirmed:    rollCall.Confirmed,
		ConfirmedAt:  utcPtr(rollCall.ConfirmedAt),
		Finalized:    rollCall.Finalized,
		PresentCount: rollCall.PresentCount,
		AbsentCount:  rollCall.AbsentCount,
		CreatedAt:    rollCall.CreatedAt.UTC(),
		UpdatedAt:    rollCall.UpdatedAt.UTC(),
	}
	if !rollCall.Finalized {
		slot := row.SessionID
		row.OpenSlot = &slot
	}
	return row
}

func (m rollCallModel) toEntity() entities.RollCall {
	return entities.RollCall{
		RollCallID:   m.RollCallID,
		SessionID:    m.SessionID,
		Confirmed:    m.Confirmed,
		ConfirmedAt:  utcPtr(m.ConfirmedAt),
		Finalized:    m.Finalized,
		PresentCount: m.PresentCount,
		AbsentCount:  m.AbsentCount,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type attendanceModel struct {
	RollCallID   string    `gorm:"column:roll_call_id;primaryKey"`
	LegislatorID string    `gorm:"column:legislator_id;primaryKey"`
	State        string    `gorm:"column:state;not null"`
	MarkedBy     string    `gorm:"column:marked_by"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (attendanceModel) TableName() string {
	return "plenary_attendance"
}

func (m attendanceModel) toEntity() entities.Attendance {
	return entities.Attendance{
		RollCallID:   m.RollCallID,
		LegislatorID: m.LegislatorID,
		State:        entities.AttendanceState(m.State),
		MarkedBy:     m.MarkedBy,
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type voteModel struct {
	InitiativeID string    `gorm:"column:initiative_id;primaryKey"`
	LegislatorID string    `gorm:"column:legislator_id;primaryKey"`
	Choice       string    `gorm:"column:choice;not null"`
	CastAt       time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "plenary_votes"
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		InitiativeID: m.InitiativeID,
		LegislatorID: m.LegislatorID,
		Choice:       entities.VoteChoice(m.Choice),
		CastAt:       m.CastAt.UTC(),
	}
}

type outboxModel struct {
	Sequence     int64      `gorm:"column:sequence;primaryKey;autoIncrement"`
	OutboxID     string     `gorm:"column:outbox_id;uniqueIndex;not null"`
	EventType    string     `gorm:"column:event_type;not null"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "plenary_outbox"
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}
