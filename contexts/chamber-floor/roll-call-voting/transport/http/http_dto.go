package http

import "time"

type ErrorResponse struct {
	Code     string            `json:"code"`
	Kind     string            `json:"kind,omitempty"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type AgendaItemRequest struct {
	Number       int    `json:"number"`
	Title        string `json:"title"`
	MajorityRule string `json:"majority_rule"`
}

type PrepareSessionRequest struct {
	Code            string              `json:"code"`
	QuorumThreshold int                 `json:"quorum_threshold"`
	Initiatives     []AgendaItemRequest `json:"initiatives"`
}

type StartSessionRequest struct {
	Supersede bool `json:"supersede"`
}

type PauseSessionRequest struct {
	Minutes int `json:"minutes"`
}

type SessionResponse struct {
	SessionID       string     `json:"session_id"`
	Code            string     `json:"code"`
	State           string     `json:"state"`
	EffectiveState  string     `json:"effective_state"`
	QuorumThreshold int        `json:"quorum_threshold"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	PausedAt        *time.Time `json:"paused_at,omitempty"`
	PauseExpiresAt  *time.Time `json:"pause_expires_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	StartedBy       string     `json:"started_by,omitempty"`
	ClosedBy        string     `json:"closed_by,omitempty"`
}

type SessionListResponse struct {
	Items []SessionResponse `json:"items"`
}

type TallyResponse struct {
	Favor   int `json:"favor"`
	Against int `json:"against"`
	Abstain int `json:"abstain"`
	Total   int `json:"total"`
}

type InitiativeResponse struct {
	InitiativeID   string         `json:"initiative_id"`
	SessionID      string         `json:"session_id"`
	Number         int            `json:"number"`
	Title          string         `json:"title"`
	MajorityRule   string         `json:"majority_rule"`
	Status         string         `json:"status"`
	Result         string         `json:"result,omitempty"`
	Tally          *TallyResponse `json:"tally,omitempty"`
	EligibleVoters int            `json:"eligible_voters,omitempty"`
	OpenedAt       *time.Time     `json:"opened_at,omitempty"`
	ClosedAt       *time.Time     `json:"closed_at,omitempty"`
}

type PrepareSessionResponse struct {
	Session     SessionResponse      `json:"session"`
	Initiatives []InitiativeResponse `json:"initiatives"`
}

type CloseSessionResponse struct {
	Session     SessionResponse      `json:"session"`
	ForceClosed []InitiativeResponse `json:"force_closed"`
}

type QuorumResponse struct {
	Present   int  `json:"present"`
	Required  int  `json:"required"`
	Shortfall int  `json:"shortfall"`
	Met       bool `json:"met"`
}

type RollCallResponse struct {
	RollCallID   string     `json:"roll_call_id"`
	SessionID    string     `json:"session_id"`
	Confirmed    bool       `json:"confirmed"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	Finalized    bool       `json:"finalized"`
	PresentCount int        `json:"present_count"`
	AbsentCount  int        `json:"absent_count"`
}

type SessionOverviewResponse struct {
	Session           SessionResponse      `json:"session"`
	Initiatives       []InitiativeResponse `json:"initiatives"`
	RollCall          *RollCallResponse    `json:"roll_call,omitempty"`
	ActiveLegislators int                  `json:"active_legislators"`
	Quorum            QuorumResponse       `json:"quorum"`
}

type MarkAttendanceRequest struct {
	LegislatorID string `json:"legislator_id"`
	State        string `json:"state"`
}

type AttendanceRowResponse struct {
	LegislatorID string `json:"legislator_id"`
	DisplayName  string `json:"display_name"`
	Party        string `json:"party,omitempty"`
	SeatOrder    int    `json:"seat_order"`
	State        string `json:"state"`
}

type AttendanceResponse struct {
	RollCall RollCallResponse        `json:"roll_call"`
	Rows     []AttendanceRowResponse `json:"rows"`
}

type ActivateInitiativeRequest struct {
	Force       bool `json:"force"`
	ForceQuorum bool `json:"force_quorum"`
}

type ReopenInitiativeRequest struct {
	ForceQuorum bool `json:"force_quorum"`
}

type CloseInitiativeResponse struct {
	Initiative InitiativeResponse `json:"initiative"`
	Replayed   bool               `json:"replayed"`
}

type CastVoteRequest struct {
	LegislatorID string `json:"legislator_id,omitempty"`
	Choice       string `json:"choice"`
}

type CastVoteResponse struct {
	InitiativeID string        `json:"initiative_id"`
	LegislatorID string        `json:"legislator_id"`
	Choice       string        `json:"choice"`
	Replaced     bool          `json:"replaced"`
	Tally        TallyResponse `json:"tally"`
}

type VoteResponse struct {
	LegislatorID string    `json:"legislator_id"`
	Choice       string    `json:"choice"`
	CastAt       time.Time `json:"cast_at"`
}

type InitiativeTallyResponse struct {
	Initiative     InitiativeResponse `json:"initiative"`
	Tally          TallyResponse      `json:"tally"`
	EligibleVoters int                `json:"eligible_voters"`
	Votes          []VoteResponse     `json:"votes"`
}

type EligibilityResponse struct {
	SessionID    string `json:"session_id"`
	LegislatorID string `json:"legislator_id"`
	Eligible     bool   `json:"eligible"`
}

type LegislatorRequest struct {
	LegislatorID string `json:"legislator_id"`
	DisplayName  string `json:"display_name"`
	Party        string `json:"party"`
	SeatOrder    int    `json:"seat_order"`
	Active       bool   `json:"active"`
}

type RegisterLegislatorsRequest struct {
	Legislators []LegislatorRequest `json:"legislators"`
}

type RegisterLegislatorsResponse struct {
	Changed int `json:"changed"`
}

type SetLegislatorActiveRequest struct {
	Active bool `json:"active"`
}

type LegislatorResponse struct {
	LegislatorID string `json:"legislator_id"`
	DisplayName  string `json:"display_name"`
	Party        string `json:"party,omitempty"`
	SeatOrder    int    `json:"seat_order"`
	Active       bool   `json:"active"`
}

type LegislatorListResponse struct {
	Items []LegislatorResponse `json:"items"`
}
