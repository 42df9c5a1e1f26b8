package entities

import "time"

type AttendanceState string

const (
	AttendancePresent  AttendanceState = "present"
	AttendanceAbsent   AttendanceState = "absent"
	AttendanceUnmarked AttendanceState = "unmarked"
)

func (s AttendanceState) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceUnmarked:
		return true
	default:
		return false
	}
}

// RollCall is the attendance sheet of a session. A session has at most one
// roll call that is not finalized; it is finalized when the session closes.
type RollCall struct {
	RollCallID   string
	SessionID    string
	Confirmed    bool
	ConfirmedAt  *time.Time
	Finalized    bool
	PresentCount int
	AbsentCount  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Recorded reports whether at least one legislator has been marked present
// or absent.
func (r RollCall) Recorded() bool {
	return r.PresentCount+r.AbsentCount > 0
}

type Attendance struct {
	RollCallID   string
	LegislatorID string
	State        AttendanceState
	MarkedBy     string
	UpdatedAt    time.Time
}

// CountAttendance re-derives the aggregate counts of a roll call.
func CountAttendance(rows []Attendance) (present int, absent int) {
	for _, row := range rows {
		switch row.State {
		case AttendancePresent:
			present++
		case AttendanceAbsent:
			absent++
		}
	}
	return present, absent
}
