package entities

import (
	"testing"
	"time"
)

func TestSessionEffectiveStateAfterPauseExpiry(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	expires := now.Add(10 * time.Minute)
	session := Session{State: SessionStatePaused, PauseExpiresAt: &expires}

	if got := session.EffectiveState(now); got != SessionStatePaused {
		t.Fatalf("expected paused before expiry, got %s", got)
	}
	if got := session.EffectiveState(expires); got != SessionStateStarted {
		t.Fatalf("expected started at expiry, got %s", got)
	}

	indefinite := Session{State: SessionStatePaused}
	if indefinite.PauseExpired(now.Add(24 * time.Hour)) {
		t.Fatalf("pause without expiry never lapses")
	}
}

func TestSessionResumeClearsPause(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	session := Session{State: SessionStatePaused, PausedAt: &now, PauseExpiresAt: &now}
	session.Resume(now.Add(time.Minute))
	if session.State != SessionStateStarted || session.PausedAt != nil || session.PauseExpiresAt != nil {
		t.Fatalf("expected clean started session, got %+v", session)
	}
	if !session.Active() {
		t.Fatalf("started session is active")
	}
}

func TestInitiativeStatus(t *testing.T) {
	if got := (Initiative{}).Status(); got != InitiativeStatusPending {
		t.Fatalf("expected pending, got %s", got)
	}
	open := Initiative{Open: true}
	if open.Status() != InitiativeStatusOpen || !open.AcceptsVotes() {
		t.Fatalf("expected open initiative to accept votes")
	}
	closed := Initiative{Closed: true}
	if closed.Status() != InitiativeStatusClosed || closed.AcceptsVotes() {
		t.Fatalf("closed initiative must not accept votes")
	}
}

func TestTallyAndAttendanceCounts(t *testing.T) {
	tally := TallyVotes([]Vote{
		{Choice: VoteFavor}, {Choice: VoteFavor}, {Choice: VoteAgainst}, {Choice: VoteAbstain},
	})
	if tally != (Tally{Favor: 2, Against: 1, Abstain: 1}) || tally.Total() != 4 {
		t.Fatalf("unexpected tally %+v", tally)
	}

	present, absent := CountAttendance([]Attendance{
		{State: AttendancePresent}, {State: AttendanceAbsent}, {State: AttendanceUnmarked}, {State: AttendancePresent},
	})
	if present != 2 || absent != 1 {
		t.Fatalf("expected 2 present 1 absent, got %d/%d", present, absent)
	}
	if (RollCall{}).Recorded() {
		t.Fatalf("roll call without marks is not recorded")
	}
}

func TestEnumValidation(t *testing.T) {
	if !MajorityRuleQualified.Valid() || MajorityRule("").Valid() {
		t.Fatalf("majority rule validation broken")
	}
	if !VoteAbstain.Valid() || VoteChoice("yes").Valid() {
		t.Fatalf("vote choice validation broken")
	}
	if !AttendanceUnmarked.Valid() || AttendanceState("late").Valid() {
		t.Fatalf("attendance validation broken")
	}
	if !SessionStateClosed.Valid() || SessionState("open").Valid() {
		t.Fatalf("session state validation broken")
	}
}
