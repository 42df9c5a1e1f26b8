package commands_test

import (
	"context"
	"testing"

	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
)

func TestMarkAttendanceRecountsAfterConfirm(t *testing.T) {
	c := newChamber(t, 5)
	ctx := context.Background()
	prepared := c.prepare("attendance", 0, entities.MajorityRuleSimple)
	rollCall := c.start(prepared.Session.SessionID)
	confirmed := c.seat(rollCall.RollCallID, 4)
	if !confirmed.Confirmed || confirmed.PresentCount != 4 || confirmed.AbsentCount != 1 {
		t.Fatalf("unexpected confirmed roll call %+v", confirmed)
	}

	updated, err := c.coordinator.MarkAttendance(ctx, secretariat, commands.MarkAttendanceCommand{
		RollCallID:   rollCall.RollCallID,
		LegislatorID: legislatorID(1),
		State:        entities.AttendanceUnmarked,
	})
	if err != nil {
		t.Fatalf("re-mark failed: %v", err)
	}
	if !updated.Confirmed || updated.PresentCount != 3 || updated.AbsentCount != 1 {
		t.Fatalf("expected recount after confirm, got %+v", updated)
	}

	eligible, err := c.queries.IsEligibleToVote(ctx, prepared.Session.SessionID, legislatorID(1))
	if err != nil || eligible {
		t.Fatalf("unmarked legislator must not be eligible, got %v, %v", eligible, err)
	}
	eligible, err = c.queries.IsEligibleToVote(ctx, prepared.Session.SessionID, legislatorID(2))
	if err != nil || !eligible {
		t.Fatalf("present legislator must be eligible, got %v, %v", eligible, err)
	}
}

func TestMarkAttendanceRejections(t *testing.T) {
	c := newChamber(t, 3)
	ctx := context.Background()
	prepared := c.prepare("attendance-rejections", 0, entities.MajorityRuleSimple)
	rollCall := c.start(prepared.Session.SessionID)

	_, err := c.coordinator.MarkAttendance(ctx, secretariat, commands.MarkAttendanceCommand{
		RollCallID: rollCall.RollCallID, LegislatorID: legislatorID(1), State: "late",
	})
	expectError(t, err, domainerrors.ErrInvalidAttendance)
	_, err = c.coordinator.MarkAttendance(ctx, secretariat, commands.MarkAttendanceCommand{
		RollCallID: rollCall.RollCallID, LegislatorID: "leg-99", State: entities.AttendancePresent,
	})
	expectError(t, err, domainerrors.ErrLegislatorNotFound)
	_, err = c.coordinator.MarkAttendance(ctx, member(legislatorID(1)), commands.MarkAttendanceCommand{
		RollCallID: rollCall.RollCallID, LegislatorID: legislatorID(1), State: entities.AttendancePresent,
	})
	expectError(t, err, domainerrors.ErrCapabilityDenied)

	if _, err := c.coordinator.SetLegislatorActive(ctx, secretariat, legislatorID(3), false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	_, err = c.coordinator.MarkAttendance(ctx, secretariat, commands.MarkAttendanceCommand{
		RollCallID: rollCall.RollCallID, LegislatorID: legislatorID(3), State: entities.AttendancePresent,
	})
	expectError(t, err, domainerrors.ErrLegislatorInactive)

	if _, err := c.coordinator.CloseSession(ctx, presiding, prepared.Session.SessionID); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	_, err = c.coordinator.MarkAttendance(ctx, secretariat, commands.MarkAttendanceCommand{
		RollCallID: rollCall.RollCallID, LegislatorID: legislatorID(1), State: entities.AttendancePresent,
	})
	expectError(t, err, domainerrors.ErrRollCallFinalized)
	_, err = c.coordinator.ConfirmRollCall(ctx, secretariat, rollCall.RollCallID)
	expectError(t, err, domainerrors.ErrRollCallFinalized)
}

func TestCreateRollCallReturnsCurrentSheet(t *testing.T) {
	c := newChamber(t, 3)
	ctx := context.Background()
	prepared := c.prepare("roll-call-create", 0, entities.MajorityRuleSimple)
	opened := c.start(prepared.Session.SessionID)

	current, err := c.coordinator.CreateRollCall(ctx, secretariat, prepared.Session.SessionID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if current.RollCallID != opened.RollCallID {
		t.Fatalf("expected the open sheet back, got %s want %s", current.RollCallID, opened.RollCallID)
	}
	if len(c.eventsOfType(commands.EventRollCallOpened)) != 0 {
		t.Fatalf("returning the existing sheet must not emit rollcall.opened")
	}

	attendance, err := c.queries.RollCallAttendance(ctx, current.RollCallID)
	if err != nil {
		t.Fatalf("attendance failed: %v", err)
	}
	if len(attendance.Rows) != 3 {
		t.Fatalf("expected one row per active legislator, got %d", len(attendance.Rows))
	}
	for _, row := range attendance.Rows {
		if row.State != entities.AttendanceUnmarked {
			t.Fatalf("expected unmarked default, got %s", row.State)
		}
	}
}
