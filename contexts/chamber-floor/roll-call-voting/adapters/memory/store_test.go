package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
	"plenary/contexts/chamber-floor/roll-call-voting/ports"
)

func TestWithinTxDiscardsFailedUnitOfWork(t *testing.T) {
	store := NewStore([]entities.Legislator{{LegislatorID: "leg-01", DisplayName: "One", Active: true}})
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.SaveLegislator(ctx, entities.Legislator{LegislatorID: "leg-01", DisplayName: "One", Active: false}); err != nil {
			return err
		}
		if err := tx.AppendOutbox(ctx, ports.EventEnvelope{EventID: "evt-1", EventType: "legislator.updated"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	err = store.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		legislator, err := tx.GetLegislator(ctx, "leg-01")
		if err != nil {
			return err
		}
		if !legislator.Active {
			t.Fatalf("failed unit of work leaked a write")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if store.PendingOutboxCount() != 0 {
		t.Fatalf("failed unit of work leaked an outbox row")
	}
}

func TestViewIsReadOnly(t *testing.T) {
	store := NewStore(nil)
	err := store.View(context.Background(), func(ctx context.Context, tx ports.Tx) error {
		return tx.SaveLegislator(ctx, entities.Legislator{LegislatorID: "leg-01"})
	})
	if !errors.Is(err, errReadOnly) {
		t.Fatalf("expected read-only error, got %v", err)
	}
}

func TestCancelledContextSkipsUnitOfWork(t *testing.T) {
	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := store.WithinTx(ctx, func(context.Context, ports.Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected cancelled context to short-circuit, got %v (called=%v)", err, called)
	}
}

func TestSingleActiveSessionAndOpenInitiative(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		for _, id := range []string{"s-1", "s-2"} {
			if err := tx.CreateSession(ctx, entities.Session{SessionID: id, Code: id, State: entities.SessionStatePrepared, CreatedAt: now}); err != nil {
				return err
			}
		}
		for _, id := range []string{"i-1", "i-2"} {
			if err := tx.CreateInitiative(ctx, entities.Initiative{InitiativeID: id, SessionID: "s-1", Number: int(id[2] - '0')}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.CreateSession(ctx, entities.Session{SessionID: "s-3", Code: "s-1"}); !errors.Is(err, domainerrors.ErrDuplicate) {
			t.Fatalf("expected duplicate code, got %v", err)
		}
		first, _ := tx.GetSession(ctx, "s-1")
		first.State = entities.SessionStateStarted
		if err := tx.SaveSession(ctx, first); err != nil {
			return err
		}
		second, _ := tx.GetSession(ctx, "s-2")
		second.State = entities.SessionStatePaused
		if err := tx.SaveSession(ctx, second); !errors.Is(err, domainerrors.ErrDuplicate) {
			t.Fatalf("expected second active session rejected, got %v", err)
		}

		one, _ := tx.GetInitiative(ctx, "i-1")
		one.Open = true
		if err := tx.SaveInitiative(ctx, one); err != nil {
			return err
		}
		two, _ := tx.GetInitiative(ctx, "i-2")
		two.Open = true
		if err := tx.SaveInitiative(ctx, two); !errors.Is(err, domainerrors.ErrDuplicate) {
			t.Fatalf("expected second open initiative rejected, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unit of work failed: %v", err)
	}
}

func TestCurrentRollCallPrefersOpenSheet(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.CreateRollCall(ctx, entities.RollCall{RollCallID: "rc-1", SessionID: "s-1", CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.CreateRollCall(ctx, entities.RollCall{RollCallID: "rc-2", SessionID: "s-1", CreatedAt: now.Add(time.Minute)}); !errors.Is(err, domainerrors.ErrDuplicate) {
			t.Fatalf("expected one open roll call per session, got %v", err)
		}
		finalized, _ := tx.GetRollCall(ctx, "rc-1")
		finalized.Finalized = true
		if err := tx.SaveRollCall(ctx, finalized); err != nil {
			return err
		}
		if err := tx.CreateRollCall(ctx, entities.RollCall{RollCallID: "rc-2", SessionID: "s-1", CreatedAt: now.Add(-time.Minute)}); err != nil {
			return err
		}
		current, found, err := tx.GetCurrentRollCall(ctx, "s-1")
		if err != nil || !found || current.RollCallID != "rc-2" {
			t.Fatalf("expected open rc-2 as current, got %+v, %v, %v", current, found, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unit of work failed: %v", err)
	}
}

func TestOutboxListsPendingInCommitOrder(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	occurred := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	for _, id := range []string{"evt-c", "evt-a", "evt-b"} {
		err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
			return tx.AppendOutbox(ctx, ports.EventEnvelope{EventID: id, EventType: "session.prepared", OccurredAt: occurred})
		})
		if err != nil {
			t.Fatalf("append %s failed: %v", id, err)
		}
	}

	rows, err := store.ListPendingOutbox(ctx, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 2 || rows[0].OutboxID != "evt-c" || rows[1].OutboxID != "evt-a" {
		t.Fatalf("expected commit order, got %+v", rows)
	}
	if err := store.MarkOutboxPublished(ctx, "evt-c", occurred); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := store.MarkOutboxPublished(ctx, "missing", occurred); !errors.Is(err, domainerrors.ErrOutboxNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if store.PendingOutboxCount() != 2 {
		t.Fatalf("expected two pending rows, got %d", store.PendingOutboxCount())
	}
	if _, kept := store.state.outbox["evt-c"]; kept || len(store.state.outbox) != 2 {
		t.Fatalf("expected published row pruned, have %d rows", len(store.state.outbox))
	}
	if err := store.MarkOutboxPublished(ctx, "evt-c", occurred); !errors.Is(err, domainerrors.ErrOutboxNotFound) {
		t.Fatalf("expected pruned row to be gone, got %v", err)
	}

	// Later units of work carry only the undelivered rows.
	err = store.WithinTx(ctx, func(_ context.Context, unit ports.Tx) error {
		if len(unit.(*tx).state.outbox) != 2 {
			t.Fatalf("expected working copy of 2 pending rows")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unit of work failed: %v", err)
	}
}
