package agendafile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
)

const agendaYAML = `
session:
  code: 2026-03-02-ordinary
  quorum_threshold: 11
initiatives:
  - number: 1
    title: Approval of the minutes
  - number: 2
    title: Charter amendment
    majority_rule: Qualified
`

func TestLoadAgendaDefaultsToSimpleMajority(t *testing.T) {
	cmd, err := LoadAgenda(strings.NewReader(agendaYAML))
	if err != nil {
		t.Fatalf("load agenda failed: %v", err)
	}
	if cmd.Code != "2026-03-02-ordinary" || cmd.QuorumThreshold != 11 {
		t.Fatalf("unexpected session header %+v", cmd)
	}
	if len(cmd.Agenda) != 2 {
		t.Fatalf("expected two items, got %d", len(cmd.Agenda))
	}
	if cmd.Agenda[0].MajorityRule != entities.MajorityRuleSimple {
		t.Fatalf("expected simple default, got %q", cmd.Agenda[0].MajorityRule)
	}
	if cmd.Agenda[1].MajorityRule != entities.MajorityRuleQualified {
		t.Fatalf("expected qualified, got %q", cmd.Agenda[1].MajorityRule)
	}
}

func TestLoadAgendaRejectsMalformedDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "session:\n  code: x\n  chair: someone\n",
		"unknown rule": "session:\n  code: x\ninitiatives:\n  - number: 1\n    title: t\n    majority_rule: plurality\n",
		"empty":        "",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadAgenda(strings.NewReader(doc))
			if domainerrors.KindOf(err) != domainerrors.KindInvalid {
				t.Fatalf("expected invalid kind, got %v", err)
			}
		})
	}
}

func TestLoadRosterFileDefaultsActive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	doc := `
legislators:
  - id: leg-01
    display_name: Ada Quispe
    party: Verde
    seat_order: 1
  - id: leg-02
    display_name: Bruno Salas
    seat_order: 2
    active: false
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write roster failed: %v", err)
	}
	roster, err := LoadRosterFile(path)
	if err != nil {
		t.Fatalf("load roster failed: %v", err)
	}
	if len(roster) != 2 || !roster[0].Active || roster[1].Active {
		t.Fatalf("unexpected roster %+v", roster)
	}
	if roster[0].Party != "Verde" || roster[1].SeatOrder != 2 {
		t.Fatalf("unexpected roster fields %+v", roster)
	}

	if _, err := LoadRosterFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadAgendaFileWrapsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agenda.yaml")
	if err := os.WriteFile(path, []byte("bogus: true\n"), 0o600); err != nil {
		t.Fatalf("write agenda failed: %v", err)
	}
	_, err := LoadAgendaFile(path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error naming %s, got %v", path, err)
	}
	if !errors.Is(err, domainerrors.ErrInvalidAgenda) {
		t.Fatalf("expected invalid agenda, got %v", err)
	}
}
