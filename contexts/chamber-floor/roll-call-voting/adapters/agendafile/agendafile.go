// Package agendafile reads the agenda and roster documents the secretariat
// hands over before a sitting.
package agendafile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"

	"gopkg.in/yaml.v3"
)

type agendaDocument struct {
	Session struct {
		Code            string `yaml:"code"`
		QuorumThreshold int    `yaml:"quorum_threshold"`
	} `yaml:"session"`
	Initiatives []struct {
		Number       int    `yaml:"number"`
		Title        string `yaml:"title"`
		MajorityRule string `yaml:"majority_rule"`
	} `yaml:"initiatives"`
}

type rosterDocument struct {
	Legislators []struct {
		ID          string `yaml:"id"`
		DisplayName string `yaml:"display_name"`
		Party       string `yaml:"party"`
		SeatOrder   int    `yaml:"seat_order"`
		Active      *bool  `yaml:"active"`
	} `yaml:"legislators"`
}

// LoadAgenda decodes an agenda document. A missing majority_rule means a
// simple majority. Unknown keys are rejected.
func LoadAgenda(r io.Reader) (commands.PrepareSessionCommand, error) {
	var doc agendaDocument
	if err := decodeStrict(r, &doc); err != nil {
		return commands.PrepareSessionCommand{}, err
	}
	cmd := commands.PrepareSessionCommand{
		Code:            strings.TrimSpace(doc.Session.Code),
		QuorumThreshold: doc.Session.QuorumThreshold,
		Agenda:          make([]commands.AgendaItem, 0, len(doc.Initiatives)),
	}
	for _, item := range doc.Initiatives {
		rule := entities.MajorityRule(strings.ToLower(strings.TrimSpace(item.MajorityRule)))
		if rule == "" {
			rule = entities.MajorityRuleSimple
		}
		if !rule.Valid() {
			return commands.PrepareSessionCommand{}, domainerrors.ErrInvalidMajorityRule.With("majority_rule", item.MajorityRule)
		}
		cmd.Agenda = append(cmd.Agenda, commands.AgendaItem{
			Number:       item.Number,
			Title:        strings.TrimSpace(item.Title),
			MajorityRule: rule,
		})
	}
	return cmd, nil
}

func LoadAgendaFile(path string) (commands.PrepareSessionCommand, error) {
	file, err := os.Open(path)
	if err != nil {
		return commands.PrepareSessionCommand{}, err
	}
	defer file.Close()
	cmd, err := LoadAgenda(file)
	if err != nil {
		return commands.PrepareSessionCommand{}, fmt.Errorf("agenda %s: %w", path, err)
	}
	return cmd, nil
}

// LoadRoster decodes a legislator roster. Legislators are active unless the
// document says otherwise.
func LoadRoster(r io.Reader) ([]entities.Legislator, error) {
	var doc rosterDocument
	if err := decodeStrict(r, &doc); err != nil {
		return nil, err
	}
	roster := make([]entities.Legislator, 0, len(doc.Legislators))
	for _, item := range doc.Legislators {
		active := true
		if item.Active != nil {
			active = *item.Active
		}
		roster = append(roster, entities.Legislator{
			LegislatorID: strings.TrimSpace(item.ID),
			DisplayName:  strings.TrimSpace(item.DisplayName),
			Party:        strings.TrimSpace(item.Party),
			SeatOrder:    item.SeatOrder,
			Active:       active,
		})
	}
	return roster, nil
}

func LoadRosterFile(path string) ([]entities.Legislator, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	roster, err := LoadRoster(file)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return roster, nil
}

func decodeStrict(r io.Reader, out any) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return domainerrors.ErrInvalidAgenda.With("reason", "empty document")
		}
		return domainerrors.ErrInvalidAgenda.With("reason", err.Error())
	}
	return nil
}
