package services

import (
	"strings"

	domainerrors "plenary/contexts/chamber-floor/roll-call-voting/domain/errors"
)

type Role string

const (
	RolePresiding       Role = "presiding"
	RoleDeputyPresiding Role = "deputy_presiding"
	RoleSecretariat     Role = "secretariat"
	RoleLegislator      Role = "legislator"
	RolePublic          Role = "public"
)

type Capability string

const (
	CapabilitySessionPrepare     Capability = "session.prepare"
	CapabilitySessionDrive       Capability = "session.drive"
	CapabilitySessionSupersede   Capability = "session.supersede"
	CapabilityRollCallManage     Capability = "rollcall.manage"
	CapabilityInitiativeActivate Capability = "initiative.activate"
	CapabilityInitiativeClose    Capability = "initiative.close"
	CapabilityInitiativeReopen   Capability = "initiative.reopen"
	CapabilityVoteCast           Capability = "vote.cast"
	CapabilityLegislatorManage   Capability = "legislator.manage"
	CapabilityResultsRead        Capability = "results.read"
)

var roleCapabilities = map[Role][]Capability{
	RolePresiding: {
		CapabilitySessionPrepare,
		CapabilitySessionDrive,
		CapabilitySessionSupersede,
		CapabilityRollCallManage,
		CapabilityInitiativeActivate,
		CapabilityInitiativeClose,
		CapabilityInitiativeReopen,
		CapabilityVoteCast,
		CapabilityResultsRead,
	},
	RoleDeputyPresiding: {
		CapabilitySessionPrepare,
		CapabilitySessionDrive,
		CapabilityRollCallManage,
		CapabilityInitiativeActivate,
		CapabilityInitiativeClose,
		CapabilityVoteCast,
		CapabilityResultsRead,
	},
	RoleSecretariat: {
		CapabilitySessionPrepare,
		CapabilitySessionDrive,
		CapabilityRollCallManage,
		CapabilityLegislatorManage,
		CapabilityResultsRead,
	},
	RoleLegislator: {
		CapabilityVoteCast,
		CapabilityResultsRead,
	},
	RolePublic: {
		CapabilityResultsRead,
	},
}

// ParseRole normalizes the role string handed over by the identity provider.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := roleCapabilities[role]; !ok {
		return "", domainerrors.ErrInvalidRole
	}
	return role, nil
}

// Authorize is the single capability check every command goes through.
func Authorize(rawRole string, capability Capability) error {
	role, err := ParseRole(rawRole)
	if err != nil {
		return err
	}
	for _, granted := range roleCapabilities[role] {
		if granted == capability {
			return nil
		}
	}
	return domainerrors.ErrCapabilityDenied.With("capability", string(capability))
}
