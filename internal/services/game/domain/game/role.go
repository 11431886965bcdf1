package game

import (
	"fmt"
	"math/rand"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
)

// Role is a player's secret role.
type Role string

const (
	RoleForensicScientist Role = "forensic_scientist"
	RoleMurderer          Role = "murderer"
	RoleAccomplice        Role = "accomplice"
	RoleWitness           Role = "witness"
	RoleInvestigator      Role = "investigator"
)

const (
	// MinPlayers is the smallest legal table.
	MinPlayers = 4
	// MaxPlayers is the largest legal table.
	MaxPlayers = 12
	// FullCastPlayers is the table size from which Accomplice and Witness are dealt.
	FullCastPlayers = 6
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleForensicScientist, RoleMurderer, RoleAccomplice, RoleWitness, RoleInvestigator:
		return true
	default:
		return false
	}
}

// Label returns the display name of the role.
func (r Role) Label() string {
	switch r {
	case RoleForensicScientist:
		return "Forensic Scientist"
	case RoleMurderer:
		return "Murderer"
	case RoleAccomplice:
		return "Accomplice"
	case RoleWitness:
		return "Witness"
	case RoleInvestigator:
		return "Investigator"
	default:
		return string(r)
	}
}

// HoldsHand reports whether the role is dealt cards.
func (r Role) HoldsHand() bool {
	return r != RoleForensicScientist
}

// ValidatePlayerCount rejects tables outside MinPlayers..MaxPlayers.
func ValidatePlayerCount(count int) error {
	if count < MinPlayers || count > MaxPlayers {
		return apperrors.WithMetadata(apperrors.CodePlayerCountInvalid,
			fmt.Sprintf("player count %d outside %d..%d", count, MinPlayers, MaxPlayers),
			map[string]string{"Count": fmt.Sprint(count)})
	}
	return nil
}

// AssignRoles returns one role per seat, shuffled with rng: one Forensic
// Scientist, one Murderer, an Accomplice and a Witness from FullCastPlayers
// up, and Investigators for every other seat.
func AssignRoles(count int, rng *rand.Rand) ([]Role, error) {
	if err := ValidatePlayerCount(count); err != nil {
		return nil, err
	}
	roles := make([]Role, 0, count)
	roles = append(roles, RoleForensicScientist, RoleMurderer)
	if count >= FullCastPlayers {
		roles = append(roles, RoleAccomplice, RoleWitness)
	}
	for len(roles) < count {
		roles = append(roles, RoleInvestigator)
	}
	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
	return roles, nil
}
