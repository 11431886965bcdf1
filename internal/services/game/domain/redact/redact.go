// Package redact projects a game record onto what a point of view may see.
//
// Hands, discussion, scene and phase are public. Role identities and the
// chosen solution are secret, and every View is built by copying only the
// fields the POV is entitled to; nothing is copied and then blanked.
package redact

import (
	"slices"
	"strings"
	"time"

	"github.com/louisbranch/deception/internal/services/game/domain/game"
)

// POV is a role-based viewpoint.
type POV string

const (
	POVForensicScientist POV = "forensic_scientist"
	POVMurderer          POV = "murderer"
	POVAccomplice        POV = "accomplice"
	POVWitness           POV = "witness"
	POVInvestigator      POV = "investigator"
)

// ParsePOV maps a viewpoint name to a POV. Anything unrecognized becomes
// POVInvestigator, the most restrictive view.
func ParsePOV(value string) POV {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "forensic_scientist", "forensic-scientist", "fs":
		return POVForensicScientist
	case "murderer":
		return POVMurderer
	case "accomplice":
		return POVAccomplice
	case "witness":
		return POVWitness
	default:
		return POVInvestigator
	}
}

// POVForRole returns the viewpoint of a player holding role.
func POVForRole(role game.Role) POV {
	return ParsePOV(string(role))
}

// SeesSolution reports whether the POV may see the chosen solution.
func (p POV) SeesSolution() bool {
	switch p {
	case POVForensicScientist, POVMurderer, POVAccomplice:
		return true
	default:
		return false
	}
}

// SeesRole reports whether the POV may see that a player holds role. The
// Forensic Scientist is public to everyone.
func (p POV) SeesRole(role game.Role) bool {
	if role == game.RoleForensicScientist {
		return true
	}
	switch p {
	case POVForensicScientist:
		return true
	case POVMurderer, POVAccomplice, POVWitness:
		return role == game.RoleMurderer || role == game.RoleAccomplice
	default:
		return false
	}
}

// View is the restricted projection of a record.
type View struct {
	GameID     string                   `json:"game_id"`
	POV        POV                      `json:"pov"`
	Phase      game.Phase               `json:"phase"`
	Revision   uint64                   `json:"revision"`
	Players    []PlayerView             `json:"players"`
	Solution   *game.Solution           `json:"solution,omitempty"`
	Discussion []game.DiscussionMessage `json:"discussion"`
	Scene      SceneView                `json:"scene"`
	WinnerID   string                   `json:"winner_id,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// PlayerView is one seat as seen from a POV. Role is empty when hidden.
type PlayerView struct {
	ID          string    `json:"player_id"`
	Seat        int       `json:"seat"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        game.Role `json:"role,omitempty"`
	Hand        game.Hand `json:"hand"`
	// BadgeUsed is set once an investigator's badge is spent. Remaining
	// badges are not shown since only investigators hold one.
	BadgeUsed bool `json:"badge_used,omitempty"`
	Automated bool `json:"is_automated"`
}

// Label returns the display name, or the player id when none is set.
func (p PlayerView) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}

// SceneView is the public scene state.
type SceneView struct {
	LocationTile    string   `json:"location_tile"`
	LocationOptions []string `json:"location_options"`
	CauseTile       string   `json:"cause_tile"`
	CauseOptions    []string `json:"cause_options"`
	LocationID      string   `json:"location_id,omitempty"`
	CauseID         string   `json:"cause_id,omitempty"`
}

// Redact returns what pov may see of rec.
func Redact(rec game.Record, pov POV) View {
	pov = ParsePOV(string(pov))
	view := View{
		GameID:     rec.ID,
		POV:        pov,
		Phase:      rec.Phase,
		Revision:   rec.Revision,
		Discussion: slices.Clone(rec.Discussion),
		Scene: SceneView{
			LocationTile:    rec.Scene.LocationTile,
			LocationOptions: slices.Clone(rec.Scene.LocationOptions),
			CauseTile:       rec.Scene.CauseTile,
			CauseOptions:    slices.Clone(rec.Scene.CauseOptions),
			LocationID:      rec.Scene.LocationID,
			CauseID:         rec.Scene.CauseID,
		},
		WinnerID:  rec.WinnerID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if view.Discussion == nil {
		view.Discussion = []game.DiscussionMessage{}
	}
	for _, p := range rec.BySeat() {
		pv := PlayerView{
			ID:          p.ID,
			Seat:        p.Seat,
			DisplayName: p.DisplayName,
			Hand:        game.Hand{ClueIDs: slices.Clone(p.Hand.ClueIDs), MeansIDs: slices.Clone(p.Hand.MeansIDs)},
			BadgeUsed:   p.Role == game.RoleInvestigator && !p.BadgeRemaining,
			Automated:   p.Automated,
		}
		if pov.SeesRole(p.Role) {
			pv.Role = p.Role
		}
		view.Players = append(view.Players, pv)
	}
	if pov.SeesSolution() && rec.Solution != nil {
		solution := *rec.Solution
		view.Solution = &solution
	}
	return view
}

// ForViewer redacts rec for the player with viewerID. Unknown viewers get
// the investigator view.
func ForViewer(rec game.Record, viewerID string) View {
	pov := POVInvestigator
	if p, ok := rec.Player(viewerID); ok {
		pov = POVForRole(p.Role)
	}
	return Redact(rec, pov)
}

// ByRole returns the first visible player holding role.
func (v View) ByRole(role game.Role) (PlayerView, bool) {
	i := slices.IndexFunc(v.Players, func(p PlayerView) bool { return p.Role == role })
	if i < 0 {
		return PlayerView{}, false
	}
	return v.Players[i], true
}
