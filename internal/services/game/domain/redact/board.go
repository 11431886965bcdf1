package redact

import (
	"fmt"
	"strings"

	"github.com/louisbranch/deception/internal/services/game/domain/catalog"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
)

// BoardHeader is the first line of every board context.
const BoardHeader = "BOARD CONTEXT (visible to you):"

// BoardContext renders what viewerID may see as plain text for automated
// players. It is built from the redacted View only.
func BoardContext(rec game.Record, cat catalog.Catalog, viewerID string) string {
	return RenderBoard(ForViewer(rec, viewerID), cat)
}

// RenderBoard renders a view as board context text.
func RenderBoard(view View, cat catalog.Catalog) string {
	sections := []string{
		BoardHeader,
		summary(view, cat),
		sceneTiles(view, cat),
		"DISCUSSION HISTORY (chronological):",
		history(view),
	}
	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

func summary(view View, cat catalog.Catalog) string {
	var sent []string
	if view.Scene.LocationID != "" && view.Scene.CauseID != "" {
		sent = append(sent, fmt.Sprintf("Scene: Location is '%s' and Cause of Death is '%s'.",
			cat.Tiles.Text(view.Scene.LocationID), cat.Tiles.Text(view.Scene.CauseID)))
	} else {
		sent = append(sent, "Scene: Location and Cause of Death have not been selected yet.")
	}
	sent = append(sent, fmt.Sprintf("Phase: %s.", view.Phase))

	for _, role := range []game.Role{game.RoleForensicScientist, game.RoleMurderer, game.RoleAccomplice, game.RoleWitness} {
		if p, ok := view.ByRole(role); ok {
			sent = append(sent, fmt.Sprintf("%s: %s.", role.Label(), p.Label()))
		}
	}
	if view.Solution != nil {
		sent = append(sent, fmt.Sprintf("Murder solution (secret): the murderer chose Means '%s' and Evidence '%s'.",
			cat.Means.Name(view.Solution.MeansID), cat.Clues.Name(view.Solution.ClueID)))
	}
	if view.WinnerID != "" {
		sent = append(sent, fmt.Sprintf("Solved by: %s.", view.WinnerID))
	}

	lines := []string{strings.Join(sent, " "), "PUBLIC TABLE (all hands visible; ordered by seating):"}
	for _, p := range view.Players {
		line := "- " + p.Label()
		if p.BadgeUsed {
			line += " (badge used)"
		}
		lines = append(lines, line)
		if len(p.Hand.MeansIDs) == 0 && len(p.Hand.ClueIDs) == 0 {
			continue
		}
		lines = append(lines,
			"  - Means: "+names(p.Hand.MeansIDs, cat.Means.Name),
			"  - Clues: "+names(p.Hand.ClueIDs, cat.Clues.Name))
	}
	return strings.Join(lines, "\n")
}

func sceneTiles(view View, cat catalog.Catalog) string {
	if view.Scene.LocationTile == "" && view.Scene.CauseTile == "" {
		return "SCENE TILES: (not dealt yet)"
	}
	lines := []string{"SCENE TILES (public):"}
	tiles := []struct {
		name     string
		options  []string
		selected string
	}{
		{view.Scene.LocationTile, view.Scene.LocationOptions, view.Scene.LocationID},
		{view.Scene.CauseTile, view.Scene.CauseOptions, view.Scene.CauseID},
	}
	for i, tile := range tiles {
		if tile.selected != "" {
			lines = append(lines, fmt.Sprintf("%d. %s -> option: '%s'", i+1, tile.name, cat.Tiles.Text(tile.selected)))
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s -> option: (not selected yet); options=%s",
			i+1, tile.name, names(tile.options, cat.Tiles.Text)))
	}
	return strings.Join(lines, "\n")
}

func history(view View) string {
	var lines []string
	for _, msg := range view.Discussion {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s", msg.Seq, msg.PlayerID, text))
	}
	if len(lines) == 0 {
		return "(no discussion yet)"
	}
	return strings.Join(lines, "\n")
}

func names(ids []string, name func(string) string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf("'%s' (%s)", name(id), id)
	}
	return "[" + strings.Join(out, ", ") + "]"
}
