/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

// AssignTeam decides the team for a joining player. An explicit choice is
// honoured as-is; spymasters must make one. Otherwise the smaller team gets
// the player, with ties going to red.
func AssignTeam(existing []Player, requested Team, role Role) (Team, error) {
	if !role.Valid() {
		return NoTeam, newError(CodeInvalidPlayerData, "unknown role %q", role)
	}
	if requested != NoTeam {
		if !requested.Valid() {
			return NoTeam, newError(CodeInvalidPlayerData, "unknown team %q", requested)
		}
		return requested, nil
	}
	if role == Spymaster {
		return NoTeam, newError(CodeInvalidPlayerData, "spymasters must pick a team")
	}

	red, blue := 0, 0
	for _, p := range existing {
		switch p.Team {
		case RedTeam:
			red++
		case BlueTeam:
			blue++
		}
	}
	if red <= blue {
		return RedTeam, nil
	}
	return BlueTeam, nil
}

// AddPlayer appends p unless a player with the same id is already present.
// The returned bool reports whether the list changed.
func AddPlayer(players []Player, p Player) ([]Player, bool) {
	for _, existing := range players {
		if existing.ID == p.ID {
			return players, false
		}
	}
	return append(players, p), true
}

// RemovePlayer drops the player with the given id. Unknown ids are a no-op.
func RemovePlayer(players []Player, id string) ([]Player, bool) {
	out := make([]Player, 0, len(players))
	changed := false
	for _, p := range players {
		if p.ID == id {
			changed = true
			continue
		}
		out = append(out, p)
	}
	if !changed {
		return players, false
	}
	return out, true
}

// SwapTeams moves every player to the opposing team. This is the only edit
// ever made to an existing player, and only on an explicit new game.
func SwapTeams(players []Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		p.Team = p.Team.Other()
		out[i] = p
	}
	return out
}
