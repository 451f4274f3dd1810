/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"slices"
	"time"
)

// Player is one participant in a room. Team and role are fixed when the
// player joins.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Team     Team      `json:"team"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Reason explains how a game ended.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonAssassin Reason = "assassin"
	ReasonVictory  Reason = "victory"
)

// Outcome is recorded on the room once a game is decided.
type Outcome struct {
	Winner Team   `json:"winner"`
	Loser  Team   `json:"loser"`
	Reason Reason `json:"reason"`
}

// Status is the derived lifecycle state of a room.
type Status string

const (
	StatusSetup      Status = "setup"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Room is the persisted document for one room id. Version is maintained by
// the store and used for conditional writes.
type Room struct {
	RoomID      string    `json:"room_id"`
	Board       Board     `json:"words_data"`
	CurrentTurn Team      `json:"current_turn"`
	Players     []Player  `json:"players"`
	UsedWords   []string  `json:"used_words,omitempty"`
	WordBankID  string    `json:"word_bank_id,omitempty"`
	Outcome     *Outcome  `json:"outcome,omitempty"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r Room) Status() Status {
	switch {
	case len(r.Board) == 0:
		return StatusSetup
	case r.Outcome != nil:
		return StatusFinished
	}
	return StatusInProgress
}

// Player looks up a player by id.
func (r Room) Player(id string) (Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// TeamCounts returns how many players sit on each team.
func (r Room) TeamCounts() (red, blue int) {
	for _, p := range r.Players {
		switch p.Team {
		case RedTeam:
			red++
		case BlueTeam:
			blue++
		}
	}
	return red, blue
}

// Clone returns a deep copy of the room.
func (r Room) Clone() Room {
	out := r
	out.Board = r.Board.Clone()
	out.Players = slices.Clone(r.Players)
	out.UsedWords = slices.Clone(r.UsedWords)
	if r.Outcome != nil {
		o := *r.Outcome
		out.Outcome = &o
	}
	return out
}

// Redacted hides the colour of every face-down card. Operatives and
// spectators get this view; spymasters see the full board.
func (r Room) Redacted() Room {
	out := r.Clone()
	for i := range out.Board {
		if !out.Board[i].Revealed {
			out.Board[i].Color = ""
		}
	}
	return out
}

// HidePlayerIDs blanks the id of every player except self. Ids are what
// players rejoin with, so a shared view must not carry other players' ids.
func (r Room) HidePlayerIDs(self string) Room {
	out := r.Clone()
	for i := range out.Players {
		if out.Players[i].ID != self {
			out.Players[i].ID = ""
		}
	}
	return out
}

// Validate checks the structural invariants every stored room must satisfy.
// It runs before every write and after every read.
func (r Room) Validate() error {
	if err := ValidateRoomID(r.RoomID); err != nil {
		return wrapError(CodeMalformedState, "room id", err)
	}
	if len(r.Board) != BoardSize {
		return newError(CodeMalformedState, "room %s has %d cards, want %d", r.RoomID, len(r.Board), BoardSize)
	}
	for i, card := range r.Board {
		if card.Word == "" {
			return newError(CodeMalformedState, "room %s card %d has no word", r.RoomID, i)
		}
		if !card.Color.Valid() {
			return newError(CodeMalformedState, "room %s card %d has colour %q", r.RoomID, i, card.Color)
		}
	}
	if !r.CurrentTurn.Valid() {
		return newError(CodeMalformedState, "room %s has turn %q", r.RoomID, r.CurrentTurn)
	}

	seen := make(map[string]struct{}, len(r.Players))
	for _, p := range r.Players {
		if p.ID == "" {
			return newError(CodeMalformedState, "room %s has a player without an id", r.RoomID)
		}
		if _, ok := seen[p.ID]; ok {
			return newError(CodeMalformedState, "room %s lists player %s twice", r.RoomID, p.ID)
		}
		seen[p.ID] = struct{}{}
		if !p.Team.Valid() || !p.Role.Valid() {
			return newError(CodeMalformedState, "room %s player %s has team %q role %q", r.RoomID, p.ID, p.Team, p.Role)
		}
	}

	if r.Outcome != nil {
		if !r.Outcome.Winner.Valid() || r.Outcome.Loser != r.Outcome.Winner.Other() {
			return newError(CodeMalformedState, "room %s has an inconsistent outcome", r.RoomID)
		}
		if r.Outcome.Reason != ReasonAssassin && r.Outcome.Reason != ReasonVictory {
			return newError(CodeMalformedState, "room %s has outcome reason %q", r.RoomID, r.Outcome.Reason)
		}
	}
	return nil
}
