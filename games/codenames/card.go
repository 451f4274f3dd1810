/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

const (
	Rows    = 5
	Columns = 5

	// BoardSize is the number of cards dealt for every game.
	BoardSize = Rows * Columns

	RedCards   = 9
	BlueCards  = 8
	BlackCards = 1
	BeigeCards = 7
)

// Color is the hidden affiliation of a card.
type Color string

const (
	Red   Color = "red"
	Blue  Color = "blue"
	Black Color = "black"
	Beige Color = "beige"
)

func (c Color) Valid() bool {
	switch c {
	case Red, Blue, Black, Beige:
		return true
	}
	return false
}

// Team is one of the two competing sides. The zero value means "no team",
// which is how callers ask for automatic assignment.
type Team string

const (
	NoTeam   Team = ""
	RedTeam  Team = "red"
	BlueTeam Team = "blue"
)

func (t Team) Valid() bool {
	return t == RedTeam || t == BlueTeam
}

// Other returns the opposing team.
func (t Team) Other() Team {
	switch t {
	case RedTeam:
		return BlueTeam
	case BlueTeam:
		return RedTeam
	}
	return NoTeam
}

// Color returns the card colour owned by the team.
func (t Team) Color() Color {
	return Color(t)
}

// Role decides whether a player gives clues or reveals cards.
type Role string

const (
	Spymaster Role = "spymaster"
	Operative Role = "operative"
)

func (r Role) Valid() bool {
	return r == Spymaster || r == Operative
}

// Card is one word on the board. Only Revealed ever changes, and only from
// false to true.
type Card struct {
	Word     string `json:"word"`
	Color    Color  `json:"color"`
	Revealed bool   `json:"revealed"`
}

// Board is the fixed-position grid of cards for one round.
type Board []Card

// Count returns how many cards of colour c are on the board.
func (b Board) Count(c Color) int {
	n := 0
	for _, card := range b {
		if card.Color == c {
			n++
		}
	}
	return n
}

// Remaining returns how many cards of colour c are still face down.
func (b Board) Remaining(c Color) int {
	n := 0
	for _, card := range b {
		if card.Color == c && !card.Revealed {
			n++
		}
	}
	return n
}

// Clone returns a deep copy, so callers can mutate it without touching
// a document that may be shared with a store.
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	out := make(Board, len(b))
	copy(out, b)
	return out
}

// Words lists the board's words in grid order.
func (b Board) Words() []string {
	out := make([]string, len(b))
	for i, card := range b {
		out[i] = card.Word
	}
	return out
}
