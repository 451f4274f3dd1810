/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultAttempts = 5
	maxNameLength   = 40
)

// errUnchanged lets a mutation skip the write when there is nothing to do.
var errUnchanged = errors.New("unchanged")

// Engine owns every state transition of a room. It holds no room state of
// its own: each operation reads the latest document from the store,
// validates against it and writes back conditionally on the version read.
type Engine struct {
	rooms    RoomStore
	words    WordSource
	shuffle  Shuffler
	log      zerolog.Logger
	now      func() time.Time
	attempts int
}

type Option func(*Engine)

func WithShuffler(s Shuffler) Option {
	return func(e *Engine) {
		if s != nil {
			e.shuffle = s
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMaxAttempts bounds how often an operation re-reads and re-validates
// after losing a race against another writer.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.attempts = n
		}
	}
}

// NewEngine builds an engine over a room store. words may be nil, in which
// case only the default word pool is available.
func NewEngine(rooms RoomStore, words WordSource, opts ...Option) *Engine {
	e := &Engine{
		rooms:    rooms,
		words:    words,
		shuffle:  DefaultShuffler,
		log:      zerolog.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
		attempts: defaultAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Get returns the current state of a room without creating it.
func (e *Engine) Get(ctx context.Context, roomID string) (Room, error) {
	id := NormalizeRoomID(roomID)
	if err := ValidateRoomID(id); err != nil {
		return Room{}, err
	}
	return e.load(ctx, id)
}

// Open returns the room, creating it with a fresh board on first access.
// wordBankID only matters for creation.
func (e *Engine) Open(ctx context.Context, roomID, wordBankID string) (Room, error) {
	id := NormalizeRoomID(roomID)
	if err := ValidateRoomID(id); err != nil {
		return Room{}, err
	}

	room, err := e.load(ctx, id)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, ErrRoomNotFound) {
		return Room{}, err
	}

	board, used, err := e.deal(ctx, wordBankID, nil)
	if err != nil {
		return Room{}, err
	}

	now := e.now()
	room = Room{
		RoomID:      id,
		Board:       board,
		CurrentTurn: RedTeam,
		Players:     []Player{},
		UsedWords:   used,
		WordBankID:  wordBankID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := room.Validate(); err != nil {
		return Room{}, err
	}

	created, err := e.rooms.Create(ctx, room)
	if errors.Is(err, ErrRoomExists) {
		// Someone else created it between our read and write; theirs wins.
		return e.load(ctx, id)
	}
	if err != nil {
		return Room{}, err
	}

	e.log.Info().Str("room", id).Str("bank", wordBankID).Msg("GAMES: Created room")
	return created, nil
}

// RevealOutcome describes the effect of a successful reveal.
type RevealOutcome struct {
	Index        int    `json:"index"`
	Card         Card   `json:"card"`
	PreviousTurn Team   `json:"previous_turn"`
	CurrentTurn  Team   `json:"current_turn"`
	TurnChanged  bool   `json:"turn_changed"`
	Finished     bool   `json:"finished"`
	Winner       Team   `json:"winner,omitempty"`
	Loser        Team   `json:"loser,omitempty"`
	Reason       Reason `json:"reason,omitempty"`
	Room         Room   `json:"room"`
}

// Reveal flips one card for actor. The actor's team and role must match the
// player record stored in the room.
func (e *Engine) Reveal(ctx context.Context, roomID string, index int, actor Player) (RevealOutcome, error) {
	var outcome RevealOutcome

	saved, err := e.mutate(ctx, roomID, func(room *Room) error {
		if room.Outcome != nil {
			return ErrGameFinished
		}
		if index < 0 || index >= len(room.Board) {
			return newError(CodeInvalidCard, "card %d is outside the board", index)
		}

		player, err := verifyActor(*room, actor)
		if err != nil {
			return err
		}

		if room.Board[index].Revealed {
			return newError(CodeAlreadyRevealed, "card %d is already revealed", index)
		}
		if player.Role == Spymaster {
			return ErrForbiddenRole
		}
		if player.Team != room.CurrentTurn {
			return newError(CodeWrongTurn, "it is %s's turn", room.CurrentTurn)
		}

		outcome = applyReveal(room, index)
		return nil
	})
	if err != nil {
		return RevealOutcome{}, err
	}

	outcome.Room = saved
	ev := e.log.Info().
		Str("room", saved.RoomID).
		Str("player", actor.ID).
		Int("card", index).
		Str("color", string(outcome.Card.Color)).
		Str("turn", string(outcome.CurrentTurn))
	if outcome.Finished {
		ev = ev.Str("winner", string(outcome.Winner)).Str("reason", string(outcome.Reason))
	}
	ev.Msg("GAMES: Revealed card")

	return outcome, nil
}

// applyReveal performs the reveal transition on room in place.
func applyReveal(room *Room, index int) RevealOutcome {
	turn := room.CurrentTurn
	room.Board[index].Revealed = true
	card := room.Board[index]

	next := turn
	switch {
	case card.Color == Black:
		room.Outcome = &Outcome{Winner: turn.Other(), Loser: turn, Reason: ReasonAssassin}
	case card.Color == turn.Color():
	default:
		next = turn.Other()
	}

	if room.Outcome == nil {
		switch {
		case room.Board.Remaining(Red) == 0:
			room.Outcome = &Outcome{Winner: RedTeam, Loser: BlueTeam, Reason: ReasonVictory}
		case room.Board.Remaining(Blue) == 0:
			room.Outcome = &Outcome{Winner: BlueTeam, Loser: RedTeam, Reason: ReasonVictory}
		}
	}

	out := RevealOutcome{
		Index:        index,
		Card:         card,
		PreviousTurn: turn,
		CurrentTurn:  turn,
	}
	if room.Outcome != nil {
		out.Finished = true
		out.Winner = room.Outcome.Winner
		out.Loser = room.Outcome.Loser
		out.Reason = room.Outcome.Reason
		return out
	}

	room.CurrentTurn = next
	out.CurrentTurn = next
	out.TurnChanged = next != turn
	return out
}

func verifyActor(room Room, actor Player) (Player, error) {
	stored, ok := room.Player(actor.ID)
	if !ok {
		return Player{}, newError(CodeInvalidPlayerData, "player %q has not joined room %s", actor.ID, room.RoomID)
	}
	if stored.Team != actor.Team || stored.Role != actor.Role {
		return Player{}, newError(CodeInvalidPlayerData, "player %q is %s %s, not %s %s",
			actor.ID, stored.Team, stored.Role, actor.Team, actor.Role)
	}
	return stored, nil
}

// NewGameOptions configures a reset. A nil WordBankID keeps the room's
// current bank; a pointer to "" switches to the default pool.
type NewGameOptions struct {
	WordBankID *string
	SwapTeams  bool
}

// NewGame deals a fresh board, hands the first turn to red and keeps the
// players. Words already used in the room are avoided while the bank allows.
func (e *Engine) NewGame(ctx context.Context, roomID string, opts NewGameOptions) (Board, error) {
	saved, err := e.mutate(ctx, roomID, func(room *Room) error {
		bankID := room.WordBankID
		used := room.UsedWords
		if opts.WordBankID != nil && *opts.WordBankID != bankID {
			bankID = *opts.WordBankID
			used = nil
		}

		board, merged, err := e.deal(ctx, bankID, used)
		if err != nil {
			return err
		}

		room.Board = board
		room.CurrentTurn = RedTeam
		room.Outcome = nil
		room.UsedWords = merged
		room.WordBankID = bankID
		if opts.SwapTeams {
			room.Players = SwapTeams(room.Players)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("room", saved.RoomID).
		Str("bank", saved.WordBankID).
		Bool("swap", opts.SwapTeams).
		Int("used", len(saved.UsedWords)).
		Msg("GAMES: Started new game")
	return saved.Board, nil
}

// JoinRequest carries what a player chose on the way into a room.
type JoinRequest struct {
	ID   string
	Name string
	Team Team
	Role Role
}

// Join adds a player to the room. Joining again with a known id returns the
// stored player untouched.
func (e *Engine) Join(ctx context.Context, roomID string, req JoinRequest) (Player, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.ID == "":
		return Player{}, newError(CodeInvalidPlayerData, "player id is required")
	case req.Name == "":
		return Player{}, newError(CodeInvalidPlayerData, "player name is required")
	case len([]rune(req.Name)) > maxNameLength:
		return Player{}, newError(CodeInvalidPlayerData, "player name is longer than %d characters", maxNameLength)
	case !req.Role.Valid():
		return Player{}, newError(CodeInvalidPlayerData, "unknown role %q", req.Role)
	}

	var joined Player
	fresh := false
	saved, err := e.mutate(ctx, roomID, func(room *Room) error {
		if existing, ok := room.Player(req.ID); ok {
			joined = existing
			return errUnchanged
		}

		team, err := AssignTeam(room.Players, req.Team, req.Role)
		if err != nil {
			return err
		}
		joined = Player{
			ID:       req.ID,
			Name:     req.Name,
			Team:     team,
			Role:     req.Role,
			JoinedAt: e.now(),
		}
		room.Players, _ = AddPlayer(room.Players, joined)
		fresh = true
		return nil
	})
	if err != nil {
		return Player{}, err
	}

	if fresh {
		e.log.Info().
			Str("room", saved.RoomID).
			Str("player", joined.ID).
			Str("name", joined.Name).
			Str("team", string(joined.Team)).
			Str("role", string(joined.Role)).
			Msg("GAMES: Player joined")
	}
	return joined, nil
}

// Leave removes a player. Unknown players are ignored.
func (e *Engine) Leave(ctx context.Context, roomID, playerID string) error {
	removed := false
	saved, err := e.mutate(ctx, roomID, func(room *Room) error {
		players, changed := RemovePlayer(room.Players, playerID)
		if !changed {
			return errUnchanged
		}
		room.Players = players
		removed = true
		return nil
	})
	if err != nil {
		return err
	}

	if removed {
		e.log.Info().Str("room", saved.RoomID).Str("player", playerID).Msg("GAMES: Player left")
	}
	return nil
}

// Subscribe forwards every change of one room to fn until unsubscribed.
func (e *Engine) Subscribe(roomID string, fn func(Change)) (unsubscribe func()) {
	return e.rooms.Subscribe(NormalizeRoomID(roomID), fn)
}

// mutate runs fn against the latest document and writes the result back
// conditionally. On a version conflict it starts over from a fresh read, so
// fn must be safe to run more than once.
func (e *Engine) mutate(ctx context.Context, roomID string, fn func(*Room) error) (Room, error) {
	id := NormalizeRoomID(roomID)
	if err := ValidateRoomID(id); err != nil {
		return Room{}, err
	}

	for attempt := 1; ; attempt++ {
		room, err := e.load(ctx, id)
		if err != nil {
			return Room{}, err
		}

		next := room.Clone()
		if err := fn(&next); err != nil {
			if errors.Is(err, errUnchanged) {
				return room, nil
			}
			return Room{}, err
		}

		next.UpdatedAt = e.now()
		if err := next.Validate(); err != nil {
			return Room{}, err
		}

		saved, err := e.rooms.Update(ctx, next)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ErrConflict) || attempt >= e.attempts {
			return Room{}, err
		}

		e.log.Debug().Str("room", id).Int("attempt", attempt).Msg("GAMES: Retrying after concurrent update")
	}
}

func (e *Engine) load(ctx context.Context, id string) (Room, error) {
	room, err := e.rooms.Get(ctx, id)
	if err != nil {
		return Room{}, err
	}
	if err := room.Validate(); err != nil {
		return Room{}, err
	}
	return room, nil
}

// deal selects words for a board and returns the board together with the
// room's updated used-word set.
func (e *Engine) deal(ctx context.Context, bankID string, used []string) (Board, []string, error) {
	bank := DefaultWords
	excluded := used
	if bankID == "" {
		excluded = nil
	} else {
		if e.words == nil {
			return nil, nil, newError(CodeWordBankNotFound, "word bank %q not found", bankID)
		}
		wb, err := e.words.GetWordBank(ctx, bankID)
		if err != nil {
			return nil, nil, err
		}
		bank = wb.Words
	}

	sel, err := SelectWords(bank, BoardSize, excluded, e.shuffle)
	if err != nil {
		return nil, nil, err
	}
	board, err := NewBoard(sel.Words, e.shuffle)
	if err != nil {
		return nil, nil, err
	}
	return board, MergeUsedWords(used, sel), nil
}
