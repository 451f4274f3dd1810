/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"context"
	"slices"
	"strings"
	"time"
)

// RoomSummary is the directory's view of a room.
type RoomSummary struct {
	RoomID        string    `json:"room_id"`
	Status        Status    `json:"status"`
	CurrentTurn   Team      `json:"current_turn"`
	RedRemaining  int       `json:"red_remaining"`
	BlueRemaining int       `json:"blue_remaining"`
	Players       int       `json:"players"`
	RedPlayers    int       `json:"red_players"`
	BluePlayers   int       `json:"blue_players"`
	Winner        Team      `json:"winner,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func Summarize(room Room) RoomSummary {
	red, blue := room.TeamCounts()
	s := RoomSummary{
		RoomID:        room.RoomID,
		Status:        room.Status(),
		CurrentTurn:   room.CurrentTurn,
		RedRemaining:  room.Board.Remaining(Red),
		BlueRemaining: room.Board.Remaining(Blue),
		Players:       len(room.Players),
		RedPlayers:    red,
		BluePlayers:   blue,
		CreatedAt:     room.CreatedAt,
		UpdatedAt:     room.UpdatedAt,
	}
	if room.Outcome != nil {
		s.Winner = room.Outcome.Winner
	}
	return s
}

// Rooms lists every room, most recently updated first. Rooms whose stored
// document fails validation are left out rather than failing the listing.
func (e *Engine) Rooms(ctx context.Context) ([]RoomSummary, error) {
	rooms, err := e.rooms.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		if err := room.Validate(); err != nil {
			e.log.Warn().Err(err).Str("room", room.RoomID).Msg("ROOMS: Skipping malformed room")
			continue
		}
		out = append(out, Summarize(room))
	}

	slices.SortStableFunc(out, func(a, b RoomSummary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.RoomID, b.RoomID)
	})
	return out, nil
}

// SubscribeRooms forwards changes of every room to fn until unsubscribed.
func (e *Engine) SubscribeRooms(fn func(Change)) (unsubscribe func()) {
	return e.rooms.SubscribeAll(fn)
}

// DeleteAllRooms removes every room. Subscribers are told each room is gone.
func (e *Engine) DeleteAllRooms(ctx context.Context) error {
	if err := e.rooms.DeleteAll(ctx); err != nil {
		return err
	}
	e.log.Warn().Msg("ROOMS: Deleted all rooms")
	return nil
}
