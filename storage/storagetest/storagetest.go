/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storagetest holds the behaviour every room and word bank store
// must share, run against each implementation from its own tests.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/codenames/games/codenames"
)

// Store is what the memory and sqlite packages both provide.
type Store interface {
	codenames.RoomStore
	codenames.WordBankStore
}

// Room returns a valid room document with the given id.
func Room(id string, updated time.Time) codenames.Room {
	words := make([]string, codenames.BoardSize)
	for i := range words {
		words[i] = fmt.Sprintf("%s-%02d", id, i)
	}
	board, err := codenames.NewBoard(words, func(int, func(i, j int)) {})
	if err != nil {
		panic(err)
	}
	return codenames.Room{
		RoomID:      id,
		Board:       board,
		CurrentTurn: codenames.RedTeam,
		Players:     []codenames.Player{},
		CreatedAt:   updated,
		UpdatedAt:   updated,
	}
}

// Run exercises a fresh store from newStore in every subtest.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("rooms", func(t *testing.T) { testRooms(t, newStore(t)) })
	t.Run("conditional update", func(t *testing.T) { testConditionalUpdate(t, newStore(t)) })
	t.Run("list and delete", func(t *testing.T) { testListAndDelete(t, newStore(t)) })
	t.Run("subscriptions", func(t *testing.T) { testSubscriptions(t, newStore(t)) })
	t.Run("word banks", func(t *testing.T) { testWordBanks(t, newStore(t)) })
}

func testRooms(t *testing.T, s Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err := s.Get(ctx, "ABC123")
	require.ErrorIs(t, err, codenames.ErrRoomNotFound)

	room := Room("ABC123", now)
	room.Players = append(room.Players, codenames.Player{
		ID: "p1", Name: "Ann", Team: codenames.RedTeam, Role: codenames.Operative, JoinedAt: now,
	})
	room.UsedWords = []string{"a", "b"}

	created, err := s.Create(ctx, room)
	require.NoError(t, err)
	assert.EqualValues(t, 1, created.Version)

	got, err := s.Get(ctx, "ABC123")
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	assert.Equal(t, created.Board, got.Board)
	assert.Equal(t, created.Players[0].ID, got.Players[0].ID)
	assert.Equal(t, []string{"a", "b"}, got.UsedWords)
	assert.True(t, now.Equal(got.CreatedAt))

	_, err = s.Create(ctx, room)
	assert.ErrorIs(t, err, codenames.ErrRoomExists)
}

func testConditionalUpdate(t *testing.T, s Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err := s.Update(ctx, Room("NONE00", now))
	assert.ErrorIs(t, err, codenames.ErrRoomNotFound)

	created, err := s.Create(ctx, Room("ABC123", now))
	require.NoError(t, err)

	first := created.Clone()
	first.Board[0].Revealed = true
	first.UpdatedAt = now.Add(time.Second)
	saved, err := s.Update(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, created.Version+1, saved.Version)

	// A writer still holding the old version loses.
	stale := created.Clone()
	stale.CurrentTurn = codenames.BlueTeam
	_, err = s.Update(ctx, stale)
	assert.ErrorIs(t, err, codenames.ErrConflict)

	got, err := s.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, saved.Version, got.Version)
	assert.True(t, got.Board[0].Revealed)
	assert.Equal(t, codenames.RedTeam, got.CurrentTurn)
	assert.True(t, now.Equal(got.CreatedAt))
}

func testListAndDelete(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, id := range []string{"ROOM01", "ROOM02", "ROOM03"} {
		_, err := s.Create(ctx, Room(id, base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	rooms, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "ROOM03", rooms[0].RoomID)
	assert.Equal(t, "ROOM01", rooms[2].RoomID)

	var deleted []string
	stop := s.SubscribeAll(func(c codenames.Change) {
		if c.Deleted {
			deleted = append(deleted, c.RoomID)
		}
	})
	defer stop()

	require.NoError(t, s.DeleteAll(ctx))
	rooms, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
	assert.ElementsMatch(t, []string{"ROOM01", "ROOM02", "ROOM03"}, deleted)
}

func testSubscriptions(t *testing.T, s Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	var room, all []codenames.Change
	stopRoom := s.Subscribe("ABC123", func(c codenames.Change) { room = append(room, c) })
	stopAll := s.SubscribeAll(func(c codenames.Change) { all = append(all, c) })

	created, err := s.Create(ctx, Room("ABC123", now))
	require.NoError(t, err)
	_, err = s.Create(ctx, Room("XYZ789", now))
	require.NoError(t, err)

	next := created.Clone()
	next.CurrentTurn = codenames.BlueTeam
	_, err = s.Update(ctx, next)
	require.NoError(t, err)

	require.Len(t, room, 2)
	require.NotNil(t, room[1].Room)
	assert.Equal(t, codenames.BlueTeam, room[1].Room.CurrentTurn)
	assert.EqualValues(t, 2, room[1].Room.Version)
	assert.Len(t, all, 3)

	stopRoom()
	stopAll()
	_, err = s.Update(ctx, *room[1].Room)
	require.NoError(t, err)
	assert.Len(t, room, 2)
	assert.Len(t, all, 3)
}

func testWordBanks(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.GetWordBank(ctx, "missing")
	assert.ErrorIs(t, err, codenames.ErrWordBankNotFound)

	_, err = s.CreateWordBank(ctx, codenames.WordBank{Name: "Empty"})
	assert.ErrorIs(t, err, codenames.ErrInvalidWordBank)

	animals, err := s.CreateWordBank(ctx, codenames.WordBank{Name: " Animals ", Words: []string{"cat", "dog", "cat"}})
	require.NoError(t, err)
	assert.NotEmpty(t, animals.ID)
	assert.Equal(t, "Animals", animals.Name)
	assert.Equal(t, []string{"cat", "dog"}, animals.Words)

	// Banks created in the same millisecond still need a stable order.
	time.Sleep(5 * time.Millisecond)
	fruit, err := s.CreateWordBank(ctx, codenames.WordBank{Name: "Fruit", Words: []string{"apple"}})
	require.NoError(t, err)

	banks, err := s.ListWordBanks(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, fruit.ID, banks[0].ID, "newest first")
	assert.Equal(t, animals.ID, banks[1].ID)

	fruit.Words = []string{"apple", "pear"}
	fruit.Name = "Fruits"
	updated, err := s.UpdateWordBank(ctx, fruit)
	require.NoError(t, err)
	assert.Equal(t, "Fruits", updated.Name)
	assert.Equal(t, []string{"apple", "pear"}, updated.Words)

	got, err := s.GetWordBank(ctx, fruit.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Words, got.Words)

	_, err = s.UpdateWordBank(ctx, codenames.WordBank{ID: "missing", Name: "x", Words: []string{"y"}})
	assert.ErrorIs(t, err, codenames.ErrWordBankNotFound)

	require.NoError(t, s.DeleteWordBank(ctx, fruit.ID))
	assert.ErrorIs(t, s.DeleteWordBank(ctx, fruit.ID), codenames.ErrWordBankNotFound)

	seeded, err := codenames.SeedDefaultBank(ctx, s)
	require.NoError(t, err)
	assert.True(t, seeded.IsDefault)
	assert.Equal(t, codenames.DefaultBankName, seeded.Name)

	_, err = codenames.SeedDefaultBank(ctx, s)
	assert.ErrorIs(t, err, codenames.ErrWordBankExists)
}
