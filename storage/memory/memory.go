/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package memory is an in-process document store for rooms and word banks.
// State is lost when the process exits.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Seednode/codenames/games/codenames"
	"github.com/Seednode/codenames/storage"
)

// Store keeps rooms and word banks in maps guarded by one RWMutex.
type Store struct {
	*storage.Broker

	mu    sync.RWMutex
	rooms map[string]codenames.Room
	banks map[string]codenames.WordBank
}

func New() *Store {
	return &Store{
		Broker: storage.NewBroker(),
		rooms:  make(map[string]codenames.Room),
		banks:  make(map[string]codenames.WordBank),
	}
}

func (s *Store) Get(ctx context.Context, roomID string) (codenames.Room, error) {
	if err := ctx.Err(); err != nil {
		return codenames.Room{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return codenames.Room{}, codenames.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Store) Create(ctx context.Context, room codenames.Room) (codenames.Room, error) {
	if err := ctx.Err(); err != nil {
		return codenames.Room{}, err
	}

	s.mu.Lock()
	if _, ok := s.rooms[room.RoomID]; ok {
		s.mu.Unlock()
		return codenames.Room{}, codenames.ErrRoomExists
	}
	room = room.Clone()
	room.Version = 1
	s.rooms[room.RoomID] = room
	s.mu.Unlock()

	s.Publish(codenames.Change{RoomID: room.RoomID, Room: &room})
	return room.Clone(), nil
}

func (s *Store) Update(ctx context.Context, room codenames.Room) (codenames.Room, error) {
	if err := ctx.Err(); err != nil {
		return codenames.Room{}, err
	}

	s.mu.Lock()
	current, ok := s.rooms[room.RoomID]
	if !ok {
		s.mu.Unlock()
		return codenames.Room{}, codenames.ErrRoomNotFound
	}
	if current.Version != room.Version {
		s.mu.Unlock()
		return codenames.Room{}, codenames.ErrConflict
	}
	room = room.Clone()
	room.Version++
	room.CreatedAt = current.CreatedAt
	s.rooms[room.RoomID] = room
	s.mu.Unlock()

	s.Publish(codenames.Change{RoomID: room.RoomID, Room: &room})
	return room.Clone(), nil
}

func (s *Store) List(ctx context.Context) ([]codenames.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]codenames.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room.Clone())
	}
	slices.SortFunc(out, func(a, b codenames.Room) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	clear(s.rooms)
	s.mu.Unlock()

	for _, id := range ids {
		s.Publish(codenames.Change{RoomID: id, Deleted: true})
	}
	return nil
}

func (s *Store) GetWordBank(ctx context.Context, id string) (codenames.WordBank, error) {
	if err := ctx.Err(); err != nil {
		return codenames.WordBank{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	bank, ok := s.banks[id]
	if !ok {
		return codenames.WordBank{}, codenames.ErrWordBankNotFound
	}
	return cloneBank(bank), nil
}

func (s *Store) ListWordBanks(ctx context.Context) ([]codenames.WordBank, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]codenames.WordBank, 0, len(s.banks))
	for _, bank := range s.banks {
		out = append(out, cloneBank(bank))
	}
	slices.SortFunc(out, func(a, b codenames.WordBank) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateWordBank(ctx context.Context, bank codenames.WordBank) (codenames.WordBank, error) {
	if err := ctx.Err(); err != nil {
		return codenames.WordBank{}, err
	}

	bank, err := codenames.NormalizeWordBank(bank)
	if err != nil {
		return codenames.WordBank{}, err
	}
	if bank.ID == "" {
		bank.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	bank.CreatedAt = now
	bank.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.banks[bank.ID]; ok {
		return codenames.WordBank{}, codenames.ErrWordBankExists
	}
	s.banks[bank.ID] = cloneBank(bank)
	return bank, nil
}

func (s *Store) UpdateWordBank(ctx context.Context, bank codenames.WordBank) (codenames.WordBank, error) {
	if err := ctx.Err(); err != nil {
		return codenames.WordBank{}, err
	}

	bank, err := codenames.NormalizeWordBank(bank)
	if err != nil {
		return codenames.WordBank{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.banks[bank.ID]
	if !ok {
		return codenames.WordBank{}, codenames.ErrWordBankNotFound
	}
	current.Name = bank.Name
	current.Words = slices.Clone(bank.Words)
	current.UpdatedAt = time.Now().UTC()
	s.banks[bank.ID] = current
	return cloneBank(current), nil
}

func (s *Store) DeleteWordBank(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.banks[id]; !ok {
		return codenames.ErrWordBankNotFound
	}
	delete(s.banks, id)
	return nil
}

func cloneBank(b codenames.WordBank) codenames.WordBank {
	b.Words = slices.Clone(b.Words)
	return b
}

var (
	_ codenames.RoomStore     = (*Store)(nil)
	_ codenames.WordBankStore = (*Store)(nil)
)
