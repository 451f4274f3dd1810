/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"context"
	"time"
)

// Change is pushed to subscribers after every successful write. Deleted is
// set, and Room is nil, when the room no longer exists.
type Change struct {
	RoomID  string
	Room    *Room
	Deleted bool
}

// RoomStore is the document store holding one Room per room id. It is the
// only state shared between clients.
//
// Update is a conditional write: it succeeds only when the stored version
// still equals room.Version, bumps the version and returns the stored
// document. A lost race is reported as ErrConflict.
type RoomStore interface {
	Get(ctx context.Context, roomID string) (Room, error)
	Create(ctx context.Context, room Room) (Room, error)
	Update(ctx context.Context, room Room) (Room, error)
	List(ctx context.Context) ([]Room, error)
	DeleteAll(ctx context.Context) error

	// Subscribe registers fn for changes to one room; SubscribeAll for every
	// room. The returned function unsubscribes. Callbacks run on the
	// writer's goroutine and must not block.
	Subscribe(roomID string, fn func(Change)) (unsubscribe func())
	SubscribeAll(fn func(Change)) (unsubscribe func())
}

// WordBank is a named, reusable list of candidate words.
type WordBank struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Words     []string  `json:"words"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WordSource is the only word bank capability the engine needs.
type WordSource interface {
	GetWordBank(ctx context.Context, id string) (WordBank, error)
}

// WordBankStore persists word banks. List returns newest first.
type WordBankStore interface {
	WordSource
	ListWordBanks(ctx context.Context) ([]WordBank, error)
	CreateWordBank(ctx context.Context, bank WordBank) (WordBank, error)
	UpdateWordBank(ctx context.Context, bank WordBank) (WordBank, error)
	DeleteWordBank(ctx context.Context, id string) error
}
