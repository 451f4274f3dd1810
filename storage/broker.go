/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storage holds what the room store implementations share: the
// change broker that pushes every committed document to subscribers.
package storage

import (
	"sync"

	"github.com/Seednode/codenames/games/codenames"
)

// Broker fans out room changes to per-room and global subscribers.
type Broker struct {
	mu    sync.RWMutex
	next  int
	rooms map[string]map[int]func(codenames.Change)
	all   map[int]func(codenames.Change)
}

func NewBroker() *Broker {
	return &Broker{
		rooms: make(map[string]map[int]func(codenames.Change)),
		all:   make(map[int]func(codenames.Change)),
	}
}

// Subscribe registers fn for changes to roomID.
func (b *Broker) Subscribe(roomID string, fn func(codenames.Change)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++

	subs, ok := b.rooms[roomID]
	if !ok {
		subs = make(map[int]func(codenames.Change))
		b.rooms[roomID] = subs
	}
	subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(b.rooms[roomID], id)
			if len(b.rooms[roomID]) == 0 {
				delete(b.rooms, roomID)
			}
		})
	}
}

// SubscribeAll registers fn for changes to any room.
func (b *Broker) SubscribeAll(fn func(codenames.Change)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.all[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(b.all, id)
		})
	}
}

// Subscribers returns how many callbacks are registered for roomID,
// including global ones.
func (b *Broker) Subscribers(roomID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.rooms[roomID]) + len(b.all)
}

// Publish delivers c to every interested subscriber. Callbacks run without
// the broker lock held, each with its own copy of the document.
func (b *Broker) Publish(c codenames.Change) {
	b.mu.RLock()
	fns := make([]func(codenames.Change), 0, len(b.rooms[c.RoomID])+len(b.all))
	for _, fn := range b.rooms[c.RoomID] {
		fns = append(fns, fn)
	}
	for _, fn := range b.all {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		out := codenames.Change{RoomID: c.RoomID, Deleted: c.Deleted}
		if c.Room != nil {
			room := c.Room.Clone()
			out.Room = &room
		}
		fn(out)
	}
}
