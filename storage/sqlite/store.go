/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package sqlite persists rooms and word banks in a SQLite database. Each
// room is stored as one JSON document with a version column used for
// conditional writes. Change notifications are delivered in-process only.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/Seednode/codenames/games/codenames"
	"github.com/Seednode/codenames/storage"
	"github.com/Seednode/codenames/storage/sqlite/migrations"
)

// Store is a SQLite-backed codenames.RoomStore and codenames.WordBankStore.
type Store struct {
	*storage.Broker

	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		Broker: storage.NewBroker(),
		sqlDB:  sqlDB,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, roomID string) (codenames.Room, error) {
	var (
		version  int64
		document string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT version, document FROM rooms WHERE room_id = ?`, roomID,
	).Scan(&version, &document)
	if errors.Is(err, sql.ErrNoRows) {
		return codenames.Room{}, codenames.ErrRoomNotFound
	}
	if err != nil {
		return codenames.Room{}, fmt.Errorf("get room %s: %w", roomID, err)
	}
	return decodeRoom(roomID, version, document)
}

func (s *Store) Create(ctx context.Context, room codenames.Room) (codenames.Room, error) {
	room = room.Clone()
	room.Version = 1
	document, err := json.Marshal(room)
	if err != nil {
		return codenames.Room{}, fmt.Errorf("encode room %s: %w", room.RoomID, err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO rooms (room_id, version, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		room.RoomID, room.Version, string(document), toMillis(room.CreatedAt), toMillis(room.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return codenames.Room{}, codenames.ErrRoomExists
		}
		return codenames.Room{}, fmt.Errorf("create room %s: %w", room.RoomID, err)
	}

	s.Publish(codenames.Change{RoomID: room.RoomID, Room: &room})
	return room.Clone(), nil
}

func (s *Store) Update(ctx context.Context, room codenames.Room) (codenames.Room, error) {
	expected := room.Version
	room = room.Clone()
	room.Version = expected + 1
	document, err := json.Marshal(room)
	if err != nil {
		return codenames.Room{}, fmt.Errorf("encode room %s: %w", room.RoomID, err)
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE rooms
		    SET version = ?, document = ?, updated_at = ?
		  WHERE room_id = ? AND version = ?`,
		room.Version, string(document), toMillis(room.UpdatedAt), room.RoomID, expected,
	)
	if err != nil {
		return codenames.Room{}, fmt.Errorf("update room %s: %w", room.RoomID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return codenames.Room{}, fmt.Errorf("update room %s: %w", room.RoomID, err)
	}
	if n == 0 {
		if _, err := s.Get(ctx, room.RoomID); err != nil {
			return codenames.Room{}, err
		}
		return codenames.Room{}, codenames.ErrConflict
	}

	s.Publish(codenames.Change{RoomID: room.RoomID, Room: &room})
	return room.Clone(), nil
}

func (s *Store) List(ctx context.Context) ([]codenames.Room, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT room_id, version, document FROM rooms ORDER BY updated_at DESC, room_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []codenames.Room
	for rows.Next() {
		var (
			roomID   string
			version  int64
			document string
		)
		if err := rows.Scan(&roomID, &version, &document); err != nil {
			return nil, fmt.Errorf("list rooms: %w", err)
		}
		room, err := decodeRoom(roomID, version, document)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete rooms: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT room_id FROM rooms`)
	if err != nil {
		return fmt.Errorf("delete rooms: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("delete rooms: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("delete rooms: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
		return fmt.Errorf("delete rooms: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete rooms: %w", err)
	}

	for _, id := range ids {
		s.Publish(codenames.Change{RoomID: id, Deleted: true})
	}
	return nil
}

func decodeRoom(roomID string, version int64, document string) (codenames.Room, error) {
	var room codenames.Room
	if err := json.Unmarshal([]byte(document), &room); err != nil {
		return codenames.Room{}, &codenames.Error{
			Code:    codenames.CodeMalformedState,
			Message: "decode room " + roomID,
			Cause:   err,
		}
	}
	room.RoomID = roomID
	room.Version = version
	return room, nil
}

func (s *Store) GetWordBank(ctx context.Context, id string) (codenames.WordBank, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, words, is_default, created_at, updated_at
		   FROM word_banks
		  WHERE id = ?`, id)

	bank, err := scanWordBank(row)
	if errors.Is(err, sql.ErrNoRows) {
		return codenames.WordBank{}, codenames.ErrWordBankNotFound
	}
	if err != nil {
		return codenames.WordBank{}, fmt.Errorf("get word bank %s: %w", id, err)
	}
	return bank, nil
}

func (s *Store) ListWordBanks(ctx context.Context) ([]codenames.WordBank, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, words, is_default, created_at, updated_at
		   FROM word_banks
		  ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list word banks: %w", err)
	}
	defer rows.Close()

	out := []codenames.WordBank{}
	for rows.Next() {
		bank, err := scanWordBank(rows)
		if err != nil {
			return nil, fmt.Errorf("list word banks: %w", err)
		}
		out = append(out, bank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list word banks: %w", err)
	}
	return out, nil
}

func (s *Store) CreateWordBank(ctx context.Context, bank codenames.WordBank) (codenames.WordBank, error) {
	bank, err := codenames.NormalizeWordBank(bank)
	if err != nil {
		return codenames.WordBank{}, err
	}
	if bank.ID == "" {
		bank.ID = uuid.NewString()
	}
	now := s.now()
	bank.CreatedAt = now
	bank.UpdatedAt = now

	words, err := json.Marshal(bank.Words)
	if err != nil {
		return codenames.WordBank{}, fmt.Errorf("encode word bank %s: %w", bank.ID, err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO word_banks (id, name, words, is_default, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		bank.ID, bank.Name, string(words), bank.IsDefault, toMillis(bank.CreatedAt), toMillis(bank.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return codenames.WordBank{}, codenames.ErrWordBankExists
		}
		return codenames.WordBank{}, fmt.Errorf("create word bank %s: %w", bank.ID, err)
	}
	return bank, nil
}

func (s *Store) UpdateWordBank(ctx context.Context, bank codenames.WordBank) (codenames.WordBank, error) {
	bank, err := codenames.NormalizeWordBank(bank)
	if err != nil {
		return codenames.WordBank{}, err
	}

	words, err := json.Marshal(bank.Words)
	if err != nil {
		return codenames.WordBank{}, fmt.Errorf("encode word bank %s: %w", bank.ID, err)
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE word_banks SET name = ?, words = ?, updated_at = ? WHERE id = ?`,
		bank.Name, string(words), toMillis(s.now()), bank.ID,
	)
	if err != nil {
		return codenames.WordBank{}, fmt.Errorf("update word bank %s: %w", bank.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return codenames.WordBank{}, fmt.Errorf("update word bank %s: %w", bank.ID, err)
	} else if n == 0 {
		return codenames.WordBank{}, codenames.ErrWordBankNotFound
	}
	return s.GetWordBank(ctx, bank.ID)
}

func (s *Store) DeleteWordBank(ctx context.Context, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM word_banks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete word bank %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete word bank %s: %w", id, err)
	}
	if n == 0 {
		return codenames.ErrWordBankNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWordBank(row scanner) (codenames.WordBank, error) {
	var (
		bank      codenames.WordBank
		words     string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&bank.ID, &bank.Name, &words, &bank.IsDefault, &createdAt, &updatedAt); err != nil {
		return codenames.WordBank{}, err
	}
	if err := json.Unmarshal([]byte(words), &bank.Words); err != nil {
		return codenames.WordBank{}, fmt.Errorf("decode words: %w", err)
	}
	bank.CreatedAt = fromMillis(createdAt)
	bank.UpdatedAt = fromMillis(updatedAt)
	return bank, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	_ codenames.RoomStore     = (*Store)(nil)
	_ codenames.WordBankStore = (*Store)(nil)
)
