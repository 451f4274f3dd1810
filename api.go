/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/codenames/games/codenames"
)

const maxBodySize = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func (g *Game) serveJSON(w http.ResponseWriter, r *http.Request, status int, v any, errs chan<- error) {
	startTime := time.Now()

	data, err := json.Marshal(v)
	if err != nil {
		serveError(g.cfg, g.log, w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(g.cfg, w)
	w.WriteHeader(status)

	written, err := w.Write(append(data, '\n'))
	if err != nil {
		errs <- err

		return
	}

	g.log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("size", humanReadableSize(int64(written))).
		Str("ip", realIP(r)).
		Dur("took", time.Since(startTime).Round(time.Microsecond)).
		Msg("SERVE: API response")
}

// seatedToken resolves the bearer token of r and checks that its player
// is still seated in the room.
func (g *Game) seatedToken(ctx context.Context, r *http.Request, roomID string) (codenames.Player, error) {
	claimed, err := g.tokens.fromRequest(r, roomID)
	if err != nil {
		return codenames.Player{}, err
	}

	room, err := g.engine.Get(ctx, roomID)
	if err != nil {
		return codenames.Player{}, err
	}
	if _, ok := room.Player(claimed.ID); !ok {
		return codenames.Player{}, errUnauthorized
	}
	return claimed, nil
}

// joiningID picks the id a join acts for. A presented bearer token must be
// valid for roomID.
func (g *Game) joiningID(w http.ResponseWriter, r *http.Request, roomID string) (string, error) {
	if r.Header.Get("Authorization") != "" {
		claimed, err := g.tokens.fromRequest(r, roomID)
		if err != nil {
			return "", err
		}
		return claimed.ID, nil
	}
	return g.playerID(w, r)
}

type roomResponse struct {
	Room   codenames.Room    `json:"room"`
	Player *codenames.Player `json:"player,omitempty"`
}

func (g *Game) serveRooms(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		rooms, err := g.engine.Rooms(r.Context())
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		g.serveJSON(w, r, http.StatusOK, rooms, errs)
	}
}

func (g *Game) serveDeleteRooms() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if !g.cfg.admin {
			serveError(g.cfg, g.log, w, r, errAdminOnly)
			return
		}

		if err := g.engine.DeleteAllRooms(r.Context()); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		g.log.Warn().Str("ip", realIP(r)).Msg("ROOMS: All rooms deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

// serveRoom returns the room, creating it on first access. A valid bearer
// token for a seated spymaster unlocks the full board.
func (g *Game) serveRoom(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID, err := roomParam(ps)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		room, err := g.engine.Open(r.Context(), roomID, r.URL.Query().Get("bank"))
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		var player *codenames.Player
		if claimed, err := g.tokens.fromRequest(r, roomID); err == nil {
			if p, ok := room.Player(claimed.ID); ok {
				player = &p
			}
		}

		g.serveJSON(w, r, http.StatusOK, roomResponse{Room: viewFor(room, player), Player: player}, errs)
	}
}

type joinBody struct {
	Name string         `json:"name"`
	Team codenames.Team `json:"team"`
	Role codenames.Role `json:"role"`
}

type joinResponse struct {
	Player codenames.Player `json:"player"`
	Token  string           `json:"token"`
	Room   codenames.Room   `json:"room"`
}

// serveJoin seats a player. The player id is never taken from the body: it
// comes from a bearer token for this room or from the signed player cookie.
// Joining again with a known id returns the stored seat with a fresh token,
// which is how clients pick up a team swap.
func (g *Game) serveJoin(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID, err := roomParam(ps)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		var body joinBody
		if err := decodeJSON(r, &body); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}
		playerID, err := g.joiningID(w, r, roomID)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		player, err := g.engine.Join(r.Context(), roomID, codenames.JoinRequest{
			ID:   playerID,
			Name: body.Name,
			Team: body.Team,
			Role: body.Role,
		})
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		token, err := g.tokens.issue(roomID, player)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		room, err := g.engine.Get(r.Context(), roomID)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		g.serveJSON(w, r, http.StatusOK, joinResponse{
			Player: player,
			Token:  token,
			Room:   viewFor(room, &player),
		}, errs)
	}
}

type revealBody struct {
	Index *int `json:"index"`
}

func (g *Game) serveReveal(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID, err := roomParam(ps)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		actor, err := g.tokens.fromRequest(r, roomID)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		var body revealBody
		if err := decodeJSON(r, &body); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}
		if body.Index == nil {
			serveError(g.cfg, g.log, w, r, fmt.Errorf("%w: index is required", errBadRequest))
			return
		}

		outcome, err := g.engine.Reveal(r.Context(), roomID, *body.Index, actor)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		outcome.Room = viewFor(outcome.Room, &actor)
		g.serveJSON(w, r, http.StatusOK, outcome, errs)
	}
}

type newGameBody struct {
	WordBankID *string `json:"word_bank_id"`
	SwapTeams  bool    `json:"swap_teams"`
}

func (g *Game) serveNewGame(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID, err := roomParam(ps)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		claimed, err := g.seatedToken(r.Context(), r, roomID)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		var body newGameBody
		if err := decodeJSON(r, &body); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		if _, err := g.engine.NewGame(r.Context(), roomID, codenames.NewGameOptions{
			WordBankID: body.WordBankID,
			SwapTeams:  body.SwapTeams,
		}); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		room, err := g.engine.Get(r.Context(), roomID)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		var player *codenames.Player
		if p, ok := room.Player(claimed.ID); ok {
			player = &p
		}

		g.serveJSON(w, r, http.StatusOK, roomResponse{Room: viewFor(room, player), Player: player}, errs)
	}
}

func (g *Game) serveLeave() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID, err := roomParam(ps)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		player, err := g.tokens.fromRequest(r, roomID)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		if err := g.engine.Leave(r.Context(), roomID, player.ID); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// serveDirectoryWS pushes the room directory on connect and after every
// change to any room.
func (g *Game) serveDirectoryWS() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			g.log.Debug().Err(err).Msg("SERVE: Websocket upgrade failed")
			return
		}
		defer conn.Close()

		notify := make(chan struct{}, 1)
		notify <- struct{}{}
		unsubscribe := g.engine.SubscribeRooms(func(codenames.Change) {
			select {
			case notify <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case <-notify:
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				rooms, err := g.engine.Rooms(ctx)
				cancel()
				if err != nil {
					g.log.Warn().Err(err).Msg("ROOMS: Failed to list rooms")
					continue
				}

				_ = conn.SetWriteDeadline(time.Now().Add(timeout))
				if err := conn.WriteJSON(struct {
					Type  string                  `json:"type"`
					Rooms []codenames.RoomSummary `json:"rooms"`
				}{Type: "rooms", Rooms: rooms}); err != nil {
					return
				}
			}
		}
	}
}

func registerRoomAPI(g *Game, mux *httprouter.Router, errs chan<- error) {
	prefix := g.cfg.prefix

	mux.GET(prefix+"/api/rooms", g.serveRooms(errs))
	mux.DELETE(prefix+"/api/rooms", g.serveDeleteRooms())
	mux.GET(prefix+"/api/directory/ws", g.serveDirectoryWS())

	mux.GET(prefix+"/api/rooms/:room", g.serveRoom(errs))
	mux.POST(prefix+"/api/rooms/:room/join", g.serveJoin(errs))
	mux.POST(prefix+"/api/rooms/:room/reveal", g.serveReveal(errs))
	mux.POST(prefix+"/api/rooms/:room/new-game", g.serveNewGame(errs))
	mux.POST(prefix+"/api/rooms/:room/leave", g.serveLeave())
}
