/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/codenames/games/codenames"
	"github.com/Seednode/codenames/storage/memory"
	"github.com/Seednode/codenames/storage/storagetest"
)

type testServer struct {
	*httptest.Server
	store *memory.Store
	game  *Game
}

func newTestServer(t *testing.T, admin bool) *testServer {
	t.Helper()

	cfg := &Config{
		admin:          admin,
		playerTimeout:  time.Minute,
		port:           8080,
		sessionTimeout: time.Hour,
		storage:        storageMemory,
		tokenTTL:       time.Hour,
	}

	store := memory.New()
	tokens, err := newTokenIssuer("test-secret-0123456789", cfg.tokenTTL)
	require.NoError(t, err)

	engine := codenames.NewEngine(store, store)
	game := newGame(cfg, engine, store, tokens, zerolog.Nop())

	mux := httprouter.New()
	errs := make(chan error, 64)
	registerRoutes(cfg, game, mux, zerolog.Nop(), errs)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		game.hubs.closeAll()
		srv.Close()
	})

	return &testServer{Server: srv, store: store, game: game}
}

// seed stores ABC123 with red cards at 0-8, blue at 9-16 and the assassin at 17.
func (s *testServer) seed(t *testing.T) {
	t.Helper()

	_, err := s.store.Create(context.Background(), storagetest.Room("ABC123", time.Now().UTC()))
	require.NoError(t, err)
}

func (s *testServer) request(t *testing.T, method, path, token string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (s *testServer) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	return s.send(t, s.request(t, method, path, token, body))
}

// join seats a new player. The test client keeps no cookies, so every call
// gets a fresh server-issued id.
func (s *testServer) join(t *testing.T, room, name string, team codenames.Team, role codenames.Role) joinResponse {
	t.Helper()

	return s.joinAs(t, room, "", name, team, role)
}

// joinAs joins with token, which rejoins the seat the token names.
func (s *testServer) joinAs(t *testing.T, room, token, name string, team codenames.Team, role codenames.Role) joinResponse {
	t.Helper()

	resp, body := s.do(t, http.MethodPost, "/api/rooms/"+room+"/join", token, joinBody{Name: name, Team: team, Role: role})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out joinResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()

	var e apiError
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e.Error
}

func TestRevealOverAPI(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)
	s.seed(t)

	redOp := s.join(t, "ABC123", "Ann", codenames.RedTeam, codenames.Operative)
	blueSpy := s.join(t, "ABC123", "Bo", codenames.BlueTeam, codenames.Spymaster)
	assert.Equal(t, codenames.Color(""), redOp.Room.Board[0].Color, "operatives get a redacted board")
	assert.Equal(t, codenames.Red, blueSpy.Room.Board[0].Color, "spymasters see every colour")

	resp, body := s.do(t, http.MethodPost, "/api/rooms/ABC123/reveal", "", revealBody{Index: intPtr(9)})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", errorCode(t, body))

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/reveal", blueSpy.Token, revealBody{Index: intPtr(9)})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden_role", errorCode(t, body))

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/reveal", redOp.Token, revealBody{Index: intPtr(9)})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var outcome codenames.RevealOutcome
	require.NoError(t, json.Unmarshal(body, &outcome))
	assert.Equal(t, codenames.Blue, outcome.Card.Color)
	assert.True(t, outcome.TurnChanged)
	assert.Equal(t, codenames.BlueTeam, outcome.CurrentTurn)
	assert.Equal(t, codenames.Blue, outcome.Room.Board[9].Color)
	assert.Equal(t, codenames.Color(""), outcome.Room.Board[0].Color)

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/reveal", redOp.Token, revealBody{Index: intPtr(0)})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "wrong_turn", errorCode(t, body))

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/reveal", redOp.Token, revealBody{Index: intPtr(99)})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_card", errorCode(t, body))

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/reveal", redOp.Token, "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", errorCode(t, body))

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/reveal", redOp.Token, "{}")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", errorCode(t, body))

	resp, body = s.do(t, http.MethodGet, "/api/rooms/ABC123", blueSpy.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view roomResponse
	require.NoError(t, json.Unmarshal(body, &view))
	require.NotNil(t, view.Player)
	assert.Equal(t, codenames.Spymaster, view.Player.Role)
	assert.Equal(t, codenames.Red, view.Room.Board[0].Color)
}

func TestAssassinOverAPI(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)
	s.seed(t)
	redOp := s.join(t, "ABC123", "Ann", codenames.RedTeam, codenames.Operative)

	resp, body := s.do(t, http.MethodPost, "/api/rooms/ABC123/reveal", redOp.Token, revealBody{Index: intPtr(17)})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var outcome codenames.RevealOutcome
	require.NoError(t, json.Unmarshal(body, &outcome))
	assert.True(t, outcome.Finished)
	assert.Equal(t, codenames.BlueTeam, outcome.Winner)
	assert.Equal(t, codenames.ReasonAssassin, outcome.Reason)
	assert.Equal(t, codenames.Red, outcome.Room.Board[0].Color, "the board is open once the game is over")

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/reveal", redOp.Token, revealBody{Index: intPtr(0)})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "game_finished", errorCode(t, body))

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/new-game", "", newGameBody{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/new-game", redOp.Token, newGameBody{SwapTeams: true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var view roomResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Nil(t, view.Room.Outcome)
	assert.Equal(t, codenames.RedTeam, view.Room.CurrentTurn)
	require.NotNil(t, view.Player)
	assert.Equal(t, codenames.BlueTeam, view.Player.Team)

	// The old token still claims red; rejoining hands out one for the new seat.
	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/reveal", redOp.Token, revealBody{Index: intPtr(0)})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_player_data", errorCode(t, body))

	again := s.joinAs(t, "ABC123", redOp.Token, "Ann", "", codenames.Operative)
	assert.Equal(t, redOp.Player.ID, again.Player.ID)
	assert.Equal(t, codenames.BlueTeam, again.Player.Team)
	assert.NotEqual(t, redOp.Token, again.Token)
}

func TestJoinAndLeaveOverAPI(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)

	resp, body := s.do(t, http.MethodGet, "/api/rooms/abc123", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	first := s.join(t, "ABC123", "Ann", "", codenames.Operative)
	second := s.join(t, "ABC123", "Bo", "", codenames.Operative)
	assert.NotEqual(t, first.Player.ID, second.Player.ID)
	assert.Equal(t, codenames.RedTeam, first.Player.Team)
	assert.Equal(t, codenames.BlueTeam, second.Player.Team)

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/join", "", joinBody{Name: "Cy", Role: codenames.Spymaster})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_player_data", errorCode(t, body))

	resp, body = s.do(t, http.MethodPost, "/api/rooms/ZZZ999/join", "", joinBody{Name: "Cy", Role: codenames.Operative})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "room_not_found", errorCode(t, body))

	resp, _ = s.do(t, http.MethodPost, "/api/rooms/ABC123/leave", first.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	room, err := s.game.engine.Get(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Len(t, room.Players, 1)

	// A token from one room is worthless in another.
	_, err = s.game.engine.Open(context.Background(), "XYZ789", "")
	require.NoError(t, err)
	resp, _ = s.do(t, http.MethodPost, "/api/rooms/XYZ789/leave", second.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/api/rooms/bad", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_room_id", errorCode(t, body))
}

func TestJoinCannotClaimAnotherSeat(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)
	s.seed(t)

	blueSpy := s.join(t, "ABC123", "Bo", codenames.BlueTeam, codenames.Spymaster)
	redOp := s.join(t, "ABC123", "Ann", codenames.RedTeam, codenames.Operative)

	resp, body := s.do(t, http.MethodGet, "/api/rooms/ABC123", redOp.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view roomResponse
	require.NoError(t, json.Unmarshal(body, &view))
	require.Len(t, view.Room.Players, 2)
	for _, p := range view.Room.Players {
		if p.Name == "Bo" {
			assert.Empty(t, p.ID, "other players' ids are not shown")
		} else {
			assert.Equal(t, redOp.Player.ID, p.ID)
		}
	}

	// Naming a seat in the body is refused outright.
	resp, body = s.do(t, http.MethodPost, "/api/rooms/ABC123/join", "", map[string]any{
		"id":   blueSpy.Player.ID,
		"name": "Eve",
		"role": codenames.Operative,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", errorCode(t, body))

	// A hand-made cookie carrying the id is not trusted.
	req := s.request(t, http.MethodPost, "/api/rooms/ABC123/join", "", joinBody{Name: "Eve", Role: codenames.Operative})
	req.AddCookie(&http.Cookie{Name: playerCookieName, Value: blueSpy.Player.ID})
	resp, body = s.send(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var forged joinResponse
	require.NoError(t, json.Unmarshal(body, &forged))
	assert.NotEqual(t, blueSpy.Player.ID, forged.Player.ID)
	assert.Equal(t, codenames.Operative, forged.Player.Role)
	assert.Equal(t, codenames.Color(""), forged.Room.Board[0].Color)

	// The cookie the server hands out does carry the seat.
	var issued *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == playerCookieName {
			issued = c
		}
	}
	require.NotNil(t, issued)
	req = s.request(t, http.MethodPost, "/api/rooms/ABC123/join", "", joinBody{Name: "Eve", Role: codenames.Operative})
	req.AddCookie(issued)
	resp, body = s.send(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var again joinResponse
	require.NoError(t, json.Unmarshal(body, &again))
	assert.Equal(t, forged.Player.ID, again.Player.ID)

	// A token from another room does not open a seat here.
	_, err := s.game.engine.Open(context.Background(), "XYZ789", "")
	require.NoError(t, err)
	resp, body = s.do(t, http.MethodPost, "/api/rooms/XYZ789/join", blueSpy.Token, joinBody{Name: "Bo", Role: codenames.Operative})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", errorCode(t, body))

	// Only the seat's own token gets the spymaster view back.
	back := s.joinAs(t, "ABC123", blueSpy.Token, "Bo", "", codenames.Operative)
	assert.Equal(t, codenames.Spymaster, back.Player.Role)
	assert.Equal(t, codenames.Red, back.Room.Board[0].Color)
}

func TestDirectoryOverAPI(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)
	s.seed(t)

	resp, body := s.do(t, http.MethodGet, "/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rooms []codenames.RoomSummary
	require.NoError(t, json.Unmarshal(body, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "ABC123", rooms[0].RoomID)
	assert.Equal(t, codenames.RedCards, rooms[0].RedRemaining)

	resp, body = s.do(t, http.MethodDelete, "/api/rooms", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "admin_only", errorCode(t, body))

	admin := newTestServer(t, true)
	admin.seed(t)
	resp, _ = admin.do(t, http.MethodDelete, "/api/rooms", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = admin.do(t, http.MethodGet, "/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &rooms))
	assert.Empty(t, rooms)
}

func TestWordBanksOverAPI(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)

	words := make([]string, 30)
	for i := range words {
		words[i] = "word" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}

	resp, body := s.do(t, http.MethodPost, "/api/wordbanks", "", wordBankBody{Name: "Letters", Words: words})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var bank codenames.WordBank
	require.NoError(t, json.Unmarshal(body, &bank))
	require.NotEmpty(t, bank.ID)

	resp, body = s.do(t, http.MethodPost, "/api/wordbanks", "", wordBankBody{Name: "Empty"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_word_bank", errorCode(t, body))

	resp, body = s.do(t, http.MethodGet, "/api/rooms/BANK01?bank="+bank.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var view roomResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, bank.ID, view.Room.WordBankID)
	for _, w := range view.Room.Board.Words() {
		assert.Contains(t, words, w)
	}

	resp, body = s.do(t, http.MethodGet, "/api/rooms/BANK02?bank=missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "word_bank_not_found", errorCode(t, body))

	resp, body = s.do(t, http.MethodPut, "/api/wordbanks/"+bank.ID, "", wordBankBody{Name: "Renamed", Words: []string{"one"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &bank))
	assert.Equal(t, "Renamed", bank.Name)

	resp, body = s.do(t, http.MethodPost, "/api/wordbanks/default", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	resp, body = s.do(t, http.MethodPost, "/api/wordbanks/default", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "word_bank_exists", errorCode(t, body))

	resp, body = s.do(t, http.MethodGet, "/api/wordbanks", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var banks []codenames.WordBank
	require.NoError(t, json.Unmarshal(body, &banks))
	require.Len(t, banks, 2)
	assert.ElementsMatch(t, []string{"Renamed", codenames.DefaultBankName}, []string{banks[0].Name, banks[1].Name})

	resp, _ = s.do(t, http.MethodDelete, "/api/wordbanks/"+bank.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, body = s.do(t, http.MethodGet, "/api/wordbanks/"+bank.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "word_bank_not_found", errorCode(t, body))
}

func TestPages(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)

	resp, _ := s.do(t, http.MethodGet, "/codenames", "", nil)
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/codenames/"), location)
	assert.NoError(t, codenames.ValidateRoomID(strings.TrimPrefix(location, "/codenames/")))

	resp, _ = s.do(t, http.MethodGet, "/codenames/abc123", "", nil)
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/codenames/ABC123", resp.Header.Get("Location"))

	resp, body := s.do(t, http.MethodGet, "/codenames/ABC123", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "/assets/codenames/app.js")
	assert.Contains(t, resp.Header.Get("Set-Cookie"), playerCookieName+"=")

	resp, _ = s.do(t, http.MethodGet, "/codenames/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/codenames/ABC123/qr", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	for path, contentType := range map[string]string{
		"/":                          "text/html",
		"/assets/codenames/app.css":  "text/css",
		"/assets/codenames/app.js":   "text/javascript",
		"/favicons/favicon.svg":      "image/svg+xml",
		"/favicons/site.webmanifest": "application/manifest+json",
		"/healthz":                   "text/plain",
		"/robots.txt":                "text/plain",
		"/version":                   "text/plain",
	} {
		resp, _ := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), contentType, path)
	}

	resp, _ = s.do(t, http.MethodGet, "/assets/missing.js", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type wsMessage struct {
	Type     string                  `json:"type"`
	PlayerID string                  `json:"player_id"`
	Player   *codenames.Player       `json:"player"`
	Token    string                  `json:"token"`
	Room     *codenames.Room         `json:"room"`
	Rooms    []codenames.RoomSummary `json:"rooms"`
	Error    string                  `json:"error"`
}

func dial(t *testing.T, s *testServer, path string) *websocket.Conn {
	t.Helper()

	return dialWith(t, s, path, nil)
}

func dialWith(t *testing.T, s *testServer, path string, header http.Header) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+path, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(wsMessage) bool) wsMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestRoomWebsocket(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)
	s.seed(t)

	conn := dial(t, s, "/codenames/ABC123/ws")

	session := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "session" })
	assert.NotEmpty(t, session.PlayerID)
	assert.Nil(t, session.Player)

	state := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "state" })
	require.NotNil(t, state.Room)
	assert.Equal(t, codenames.Color(""), state.Room.Board[0].Color)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "reveal", Index: intPtr(0)}))
	failed := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "error" })
	assert.Equal(t, "invalid_player_data", failed.Error)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "join", Name: "Ann", Team: codenames.RedTeam, Role: codenames.Operative}))
	joined := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "session" && m.Player != nil })
	assert.Equal(t, codenames.RedTeam, joined.Player.Team)
	assert.NotEmpty(t, joined.Token)

	// A second client sees the first one's reveal.
	watcher := dial(t, s, "/codenames/ABC123/ws")
	readUntil(t, watcher, func(m wsMessage) bool { return m.Type == "state" })

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "reveal", Index: intPtr(9)}))
	seen := readUntil(t, watcher, func(m wsMessage) bool {
		return m.Type == "state" && m.Room != nil && m.Room.Board[9].Revealed
	})
	assert.Equal(t, codenames.BlueTeam, seen.Room.CurrentTurn)
	assert.Equal(t, codenames.Blue, seen.Room.Board[9].Color)
	assert.Len(t, seen.Room.Players, 1)
}

func TestRoomWebsocketIgnoresForgedCookie(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)
	s.seed(t)
	seat := s.join(t, "ABC123", "Bo", codenames.BlueTeam, codenames.Spymaster)

	conn := dialWith(t, s, "/codenames/ABC123/ws", http.Header{
		"Cookie": {playerCookieName + "=" + seat.Player.ID},
	})

	session := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "session" })
	assert.NotEqual(t, seat.Player.ID, session.PlayerID)
	assert.Nil(t, session.Player)
	assert.Empty(t, session.Token)

	state := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "state" })
	require.NotNil(t, state.Room)
	assert.Equal(t, codenames.Color(""), state.Room.Board[0].Color)
	require.Len(t, state.Room.Players, 1)
	assert.Empty(t, state.Room.Players[0].ID)
}

func TestRoomWebsocketResumesSeat(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)
	s.seed(t)

	req := s.request(t, http.MethodPost, "/api/rooms/ABC123/join", "", joinBody{
		Name: "Bo",
		Team: codenames.BlueTeam,
		Role: codenames.Spymaster,
	})
	resp, body := s.send(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var seat joinResponse
	require.NoError(t, json.Unmarshal(body, &seat))

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == playerCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	conn := dialWith(t, s, "/codenames/ABC123/ws", http.Header{
		"Cookie": {cookie.Name + "=" + cookie.Value},
	})

	session := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "session" })
	assert.Equal(t, seat.Player.ID, session.PlayerID)
	require.NotNil(t, session.Player)
	assert.Equal(t, codenames.Spymaster, session.Player.Role)

	claimed, err := s.game.tokens.verify(session.Token, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, seat.Player.ID, claimed.ID)

	state := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "state" })
	require.NotNil(t, state.Room)
	assert.Equal(t, codenames.Red, state.Room.Board[0].Color)
}

func TestDirectoryWebsocket(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)
	conn := dial(t, s, "/api/directory/ws")

	first := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "rooms" })
	assert.Empty(t, first.Rooms)

	_, err := s.game.engine.Open(context.Background(), "NEW001", "")
	require.NoError(t, err)

	next := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "rooms" && len(m.Rooms) == 1 })
	assert.Equal(t, "NEW001", next.Rooms[0].RoomID)
}

func intPtr(i int) *int {
	return &i
}
