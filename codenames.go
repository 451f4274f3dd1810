// Codenames
//
// Two teams race to uncover their agents on a 5x5 grid of words. Spymasters
// see every card's colour; operatives only see what has been revealed.
//
// Features:
// - Rooms per six-character code: /path/:room and /path/:room/ws
// - Room state lives in the configured store; every write is pushed to all
//   connected clients of that room
// - Spymasters get the full board, everyone else a redacted one
// - Players identified by cookie, with a signed token for the JSON API
// - Disconnected players leave their room after a configurable timeout
// - Idle push sessions reaped after a configurable timeout
// - Random room codes via crypto/rand, with a collision check against the store
// - In-browser QR button to share the current room, backed by go-qrcode

package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/codenames/games/codenames"
)

// Game holds what every codenames handler needs.
type Game struct {
	cfg    *Config
	engine *codenames.Engine
	banks  codenames.WordBankStore
	tokens *tokenIssuer
	hubs   *GameManager
	log    zerolog.Logger
}

func newGame(cfg *Config, engine *codenames.Engine, banks codenames.WordBankStore, tokens *tokenIssuer, logger zerolog.Logger) *Game {
	g := &Game{
		cfg:    cfg,
		engine: engine,
		banks:  banks,
		tokens: tokens,
		log:    logger,
	}
	g.hubs = newGameManager(g, cfg.sessionTimeout)
	return g
}

// viewFor returns the room as player may see it. Colours stay hidden from
// everyone but spymasters until the game is over, and only the viewer's own
// player id is shown.
func viewFor(room codenames.Room, player *codenames.Player) codenames.Room {
	self := ""
	if player != nil {
		self = player.ID
	}

	if room.Outcome != nil || (player != nil && player.Role == codenames.Spymaster) {
		return room.HidePlayerIDs(self)
	}
	return room.Redacted().HidePlayerIDs(self)
}

// Messages coming from clients
type ClientMessage struct {
	Type       string         `json:"type"`                   // "join", "reveal", "new_game", "leave"
	Name       string         `json:"name,omitempty"`         // join
	Team       codenames.Team `json:"team,omitempty"`         // join
	Role       codenames.Role `json:"role,omitempty"`         // join
	Index      *int           `json:"index,omitempty"`        // reveal
	SwapTeams  bool           `json:"swap_teams,omitempty"`   // new_game
	WordBankID *string        `json:"word_bank_id,omitempty"` // new_game
}

// SessionMessage is sent right after connecting, and again after joining.
type SessionMessage struct {
	Type     string            `json:"type"` // "session"
	PlayerID string            `json:"player_id"`
	Player   *codenames.Player `json:"player,omitempty"`
	Token    string            `json:"token,omitempty"`
}

// StateMessage carries the room as this client may see it.
type StateMessage struct {
	Type   string            `json:"type"` // "state"
	Room   codenames.Room    `json:"room"`
	Player *codenames.Player `json:"player,omitempty"`
}

// ErrorMessage is sent only to the client whose action failed.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SimpleMessage is for generic notifications ("room_deleted").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type directMessage struct {
	client *Client
	msg    any
}

type Hub struct {
	id   string
	game *Game

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	direct   chan directMessage
	notify   chan struct{}
	done     chan struct{}

	mu          sync.RWMutex
	latest      *codenames.Change
	version     int64
	lastActive  time.Time
	unsubscribe func()
	closeOnce   sync.Once
}

func newHub(g *Game, roomID string) *Hub {
	h := &Hub{
		id:         roomID,
		game:       g,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		direct:     make(chan directMessage),
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
		lastActive: time.Now(),
	}

	h.unsubscribe = g.engine.Subscribe(roomID, h.offer)

	return h
}

// offer keeps c as the next change to broadcast and wakes the run loop. It
// runs on the store's writer goroutine and never blocks. Stores publish
// after releasing their locks, so a change that is not newer than the last
// one accepted is dropped.
func (h *Hub) offer(c codenames.Change) {
	h.mu.Lock()
	switch {
	case c.Deleted || c.Room == nil:
		h.version = 0
	case c.Room.Version <= h.version:
		h.mu.Unlock()
		return
	default:
		h.version = c.Room.Version
	}
	h.latest = &c
	h.mu.Unlock()

	select {
	case h.notify <- struct{}{}:
	default:
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true
			h.mu.Unlock()

			h.greet(c)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

			if c.playerID != "" {
				go h.game.hubs.scheduleRemoval(h.id, c.playerID, h.game.cfg.playerTimeout)
			}

		case d := <-h.direct:
			h.mu.Lock()
			if h.clients[d.client] {
				h.sendLocked(d.client, d.msg)
			}
			h.mu.Unlock()

		case <-h.notify:
			h.mu.Lock()
			change := h.latest
			h.latest = nil
			h.lastActive = time.Now()
			// greet may already have sent something newer.
			if change != nil && (change.Room == nil || change.Room.Version >= h.version) {
				h.broadcastLocked(*change)
			}
			h.mu.Unlock()

		case <-h.done:
			return
		}
	}
}

// greet sends a fresh client its session and the current room.
func (h *Hub) greet(c *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	room, err := h.game.engine.Get(ctx, h.id)

	h.mu.Lock()
	defer h.mu.Unlock()

	if err != nil {
		h.sendLocked(c, errorMessage(err))
		return
	}
	if room.Version > h.version {
		h.version = room.Version
	}

	session := SessionMessage{Type: "session", PlayerID: c.playerID}
	var player *codenames.Player
	if p, ok := room.Player(c.playerID); ok {
		player = &p
		session.Player = player
		token, err := h.game.tokens.issue(room.RoomID, p)
		if err != nil {
			h.game.log.Warn().Err(err).Str("room", h.id).Str("player", p.ID).Msg("GAMES: Failed to issue player token")
		}
		session.Token = token
	}

	h.sendLocked(c, session)
	h.sendLocked(c, StateMessage{Type: "state", Room: viewFor(room, player), Player: player})
}

func (h *Hub) broadcastLocked(change codenames.Change) {
	if change.Deleted || change.Room == nil {
		for client := range h.clients {
			h.sendLocked(client, SimpleMessage{
				Type:    "room_deleted",
				Message: "This room has been deleted.",
			})
		}
		return
	}

	room := *change.Room
	for client := range h.clients {
		var player *codenames.Player
		if p, ok := room.Player(client.playerID); ok {
			player = &p
		}
		h.sendLocked(client, StateMessage{Type: "state", Room: viewFor(room, player), Player: player})
	}
}

// sendLocked drops clients that are too slow to keep up.
func (h *Hub) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// reply queues msg for one client through the run loop.
func (h *Hub) reply(c *Client, msg any) {
	select {
	case h.direct <- directMessage{client: c, msg: msg}:
	case <-h.done:
	}
}

func (h *Hub) connected(playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.playerID == playerID {
			return true
		}
	}
	return false
}

func (h *Hub) idleSince() (time.Time, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive, len(h.clients)
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	h.closeOnce.Do(func() {
		h.unsubscribe()
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()

		for c := range h.clients {
			close(c.send)
			_ = c.conn.Close()
			delete(h.clients, c)
		}
	})
}

func errorMessage(err error) ErrorMessage {
	_, code := statusFor(err)
	return ErrorMessage{Type: "error", Error: code, Message: err.Error()}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "codenames_id"

// playerID returns the caller's id from the signed player cookie. Callers
// without a valid cookie get a fresh id and a new cookie.
func (g *Game) playerID(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		if id, err := g.tokens.verifyIdentity(c.Value); err == nil {
			return id, nil
		}
	}

	id := uuid.NewString()
	signed, err := g.tokens.issueIdentity(id)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(identityTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   g.cfg.scheme() == "https",
	})

	return id, nil
}

// GameManager holds one hub per room with connected clients.
type GameManager struct {
	mu          sync.Mutex
	game        *Game
	hubs        map[string]*Hub
	idleTimeout time.Duration
}

func newGameManager(g *Game, idleTimeout time.Duration) *GameManager {
	return &GameManager{
		game:        g,
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
	}
}

func (gm *GameManager) getHub(roomID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[roomID]; ok {
		return hub
	}

	hub := newHub(gm.game, roomID)
	gm.hubs[roomID] = hub
	go hub.run()
	return hub
}

func (gm *GameManager) connected(roomID, playerID string) bool {
	gm.mu.Lock()
	hub, ok := gm.hubs[roomID]
	gm.mu.Unlock()

	return ok && hub.connected(playerID)
}

// scheduleRemoval waits for d, and if the player has not reconnected to the
// room in the meantime, takes them out of it. Failures are only logged.
func (gm *GameManager) scheduleRemoval(roomID, playerID string, d time.Duration) {
	time.Sleep(d)

	if gm.connected(roomID, playerID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := gm.game.engine.Leave(ctx, roomID, playerID)
	if err != nil && !errors.Is(err, codenames.ErrRoomNotFound) {
		gm.game.log.Warn().Err(err).Str("room", roomID).Str("player", playerID).Msg("GAMES: Failed to remove disconnected player")
	}
}

// reaperLoop periodically closes hubs that have been idle longer than
// idleTimeout.
func (gm *GameManager) reaperLoop(ctx context.Context) {
	if gm.idleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			gm.closeAll()
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

func (gm *GameManager) reap(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	reaped := 0
	for id, hub := range gm.hubs {
		last, clients := hub.idleSince()
		if last.Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()
			reaped++
			gm.game.log.Debug().Str("room", id).Int("clients", clients).Msg("GAMES: Reaped idle session")
		}
	}
	return reaped
}

func (gm *GameManager) closeAll() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		delete(gm.hubs, id)
		hub.closeAll()
	}
}

// roomParam normalises and validates the :room path parameter.
func roomParam(ps httprouter.Params) (string, error) {
	id := codenames.NormalizeRoomID(ps.ByName("room"))
	if err := codenames.ValidateRoomID(id); err != nil {
		return "", err
	}
	return id, nil
}

// WebSocket handler that picks the hub based on :room
func (g *Game) serveWS() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID, err := roomParam(ps)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		playerID, err := g.playerID(w, r)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		if _, err := g.engine.Open(r.Context(), roomID, r.URL.Query().Get("bank")); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		hub := g.hubs.getHub(roomID)

		// Carries the player cookie set above.
		conn, err := upgrader.Upgrade(w, r, w.Header())
		if err != nil {
			g.log.Debug().Err(err).Str("room", roomID).Msg("SERVE: Websocket upgrade failed")
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: playerID,
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(g, hub)
	}
}

func (c *Client) readPump(g *Game, h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if reply := g.handleAction(h.id, c.playerID, msg); reply != nil {
			h.reply(c, reply)
		}
	}
}

// handleAction runs one client action against the engine. The resulting
// state reaches every client through the store subscription, so only
// errors and session changes are answered directly.
func (g *Game) handleAction(roomID, playerID string, msg ClientMessage) any {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch msg.Type {
	case "join":
		player, err := g.engine.Join(ctx, roomID, codenames.JoinRequest{
			ID:   playerID,
			Name: msg.Name,
			Team: msg.Team,
			Role: msg.Role,
		})
		if err != nil {
			return errorMessage(err)
		}
		token, err := g.tokens.issue(roomID, player)
		if err != nil {
			return errorMessage(err)
		}
		return SessionMessage{Type: "session", PlayerID: playerID, Player: &player, Token: token}

	case "reveal":
		if msg.Index == nil {
			return errorMessage(codenames.ErrInvalidCard)
		}
		actor, err := g.seatedPlayer(ctx, roomID, playerID)
		if err != nil {
			return errorMessage(err)
		}
		if _, err := g.engine.Reveal(ctx, roomID, *msg.Index, actor); err != nil {
			return errorMessage(err)
		}

	case "new_game":
		if _, err := g.seatedPlayer(ctx, roomID, playerID); err != nil {
			return errorMessage(err)
		}
		_, err := g.engine.NewGame(ctx, roomID, codenames.NewGameOptions{
			WordBankID: msg.WordBankID,
			SwapTeams:  msg.SwapTeams,
		})
		if err != nil {
			return errorMessage(err)
		}

	case "leave":
		if err := g.engine.Leave(ctx, roomID, playerID); err != nil {
			return errorMessage(err)
		}
		return SessionMessage{Type: "session", PlayerID: playerID}
	}

	return nil
}

// seatedPlayer returns the stored record of a player who has joined.
// Websocket clients are identified by cookie, so the stored seat is the
// one acted on.
func (g *Game) seatedPlayer(ctx context.Context, roomID, playerID string) (codenames.Player, error) {
	room, err := g.engine.Get(ctx, roomID)
	if err != nil {
		return codenames.Player{}, err
	}
	player, ok := room.Player(playerID)
	if !ok {
		return codenames.Player{}, codenames.ErrInvalidPlayerData
	}
	return player, nil
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current room URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := roomParam(ps); err != nil {
		http.Error(w, "invalid room code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:room/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (g *Game) serveIndex(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		raw := ps.ByName("room")
		roomID := codenames.NormalizeRoomID(raw)
		if err := codenames.ValidateRoomID(roomID); err != nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			securityHeaders(g.cfg, w)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(newPage("Unknown room", "That is not a valid room code.")))
			return
		}
		if raw != roomID {
			http.Redirect(w, r, g.cfg.prefix+"/codenames/"+roomID, http.StatusMovedPermanently)
			return
		}

		if _, err := g.playerID(w, r); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		serveEmbedded(g.cfg, w, "assets/codenames/index.html", errs)
	}
}

// redirectNewGame handles GET /path by generating a new random room code
// that is not in the store yet, and redirecting to /path/:room.
func (g *Game) redirectNewGame(path string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		roomID, err := g.newRoomID(r.Context())
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		g.log.Debug().Str("room", roomID).Msg("GAMES: Assigned new room code")
		http.Redirect(w, r, g.cfg.prefix+path+"/"+roomID, http.StatusTemporaryRedirect)
	}
}

func (g *Game) newRoomID(ctx context.Context) (string, error) {
	for {
		id, err := codenames.NewRoomID()
		if err != nil {
			return "", err
		}

		_, err = g.engine.Get(ctx, id)
		switch {
		case errors.Is(err, codenames.ErrRoomNotFound):
			return id, nil
		case err != nil:
			return "", err
		}
	}
}

// registerCodenames sets up routes so that:
//   - $path                  → redirects to a new random room
//   - $path/:room            → HTML client
//   - $path/:room/ws         → WebSocket for that room
//   - $path/:room/qr         → PNG QR code for that room URL
//   - /api/...               → JSON API over the same rooms
func registerCodenames(g *Game, path string, mux *httprouter.Router, errs chan<- error) {
	prefix := g.cfg.prefix

	mux.GET(prefix+path, g.redirectNewGame(path))
	mux.GET(prefix+path+"/:room", g.serveIndex(errs))
	mux.GET(prefix+path+"/:room/ws", g.serveWS())
	mux.GET(prefix+path+"/:room/qr", qrHandler)

	registerRoomAPI(g, mux, errs)
	registerWordBankAPI(g, mux, errs)
}
