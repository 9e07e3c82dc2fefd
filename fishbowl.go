/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Fishbowl
//
// Every player drops a few names into a shared bowl. Teams then take timed
// turns: the active player describes the name on top of the bowl while their
// teammates guess, and each correct guess scores for the team. A round ends
// when the bowl is empty; the bowl is refilled for the next round.
//
// Routes, relative to the registered path:
//   - $path                  → redirects to a new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/fishbowl/games/fishbowl"
	"github.com/Seednode/fishbowl/store"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
	commandTimeout = 5 * time.Second
)

var (
	errUnknownCommand = errors.New("unknown command")
	errNotAllowed     = errors.New("only the game master can do that")
)

// ClientMessage is a command sent by a browser. Type selects the command;
// the other fields are its arguments.
type ClientMessage struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`     // setName, addTeam
	Font     string `json:"font,omitempty"`     // setFont
	Entry    string `json:"entry,omitempty"`    // submitEntry
	PlayerID string `json:"playerId,omitempty"` // removePlayer, assignPlayerToTeam
	TeamID   string `json:"teamId,omitempty"`   // assignPlayerToTeam, removeTeam
	Value    int    `json:"value,omitempty"`    // setEntriesPerPlayer, setTurnTime, setScorePerEntry
}

// SessionInfoMessage is sent immediately on connect so the client knows
// which player this cookie belongs to.
type SessionInfoMessage struct {
	Type       string `json:"type"` // "session_info"
	GameID     string `json:"gameId"`
	PlayerID   string `json:"playerId"`
	IsExisting bool   `json:"isExisting"`
	IsMaster   bool   `json:"isMaster"`
	Removed    bool   `json:"removed,omitempty"`
}

// StateMessage carries the game as the receiving player may see it.
type StateMessage struct {
	Type    string              `json:"type"` // "state"
	Removed bool                `json:"removed,omitempty"`
	View    fishbowl.PlayerView `json:"view"`
}

// EventsMessage relays what a command changed.
type EventsMessage struct {
	Type   string           `json:"type"` // "events"
	Events []fishbowl.Event `json:"events"`
}

// RejectedMessage is sent only to the client whose command was refused.
type RejectedMessage struct {
	Type    string `json:"type"` // "rejected"
	Command string `json:"command"`
	Message string `json:"message"`
}

type sessionCommand func(*fishbowl.Session) fishbowl.Result

// command maps a message from playerID onto the session command it names.
func command(playerID string, msg ClientMessage) (sessionCommand, error) {
	switch msg.Type {
	case "join":
		return func(s *fishbowl.Session) fishbowl.Result { return s.Join(playerID, false) }, nil
	case "setName":
		name := strings.TrimSpace(msg.Name)
		return func(s *fishbowl.Session) fishbowl.Result { return s.SetName(playerID, name) }, nil
	case "setFont":
		return func(s *fishbowl.Session) fishbowl.Result { return s.SetFont(playerID, msg.Font) }, nil
	case "submitEntry":
		entry := strings.TrimSpace(msg.Entry)
		if entry == "" {
			return nil, fishbowl.ErrInvalidValue
		}
		return func(s *fishbowl.Session) fishbowl.Result { return s.SubmitEntry(playerID, entry) }, nil
	case "leave":
		return func(s *fishbowl.Session) fishbowl.Result { return s.RemovePlayer(playerID, true) }, nil
	case "removePlayer":
		target := msg.PlayerID
		return func(s *fishbowl.Session) fishbowl.Result { return s.RemovePlayer(target, false) }, nil
	case "setEntriesPerPlayer":
		return func(s *fishbowl.Session) fishbowl.Result { return s.SetEntriesPerPlayer(msg.Value) }, nil
	case "addTeam":
		team := fishbowl.Team{ID: uuid.NewString(), Name: strings.TrimSpace(msg.Name)}
		return func(s *fishbowl.Session) fishbowl.Result { return s.AddTeam(team) }, nil
	case "assignPlayerToTeam":
		target := msg.PlayerID
		if target == "" {
			target = playerID
		}
		return func(s *fishbowl.Session) fishbowl.Result { return s.AssignPlayerToTeam(target, msg.TeamID) }, nil
	case "removeTeam":
		return func(s *fishbowl.Session) fishbowl.Result { return s.RemoveTeam(msg.TeamID) }, nil
	case "setTurnTime":
		return func(s *fishbowl.Session) fishbowl.Result { return s.SetTurnTime(msg.Value) }, nil
	case "setScorePerEntry":
		return func(s *fishbowl.Session) fishbowl.Result { return s.SetScorePerEntry(msg.Value) }, nil
	case "start":
		return (*fishbowl.Session).Start, nil
	case "startRound":
		return (*fishbowl.Session).StartRound, nil
	case "startTurn":
		return (*fishbowl.Session).StartTurn, nil
	case "nextEntry":
		return (*fishbowl.Session).NextEntry, nil
	case "finishTurn":
		return (*fishbowl.Session).FinishTurn, nil
	case "nextTurn":
		return (*fishbowl.Session).NextTurn, nil
	case "finishRound":
		return (*fishbowl.Session).FinishRound, nil
	case "nextRound":
		return (*fishbowl.Session).NextRound, nil
	case "finish":
		return (*fishbowl.Session).Finish, nil
	}

	return nil, errUnknownCommand
}

// authorize decides whether sender may issue msg. Players manage their own
// profile, may leave, and may pick a team before the game starts. The active
// player may drive their own turn. Everything else, including removing a
// player, belongs to the master.
func authorize(s *fishbowl.Session, sender string, msg ClientMessage) error {
	switch msg.Type {
	case "join", "setName", "setFont", "submitEntry", "leave":
		return nil
	case "assignPlayerToTeam":
		self := msg.PlayerID == "" || msg.PlayerID == sender
		if self && s.Game() == fishbowl.GamePending && s.HasPlayer(sender) {
			return nil
		}
	case "startTurn", "nextEntry", "finishTurn":
		if sender != "" && sender == s.ActivePlayer() {
			return nil
		}
	}

	if sender != "" && sender == s.MasterID() {
		return nil
	}

	return errNotAllowed
}

func stateFor(s *fishbowl.Session, playerID string) StateMessage {
	if v, ok := s.ViewFor(playerID); ok {
		return StateMessage{Type: "state", View: v}
	}

	return StateMessage{
		Type:    "state",
		Removed: s.Removed(playerID),
		View:    fishbowl.PlayerView{View: s.View(), PlayerID: playerID},
	}
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

// Hub connects the websocket clients of one game to its room.
type Hub struct {
	id        string
	cfg       *Config
	room      *fishbowl.Room
	createdAt time.Time

	mu       sync.Mutex
	clients  map[*Client]bool
	removals map[string]*time.Timer
	closed   bool
}

// newHub starts the room for gameID, restoring it from saved if set.
func newHub(cfg *Config, gameID string, saved *fishbowl.State, saver *store.Saver) *Hub {
	h := &Hub{
		id:        gameID,
		cfg:       cfg,
		createdAt: time.Now(),
		clients:   make(map[*Client]bool),
		removals:  make(map[string]*time.Timer),
	}

	rc := fishbowl.RoomConfig{
		Logger:   gameLogger{cfg: cfg},
		OnChange: h.broadcast,
		Save: func(st fishbowl.State) {
			saver.Enqueue(gameID, st)
		},
	}

	if saved != nil {
		h.room = fishbowl.RestoreRoom(*saved, rc)
	} else {
		h.room = fishbowl.NewRoom(gameID, cfg.rules(), rc)
	}

	return h
}

// broadcast runs on the room goroutine after every applied result.
func (h *Hub) broadcast(s *fishbowl.Session, res fishbowl.Result) {
	events := EventsMessage{Type: "events", Events: res.Events}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		h.sendLocked(c, events)
		h.sendLocked(c, stateFor(s, c.playerID))
	}
}

func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) reply(c *Client, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sendLocked(c, msg)
}

func (h *Hub) connectedLocked(playerID string) bool {
	for c := range h.clients {
		if c.playerID == playerID {
			return true
		}
	}
	return false
}

func (h *Hub) register(ctx context.Context, c *Client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()

		return fishbowl.ErrRoomClosed
	}
	h.clients[c] = true
	if t, ok := h.removals[c.playerID]; ok {
		t.Stop()
		delete(h.removals, c.playerID)
	}
	h.mu.Unlock()

	return h.room.Read(ctx, func(s *fishbowl.Session) {
		h.mu.Lock()
		defer h.mu.Unlock()

		h.sendLocked(c, SessionInfoMessage{
			Type:       "session_info",
			GameID:     h.id,
			PlayerID:   c.playerID,
			IsExisting: s.HasPlayer(c.playerID),
			IsMaster:   s.MasterID() == c.playerID,
			Removed:    s.Removed(c.playerID),
		})
		h.sendLocked(c, stateFor(s, c.playerID))
	})
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}

	if h.closed || h.connectedLocked(c.playerID) {
		return
	}
	h.scheduleRemovalLocked(c.playerID)
}

func (h *Hub) scheduleRemovalLocked(playerID string) {
	if h.cfg.playerTimeout <= 0 {
		return
	}

	if t, ok := h.removals[playerID]; ok {
		t.Stop()
	}
	h.removals[playerID] = time.AfterFunc(h.cfg.playerTimeout, func() {
		h.expire(playerID)
	})
}

// expire removes a player who has stayed disconnected. A player holding the
// active turn cannot be removed, so the removal is retried later.
func (h *Hub) expire(playerID string) {
	h.mu.Lock()
	delete(h.removals, playerID)
	if h.closed || h.connectedLocked(playerID) {
		h.mu.Unlock()

		return
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	res, err := h.room.Do(ctx, func(s *fishbowl.Session) fishbowl.Result {
		return s.RemovePlayer(playerID, false)
	})
	if err != nil {
		return
	}

	switch {
	case res.Applied():
		logf(h.cfg, "GAMES: Removed disconnected player %s from game %s", playerID, h.id)
	case errors.Is(res.Reason, fishbowl.ErrActivePlayer):
		h.mu.Lock()
		if !h.closed && !h.connectedLocked(playerID) {
			h.scheduleRemovalLocked(playerID)
		}
		h.mu.Unlock()
	}
}

// expireAbsent schedules removal of every player in a restored game, since
// none of them are connected yet.
func (h *Hub) expireAbsent(ctx context.Context) {
	var ids []string
	_ = h.room.Read(ctx, func(s *fishbowl.Session) {
		for _, p := range s.View().Players {
			ids = append(ids, p.ID)
		}
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range ids {
		if !h.connectedLocked(id) {
			h.scheduleRemovalLocked(id)
		}
	}
}

func (h *Hub) handle(c *Client, msg ClientMessage) {
	cmd, err := command(c.playerID, msg)
	if err != nil {
		h.reply(c, RejectedMessage{Type: "rejected", Command: msg.Type, Message: err.Error()})

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	res, err := h.room.Do(ctx, func(s *fishbowl.Session) fishbowl.Result {
		if err := authorize(s, c.playerID, msg); err != nil {
			return fishbowl.Result{Outcome: fishbowl.Rejected, Reason: err}
		}
		return cmd(s)
	})
	if err != nil {
		return
	}

	switch res.Outcome {
	case fishbowl.Applied:
		logf(h.cfg, "GAMES: Game %s applied %s from %s", h.id, msg.Type, c.playerID)
	case fishbowl.Rejected:
		h.reply(c, RejectedMessage{Type: "rejected", Command: msg.Type, Message: res.Reason.Error()})
	}
}

func (h *Hub) connectedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// close disconnects every client and stops the room.
func (h *Hub) close() {
	h.mu.Lock()
	h.closed = true
	for id, t := range h.removals {
		t.Stop()
		delete(h.removals, id)
	}
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	h.room.Close()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "fishbowl_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	cfg   *Config
	store store.Store
	saver *store.Saver

	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration

	done chan struct{}
	once sync.Once
}

func newGameManager(cfg *Config, st store.Store) *GameManager {
	gm := &GameManager{
		cfg:   cfg,
		store: st,
		saver: store.NewSaver(st, func(format string, v ...any) {
			logf(cfg, format, v...)
		}),
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
		done:        make(chan struct{}),
	}
	if gm.idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

// getHub returns the running hub for gameID, rehydrating a saved game or
// starting a new one if none is running.
func (gm *GameManager) getHub(ctx context.Context, gameID string) (*Hub, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub, nil
	}

	saved, err := gm.store.Load(ctx, gameID)
	switch {
	case err == nil:
		hub := newHub(gm.cfg, gameID, &saved, gm.saver)
		hub.expireAbsent(ctx)
		gm.hubs[gameID] = hub

		logf(gm.cfg, "GAMES: Restored game %s", gameID)

		return hub, nil
	case errors.Is(err, store.ErrNotFound):
		hub := newHub(gm.cfg, gameID, nil, gm.saver)
		gm.hubs[gameID] = hub

		return hub, nil
	default:
		return nil, err
	}
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with running or saved games.
func (gm *GameManager) newGameID(ctx context.Context) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, running := gm.hubs[id]
		gm.mu.Unlock()
		if running {
			continue
		}

		if _, err := gm.store.Load(ctx, id); errors.Is(err, store.ErrNotFound) {
			return id
		}
	}
}

// reaperLoop periodically ends games that have been idle longer than
// idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.done:
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

func (gm *GameManager) reap(cutoff time.Time) {
	gm.mu.Lock()
	idle := make(map[string]*Hub)
	for id, hub := range gm.hubs {
		if hub.room.LastActive().Before(cutoff) {
			delete(gm.hubs, id)
			idle[id] = hub
		}
	}
	gm.mu.Unlock()

	for id, hub := range idle {
		connected := hub.connectedCount()
		hub.close()

		gm.saver.Forget(id)
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		if err := gm.store.Delete(ctx, id); err != nil {
			logf(gm.cfg, "STORE: %v", err)
		}
		cancel()

		logf(gm.cfg, "GAMES: Ended idle game %s after %s (%d connected)",
			id,
			time.Since(hub.createdAt).Round(time.Second),
			connected,
		)
	}
}

// Close stops every game and flushes pending saves.
func (gm *GameManager) Close() {
	gm.once.Do(func() {
		close(gm.done)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			delete(gm.hubs, id)
			hub.close()
		}
		gm.mu.Unlock()

		gm.saver.Close()
	})
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		hub, err := gm.getHub(r.Context(), gameID)
		if err != nil {
			logf(cfg, "STORE: %v", err)
			http.Error(w, "game unavailable", http.StatusServiceUnavailable)
			return
		}

		header := http.Header{}
		if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
			header["Set-Cookie"] = cookies
		}

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			logf(cfg, "SERVE: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, sendBuffer),
			playerID: playerID,
		}

		go client.writePump()

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		err = hub.register(ctx, client)
		cancel()
		if err != nil {
			hub.unregister(client)
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: Player %s connected to game %s from %s", playerID, gameID, realIP(r))

		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		h.handle(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// qrHandler generates a PNG QR code for the current game URL.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(cfg, w)

		_, _ = w.Write(png)
	}
}

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/fishbowl/index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write(data)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID(r.Context())
		logf(cfg, "GAMES: Created game %s%s/%s", cfg.prefix, path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

func registerFishbowlGame(cfg *Config, path string, st store.Store, mux *httprouter.Router) *GameManager {
	gm := newGameManager(cfg, st)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg))

	return gm
}
