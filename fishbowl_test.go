/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/fishbowl/games/fishbowl"
	"github.com/Seednode/fishbowl/store"
	"github.com/gorilla/websocket"
)

func TestCommandRejectsUnknownTypes(t *testing.T) {
	if _, err := command("p1", ClientMessage{Type: "teleport"}); !errors.Is(err, errUnknownCommand) {
		t.Fatalf("expected errUnknownCommand, got %v", err)
	}
	if _, err := command("p1", ClientMessage{Type: "submitEntry", Entry: "   "}); !errors.Is(err, fishbowl.ErrInvalidValue) {
		t.Fatalf("expected a blank entry to be refused, got %v", err)
	}
}

func TestCommandAppliesToSender(t *testing.T) {
	s := fishbowl.New("game", fishbowl.Config{EntriesPerPlayer: 1, TurnTime: 30, ScorePerEntry: 1})
	defer s.Close()

	for _, msg := range []ClientMessage{
		{Type: "join"},
		{Type: "setName", Name: "  Ada  "},
		{Type: "submitEntry", Entry: "Grace Hopper"},
		{Type: "addTeam", Name: "Red"},
	} {
		cmd, err := command("p1", msg)
		if err != nil {
			t.Fatal(err)
		}
		if res := cmd(s); !res.Applied() {
			t.Fatalf("%s: expected applied, got %s (%v)", msg.Type, res.Outcome, res.Reason)
		}
	}

	p, ok := s.Player("p1")
	if !ok || p.Name != "Ada" || len(p.Entries) != 1 {
		t.Fatalf("unexpected player %+v", p)
	}

	teams := s.View().Teams
	if len(teams) != 1 || teams[0].Name != "Red" || teams[0].ID == "" {
		t.Fatalf("expected one generated team, got %+v", teams)
	}

	cmd, _ := command("p1", ClientMessage{Type: "assignPlayerToTeam", TeamID: teams[0].ID})
	if res := cmd(s); !res.Applied() {
		t.Fatalf("expected self assignment, got %v", res.Reason)
	}

	cmd, _ = command("p1", ClientMessage{Type: "start"})
	if res := cmd(s); !res.Applied() || s.Game() != fishbowl.GameStarted {
		t.Fatalf("expected start, got %s (%v)", res.Outcome, res.Reason)
	}
}

func TestLeaveIsVoluntaryAndRemovalIsForced(t *testing.T) {
	s := fishbowl.New("game", fishbowl.Config{EntriesPerPlayer: 1, TurnTime: 30, ScorePerEntry: 1})
	defer s.Close()

	for _, id := range []string{"master", "guest", "other"} {
		s.Join(id, false)
	}

	tests := []struct {
		sender string
		msg    ClientMessage
		want   fishbowl.EventType
	}{
		{"guest", ClientMessage{Type: "leave"}, fishbowl.EventPlayerLeft},
		{"master", ClientMessage{Type: "removePlayer", PlayerID: "other"}, fishbowl.EventPlayerRemoved},
		{"master", ClientMessage{Type: "removePlayer", PlayerID: "master"}, fishbowl.EventPlayerRemoved},
	}

	for _, tc := range tests {
		cmd, err := command(tc.sender, tc.msg)
		if err != nil {
			t.Fatal(err)
		}
		res := cmd(s)
		if !res.Applied() || len(res.Events) == 0 || res.Events[0].Type != tc.want {
			t.Fatalf("%s from %q: expected %s, got %s %+v", tc.msg.Type, tc.sender, tc.want, res.Outcome, res.Events)
		}
	}
}

func TestAuthorize(t *testing.T) {
	s := fishbowl.New("game", fishbowl.Config{EntriesPerPlayer: 1, TurnTime: 30, ScorePerEntry: 1})
	defer s.Close()

	s.Join("master", false)
	s.Join("guest", false)

	tests := []struct {
		sender string
		msg    ClientMessage
		allow  bool
	}{
		{"guest", ClientMessage{Type: "setName"}, true},
		{"guest", ClientMessage{Type: "submitEntry"}, true},
		{"guest", ClientMessage{Type: "leave"}, true},
		{"guest", ClientMessage{Type: "removePlayer", PlayerID: "guest"}, false},
		{"guest", ClientMessage{Type: "removePlayer", PlayerID: "master"}, false},
		{"guest", ClientMessage{Type: "assignPlayerToTeam", TeamID: "A"}, true},
		{"guest", ClientMessage{Type: "assignPlayerToTeam", PlayerID: "master", TeamID: "A"}, false},
		{"guest", ClientMessage{Type: "start"}, false},
		{"guest", ClientMessage{Type: "setTurnTime", Value: 5}, false},
		{"guest", ClientMessage{Type: "startTurn"}, false},
		{"", ClientMessage{Type: "finish"}, false},
		{"master", ClientMessage{Type: "start"}, true},
		{"master", ClientMessage{Type: "removePlayer", PlayerID: "guest"}, true},
		{"master", ClientMessage{Type: "nextEntry"}, true},
	}

	for _, tc := range tests {
		err := authorize(s, tc.sender, tc.msg)
		if (err == nil) != tc.allow {
			t.Errorf("%s from %q: expected allow=%t, got %v", tc.msg.Type, tc.sender, tc.allow, err)
		}
	}
}

func TestAuthorizeActivePlayerDrivesTurn(t *testing.T) {
	s := fishbowl.New("game", fishbowl.Config{EntriesPerPlayer: 1, TurnTime: 30, ScorePerEntry: 1})
	defer s.Close()

	s.AddTeam(fishbowl.Team{ID: "A", Name: "A"})
	for _, id := range []string{"master", "guest"} {
		s.Join(id, false)
		s.SetName(id, id)
		s.AssignPlayerToTeam(id, "A")
		s.SubmitEntry(id, id+"'s pick")
	}
	s.RemovePlayer("master", true)
	s.Join("late", false)

	if res := s.Start(); res.Applied() {
		t.Fatal("expected start to wait for the late player")
	}
	s.RemovePlayer("late", true)
	if res := s.Start(); !res.Applied() {
		t.Fatalf("expected start, got %v", res.Reason)
	}

	if s.ActivePlayer() != "guest" || s.MasterID() != "guest" {
		t.Fatalf("expected guest active and master, got %q / %q", s.ActivePlayer(), s.MasterID())
	}
	if err := authorize(s, "guest", ClientMessage{Type: "startTurn"}); err != nil {
		t.Fatalf("expected the active player to start their turn, got %v", err)
	}
}

type envelope struct {
	Type     string              `json:"type"`
	PlayerID string              `json:"playerId"`
	IsMaster bool                `json:"isMaster"`
	Command  string              `json:"command"`
	Message  string              `json:"message"`
	Removed  bool                `json:"removed"`
	View     fishbowl.PlayerView `json:"view"`
}

func dial(t *testing.T, srv *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/fishbowl/" + gameID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// await reads messages until match accepts one.
func await(t *testing.T, conn *websocket.Conn, match func(envelope) bool) envelope {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()

	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWebsocketGame(t *testing.T) {
	cfg := validConfig()
	cfg.entriesPerPlayer = 1
	cfg.playerTimeout = time.Minute

	saved := store.NewMemory()
	mux, stop := newRouter(&cfg, saved, make(chan error, 64))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Cleanup(stop)

	host := dial(t, srv, "party123")
	info := await(t, host, func(m envelope) bool { return m.Type == "session_info" })
	if info.PlayerID == "" || info.IsMaster {
		t.Fatalf("expected an unjoined player id, got %+v", info)
	}
	me := info.PlayerID

	send(t, host, ClientMessage{Type: "join"})
	send(t, host, ClientMessage{Type: "setName", Name: "Ada"})
	send(t, host, ClientMessage{Type: "addTeam", Name: "Red"})

	st := await(t, host, func(m envelope) bool { return m.Type == "state" && len(m.View.Teams) == 1 })
	if st.View.MasterID != me {
		t.Fatalf("expected the first joiner to be master, got %q", st.View.MasterID)
	}
	red := st.View.Teams[0].ID

	send(t, host, ClientMessage{Type: "assignPlayerToTeam", TeamID: red})
	send(t, host, ClientMessage{Type: "submitEntry", Entry: "Grace Hopper"})
	await(t, host, func(m envelope) bool { return m.Type == "state" && m.View.CanStart })

	guest := dial(t, srv, "party123")
	await(t, guest, func(m envelope) bool { return m.Type == "session_info" })
	send(t, guest, ClientMessage{Type: "start"})

	rej := await(t, guest, func(m envelope) bool { return m.Type == "rejected" })
	if rej.Command != "start" || rej.Message != errNotAllowed.Error() {
		t.Fatalf("expected start to be refused for the guest, got %+v", rej)
	}

	send(t, host, ClientMessage{Type: "start"})
	send(t, host, ClientMessage{Type: "startTurn"})

	active := await(t, host, func(m envelope) bool {
		return m.Type == "state" && m.View.Turn == fishbowl.PhaseActive
	})
	if active.View.CurrentEntry != "Grace Hopper" {
		t.Fatalf("expected the active player to see the entry, got %q", active.View.CurrentEntry)
	}

	spectator := await(t, guest, func(m envelope) bool {
		return m.Type == "state" && m.View.Turn == fishbowl.PhaseActive
	})
	if spectator.View.CurrentEntry != "" {
		t.Fatal("expected the entry hidden from other connections")
	}

	send(t, host, ClientMessage{Type: "nextEntry"})
	done := await(t, host, func(m envelope) bool {
		return m.Type == "state" && m.View.Round == fishbowl.PhaseFinished
	})
	if done.View.Teams[0].Score != 1 {
		t.Fatalf("expected Red to score, got %+v", done.View.Teams)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		st, err := saved.Load(t.Context(), "party123")
		if err == nil && st.Round == fishbowl.PhaseFinished {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected the finished round to be saved, got %+v (%v)", st, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRestoredGameKeepsScores(t *testing.T) {
	cfg := validConfig()

	saved := store.NewMemory()
	s := fishbowl.New("saved123", cfg.rules())
	s.AddTeam(fishbowl.Team{ID: "A", Name: "Blue"})
	s.Join("p1", false)
	st := s.Snapshot()
	st.Teams[0].Score = 7
	s.Close()

	if err := saved.Save(t.Context(), "saved123", st); err != nil {
		t.Fatal(err)
	}

	mux, stop := newRouter(&cfg, saved, make(chan error, 64))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Cleanup(stop)

	conn := dial(t, srv, "saved123")
	got := await(t, conn, func(m envelope) bool { return m.Type == "state" })
	if len(got.View.Teams) != 1 || got.View.Teams[0].Score != 7 {
		t.Fatalf("expected the saved team score, got %+v", got.View.Teams)
	}
}
