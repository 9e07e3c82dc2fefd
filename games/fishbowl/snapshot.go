/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import (
	"slices"
	"sort"
)

// State is a serializable copy of a session, written by persistence
// collaborators and read back by Restore.
type State struct {
	ID          string           `json:"id"`
	Config      Config           `json:"config"`
	Players     []Player         `json:"players"`
	Teams       []Team           `json:"teams"`
	Removed     []string         `json:"removed,omitempty"`
	MasterID    string           `json:"masterId,omitempty"`
	Entries     []string         `json:"entries,omitempty"`
	Remaining   []string         `json:"remaining,omitempty"`
	TurnOrder   []TurnOrderEntry `json:"turnOrder,omitempty"`
	Game        GameState        `json:"game"`
	Round       Phase            `json:"round"`
	Turn        Phase            `json:"turn"`
	SecondsLeft int              `json:"secondsLeft"`
	RoundNumber int              `json:"roundNumber"`

	PlayedTeamID   string `json:"playedTeamId,omitempty"`
	PlayedPlayerID string `json:"playedPlayerId,omitempty"`
}

// Snapshot copies the session state. The result shares no memory with the
// session.
func (s *Session) Snapshot() State {
	st := State{
		ID:          s.id,
		Config:      s.cfg,
		MasterID:    s.masterID,
		Entries:     slices.Clone(s.pool.master),
		Remaining:   slices.Clone(s.pool.remaining),
		TurnOrder:   s.order.clone(),
		Game:        s.game,
		Round:       s.round,
		Turn:        s.turn,
		SecondsLeft: s.secondsLeft,
		RoundNumber: s.roundNumber,

		PlayedTeamID:   s.playedTeam,
		PlayedPlayerID: s.playedPlayer,
	}

	for _, p := range s.players.all() {
		cp := *p
		cp.Entries = slices.Clone(p.Entries)
		st.Players = append(st.Players, cp)
	}
	for _, t := range s.teams.all() {
		st.Teams = append(st.Teams, *t)
	}
	for id := range s.removed {
		st.Removed = append(st.Removed, id)
	}
	sort.Strings(st.Removed)

	return st
}

// Restore rebuilds a session from a snapshot. A turn that was running when
// the snapshot was taken resumes its countdown from SecondsLeft.
func Restore(st State, opts ...Option) *Session {
	s := New(st.ID, st.Config, opts...)

	for _, p := range st.Players {
		cp := p
		cp.Entries = slices.Clone(p.Entries)
		s.players.add(&cp)
	}
	for _, t := range st.Teams {
		cp := t
		s.teams.add(&cp)
	}
	for _, id := range st.Removed {
		s.removed[id] = true
	}

	s.masterID = st.MasterID
	s.pool.master = slices.Clone(st.Entries)
	s.pool.remaining = slices.Clone(st.Remaining)
	s.order.entries = (&turnOrder{entries: st.TurnOrder}).clone()
	s.game = st.Game
	s.round = st.Round
	s.turn = st.Turn
	s.secondsLeft = st.SecondsLeft
	s.roundNumber = st.RoundNumber
	s.playedTeam = st.PlayedTeamID
	s.playedPlayer = st.PlayedPlayerID

	if s.turn == PhaseActive {
		s.startCountdown()
	}
	return s
}
