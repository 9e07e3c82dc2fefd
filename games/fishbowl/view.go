/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import "slices"

// PlayerSummary is the public face of a player. Fonts and entries stay
// private to the player.
type PlayerSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	TeamID     string `json:"teamId,omitempty"`
	Ready      bool   `json:"ready"`
	EntryCount int    `json:"entryCount"`
	Master     bool   `json:"master,omitempty"`
}

// View is the full session state as the master sees it.
type View struct {
	ID               string           `json:"id"`
	Game             GameState        `json:"game"`
	Round            Phase            `json:"round"`
	Turn             Phase            `json:"turn"`
	RoundNumber      int              `json:"roundNumber"`
	SecondsLeft      int              `json:"secondsLeft"`
	Config           Config           `json:"config"`
	MasterID         string           `json:"masterId,omitempty"`
	Players          []PlayerSummary  `json:"players"`
	Teams            []Team           `json:"teams"`
	TurnOrder        []TurnOrderEntry `json:"turnOrder"`
	ActiveTeamID     string           `json:"activeTeamId,omitempty"`
	ActivePlayerID   string           `json:"activePlayerId,omitempty"`
	NextTeamID       string           `json:"nextTeamId,omitempty"`
	NextPlayerID     string           `json:"nextPlayerId,omitempty"`
	EntriesTotal     int              `json:"entriesTotal"`
	EntriesRemaining int              `json:"entriesRemaining"`
	CanStart         bool             `json:"canStart"`
}

// PlayerView adds what only one player may see: their font and entries and,
// while they hold the active turn, the entry being revealed.
type PlayerView struct {
	View
	PlayerID     string   `json:"playerId"`
	Font         string   `json:"font,omitempty"`
	Entries      []string `json:"entries"`
	CurrentEntry string   `json:"currentEntry,omitempty"`
}

func (s *Session) View() View {
	v := View{
		ID:               s.id,
		Game:             s.game,
		Round:            s.round,
		Turn:             s.turn,
		RoundNumber:      s.roundNumber,
		SecondsLeft:      s.secondsLeft,
		Config:           s.cfg,
		MasterID:         s.masterID,
		Players:          make([]PlayerSummary, 0, s.players.len()),
		TurnOrder:        s.order.clone(),
		ActiveTeamID:     s.order.activeTeam(),
		ActivePlayerID:   s.order.activePlayer(),
		NextTeamID:       s.order.nextTeam(),
		NextPlayerID:     s.order.nextPlayer(),
		EntriesTotal:     len(s.pool.master),
		EntriesRemaining: len(s.pool.remaining),
		CanStart:         s.game == GamePending && s.players.len() > 0 && s.players.ready(),
	}

	for _, p := range s.players.all() {
		v.Players = append(v.Players, PlayerSummary{
			ID:         p.ID,
			Name:       p.Name,
			TeamID:     p.TeamID,
			Ready:      p.Ready,
			EntryCount: len(p.Entries),
			Master:     p.ID == s.masterID,
		})
	}

	v.Teams = make([]Team, 0, len(s.teams.order))
	for _, t := range s.teams.all() {
		v.Teams = append(v.Teams, *t)
	}

	return v
}

// ViewFor returns the view for one player, or false if the player is not in
// the session.
func (s *Session) ViewFor(playerID string) (PlayerView, bool) {
	p, ok := s.players.get(playerID)
	if !ok {
		return PlayerView{}, false
	}

	v := PlayerView{
		View:     s.View(),
		PlayerID: p.ID,
		Font:     p.Font,
		Entries:  append([]string{}, p.Entries...),
	}
	if s.holdsTurn(playerID) {
		v.CurrentEntry, _ = s.pool.active()
	}
	return v, true
}

func (s *Session) ID() string { return s.id }
func (s *Session) Game() GameState { return s.game }
func (s *Session) Round() Phase { return s.round }
func (s *Session) Turn() Phase { return s.turn }
func (s *Session) MasterID() string { return s.masterID }
func (s *Session) SecondsLeft() int { return s.secondsLeft }
func (s *Session) TurnSerial() uint64 { return s.turnSerial }

func (s *Session) ActiveTeam() string { return s.order.activeTeam() }
func (s *Session) ActivePlayer() string { return s.order.activePlayer() }
func (s *Session) NextTeam() string { return s.order.nextTeam() }
func (s *Session) NextPlayer() string { return s.order.nextPlayer() }

// HoldsTurn reports whether playerID is playing the turn in progress.
func (s *Session) HoldsTurn(playerID string) bool {
	return s.holdsTurn(playerID)
}

// HasPlayer reports whether playerID is currently in the session.
func (s *Session) HasPlayer(playerID string) bool {
	_, ok := s.players.get(playerID)
	return ok
}

// Removed reports whether playerID has left or been removed.
func (s *Session) Removed(playerID string) bool {
	return s.removed[playerID]
}

// Player returns a copy of the player record.
func (s *Session) Player(id string) (Player, bool) {
	p, ok := s.players.get(id)
	if !ok {
		return Player{}, false
	}
	out := *p
	out.Entries = slices.Clone(p.Entries)
	return out, true
}

// Team returns a copy of the team record.
func (s *Session) Team(id string) (Team, bool) {
	t, ok := s.teams.get(id)
	if !ok {
		return Team{}, false
	}
	return *t, true
}

// TurnOrder returns a copy of the queue, active team first.
func (s *Session) TurnOrder() []TurnOrderEntry {
	return s.order.clone()
}

// Remaining returns a copy of the round's entry stack, top last.
func (s *Session) Remaining() []string {
	return slices.Clone(s.pool.remaining)
}

// ActiveEntry returns the entry on top of the stack.
func (s *Session) ActiveEntry() (string, bool) {
	return s.pool.active()
}
