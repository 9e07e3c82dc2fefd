/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import (
	"time"
)

// Config holds the tunable rules of a session.
type Config struct {
	EntriesPerPlayer int `json:"entriesPerPlayer"`
	TurnTime         int `json:"turnTime"` // seconds
	ScorePerEntry    int `json:"scorePerEntry"`
}

// Option customizes a Session.
type Option func(*Session)

// WithShuffler replaces the random source used for entries and turn order.
func WithShuffler(sh Shuffler) Option {
	return func(s *Session) { s.shuffler = sh }
}

// WithClock sets the clock driving the turn countdown. Without one, the
// countdown only moves when Tick is called.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogger sets the destination for defensive diagnostics.
func WithLogger(l Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithObserver receives results the session produces on its own, such as
// countdown ticks and the turn finishing when time runs out.
func WithObserver(fn func(Result)) Option {
	return func(s *Session) { s.observe = fn }
}

// Session is the state machine for a single game. It is not safe for
// concurrent use: commands must be applied one at a time, and the Clock must
// deliver ticks on the same goroutine that applies commands (see Room).
type Session struct {
	id       string
	players  *players
	teams    *teams
	removed  map[string]bool
	masterID string
	pool     entryPool
	order    turnOrder
	cfg      Config

	game  GameState
	round Phase
	turn  Phase

	secondsLeft int
	roundNumber int
	turnSerial  uint64
	stopTick    func()

	// who played the last finished turn, until nextTurn moves past them
	playedTeam   string
	playedPlayer string

	shuffler Shuffler
	clock    Clock
	logger   Logger
	observe  func(Result)
}

// New returns a pending session.
func New(id string, cfg Config, opts ...Option) *Session {
	s := &Session{
		id:          id,
		players:     newPlayers(),
		teams:       newTeams(),
		removed:     make(map[string]bool),
		cfg:         cfg,
		secondsLeft: cfg.TurnTime,
	}
	s.apply(opts)
	return s
}

func (s *Session) apply(opts []Option) {
	for _, opt := range opts {
		opt(s)
	}
	if s.shuffler == nil {
		s.shuffler = newShuffler()
	}
	if s.logger == nil {
		s.logger = discard{}
	}
	if s.observe == nil {
		s.observe = func(Result) {}
	}
}

// Close cancels any pending countdown.
func (s *Session) Close() {
	s.stopCountdown()
}

func (s *Session) lookup(playerID string) (*Player, Result, bool) {
	if s.removed[playerID] {
		return nil, ignored(ErrRemovedPlayer), false
	}
	p, ok := s.players.get(playerID)
	if !ok {
		return nil, ignored(ErrUnknownPlayer), false
	}
	return p, Result{}, true
}

// holdsTurn reports whether playerID is playing the turn in progress.
func (s *Session) holdsTurn(playerID string) bool {
	return s.turn == PhaseActive && s.order.activePlayer() == playerID
}

// Join adds a player. The player becomes master if owner is set or if the
// session currently has no master.
func (s *Session) Join(playerID string, owner bool) Result {
	if playerID == "" {
		return ignored(ErrUnknownPlayer)
	}
	if s.removed[playerID] {
		return ignored(ErrRemovedPlayer)
	}
	if _, ok := s.players.get(playerID); ok {
		return rejected(ErrPlayerExists)
	}
	if s.game == GameFinished {
		return rejected(ErrGameFinished)
	}

	p := &Player{ID: playerID}
	p.evaluateReady(s.cfg.EntriesPerPlayer)
	s.players.add(p)

	res := applied(Event{Type: EventPlayerAdded, PlayerID: playerID})
	if owner || s.masterID == "" {
		s.masterID = playerID
		res.Events = append(res.Events, Event{Type: EventMasterChanged, PlayerID: playerID})
	}
	return res
}

func (s *Session) SetName(playerID, name string) Result {
	p, res, ok := s.lookup(playerID)
	if !ok {
		return res
	}

	p.Name = name
	res = applied(Event{Type: EventPlayerNameSet, PlayerID: playerID, Name: name})
	if p.evaluateReady(s.cfg.EntriesPerPlayer) {
		res.Events = append(res.Events, s.readyEvent(p))
	}
	return res
}

func (s *Session) SetFont(playerID, font string) Result {
	p, res, ok := s.lookup(playerID)
	if !ok {
		return res
	}

	p.Font = font
	return applied(Event{Type: EventPlayerFontSet, PlayerID: playerID, Name: font})
}

// RemovePlayer takes a player out of the session and out of every team
// rotation. A voluntary removal emits playerLeft, a forced one playerRemoved.
// The player holding the active turn cannot be removed until it ends.
func (s *Session) RemovePlayer(playerID string, voluntary bool) Result {
	_, res, ok := s.lookup(playerID)
	if !ok {
		return res
	}
	if s.holdsTurn(playerID) {
		return rejected(ErrActivePlayer)
	}

	s.players.remove(playerID)
	s.removed[playerID] = true
	s.order.removePlayer(playerID)

	typ := EventPlayerRemoved
	if voluntary {
		typ = EventPlayerLeft
	}
	res = applied(Event{Type: typ, PlayerID: playerID})

	if s.masterID == playerID {
		s.masterID = ""
		if next, ok := s.players.first(); ok {
			s.masterID = next.ID
		}
		res.Events = append(res.Events, Event{Type: EventMasterChanged, PlayerID: s.masterID})
	}

	if s.round == PhaseActive && len(s.order.entries) == 0 {
		s.logger.Printf("fishbowl: session %s: turn order emptied mid-round by removing %s", s.id, playerID)
	}

	return res
}

func (s *Session) SetEntriesPerPlayer(n int) Result {
	if n < 0 {
		return rejected(ErrInvalidValue)
	}
	if s.game != GamePending {
		return rejected(ErrGameNotPending)
	}

	s.cfg.EntriesPerPlayer = n
	res := applied(Event{Type: EventEntriesPerPlayerUpdated, Value: n})
	for _, p := range s.players.all() {
		if p.evaluateReady(n) {
			res.Events = append(res.Events, s.readyEvent(p))
		}
	}
	return res
}

// SubmitEntry appends entry to the player's private list. Entries are only
// accepted before the game starts, since they are pooled at start.
func (s *Session) SubmitEntry(playerID, entry string) Result {
	p, res, ok := s.lookup(playerID)
	if !ok {
		return res
	}
	if s.game != GamePending {
		return rejected(ErrGameNotPending)
	}

	p.Entries = append(p.Entries, entry)
	p.evaluateReady(s.cfg.EntriesPerPlayer)
	return applied(s.readyEvent(p))
}

func (s *Session) readyEvent(p *Player) Event {
	return Event{Type: EventPlayerReady, PlayerID: p.ID, Ready: p.Ready, Value: len(p.Entries)}
}

// AddTeam registers a new team with a zero score.
func (s *Session) AddTeam(team Team) Result {
	if team.ID == "" {
		return rejected(ErrInvalidTeam)
	}
	if s.game == GameFinished {
		return rejected(ErrGameFinished)
	}
	if _, ok := s.teams.get(team.ID); ok {
		return rejected(ErrTeamExists)
	}

	s.teams.add(&Team{ID: team.ID, Name: team.Name})
	return applied(Event{Type: EventTeamAdded, TeamID: team.ID, Name: team.Name})
}

// AssignPlayerToTeam moves a player onto a team. During a round the player is
// also moved to the back of the new team's rotation.
func (s *Session) AssignPlayerToTeam(playerID, teamID string) Result {
	p, res, ok := s.lookup(playerID)
	if !ok {
		return res
	}
	if _, ok := s.teams.get(teamID); !ok {
		return ignored(ErrUnknownTeam)
	}
	if s.game == GameFinished {
		return rejected(ErrGameFinished)
	}
	if p.TeamID != teamID && s.holdsTurn(playerID) {
		return rejected(ErrActivePlayer)
	}

	if p.TeamID != teamID {
		p.TeamID = teamID
		if s.round == PhaseActive {
			s.order.removePlayer(playerID)
			s.order.addPlayer(teamID, playerID)
		}
	}
	return applied(Event{Type: EventPlayerAddedToTeam, PlayerID: playerID, TeamID: teamID})
}

// RemoveTeam deletes a team and unassigns its players. The team playing the
// active turn cannot be removed until it ends.
func (s *Session) RemoveTeam(teamID string) Result {
	if _, ok := s.teams.get(teamID); !ok {
		return ignored(ErrUnknownTeam)
	}
	if s.game == GameFinished {
		return rejected(ErrGameFinished)
	}
	if s.turn == PhaseActive && s.order.activeTeam() == teamID {
		return rejected(ErrActiveTeam)
	}

	s.teams.remove(teamID)
	for _, p := range s.players.all() {
		if p.TeamID == teamID {
			p.TeamID = ""
		}
	}
	s.order.removeTeam(teamID)
	return applied(Event{Type: EventTeamRemoved, TeamID: teamID})
}

func (s *Session) SetTurnTime(seconds int) Result {
	if seconds < 0 {
		return rejected(ErrInvalidValue)
	}
	if s.game == GameFinished {
		return rejected(ErrGameFinished)
	}

	s.cfg.TurnTime = seconds
	if s.turn != PhaseActive {
		s.secondsLeft = seconds
	}
	return applied(Event{Type: EventTurnTimeUpdated, Value: seconds})
}

func (s *Session) SetScorePerEntry(n int) Result {
	if n < 0 {
		return rejected(ErrInvalidValue)
	}
	if s.game == GameFinished {
		return rejected(ErrGameFinished)
	}

	s.cfg.ScorePerEntry = n
	return applied(Event{Type: EventScorePerEntryUpdated, Value: n})
}

// Start pools every player's entries and starts the game, then immediately
// tries to start the first round.
func (s *Session) Start() Result {
	if s.game != GamePending {
		return rejected(ErrGameNotPending)
	}
	if s.players.len() == 0 {
		return rejected(ErrNoPlayers)
	}
	if !s.players.ready() {
		return rejected(ErrPlayersNotReady)
	}

	s.pool.materialize(s.players.all())
	s.game = GameStarted
	return applied(Event{Type: EventStarted}).then(s.StartRound())
}

func (s *Session) StartRound() Result {
	switch {
	case s.game != GameStarted:
		return rejected(ErrGameNotStarted)
	case s.round != PhaseIdle:
		return rejected(ErrRoundNotIdle)
	case s.cfg.TurnTime <= 0:
		return rejected(ErrNoTurnTime)
	case s.cfg.ScorePerEntry <= 0:
		return rejected(ErrNoScore)
	}

	s.order.rebuild(s.teams.order, s.players.onTeam, s.shuffler)
	s.playedTeam, s.playedPlayer = "", ""
	s.pool.reshuffle(s.pool.master, s.shuffler)
	s.secondsLeft = s.cfg.TurnTime
	s.round = PhaseActive
	s.turn = PhaseIdle
	s.roundNumber++
	return applied(Event{Type: EventRoundStarted, Value: s.roundNumber})
}

func (s *Session) StartTurn() Result {
	switch {
	case s.round != PhaseActive:
		return rejected(ErrRoundNotActive)
	case s.turn != PhaseIdle:
		return rejected(ErrTurnNotIdle)
	case len(s.pool.remaining) == 0:
		return rejected(ErrNoEntries)
	}

	s.turn = PhaseActive
	s.secondsLeft = s.cfg.TurnTime
	s.startCountdown()
	return applied(Event{
		Type:     EventTurnStarted,
		PlayerID: s.order.activePlayer(),
		TeamID:   s.order.activeTeam(),
		Value:    s.secondsLeft,
	})
}

func (s *Session) startCountdown() {
	if s.stopTick != nil {
		s.logger.Printf("fishbowl: session %s: countdown already scheduled; replacing it", s.id)
		s.stopCountdown()
	}

	s.turnSerial++
	serial := s.turnSerial
	if s.clock != nil {
		s.stopTick = s.clock.Every(time.Second, func() {
			if res := s.Tick(serial); res.Applied() {
				s.observe(res)
			}
		})
	}
}

func (s *Session) stopCountdown() {
	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
}

// Tick advances the countdown of the turn identified by serial. Ticks for a
// turn that already ended are rejected. The turn finishes when the countdown
// reaches zero.
func (s *Session) Tick(serial uint64) Result {
	if s.turn != PhaseActive || serial != s.turnSerial {
		return rejected(ErrStaleTick)
	}

	if s.secondsLeft > 0 {
		s.secondsLeft--
	}
	res := applied(Event{Type: EventTicked, Value: s.secondsLeft})
	if s.secondsLeft == 0 {
		res = res.then(s.FinishTurn())
	}
	return res
}

// NextEntry credits the active team for the entry on top of the stack and
// pops it. Scoring happens before the pop so the last entry of a round still
// credits the team that guessed it. An empty stack finishes the round.
func (s *Session) NextEntry() Result {
	if s.turn != PhaseActive {
		return rejected(ErrTurnNotActive)
	}
	if len(s.pool.remaining) == 0 {
		return rejected(ErrNoEntries)
	}

	res := applied()
	if team, ok := s.teams.get(s.order.activeTeam()); ok {
		team.Score += s.cfg.ScorePerEntry
		res.Events = append(res.Events, Event{Type: EventTeamScored, TeamID: team.ID, Value: team.Score})
	} else {
		s.logger.Printf("fishbowl: session %s: entry consumed with no active team; score skipped", s.id)
	}

	s.pool.consume()
	if len(s.pool.remaining) > 0 {
		res.Events = append(res.Events, Event{Type: EventNextEntry, Value: len(s.pool.remaining)})
		return res
	}
	return res.then(s.FinishRound())
}

// FinishTurn stops the countdown and reshuffles what is left of the stack for
// the next player.
func (s *Session) FinishTurn() Result {
	if s.turn != PhaseActive {
		return rejected(ErrTurnNotActive)
	}

	s.stopCountdown()
	s.pool.reshuffle(s.pool.remaining, s.shuffler)
	s.turn = PhaseFinished
	s.playedTeam = s.order.activeTeam()
	s.playedPlayer = s.order.activePlayer()
	return applied(Event{
		Type:     EventTurnFinished,
		PlayerID: s.order.activePlayer(),
		TeamID:   s.order.activeTeam(),
	})
}

// NextTurn hands the turn to the next team in the rotation. Removals and
// reassignments made after the last turn finished may already have moved the
// team or player who played off the front of the queue.
func (s *Session) NextTurn() Result {
	if s.game == GameFinished {
		return rejected(ErrGameFinished)
	}
	if s.round != PhaseActive {
		return rejected(ErrRoundNotActive)
	}
	if s.turn != PhaseFinished {
		return rejected(ErrTurnNotOver)
	}

	switch {
	case s.playedTeam == "" || s.order.activeTeam() == s.playedTeam && s.order.activePlayer() == s.playedPlayer:
		s.order.advance()
	case s.order.activeTeam() == s.playedTeam:
		// the player left their team; the teammate now in front has not played
		s.order.requeue()
	}
	s.playedTeam, s.playedPlayer = "", ""
	s.turn = PhaseIdle
	s.secondsLeft = s.cfg.TurnTime
	return applied(Event{
		Type:     EventNextTurn,
		PlayerID: s.order.activePlayer(),
		TeamID:   s.order.activeTeam(),
	})
}

// FinishRound ends the round. A turn still in progress ends with it, without
// advancing the turn order.
func (s *Session) FinishRound() Result {
	if s.round != PhaseActive {
		return rejected(ErrRoundNotActive)
	}

	s.stopCountdown()
	if s.turn == PhaseActive {
		s.turn = PhaseFinished
	}
	s.round = PhaseFinished
	return applied(Event{Type: EventRoundFinished, Value: s.roundNumber})
}

func (s *Session) NextRound() Result {
	if s.game == GameFinished {
		return rejected(ErrGameFinished)
	}
	if s.round != PhaseFinished {
		return rejected(ErrRoundNotOver)
	}

	s.round = PhaseIdle
	s.turn = PhaseIdle
	s.secondsLeft = s.cfg.TurnTime
	return applied(Event{Type: EventNextRound, Value: s.roundNumber + 1})
}

// Finish ends the game for good.
func (s *Session) Finish() Result {
	if s.game == GameFinished {
		return rejected(ErrGameFinished)
	}

	s.stopCountdown()
	if s.turn == PhaseActive {
		s.turn = PhaseFinished
	}
	if s.round == PhaseActive {
		s.round = PhaseFinished
	}
	s.game = GameFinished
	return applied(Event{Type: EventFinished})
}
