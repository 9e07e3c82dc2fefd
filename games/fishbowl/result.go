/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import "errors"

// Outcome classifies what a command did to the session.
type Outcome int

const (
	// Applied means the command mutated state and emitted events.
	Applied Outcome = iota
	// Ignored means the command referenced an unknown or removed id.
	Ignored
	// Rejected means a guard or invariant refused the command.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Reasons attached to ignored and rejected results.
var (
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrRemovedPlayer   = errors.New("player was removed from this session")
	ErrPlayerExists    = errors.New("player already joined")
	ErrUnknownTeam     = errors.New("unknown team")
	ErrTeamExists      = errors.New("team already exists")
	ErrInvalidTeam     = errors.New("team id is required")
	ErrInvalidValue    = errors.New("value must not be negative")
	ErrActivePlayer    = errors.New("player holds the active turn")
	ErrActiveTeam      = errors.New("team holds the active turn")
	ErrGameNotPending  = errors.New("game has already started")
	ErrGameNotStarted  = errors.New("game has not started")
	ErrGameFinished    = errors.New("game is finished")
	ErrNoPlayers       = errors.New("no players have joined")
	ErrPlayersNotReady = errors.New("not every player is ready and on a team")
	ErrRoundNotIdle    = errors.New("a round is already in progress")
	ErrRoundNotActive  = errors.New("no round is active")
	ErrRoundNotOver    = errors.New("round has not finished")
	ErrNoTurnTime      = errors.New("turn time must be greater than zero")
	ErrNoScore         = errors.New("score per entry must be greater than zero")
	ErrTurnNotIdle     = errors.New("a turn is already in progress")
	ErrTurnNotActive   = errors.New("no turn is active")
	ErrTurnNotOver     = errors.New("turn has not finished")
	ErrNoEntries       = errors.New("no entries remain")
	ErrStaleTick       = errors.New("tick belongs to a finished turn")
)

// Result is returned by every session command. Commands never fail with a Go
// error; stale or out-of-order commands come back Ignored or Rejected with a
// Reason so callers can tell them apart from applied ones.
type Result struct {
	Outcome Outcome
	Reason  error
	Events  []Event
}

// Applied reports whether the command changed the session.
func (r Result) Applied() bool {
	return r.Outcome == Applied
}

// NeedsSave reports whether the result should be persisted. Countdown ticks
// alone are not worth a write.
func (r Result) NeedsSave() bool {
	if !r.Applied() {
		return false
	}
	for _, e := range r.Events {
		if e.Type != EventTicked {
			return true
		}
	}
	return false
}

func applied(events ...Event) Result {
	return Result{Outcome: Applied, Events: events}
}

func ignored(reason error) Result {
	return Result{Outcome: Ignored, Reason: reason}
}

func rejected(reason error) Result {
	return Result{Outcome: Rejected, Reason: reason}
}

// then appends the events of a follow-on transition. A rejected follow-on
// leaves the receiver untouched.
func (r Result) then(next Result) Result {
	if next.Applied() {
		r.Events = append(r.Events, next.Events...)
	}
	return r
}
