/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import (
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"
)

// keepOrder is a Shuffler that leaves every sequence untouched.
type keepOrder struct{}

func (keepOrder) Shuffle(int, func(i, j int)) {}

// reverseOrder reverses every sequence it is asked to shuffle.
type reverseOrder struct{}

func (reverseOrder) Shuffle(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

// recordingShuffler remembers the length of each shuffle request.
type recordingShuffler struct {
	sizes []int
}

func (r *recordingShuffler) Shuffle(n int, _ func(i, j int)) {
	r.sizes = append(r.sizes, n)
}

// fakeClock hands out countdowns that only tick when fire is called.
type fakeClock struct {
	mu      sync.Mutex
	fns     []func()
	stopped []bool
}

func (c *fakeClock) Every(_ time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := len(c.fns)
	c.fns = append(c.fns, fn)
	c.stopped = append(c.stopped, false)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.stopped[i] = true
	}
}

// fire ticks every countdown that has not been stopped.
func (c *fakeClock) fire() {
	c.mu.Lock()
	var live []func()
	for i, fn := range c.fns {
		if !c.stopped[i] {
			live = append(live, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range live {
		fn()
	}
}

func (c *fakeClock) running() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, stopped := range c.stopped {
		if !stopped {
			n++
		}
	}
	return n
}

type captureLogger struct {
	lines []string
}

func (l *captureLogger) Printf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func eventTypes(res Result) []EventType {
	types := make([]EventType, 0, len(res.Events))
	for _, e := range res.Events {
		types = append(types, e.Type)
	}
	return types
}

func mustApply(t *testing.T, res Result) Result {
	t.Helper()
	if !res.Applied() {
		t.Fatalf("expected applied result, got %s (%v)", res.Outcome, res.Reason)
	}
	return res
}

func expectEvents(t *testing.T, res Result, want ...EventType) {
	t.Helper()
	if got := eventTypes(res); !slices.Equal(got, want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
}

// lobby builds a pending session with the given teams and members. Every
// player is named after their id and submits perPlayer entries.
func lobby(t *testing.T, perPlayer int, roster map[string][]string, opts ...Option) *Session {
	t.Helper()

	s := New("game", Config{EntriesPerPlayer: perPlayer, TurnTime: 30, ScorePerEntry: 1}, opts...)

	teamIDs := make([]string, 0, len(roster))
	for teamID := range roster {
		teamIDs = append(teamIDs, teamID)
	}
	slices.Sort(teamIDs)

	for _, teamID := range teamIDs {
		mustApply(t, s.AddTeam(Team{ID: teamID, Name: "Team " + teamID}))
		for _, playerID := range roster[teamID] {
			mustApply(t, s.Join(playerID, false))
			mustApply(t, s.SetName(playerID, playerID))
			mustApply(t, s.AssignPlayerToTeam(playerID, teamID))
			for i := range perPlayer {
				mustApply(t, s.SubmitEntry(playerID, fmt.Sprintf("%s-entry-%d", playerID, i)))
			}
		}
	}

	return s
}
