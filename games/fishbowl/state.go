/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import "fmt"

// GameState is the outer lifecycle: pending, started, finished.
type GameState int

const (
	GamePending GameState = iota
	GameStarted
	GameFinished
)

var gameStateNames = []string{"pending", "started", "finished"}

func (g GameState) String() string {
	if g < 0 || int(g) >= len(gameStateNames) {
		return fmt.Sprintf("GameState(%d)", int(g))
	}
	return gameStateNames[g]
}

func (g GameState) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *GameState) UnmarshalText(text []byte) error {
	for i, name := range gameStateNames {
		if name == string(text) {
			*g = GameState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown game state %q", text)
}

// Phase is the lifecycle of a round or a turn: idle, active, finished.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseFinished
)

var phaseNames = []string{"idle", "active", "finished"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
