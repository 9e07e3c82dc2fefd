/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import "slices"

// Player is one participant in a session.
type Player struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Font    string   `json:"font,omitempty"`
	TeamID  string   `json:"teamId,omitempty"`
	Entries []string `json:"entries,omitempty"`
	Ready   bool     `json:"ready"`
}

// evaluateReady recomputes the cached readiness flag and reports whether it
// changed.
func (p *Player) evaluateReady(quota int) bool {
	ready := p.Name != "" && quota != 0 && len(p.Entries) == quota
	changed := ready != p.Ready
	p.Ready = ready
	return changed
}

// players keeps player records keyed by id, remembering join order so that
// iteration is stable.
type players struct {
	order []string
	byID  map[string]*Player
}

func newPlayers() *players {
	return &players{byID: make(map[string]*Player)}
}

func (r *players) get(id string) (*Player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

func (r *players) add(p *Player) {
	r.order = append(r.order, p.ID)
	r.byID[p.ID] = p
}

func (r *players) remove(id string) {
	delete(r.byID, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
}

func (r *players) len() int {
	return len(r.order)
}

// all returns players in join order.
func (r *players) all() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// first returns the earliest-joined remaining player.
func (r *players) first() (*Player, bool) {
	if len(r.order) == 0 {
		return nil, false
	}
	return r.byID[r.order[0]], true
}

// onTeam returns the ids of every player assigned to teamID, in join order.
func (r *players) onTeam(teamID string) []string {
	var ids []string
	for _, id := range r.order {
		if r.byID[id].TeamID == teamID {
			ids = append(ids, id)
		}
	}
	return ids
}

// ready reports whether every player is ready and assigned to a team.
func (r *players) ready() bool {
	for _, p := range r.byID {
		if !p.Ready || p.TeamID == "" {
			return false
		}
	}
	return true
}
