/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import "slices"

// Team groups players for scoring. Membership is derived from Player.TeamID.
type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Score int    `json:"score"`
}

type teams struct {
	order []string
	byID  map[string]*Team
}

func newTeams() *teams {
	return &teams{byID: make(map[string]*Team)}
}

func (r *teams) get(id string) (*Team, bool) {
	t, ok := r.byID[id]
	return t, ok
}

func (r *teams) add(t *Team) {
	r.order = append(r.order, t.ID)
	r.byID[t.ID] = t
}

func (r *teams) remove(id string) {
	delete(r.byID, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
}

// all returns teams in the order they were added.
func (r *teams) all() []*Team {
	out := make([]*Team, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
