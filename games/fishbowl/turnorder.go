/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import "slices"

// TurnOrderEntry is one team's place in the rotation, with its players in
// the order they will play. PlayerIDs[0] plays next for the team.
type TurnOrderEntry struct {
	TeamID    string   `json:"teamId"`
	PlayerIDs []string `json:"playerIds"`
}

// turnOrder rotates across teams and, within each team, across players.
// Position 0 is active, position 1 is next.
type turnOrder struct {
	entries []TurnOrderEntry
}

// rebuild replaces the queue for a new round. The team list is shuffled, each
// team's players are shuffled, and the resulting entries are shuffled once
// more. Teams without players are skipped.
func (q *turnOrder) rebuild(teamIDs []string, playersByTeam func(teamID string) []string, sh Shuffler) {
	ids := slices.Clone(teamIDs)
	sh.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	entries := make([]TurnOrderEntry, 0, len(ids))
	for _, teamID := range ids {
		members := slices.Clone(playersByTeam(teamID))
		if len(members) == 0 {
			continue
		}
		sh.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		entries = append(entries, TurnOrderEntry{TeamID: teamID, PlayerIDs: members})
	}

	sh.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })
	q.entries = entries
}

// advance moves the active team to the back of the queue after rotating its
// active player to the back of that team's list.
func (q *turnOrder) advance() {
	if len(q.entries) == 0 {
		return
	}
	front := &q.entries[0]
	if len(front.PlayerIDs) > 1 {
		front.PlayerIDs = append(slices.Clone(front.PlayerIDs[1:]), front.PlayerIDs[0])
	}
	q.requeue()
}

// requeue moves the active team to the back of the queue without rotating its
// players.
func (q *turnOrder) requeue() {
	if len(q.entries) == 0 {
		return
	}
	q.entries = append(q.entries[1:], q.entries[0])
}

func (q *turnOrder) at(i int) (TurnOrderEntry, bool) {
	if i >= len(q.entries) {
		return TurnOrderEntry{}, false
	}
	return q.entries[i], true
}

func (q *turnOrder) teamAt(i int) string {
	e, ok := q.at(i)
	if !ok {
		return ""
	}
	return e.TeamID
}

func (q *turnOrder) playerAt(i int) string {
	e, ok := q.at(i)
	if !ok || len(e.PlayerIDs) == 0 {
		return ""
	}
	return e.PlayerIDs[0]
}

func (q *turnOrder) activeTeam() string { return q.teamAt(0) }
func (q *turnOrder) activePlayer() string { return q.playerAt(0) }
func (q *turnOrder) nextTeam() string { return q.teamAt(1) }
func (q *turnOrder) nextPlayer() string { return q.playerAt(1) }

// removePlayer drops playerID from every team list. Entries left without
// players are dropped from the queue.
func (q *turnOrder) removePlayer(playerID string) {
	for i := range q.entries {
		q.entries[i].PlayerIDs = slices.DeleteFunc(q.entries[i].PlayerIDs, func(id string) bool {
			return id == playerID
		})
	}
	q.entries = slices.DeleteFunc(q.entries, func(e TurnOrderEntry) bool {
		return len(e.PlayerIDs) == 0
	})
}

// addPlayer appends playerID to the back of teamID's list, queueing the team
// at the back if it is not yet in the rotation.
func (q *turnOrder) addPlayer(teamID, playerID string) {
	for i := range q.entries {
		if q.entries[i].TeamID == teamID {
			q.entries[i].PlayerIDs = append(q.entries[i].PlayerIDs, playerID)
			return
		}
	}
	q.entries = append(q.entries, TurnOrderEntry{TeamID: teamID, PlayerIDs: []string{playerID}})
}

func (q *turnOrder) removeTeam(teamID string) {
	q.entries = slices.DeleteFunc(q.entries, func(e TurnOrderEntry) bool {
		return e.TeamID == teamID
	})
}

func (q *turnOrder) clone() []TurnOrderEntry {
	out := make([]TurnOrderEntry, len(q.entries))
	for i, e := range q.entries {
		out[i] = TurnOrderEntry{TeamID: e.TeamID, PlayerIDs: slices.Clone(e.PlayerIDs)}
	}
	return out
}
