/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import (
	"slices"
	"testing"
)

func rosterLookup(roster map[string][]string) func(string) []string {
	return func(teamID string) []string { return roster[teamID] }
}

func TestRebuildShufflesTeamsThenPlayersThenEntries(t *testing.T) {
	roster := map[string][]string{
		"A": {"p1", "p2"},
		"B": {"p3"},
		"C": {},
	}

	rec := &recordingShuffler{}
	var q turnOrder
	q.rebuild([]string{"A", "B", "C"}, rosterLookup(roster), rec)

	// Team list, A's players, B's players, then the built entries. The empty
	// team is not asked to shuffle and gets no entry.
	if want := []int{3, 2, 1, 2}; !slices.Equal(rec.sizes, want) {
		t.Fatalf("expected shuffle sizes %v, got %v", want, rec.sizes)
	}
	if len(q.entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", q.entries)
	}
}

func TestRebuildAppliesEveryShuffle(t *testing.T) {
	roster := map[string][]string{
		"A": {"p1", "p2"},
		"B": {"p3", "p4", "p5"},
	}

	var q turnOrder
	q.rebuild([]string{"A", "B"}, rosterLookup(roster), reverseOrder{})

	// Teams reversed to [B A], players reversed, entries reversed back to [A B].
	want := []TurnOrderEntry{
		{TeamID: "A", PlayerIDs: []string{"p2", "p1"}},
		{TeamID: "B", PlayerIDs: []string{"p5", "p4", "p3"}},
	}
	for i := range want {
		if q.entries[i].TeamID != want[i].TeamID || !slices.Equal(q.entries[i].PlayerIDs, want[i].PlayerIDs) {
			t.Fatalf("expected %+v, got %+v", want, q.entries)
		}
	}

	if !slices.Equal(roster["B"], []string{"p3", "p4", "p5"}) {
		t.Fatalf("expected rebuild to leave the caller's slices alone, got %v", roster["B"])
	}
}

func TestAdvanceRotatesAcrossAndWithinTeams(t *testing.T) {
	q := turnOrder{entries: []TurnOrderEntry{
		{TeamID: "A", PlayerIDs: []string{"p1", "p2"}},
		{TeamID: "B", PlayerIDs: []string{"p3"}},
	}}

	var played []string
	for range 4 {
		played = append(played, q.activeTeam()+":"+q.activePlayer())
		q.advance()
	}

	want := []string{"A:p1", "B:p3", "A:p2", "B:p3"}
	if !slices.Equal(played, want) {
		t.Fatalf("expected %v, got %v", want, played)
	}

	// Once every player on A has played, A's order is back where it began.
	if !slices.Equal(q.entries[0].PlayerIDs, []string{"p1", "p2"}) {
		t.Fatalf("expected A's order preserved, got %v", q.entries[0].PlayerIDs)
	}
}

func TestProjectionsOnEmptyQueue(t *testing.T) {
	var q turnOrder
	q.advance()

	for name, got := range map[string]string{
		"active team":   q.activeTeam(),
		"active player": q.activePlayer(),
		"next team":     q.nextTeam(),
		"next player":   q.nextPlayer(),
	} {
		if got != "" {
			t.Errorf("%s: expected empty, got %q", name, got)
		}
	}
}

func TestRemovePlayerPrunesEmptyEntries(t *testing.T) {
	q := turnOrder{entries: []TurnOrderEntry{
		{TeamID: "A", PlayerIDs: []string{"p1", "p2"}},
		{TeamID: "B", PlayerIDs: []string{"p3"}},
	}}

	q.removePlayer("p3")
	if len(q.entries) != 1 || q.nextTeam() != "" {
		t.Fatalf("expected B dropped, got %+v", q.entries)
	}

	q.removePlayer("p1")
	if q.activePlayer() != "p2" {
		t.Fatalf("expected p2 active, got %q", q.activePlayer())
	}

	q.addPlayer("B", "p3")
	q.addPlayer("A", "p4")
	if q.nextTeam() != "B" || !slices.Equal(q.entries[0].PlayerIDs, []string{"p2", "p4"}) {
		t.Fatalf("unexpected queue %+v", q.entries)
	}
}
