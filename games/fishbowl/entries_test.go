/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestMaterializeCopiesEntries(t *testing.T) {
	p1 := &Player{ID: "p1", Entries: []string{"Ada Lovelace", "Alan Turing"}}
	p2 := &Player{ID: "p2", Entries: []string{"Grace Hopper"}}

	var pool entryPool
	pool.materialize([]*Player{p1, p2})

	p1.Entries[0] = "changed"
	p2.Entries = nil

	want := []string{"Ada Lovelace", "Alan Turing", "Grace Hopper"}
	if !slices.Equal(pool.master, want) {
		t.Fatalf("expected %v, got %v", want, pool.master)
	}
}

func TestReshuffleIsAPermutation(t *testing.T) {
	src := []string{"a", "b", "c", "d", "e", "f"}
	var pool entryPool
	pool.reshuffle(src, rand.New(rand.NewPCG(1, 2)))

	got := slices.Clone(pool.remaining)
	slices.Sort(got)
	if !slices.Equal(got, src) {
		t.Fatalf("expected a permutation of %v, got %v", src, pool.remaining)
	}
	if !slices.Equal(src, []string{"a", "b", "c", "d", "e", "f"}) {
		t.Fatalf("expected source untouched, got %v", src)
	}
}

func TestReshuffleIsRoughlyUniform(t *testing.T) {
	sh := rand.New(rand.NewPCG(3, 4))
	counts := map[string]int{}

	const trials = 6000
	for range trials {
		var pool entryPool
		pool.reshuffle([]string{"a", "b", "c"}, sh)
		top, _ := pool.active()
		counts[top]++
	}

	for _, k := range []string{"a", "b", "c"} {
		if counts[k] < trials/3-300 || counts[k] > trials/3+300 {
			t.Fatalf("expected each entry on top about a third of the time, got %v", counts)
		}
	}
}

func TestConsumePopsTop(t *testing.T) {
	pool := entryPool{remaining: []string{"bottom", "middle", "top"}}

	for _, want := range []string{"top", "middle", "bottom"} {
		got, ok := pool.consume()
		if !ok || got != want {
			t.Fatalf("expected %q, got %q (%t)", want, got, ok)
		}
	}

	if _, ok := pool.consume(); ok {
		t.Fatal("expected empty stack")
	}
}
