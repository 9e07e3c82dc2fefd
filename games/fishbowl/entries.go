/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// Shuffler permutes n elements by calling swap. *rand.Rand satisfies it with
// an unbiased Fisher-Yates shuffle.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// newShuffler returns a ChaCha8 generator seeded from crypto/rand.
func newShuffler() Shuffler {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewChaCha8(seed))
}

// entryPool holds the master entry list copied out of players at start, and
// the stack of entries still to be guessed this round. The top of the stack
// is the last element.
type entryPool struct {
	master    []string
	remaining []string
}

// materialize copies every player's entries into the master list. Later
// player departures cannot take their entries out of play.
func (p *entryPool) materialize(ps []*Player) {
	p.master = p.master[:0]
	for _, pl := range ps {
		p.master = append(p.master, pl.Entries...)
	}
}

// reshuffle replaces the remaining stack with a random permutation of src.
func (p *entryPool) reshuffle(src []string, sh Shuffler) {
	next := make([]string, len(src))
	copy(next, src)
	sh.Shuffle(len(next), func(i, j int) {
		next[i], next[j] = next[j], next[i]
	})
	p.remaining = next
}

func (p *entryPool) active() (string, bool) {
	if len(p.remaining) == 0 {
		return "", false
	}
	return p.remaining[len(p.remaining)-1], true
}

// consume pops the active entry.
func (p *entryPool) consume() (string, bool) {
	e, ok := p.active()
	if !ok {
		return "", false
	}
	p.remaining = p.remaining[:len(p.remaining)-1]
	return e, true
}
