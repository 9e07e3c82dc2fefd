/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Seednode/fishbowl/games/fishbowl"
)

// Saver writes snapshots to a Store off the caller's goroutine. Enqueue
// never blocks. Only the latest snapshot of each session is kept until the
// writer gets to it, so a slow store coalesces bursts instead of dropping
// state.
type Saver struct {
	store Store
	logf  func(format string, v ...any)

	mu     sync.Mutex
	latest map[string]fishbowl.State
	closed bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSaver starts a background writer. logf receives save failures; it may
// be nil.
func NewSaver(s Store, logf func(format string, v ...any)) *Saver {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	sv := &Saver{
		store:  s,
		logf:   logf,
		latest: make(map[string]fishbowl.State),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	sv.wg.Add(1)
	go sv.run()

	return sv
}

// Enqueue schedules st to be saved under id, replacing any snapshot of id
// still waiting to be written.
func (sv *Saver) Enqueue(id string, st fishbowl.State) {
	sv.mu.Lock()
	if sv.closed {
		sv.mu.Unlock()
		return
	}
	sv.latest[id] = st
	sv.mu.Unlock()

	select {
	case sv.wake <- struct{}{}:
	default:
	}
}

// Forget discards a snapshot of id that has not been written yet.
func (sv *Saver) Forget(id string) {
	sv.mu.Lock()
	delete(sv.latest, id)
	sv.mu.Unlock()
}

func (sv *Saver) take() map[string]fishbowl.State {
	sv.mu.Lock()
	defer sv.mu.Unlock()

	batch := sv.latest
	sv.latest = make(map[string]fishbowl.State)
	return batch
}

func (sv *Saver) run() {
	defer sv.wg.Done()

	for {
		select {
		case <-sv.wake:
			sv.flush()
		case <-sv.done:
			sv.flush()
			return
		}
	}
}

func (sv *Saver) flush() {
	batch := sv.take()
	for _, id := range slices.Sorted(maps.Keys(batch)) {
		sv.write(id, batch[id])
	}
}

func (sv *Saver) write(id string, st fishbowl.State) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sv.store.Save(ctx, id, st); err != nil {
		sv.logf("STORE: %v", err)
	}
}

// Close writes any pending snapshots and stops the writer.
func (sv *Saver) Close() {
	sv.once.Do(func() {
		sv.mu.Lock()
		sv.closed = true
		sv.mu.Unlock()
		close(sv.done)
	})
	sv.wg.Wait()
}
