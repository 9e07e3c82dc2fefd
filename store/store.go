/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store persists fishbowl session snapshots.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/Seednode/fishbowl/games/fishbowl"
)

// ErrNotFound is returned by Load for an unknown session id.
var ErrNotFound = errors.New("session not found")

// Store saves and loads session snapshots by id.
type Store interface {
	Save(ctx context.Context, id string, st fishbowl.State) error
	Load(ctx context.Context, id string) (fishbowl.State, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Memory keeps snapshots in process. It is the default when no database path
// is configured.
type Memory struct {
	mu    sync.RWMutex
	games map[string]fishbowl.State
}

func NewMemory() *Memory {
	return &Memory{games: make(map[string]fishbowl.State)}
}

func (m *Memory) Save(_ context.Context, id string, st fishbowl.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.games[id] = st

	return nil
}

func (m *Memory) Load(_ context.Context, id string) (fishbowl.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.games[id]
	if !ok {
		return fishbowl.State{}, ErrNotFound
	}

	return st, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.games, id)

	return nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids, nil
}

func (m *Memory) Close() error { return nil }
