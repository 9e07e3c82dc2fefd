/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import (
	"sync"
	"time"
)

// Clock schedules the turn countdown. Every calls fn once per interval until
// stop is called; stop is safe to call more than once.
type Clock interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// SystemClock ticks in real time on its own goroutine.
type SystemClock struct{}

func (SystemClock) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// Logger receives defensive diagnostics. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type discard struct{}

func (discard) Printf(string, ...any) {}
