/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package fishbowl

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrRoomClosed is returned by Room methods once Close has been called.
var ErrRoomClosed = errors.New("room is closed")

// RoomConfig wires a Room to its collaborators. All callbacks run on the
// room's goroutine, in the order results were produced.
type RoomConfig struct {
	// Clock drives the countdown; nil means SystemClock.
	Clock    Clock
	Shuffler Shuffler
	Logger   Logger

	// OnChange is called after every applied result, including ticks.
	OnChange func(s *Session, res Result)

	// Save receives a snapshot after every applied result that needs saving.
	// It must not block.
	Save func(State)
}

// Room owns a Session on a single goroutine. Commands and countdown ticks are
// queued on one inbox and applied one at a time in arrival order.
type Room struct {
	session *Session
	cfg     RoomConfig

	inbox      chan func()
	done       chan struct{}
	closeOnce  sync.Once
	lastActive atomic.Int64
}

// NewRoom starts a room around a fresh session.
func NewRoom(id string, rules Config, cfg RoomConfig) *Room {
	r := newRoom(cfg)
	r.session = New(id, rules, r.sessionOptions()...)
	go r.run()
	return r
}

// RestoreRoom starts a room around a rehydrated session.
func RestoreRoom(st State, cfg RoomConfig) *Room {
	r := newRoom(cfg)
	r.session = Restore(st, r.sessionOptions()...)
	go r.run()
	return r
}

func newRoom(cfg RoomConfig) *Room {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	r := &Room{
		cfg:   cfg,
		inbox: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	r.touch()
	return r
}

func (r *Room) sessionOptions() []Option {
	opts := []Option{
		WithClock(roomClock{room: r, inner: r.cfg.Clock}),
		WithObserver(r.settle),
	}
	if r.cfg.Shuffler != nil {
		opts = append(opts, WithShuffler(r.cfg.Shuffler))
	}
	if r.cfg.Logger != nil {
		opts = append(opts, WithLogger(r.cfg.Logger))
	}
	return opts
}

func (r *Room) run() {
	for {
		select {
		case fn := <-r.inbox:
			fn()
		case <-r.done:
			r.session.Close()
			return
		}
	}
}

// post queues fn for the room goroutine. It reports false if the room closed
// first.
func (r *Room) post(ctx context.Context, fn func()) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case r.inbox <- fn:
		return true
	case <-ctx.Done():
		return false
	case <-r.done:
		return false
	}
}

func (r *Room) settle(res Result) {
	if !res.Applied() {
		return
	}
	r.touch()
	if r.cfg.OnChange != nil {
		r.cfg.OnChange(r.session, res)
	}
	if r.cfg.Save != nil && res.NeedsSave() {
		r.cfg.Save(r.session.Snapshot())
	}
}

// Do applies cmd to the session and waits for its result.
func (r *Room) Do(ctx context.Context, cmd func(*Session) Result) (Result, error) {
	reply := make(chan Result, 1)
	ok := r.post(ctx, func() {
		res := cmd(r.session)
		r.settle(res)
		reply <- res
	})
	if !ok {
		return Result{}, r.closedErr(ctx)
	}

	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-r.done:
		return Result{}, ErrRoomClosed
	}
}

// Read runs fn against the session on the room goroutine and waits for it.
// fn must not retain the session.
func (r *Room) Read(ctx context.Context, fn func(*Session)) error {
	finished := make(chan struct{})
	ok := r.post(ctx, func() {
		fn(r.session)
		close(finished)
	})
	if !ok {
		return r.closedErr(ctx)
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) closedErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrRoomClosed
}

func (r *Room) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}

// LastActive is the time of the most recent applied result.
func (r *Room) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

// Close stops the room and cancels any running countdown.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Done is closed when the room stops.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// roomClock delivers ticks from inner onto the room goroutine.
type roomClock struct {
	room  *Room
	inner Clock
}

func (c roomClock) Every(interval time.Duration, fn func()) func() {
	return c.inner.Every(interval, func() {
		c.room.post(context.Background(), fn)
	})
}
