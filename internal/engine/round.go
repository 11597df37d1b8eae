package engine

import (
	"context"
	"sync"
	"time"

	"github.com/DoyleJ11/jankenpon-server/pkg/protocol"
	"go.uber.org/zap"
)

// Broadcaster delivers a frame to everyone in the room that owns the round.
type Broadcaster interface {
	Broadcast(m protocol.Message)
}

type Config struct {
	Seconds int
	Tick    time.Duration
}

func DefaultConfig() Config {
	return Config{Seconds: 10, Tick: time.Second}
}

// Round is one two-player game. The countdown runs in Run; selections arrive
// from the players' sessions. A round ends when the countdown reaches zero
// or as soon as both players have chosen.
//
// Broadcasts are issued while r.mu is held, so a Broadcaster must never call
// back into the round.
type Round struct {
	mu      sync.Mutex
	state   State
	seconds int
	sel1    Selection
	sel2    Selection
	winner  Winner

	roomID  int32
	player1 int32
	player2 int32
	cfg     Config
	out     Broadcaster
	log     *zap.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	both     chan struct{}
	done     chan struct{}
	doneOnce sync.Once
	runOnce  sync.Once
}

func NewRound(parent context.Context, roomID, player1, player2 int32, cfg Config, out Broadcaster, log *zap.Logger) *Round {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	ctx, cancel := context.WithCancel(parent)
	return &Round{
		state:   StateReady,
		seconds: cfg.Seconds,
		roomID:  roomID,
		player1: player1,
		player2: player2,
		cfg:     cfg,
		out:     out,
		log:     log.Named("round"),
		ctx:     ctx,
		cancel:  cancel,
		both:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Run moves the round to START and drives the countdown until the round is
// finished or canceled. Only the first call does anything.
func (r *Round) Run() {
	r.runOnce.Do(r.run)
}

func (r *Round) run() {
	defer r.cancel()

	r.mu.Lock()
	if r.state != StateReady {
		r.mu.Unlock()
		return
	}
	r.state = StateStart
	r.broadcastState()
	r.out.Broadcast(protocol.TimeUpdate{RoomID: r.roomID, Seconds: int32(r.seconds)})
	if r.seconds <= 0 {
		r.finishLocked()
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.log.Debug("round started", zap.Int("seconds", r.cfg.Seconds))

	ticker := time.NewTicker(r.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			r.Cancel()
			return
		case <-r.both:
			r.mu.Lock()
			r.finishLocked()
			r.mu.Unlock()
			return
		case <-ticker.C:
			if r.tick() {
				return
			}
		}
	}
}

// tick counts down one step and reports whether the round is over.
func (r *Round) tick() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateStart {
		return true
	}
	r.seconds--
	if r.seconds < 0 {
		r.seconds = 0
	}
	r.out.Broadcast(protocol.TimeUpdate{RoomID: r.roomID, Seconds: int32(r.seconds)})
	if r.seconds == 0 {
		r.finishLocked()
		return true
	}
	return false
}

func (r *Round) finishLocked() {
	if !r.state.Open() {
		return
	}
	r.state = StateFinished
	r.winner = Resolve(r.sel1, r.sel2)
	r.broadcastState()
	r.out.Broadcast(protocol.Winner{
		RoomID:   r.roomID,
		Winner:   int32(r.winner),
		PlayerID: r.winnerID(),
	})
	r.out.Broadcast(protocol.RoundEnd{RoomID: r.roomID})
	r.log.Info("round finished",
		zap.Stringer("winner", r.winner),
		zap.Stringer("player1", r.sel1),
		zap.Stringer("player2", r.sel2),
	)
	r.doneOnce.Do(func() { close(r.done) })
}

func (r *Round) winnerID() int32 {
	switch r.winner {
	case WinnerPlayer1:
		return r.player1
	case WinnerPlayer2:
		return r.player2
	default:
		return -1
	}
}

func (r *Round) broadcastState() {
	r.out.Broadcast(protocol.StateUpdate{RoomID: r.roomID, State: int32(r.state)})
}

// Cancel stops the countdown. A round that is still READY or START becomes
// CANCELED; a finished round is left as it is.
func (r *Round) Cancel() {
	r.mu.Lock()
	if r.state.Open() {
		r.state = StateCanceled
		r.broadcastState()
		r.out.Broadcast(protocol.RoundCanceled{RoomID: r.roomID})
		r.log.Info("round canceled")
		r.doneOnce.Do(func() { close(r.done) })
	}
	r.mu.Unlock()
	r.cancel()
}

// UpdateSelection records a player's choice and broadcasts it. A player may
// change their mind until the round closes.
func (r *Round) UpdateSelection(playerID int32, s Selection) error {
	if !s.Valid() || s == SelectionEmpty {
		return ErrInvalidSelection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.player1 && playerID != r.player2 {
		return ErrNoSuchPlayer
	}
	if !r.state.Open() {
		return ErrRoundClosed
	}
	if playerID == r.player1 {
		r.sel1 = s
	} else {
		r.sel2 = s
	}
	r.out.Broadcast(protocol.SelectionUpdate{PlayerID: playerID, Selection: int32(s)})

	if r.sel1 != SelectionEmpty && r.sel2 != SelectionEmpty {
		select {
		case r.both <- struct{}{}:
		default:
		}
	}
	return nil
}

func (r *Round) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Round) Seconds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seconds
}

func (r *Round) Selections() (Selection, Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sel1, r.sel2
}

// Winner is only meaningful once the round is FINISHED.
func (r *Round) Winner() Winner {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner
}

func (r *Round) Has(playerID int32) bool {
	return playerID == r.player1 || playerID == r.player2
}

// Done is closed once the round is FINISHED or CANCELED.
func (r *Round) Done() <-chan struct{} { return r.done }
