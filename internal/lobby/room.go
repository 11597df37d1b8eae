package lobby

import (
	"context"
	"errors"
	"sync"

	"github.com/DoyleJ11/jankenpon-server/internal/engine"
	"github.com/DoyleJ11/jankenpon-server/pkg/protocol"
	"go.uber.org/zap"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrAlreadyInRoom   = errors.New("player already in a room")
	ErrNotMember       = errors.New("player not in room")
	ErrAlreadyReady    = errors.New("player already ready")
	ErrTwoReady        = errors.New("two players already ready")
	ErrNotEnoughReady  = errors.New("two ready players required")
	ErrRoundInProgress = errors.New("round already in progress")
	ErrNoRound         = errors.New("no round in progress")
)

type State int32

const (
	StateWaiting State = 1
	StatePlaying State = 2
)

func (s State) String() string {
	if s == StatePlaying {
		return "playing"
	}
	return "waiting"
}

// Room groups players until two of them are ready to play a round. All
// fields below mu are guarded by it.
//
// Lock order is round before room before player. The room never calls into
// its round while holding mu, since the round broadcasts through the room.
type Room struct {
	ID       int32
	Name     string
	MasterID int32

	mu        sync.Mutex
	state     State
	members   []*Player
	slots     [2]*Player
	round     *engine.Round
	closing   bool
	destroyed bool

	ctx      context.Context
	roundCfg engine.Config
	log      *zap.Logger
}

// NewRoom creates a room with master as its only member.
func NewRoom(ctx context.Context, id int32, name string, master *Player, roundCfg engine.Config, log *zap.Logger) (*Room, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !master.claimRoom(id) {
		return nil, ErrAlreadyInRoom
	}
	return &Room{
		ID:       id,
		Name:     name,
		MasterID: master.ID,
		state:    StateWaiting,
		members:  []*Player{master},
		ctx:      ctx,
		roundCfg: roundCfg,
		log:      log.With(zap.Int32("room", id)),
	}, nil
}

// AddMember adds p and announces it to every member, p included.
func (r *Room) AddMember(p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closing {
		return ErrRoomNotFound
	}
	if !p.claimRoom(r.ID) {
		return ErrAlreadyInRoom
	}
	r.members = append(r.members, p)
	r.broadcastLocked(protocol.RoomPlayerJoined{PlayerID: p.ID, Name: p.Name()})
	r.log.Debug("player joined", zap.Int32("player", p.ID), zap.Int("members", len(r.members)))
	return nil
}

// RemoveMember drops p from the room and frees its ready slot. A round in
// progress keeps running with whatever p last selected.
func (r *Room) RemoveMember(p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(p.ID)
	if idx < 0 {
		return ErrNotMember
	}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	for i, s := range r.slots {
		if s == p {
			r.slots[i] = nil
		}
	}
	p.leaveRoom(r.ID)
	r.broadcastLocked(protocol.RoomPlayerDisconnected{PlayerID: p.ID})
	r.log.Debug("player left", zap.Int32("player", p.ID), zap.Int("members", len(r.members)))
	return nil
}

// Destroy cancels any active round, tells every member the room is gone and
// evicts them. Calling it again does nothing.
func (r *Room) Destroy() {
	r.teardown(false)
}

// DestroyIfEmpty destroys the room only if nobody is left in it, and reports
// whether it did.
func (r *Room) DestroyIfEmpty() bool {
	return r.teardown(true)
}

func (r *Room) teardown(onlyIfEmpty bool) bool {
	r.mu.Lock()
	if r.closing || (onlyIfEmpty && len(r.members) > 0) {
		r.mu.Unlock()
		return false
	}
	r.closing = true
	round := r.round
	r.mu.Unlock()

	if round != nil {
		round.Cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(protocol.RoomDestroyed{RoomID: r.ID})
	r.destroyed = true
	for _, p := range r.members {
		p.leaveRoom(r.ID)
	}
	r.members = nil
	r.slots = [2]*Player{}
	r.log.Info("room destroyed")
	return true
}

// SetReady puts p in the first free round slot and returns it (1 or 2).
func (r *Room) SetReady(p *Player) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closing {
		return 0, ErrRoomNotFound
	}
	if r.indexLocked(p.ID) < 0 {
		return 0, ErrNotMember
	}
	for _, s := range r.slots {
		if s == p {
			return 0, ErrAlreadyReady
		}
	}
	for i, s := range r.slots {
		if s == nil {
			r.slots[i] = p
			p.setReady(true)
			r.broadcastLocked(protocol.RoomPlayerReady{PlayerID: p.ID, Slot: int32(i + 1)})
			return i + 1, nil
		}
	}
	return 0, ErrTwoReady
}

// StartRound binds a new round to the two ready players and starts its
// countdown in the background.
func (r *Room) StartRound() (*engine.Round, error) {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	p1, p2 := r.slots[0], r.slots[1]
	if p1 == nil || p2 == nil {
		r.mu.Unlock()
		return nil, ErrNotEnoughReady
	}
	if r.round != nil {
		select {
		case <-r.round.Done():
		default:
			r.mu.Unlock()
			return nil, ErrRoundInProgress
		}
	}

	round := engine.NewRound(r.ctx, r.ID, p1.ID, p2.ID, r.roundCfg, r, r.log)
	r.round = round
	r.state = StatePlaying
	r.broadcastLocked(protocol.RoundStart{
		RoomID:    r.ID,
		Player1ID: p1.ID,
		Player2ID: p2.ID,
		Seconds:   int32(r.roundCfg.Seconds),
	})
	r.mu.Unlock()

	r.log.Info("round starting", zap.Int32("player1", p1.ID), zap.Int32("player2", p2.ID))
	go round.Run()
	return round, nil
}

// Broadcast queues m for every current member. It is a no-op once the room
// has been destroyed.
func (r *Room) Broadcast(m protocol.Message) {
	r.mu.Lock()
	r.broadcastLocked(m)
	r.mu.Unlock()
}

func (r *Room) broadcastLocked(m protocol.Message) {
	if r.destroyed {
		return
	}
	for _, p := range r.members {
		if !p.Send(m) {
			r.log.Debug("dropped frame for player", zap.Int32("player", p.ID), zap.Stringer("op", m.Opcode()))
		}
	}
}

func (r *Room) indexLocked(playerID int32) int {
	for i, p := range r.members {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// Round returns the most recent round, or nil if none was started.
func (r *Room) Round() *engine.Round {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) Has(playerID int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexLocked(playerID) >= 0
}

// Members returns a snapshot of the membership in join order.
func (r *Room) Members() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Player(nil), r.members...)
}

func (r *Room) IsMaster(playerID int32) bool { return playerID == r.MasterID }

type MemberInfo struct {
	ID     int32
	Name   string
	Ready  bool
	Master bool
}

type Info struct {
	ID       int32
	Name     string
	MasterID int32
	State    State
	Members  []MemberInfo
}

// Info is a consistent snapshot of the room.
func (r *Room) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := Info{
		ID:       r.ID,
		Name:     r.Name,
		MasterID: r.MasterID,
		State:    r.state,
		Members:  make([]MemberInfo, 0, len(r.members)),
	}
	for _, p := range r.members {
		info.Members = append(info.Members, MemberInfo{
			ID:     p.ID,
			Name:   p.Name(),
			Ready:  p.Ready(),
			Master: p.ID == r.MasterID,
		})
	}
	return info
}
