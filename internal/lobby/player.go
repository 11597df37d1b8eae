package lobby

import (
	"sync"

	"github.com/DoyleJ11/jankenpon-server/pkg/protocol"
)

// NoRoom is the room id of a player that is not in any room.
const NoRoom int32 = -1

// Player is one connected client. Everything sent to it goes through a
// bounded outbox drained by the session's writer. Broadcasts never wait: a
// player whose outbox is full when a broadcast arrives is kicked. Replies to
// the player's own requests wait for room instead.
//
// The outbox is never closed; Close signals Done and the writer flushes what
// is already queued.
type Player struct {
	ID int32

	mu     sync.Mutex
	name   string
	roomID int32
	ready  bool

	outbox    chan protocol.Message
	done      chan struct{}
	closeOnce sync.Once
	gone      chan struct{}
	kickOnce  sync.Once
}

func NewPlayer(id int32, outboxSize int) *Player {
	if outboxSize <= 0 {
		outboxSize = 1
	}
	return &Player{
		ID:     id,
		roomID: NoRoom,
		outbox: make(chan protocol.Message, outboxSize),
		done:   make(chan struct{}),
		gone:   make(chan struct{}),
	}
}

func (p *Player) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *Player) SetName(name string) {
	p.mu.Lock()
	p.name = name
	p.mu.Unlock()
}

func (p *Player) RoomID() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roomID
}

func (p *Player) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// claimRoom binds the player to roomID unless it is already in a room.
func (p *Player) claimRoom(roomID int32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.roomID != NoRoom {
		return false
	}
	p.roomID = roomID
	return true
}

func (p *Player) setReady(ready bool) {
	p.mu.Lock()
	p.ready = ready
	p.mu.Unlock()
}

// leaveRoom clears the room reference and ready flag, but only if the player
// still points at roomID.
func (p *Player) leaveRoom(roomID int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.roomID == roomID {
		p.roomID = NoRoom
		p.ready = false
	}
}

func (p *Player) stopped() bool {
	select {
	case <-p.done:
		return true
	case <-p.gone:
		return true
	default:
		return false
	}
}

// Send queues a broadcast without blocking. A full outbox kicks the player
// and the frame is dropped.
func (p *Player) Send(m protocol.Message) bool {
	if p.stopped() {
		return false
	}
	select {
	case p.outbox <- m:
		return true
	default:
		p.Kick()
		return false
	}
}

// Reply queues a response to the player's own request, waiting while the
// outbox is full. It gives up once the player is closed or kicked.
func (p *Player) Reply(m protocol.Message) bool {
	if p.stopped() {
		return false
	}
	select {
	case p.outbox <- m:
		return true
	case <-p.done:
		return false
	case <-p.gone:
		return false
	}
}

// Close stops delivery. Frames already queued are still flushed by the writer.
func (p *Player) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Kick asks the session to drop the connection now.
func (p *Player) Kick() {
	p.kickOnce.Do(func() { close(p.gone) })
}

func (p *Player) Outbox() <-chan protocol.Message { return p.outbox }

// Done is closed once the player is closed.
func (p *Player) Done() <-chan struct{} { return p.done }

// Gone is closed when the player has been kicked.
func (p *Player) Gone() <-chan struct{} { return p.gone }
