package hub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/DoyleJ11/jankenpon-server/internal/engine"
	"github.com/DoyleJ11/jankenpon-server/internal/lobby"
	"github.com/DoyleJ11/jankenpon-server/pkg/protocol"
	"go.uber.org/zap"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotMaster      = errors.New("player is not the room master")
	ErrShuttingDown   = errors.New("server shutting down")
)

// Teardown decides what happens to a room when one of its members
// disconnects.
type Teardown string

const (
	// TeardownMember destroys the room when any member disconnects.
	TeardownMember Teardown = "member"
	// TeardownMaster destroys the room only when its master disconnects;
	// anyone else is just removed.
	TeardownMaster Teardown = "master"
)

func ParseTeardown(s string) (Teardown, error) {
	switch Teardown(s) {
	case TeardownMember, TeardownMaster:
		return Teardown(s), nil
	default:
		return "", fmt.Errorf("unknown teardown policy %q", s)
	}
}

type Config struct {
	Round      engine.Config
	OutboxSize int
	Teardown   Teardown
}

func DefaultConfig() Config {
	return Config{
		Round:      engine.DefaultConfig(),
		OutboxSize: 64,
		Teardown:   TeardownMember,
	}
}

// Hub is the registry of connected players and open rooms. Ids for both are
// handed out in increasing order and never reused.
type Hub struct {
	mu           sync.RWMutex
	players      map[int32]*lobby.Player
	rooms        map[int32]*lobby.Room
	conns        map[int32]net.Conn
	listeners    []net.Listener
	nextPlayerID int32
	nextRoomID   int32
	closed       bool

	cfg    Config
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(parent context.Context, cfg Config, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Teardown == "" {
		cfg.Teardown = TeardownMember
	}
	ctx, cancel := context.WithCancel(parent)
	return &Hub{
		players: make(map[int32]*lobby.Player),
		rooms:   make(map[int32]*lobby.Room),
		conns:   make(map[int32]net.Conn),
		cfg:     cfg,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect registers a new player.
func (h *Hub) Connect() (*lobby.Player, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrShuttingDown
	}
	p := lobby.NewPlayer(h.nextPlayerID, h.cfg.OutboxSize)
	h.nextPlayerID++
	h.players[p.ID] = p
	return p, nil
}

// Disconnect removes p and applies the teardown policy to its room. The
// player is closed once cleanup is done.
func (h *Hub) Disconnect(p *lobby.Player) {
	h.mu.Lock()
	delete(h.players, p.ID)
	room := h.rooms[p.RoomID()]
	destroy := room != nil && (h.cfg.Teardown == TeardownMember || room.IsMaster(p.ID))
	if destroy {
		delete(h.rooms, room.ID)
	}
	h.mu.Unlock()

	switch {
	case destroy:
		h.log.Info("tearing down room after disconnect",
			zap.Int32("room", room.ID), zap.Int32("player", p.ID))
		room.Destroy()
	case room != nil:
		_ = h.removeMember(room, p)
	}
	p.Close()
}

func (h *Hub) Player(id int32) (*lobby.Player, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

func (h *Hub) Room(id int32) (*lobby.Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[id]
	if !ok {
		return nil, lobby.ErrRoomNotFound
	}
	return r, nil
}

// Rooms returns the open rooms ordered by id.
func (h *Hub) Rooms() []*lobby.Room {
	h.mu.RLock()
	out := make([]*lobby.Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, r)
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (h *Hub) NumPlayers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players)
}

// CreateRoom opens a room with master as its only member. A master that is
// already in a room leaves it first.
func (h *Hub) CreateRoom(master *lobby.Player, name string) (*lobby.Room, error) {
	if master.RoomID() != lobby.NoRoom {
		if _, err := h.LeaveRoom(master); err != nil &&
			!errors.Is(err, lobby.ErrNotMember) && !errors.Is(err, lobby.ErrRoomNotFound) {
			return nil, err
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrShuttingDown
	}
	room, err := lobby.NewRoom(h.ctx, h.nextRoomID, name, master, h.cfg.Round, h.log)
	if err != nil {
		return nil, err
	}
	h.nextRoomID++
	h.rooms[room.ID] = room
	h.log.Info("room created", zap.Int32("room", room.ID), zap.String("name", name), zap.Int32("master", master.ID))
	return room, nil
}

// DestroyRoom tears down a room on behalf of its master.
func (h *Hub) DestroyRoom(roomID, playerID int32) error {
	h.mu.Lock()
	room, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return lobby.ErrRoomNotFound
	}
	if !room.IsMaster(playerID) {
		h.mu.Unlock()
		return ErrNotMaster
	}
	delete(h.rooms, roomID)
	h.mu.Unlock()

	room.Destroy()
	return nil
}

func (h *Hub) JoinRoom(p *lobby.Player, roomID int32) (*lobby.Room, error) {
	room, err := h.Room(roomID)
	if err != nil {
		return nil, err
	}
	if err := room.AddMember(p); err != nil {
		return nil, err
	}
	return room, nil
}

// LeaveRoom removes p from its current room. The room is destroyed if p was
// the last one in it.
func (h *Hub) LeaveRoom(p *lobby.Player) (*lobby.Room, error) {
	roomID := p.RoomID()
	if roomID == lobby.NoRoom {
		return nil, lobby.ErrNotMember
	}
	room, err := h.Room(roomID)
	if err != nil {
		return nil, err
	}
	if err := h.removeMember(room, p); err != nil {
		return nil, err
	}
	return room, nil
}

// removeMember takes p out of room and reaps the room once it is empty.
func (h *Hub) removeMember(room *lobby.Room, p *lobby.Player) error {
	if err := room.RemoveMember(p); err != nil {
		return err
	}
	if !room.DestroyIfEmpty() {
		return nil
	}
	h.mu.Lock()
	if h.rooms[room.ID] == room {
		delete(h.rooms, room.ID)
	}
	h.mu.Unlock()
	h.log.Info("reaped empty room", zap.Int32("room", room.ID))
	return nil
}

// BroadcastAll queues m for every connected player.
func (h *Hub) BroadcastAll(m protocol.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.players {
		p.Send(m)
	}
}
