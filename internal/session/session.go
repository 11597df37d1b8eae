// Package session runs the per-connection request loop: it reads one frame
// at a time, dispatches it against the hub and queues the responses on the
// player's outbox, which a separate writer drains onto the connection.
package session

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/DoyleJ11/jankenpon-server/internal/engine"
	"github.com/DoyleJ11/jankenpon-server/internal/hub"
	"github.com/DoyleJ11/jankenpon-server/internal/lobby"
	"github.com/DoyleJ11/jankenpon-server/pkg/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	// IdleTimeout closes a connection that sends nothing for this long.
	// Zero disables it.
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
}

type Phase int

const (
	PhaseUnregistered Phase = iota
	PhaseRegistered
	PhaseInRoom
	PhaseInRound
	PhaseDisconnected
)

func (p Phase) String() string {
	switch p {
	case PhaseUnregistered:
		return "unregistered"
	case PhaseRegistered:
		return "registered"
	case PhaseInRoom:
		return "in-room"
	case PhaseInRound:
		return "in-round"
	default:
		return "disconnected"
	}
}

// Handler serves player connections for a hub. It satisfies hub.ConnHandler.
type Handler struct {
	hub *hub.Hub
	cfg Config
	log *zap.Logger
}

func NewHandler(h *hub.Hub, cfg Config, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{hub: h, cfg: cfg, log: log}
}

type session struct {
	hub        *hub.Hub
	cfg        Config
	conn       net.Conn
	p          *lobby.Player
	log        *zap.Logger
	registered bool
	closed     bool
}

func (h *Handler) ServeConn(ctx context.Context, conn net.Conn, p *lobby.Player) {
	s := &session{
		hub:  h.hub,
		cfg:  h.cfg,
		conn: conn,
		p:    p,
		log: h.log.With(
			zap.String("session", uuid.NewString()),
			zap.Int32("player", p.ID),
			zap.Stringer("remote", conn.RemoteAddr()),
		),
	}
	s.log.Info("player connected")

	written := make(chan struct{})
	go s.writeLoop(written)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-p.Gone():
		case <-stop:
			return
		}
		_ = conn.Close()
	}()

	err := s.readLoop()
	close(stop)
	last := s.phase()
	s.closed = true

	s.hub.Disconnect(p)
	<-written

	if err != nil {
		s.log.Warn("player connection failed", zap.Stringer("phase", last), zap.Error(err))
		return
	}
	s.log.Info("player disconnected", zap.Stringer("phase", last))
}

// Phase is derived from the player's current room and round, since other
// sessions can move this player out of a room at any time.
func (s *session) phase() Phase {
	switch {
	case s.closed:
		return PhaseDisconnected
	case !s.registered:
		return PhaseUnregistered
	}
	room, err := s.hub.Room(s.p.RoomID())
	if err != nil {
		return PhaseRegistered
	}
	if round := room.Round(); round != nil && round.Has(s.p.ID) && round.State().Open() {
		return PhaseInRound
	}
	return PhaseInRoom
}

func (s *session) readLoop() error {
	for {
		if s.cfg.IdleTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		frame, err := protocol.ReadFrame(s.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		msg, err := protocol.DecodeRequest(frame)
		if err != nil {
			s.send(protocol.InvalidCommand{Message: "malformed frame"})
			continue
		}
		if _, ok := msg.(protocol.Disconnect); ok {
			return nil
		}
		s.log.Debug("request", zap.Stringer("op", msg.Opcode()), zap.Stringer("phase", s.phase()))
		s.dispatch(msg)
	}
}

// writeLoop drains the outbox until the player is closed, then flushes what
// is still queued.
func (s *session) writeLoop(done chan<- struct{}) {
	defer close(done)
	defer s.conn.Close()

	for {
		select {
		case m := <-s.p.Outbox():
			if !s.write(m) {
				return
			}
		case <-s.p.Done():
			for {
				select {
				case m := <-s.p.Outbox():
					if !s.write(m) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (s *session) write(m protocol.Message) bool {
	b, err := protocol.Encode(m)
	if err != nil {
		s.log.Error("dropping unencodable frame", zap.Stringer("op", m.Opcode()), zap.Error(err))
		return true
	}
	if s.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := s.conn.Write(b); err != nil {
		s.log.Debug("write failed", zap.Stringer("op", m.Opcode()), zap.Error(err))
		s.p.Kick()
		return false
	}
	return true
}

// send answers the player's own request. It waits for outbox space, so a long
// listing is paced by the writer rather than dropped.
func (s *session) send(m protocol.Message) {
	s.p.Reply(m)
}

func (s *session) fail(op protocol.Opcode, err error) {
	s.log.Debug("request rejected", zap.Stringer("op", op), zap.Error(err))
	s.send(protocol.Error{Op: op, Message: err.Error()})
}

func (s *session) invalid(op protocol.Opcode, msg string) {
	s.log.Debug("invalid command", zap.Stringer("op", op), zap.String("reason", msg))
	s.send(protocol.InvalidCommand{Op: op, Message: msg})
}

var (
	errNotRegistered     = errors.New("player not registered")
	errAlreadyRegistered = errors.New("player already registered")
	errNameRequired      = errors.New("name required")
)

func (s *session) dispatch(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.SetName:
		s.setName(m)
	case protocol.QueryRooms:
		s.queryRooms()
	case protocol.QueryRoomPlayers:
		s.queryRoomPlayers(m)
	case protocol.CreateRoom:
		if s.gate(m.Opcode()) {
			s.createRoom(m)
		}
	case protocol.DestroyRoom:
		if s.gate(m.Opcode()) {
			s.destroyRoom(m)
		}
	case protocol.JoinRoom:
		if !s.registered {
			s.send(protocol.JoinRoomFail{Message: errNotRegistered.Error()})
			return
		}
		s.joinRoom(m)
	case protocol.LeaveRoom:
		if s.gate(m.Opcode()) {
			s.leaveRoom(m)
		}
	case protocol.SetReady:
		if s.gate(m.Opcode()) {
			s.setReady(m)
		}
	case protocol.StartRound:
		if s.gate(m.Opcode()) {
			s.startRound(m)
		}
	case protocol.Select:
		if s.gate(m.Opcode()) {
			s.selectChoice(m)
		}
	default:
		s.invalid(msg.Opcode(), "unknown command")
	}
}

// gate rejects requests from a connection that has not set a name yet.
func (s *session) gate(op protocol.Opcode) bool {
	if !s.registered {
		s.fail(op, errNotRegistered)
		return false
	}
	return true
}

func (s *session) setName(m protocol.SetName) {
	if s.registered {
		s.fail(m.Opcode(), errAlreadyRegistered)
		return
	}
	if m.Name == "" {
		s.fail(m.Opcode(), errNameRequired)
		return
	}
	s.p.SetName(m.Name)
	s.registered = true
	s.log.Info("player registered", zap.String("name", m.Name))
	s.send(protocol.Registered{PlayerID: s.p.ID})
}

func (s *session) createRoom(m protocol.CreateRoom) {
	master, err := s.hub.Player(m.MasterID)
	if err != nil {
		s.fail(m.Opcode(), err)
		return
	}
	room, err := s.hub.CreateRoom(master, m.Name)
	if err != nil {
		s.fail(m.Opcode(), err)
		return
	}
	s.send(protocol.CreateRoomSuccess{RoomID: room.ID})
}

func (s *session) destroyRoom(m protocol.DestroyRoom) {
	if err := s.hub.DestroyRoom(m.RoomID, m.PlayerID); err != nil {
		s.fail(m.Opcode(), err)
		return
	}
	s.send(protocol.DestroyRoomSuccess{RoomID: m.RoomID})
}

func (s *session) joinRoom(m protocol.JoinRoom) {
	p, err := s.hub.Player(m.PlayerID)
	if err != nil {
		s.send(protocol.JoinRoomFail{Message: err.Error()})
		return
	}
	if _, err := s.hub.JoinRoom(p, m.RoomID); err != nil {
		s.log.Debug("join refused", zap.Int32("room", m.RoomID), zap.Error(err))
		s.send(protocol.JoinRoomFail{Message: err.Error()})
		return
	}
	s.send(protocol.JoinRoomSuccess{RoomID: m.RoomID})
}

func (s *session) leaveRoom(m protocol.LeaveRoom) {
	p, err := s.hub.Player(m.PlayerID)
	if err != nil {
		s.fail(m.Opcode(), err)
		return
	}
	room, err := s.hub.LeaveRoom(p)
	if err != nil {
		s.fail(m.Opcode(), err)
		return
	}
	s.send(protocol.LeaveRoomSuccess{RoomID: room.ID})
}

func (s *session) queryRooms() {
	rooms := s.hub.Rooms()
	for _, r := range rooms {
		info := r.Info()
		s.send(protocol.RoomInfo{
			RoomID:   info.ID,
			Name:     info.Name,
			Members:  int32(len(info.Members)),
			MasterID: info.MasterID,
			State:    int32(info.State),
		})
	}
	s.send(protocol.RoomListEnd{Count: int32(len(rooms))})
}

func (s *session) queryRoomPlayers(m protocol.QueryRoomPlayers) {
	room, err := s.hub.Room(m.RoomID)
	if err != nil {
		s.fail(m.Opcode(), err)
		return
	}
	info := room.Info()
	for _, mem := range info.Members {
		s.send(protocol.RoomPlayerInfo{PlayerID: mem.ID, Master: mem.Master, Name: mem.Name})
	}
	s.send(protocol.RoomPlayerListEnd{RoomID: info.ID, Count: int32(len(info.Members))})
}

// roomOf resolves the room a player is currently in.
func (s *session) roomOf(playerID int32) (*lobby.Player, *lobby.Room, error) {
	p, err := s.hub.Player(playerID)
	if err != nil {
		return nil, nil, err
	}
	roomID := p.RoomID()
	if roomID == lobby.NoRoom {
		return nil, nil, lobby.ErrNotMember
	}
	room, err := s.hub.Room(roomID)
	if err != nil {
		return nil, nil, err
	}
	return p, room, nil
}

func (s *session) setReady(m protocol.SetReady) {
	p, room, err := s.roomOf(m.PlayerID)
	if err != nil {
		s.fail(m.Opcode(), err)
		return
	}
	if _, err := room.SetReady(p); err != nil {
		s.fail(m.Opcode(), err)
	}
}

func (s *session) startRound(m protocol.StartRound) {
	room, err := s.hub.Room(m.RoomID)
	if err != nil {
		s.fail(m.Opcode(), err)
		return
	}
	if !room.Has(m.PlayerID) {
		s.fail(m.Opcode(), lobby.ErrNotMember)
		return
	}
	if _, err := room.StartRound(); err != nil {
		s.fail(m.Opcode(), err)
	}
}

func (s *session) selectChoice(m protocol.Select) {
	choice := engine.Selection(m.Selection)
	if !choice.Valid() || choice == engine.SelectionEmpty {
		s.invalid(m.Opcode(), "invalid selection")
		return
	}
	p, room, err := s.roomOf(m.PlayerID)
	if err != nil {
		s.fail(m.Opcode(), err)
		return
	}
	round := room.Round()
	if round == nil {
		s.fail(m.Opcode(), lobby.ErrNoRound)
		return
	}
	if err := round.UpdateSelection(p.ID, choice); err != nil {
		s.fail(m.Opcode(), err)
	}
}
