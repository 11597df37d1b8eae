package protocol

// Message is one typed frame payload.
type Message interface {
	Opcode() Opcode
	encode(w *Writer)
}

type payload[T any] interface {
	*T
	decode(r *Reader)
}

func entry[T Message, P payload[T]]() func(*Reader) Message {
	return func(r *Reader) Message {
		var m T
		P(&m).decode(r)
		return m
	}
}

// requests holds the frames a client may send.
var requests = map[Opcode]func(*Reader) Message{
	OpDisconnect:       entry[Disconnect](),
	OpCreateRoom:       entry[CreateRoom](),
	OpDestroyRoom:      entry[DestroyRoom](),
	OpSetName:          entry[SetName](),
	OpJoinRoom:         entry[JoinRoom](),
	OpLeaveRoom:        entry[LeaveRoom](),
	OpQueryRooms:       entry[QueryRooms](),
	OpSetReady:         entry[SetReady](),
	OpQueryRoomPlayers: entry[QueryRoomPlayers](),
	OpStartRound:       entry[StartRound](),
	OpSelect:           entry[Select](),
}

// events holds the responses and broadcasts a server sends. Some opcodes,
// such as 231, mean one thing as a request and another as an event.
var events = map[Opcode]func(*Reader) Message{
	OpInvalidCommand:         entry[InvalidCommand](),
	OpError:                  entry[Error](),
	OpDisconnectNotice:       entry[DisconnectNotice](),
	OpCreateRoomSuccess:      entry[CreateRoomSuccess](),
	OpDestroyRoomSuccess:     entry[DestroyRoomSuccess](),
	OpRegistered:             entry[Registered](),
	OpJoinRoomSuccess:        entry[JoinRoomSuccess](),
	OpJoinRoomFail:           entry[JoinRoomFail](),
	OpLeaveRoomSuccess:       entry[LeaveRoomSuccess](),
	OpRoomInfo:               entry[RoomInfo](),
	OpRoomListEnd:            entry[RoomListEnd](),
	OpRoomPlayerInfo:         entry[RoomPlayerInfo](),
	OpRoomPlayerListEnd:      entry[RoomPlayerListEnd](),
	OpRoomPlayerJoined:       entry[RoomPlayerJoined](),
	OpRoomPlayerDisconnected: entry[RoomPlayerDisconnected](),
	OpRoomPlayerReady:        entry[RoomPlayerReady](),
	OpRoundStart:             entry[RoundStart](),
	OpRoundEnd:               entry[RoundEnd](),
	OpRoundCanceled:          entry[RoundCanceled](),
	OpRoomDestroyed:          entry[RoomDestroyed](),
	OpWinner:                 entry[Winner](),
	OpTimeUpdate:             entry[TimeUpdate](),
	OpStateUpdate:            entry[StateUpdate](),
	OpSelectionUpdate:        entry[SelectionUpdate](),
}

// Unknown is what decoding returns for an opcode outside the table.
type Unknown struct{ Op Opcode }

func (m Unknown) Opcode() Opcode { return m.Op }
func (Unknown) encode(*Writer)   {}

// ---- requests

type Disconnect struct{}

func (Disconnect) Opcode() Opcode  { return OpDisconnect }
func (Disconnect) encode(*Writer)  {}
func (*Disconnect) decode(*Reader) {}

type CreateRoom struct {
	MasterID int32
	Name     string
}

func (CreateRoom) Opcode() Opcode { return OpCreateRoom }
func (m CreateRoom) encode(w *Writer) {
	w.PutInt(m.MasterID)
	w.PutString(m.Name, NameLen)
}
func (m *CreateRoom) decode(r *Reader) {
	m.MasterID = r.Int()
	m.Name = r.String(NameLen)
}

type DestroyRoom struct {
	RoomID   int32
	PlayerID int32
}

func (DestroyRoom) Opcode() Opcode { return OpDestroyRoom }
func (m DestroyRoom) encode(w *Writer) {
	w.PutInt(m.RoomID)
	w.PutInt(m.PlayerID)
}
func (m *DestroyRoom) decode(r *Reader) {
	m.RoomID = r.Int()
	m.PlayerID = r.Int()
}

type SetName struct{ Name string }

func (SetName) Opcode() Opcode      { return OpSetName }
func (m SetName) encode(w *Writer)  { w.PutString(m.Name, NameLen) }
func (m *SetName) decode(r *Reader) { m.Name = r.String(NameLen) }

type JoinRoom struct {
	PlayerID int32
	RoomID   int32
}

func (JoinRoom) Opcode() Opcode { return OpJoinRoom }
func (m JoinRoom) encode(w *Writer) {
	w.PutInt(m.PlayerID)
	w.PutInt(m.RoomID)
}
func (m *JoinRoom) decode(r *Reader) {
	m.PlayerID = r.Int()
	m.RoomID = r.Int()
}

type LeaveRoom struct{ PlayerID int32 }

func (LeaveRoom) Opcode() Opcode      { return OpLeaveRoom }
func (m LeaveRoom) encode(w *Writer)  { w.PutInt(m.PlayerID) }
func (m *LeaveRoom) decode(r *Reader) { m.PlayerID = r.Int() }

type QueryRooms struct{}

func (QueryRooms) Opcode() Opcode  { return OpQueryRooms }
func (QueryRooms) encode(*Writer)  {}
func (*QueryRooms) decode(*Reader) {}

type SetReady struct{ PlayerID int32 }

func (SetReady) Opcode() Opcode      { return OpSetReady }
func (m SetReady) encode(w *Writer)  { w.PutInt(m.PlayerID) }
func (m *SetReady) decode(r *Reader) { m.PlayerID = r.Int() }

type QueryRoomPlayers struct{ RoomID int32 }

func (QueryRoomPlayers) Opcode() Opcode      { return OpQueryRoomPlayers }
func (m QueryRoomPlayers) encode(w *Writer)  { w.PutInt(m.RoomID) }
func (m *QueryRoomPlayers) decode(r *Reader) { m.RoomID = r.Int() }

type StartRound struct {
	PlayerID int32
	RoomID   int32
}

func (StartRound) Opcode() Opcode { return OpStartRound }
func (m StartRound) encode(w *Writer) {
	w.PutInt(m.PlayerID)
	w.PutInt(m.RoomID)
}
func (m *StartRound) decode(r *Reader) {
	m.PlayerID = r.Int()
	m.RoomID = r.Int()
}

type Select struct {
	PlayerID  int32
	Selection int32
}

func (Select) Opcode() Opcode { return OpSelect }
func (m Select) encode(w *Writer) {
	w.PutInt(m.PlayerID)
	w.PutInt(m.Selection)
}
func (m *Select) decode(r *Reader) {
	m.PlayerID = r.Int()
	m.Selection = r.Int()
}

// ---- responses

// InvalidCommand answers an unknown opcode or a malformed payload.
type InvalidCommand struct {
	Op      Opcode
	Message string
}

func (InvalidCommand) Opcode() Opcode { return OpInvalidCommand }
func (m InvalidCommand) encode(w *Writer) {
	w.PutInt(int32(m.Op))
	w.PutString(m.Message, MessageLen)
}
func (m *InvalidCommand) decode(r *Reader) {
	m.Op = Opcode(r.Int())
	m.Message = r.String(MessageLen)
}

// Error answers a well-formed request that was refused.
type Error struct {
	Op      Opcode
	Message string
}

func (Error) Opcode() Opcode { return OpError }
func (m Error) encode(w *Writer) {
	w.PutInt(int32(m.Op))
	w.PutString(m.Message, MessageLen)
}
func (m *Error) decode(r *Reader) {
	m.Op = Opcode(r.Int())
	m.Message = r.String(MessageLen)
}

type DisconnectNotice struct{}

func (DisconnectNotice) Opcode() Opcode  { return OpDisconnectNotice }
func (DisconnectNotice) encode(*Writer)  {}
func (*DisconnectNotice) decode(*Reader) {}

type CreateRoomSuccess struct{ RoomID int32 }

func (CreateRoomSuccess) Opcode() Opcode      { return OpCreateRoomSuccess }
func (m CreateRoomSuccess) encode(w *Writer)  { w.PutInt(m.RoomID) }
func (m *CreateRoomSuccess) decode(r *Reader) { m.RoomID = r.Int() }

type DestroyRoomSuccess struct{ RoomID int32 }

func (DestroyRoomSuccess) Opcode() Opcode      { return OpDestroyRoomSuccess }
func (m DestroyRoomSuccess) encode(w *Writer)  { w.PutInt(m.RoomID) }
func (m *DestroyRoomSuccess) decode(r *Reader) { m.RoomID = r.Int() }

type Registered struct{ PlayerID int32 }

func (Registered) Opcode() Opcode      { return OpRegistered }
func (m Registered) encode(w *Writer)  { w.PutInt(m.PlayerID) }
func (m *Registered) decode(r *Reader) { m.PlayerID = r.Int() }

type JoinRoomSuccess struct{ RoomID int32 }

func (JoinRoomSuccess) Opcode() Opcode      { return OpJoinRoomSuccess }
func (m JoinRoomSuccess) encode(w *Writer)  { w.PutInt(m.RoomID) }
func (m *JoinRoomSuccess) decode(r *Reader) { m.RoomID = r.Int() }

type JoinRoomFail struct{ Message string }

func (JoinRoomFail) Opcode() Opcode      { return OpJoinRoomFail }
func (m JoinRoomFail) encode(w *Writer)  { w.PutString(m.Message, MessageLen) }
func (m *JoinRoomFail) decode(r *Reader) { m.Message = r.String(MessageLen) }

type LeaveRoomSuccess struct{ RoomID int32 }

func (LeaveRoomSuccess) Opcode() Opcode      { return OpLeaveRoomSuccess }
func (m LeaveRoomSuccess) encode(w *Writer)  { w.PutInt(m.RoomID) }
func (m *LeaveRoomSuccess) decode(r *Reader) { m.RoomID = r.Int() }

type RoomInfo struct {
	RoomID   int32
	Name     string
	Members  int32
	MasterID int32
	State    int32
}

func (RoomInfo) Opcode() Opcode { return OpRoomInfo }
func (m RoomInfo) encode(w *Writer) {
	w.PutInt(m.RoomID)
	w.PutString(m.Name, NameLen)
	w.PutInt(m.Members)
	w.PutInt(m.MasterID)
	w.PutInt(m.State)
}
func (m *RoomInfo) decode(r *Reader) {
	m.RoomID = r.Int()
	m.Name = r.String(NameLen)
	m.Members = r.Int()
	m.MasterID = r.Int()
	m.State = r.Int()
}

type RoomListEnd struct{ Count int32 }

func (RoomListEnd) Opcode() Opcode      { return OpRoomListEnd }
func (m RoomListEnd) encode(w *Writer)  { w.PutInt(m.Count) }
func (m *RoomListEnd) decode(r *Reader) { m.Count = r.Int() }

type RoomPlayerInfo struct {
	PlayerID int32
	Master   bool
	Name     string
}

func (RoomPlayerInfo) Opcode() Opcode { return OpRoomPlayerInfo }
func (m RoomPlayerInfo) encode(w *Writer) {
	w.PutInt(m.PlayerID)
	w.PutBool(m.Master)
	w.PutString(m.Name, NameLen)
}
func (m *RoomPlayerInfo) decode(r *Reader) {
	m.PlayerID = r.Int()
	m.Master = r.Bool()
	m.Name = r.String(NameLen)
}

type RoomPlayerListEnd struct {
	RoomID int32
	Count  int32
}

func (RoomPlayerListEnd) Opcode() Opcode { return OpRoomPlayerListEnd }
func (m RoomPlayerListEnd) encode(w *Writer) {
	w.PutInt(m.RoomID)
	w.PutInt(m.Count)
}
func (m *RoomPlayerListEnd) decode(r *Reader) {
	m.RoomID = r.Int()
	m.Count = r.Int()
}

// ---- broadcasts

type RoomPlayerJoined struct {
	PlayerID int32
	Name     string
}

func (RoomPlayerJoined) Opcode() Opcode { return OpRoomPlayerJoined }
func (m RoomPlayerJoined) encode(w *Writer) {
	w.PutInt(m.PlayerID)
	w.PutString(m.Name, NameLen)
}
func (m *RoomPlayerJoined) decode(r *Reader) {
	m.PlayerID = r.Int()
	m.Name = r.String(NameLen)
}

type RoomPlayerDisconnected struct{ PlayerID int32 }

func (RoomPlayerDisconnected) Opcode() Opcode      { return OpRoomPlayerDisconnected }
func (m RoomPlayerDisconnected) encode(w *Writer)  { w.PutInt(m.PlayerID) }
func (m *RoomPlayerDisconnected) decode(r *Reader) { m.PlayerID = r.Int() }

type RoomPlayerReady struct {
	PlayerID int32
	Slot     int32
}

func (RoomPlayerReady) Opcode() Opcode { return OpRoomPlayerReady }
func (m RoomPlayerReady) encode(w *Writer) {
	w.PutInt(m.PlayerID)
	w.PutInt(m.Slot)
}
func (m *RoomPlayerReady) decode(r *Reader) {
	m.PlayerID = r.Int()
	m.Slot = r.Int()
}

type RoundStart struct {
	RoomID    int32
	Player1ID int32
	Player2ID int32
	Seconds   int32
}

func (RoundStart) Opcode() Opcode { return OpRoundStart }
func (m RoundStart) encode(w *Writer) {
	w.PutInt(m.RoomID)
	w.PutInt(m.Player1ID)
	w.PutInt(m.Player2ID)
	w.PutInt(m.Seconds)
}
func (m *RoundStart) decode(r *Reader) {
	m.RoomID = r.Int()
	m.Player1ID = r.Int()
	m.Player2ID = r.Int()
	m.Seconds = r.Int()
}

type RoundEnd struct{ RoomID int32 }

func (RoundEnd) Opcode() Opcode      { return OpRoundEnd }
func (m RoundEnd) encode(w *Writer)  { w.PutInt(m.RoomID) }
func (m *RoundEnd) decode(r *Reader) { m.RoomID = r.Int() }

type RoundCanceled struct{ RoomID int32 }

func (RoundCanceled) Opcode() Opcode      { return OpRoundCanceled }
func (m RoundCanceled) encode(w *Writer)  { w.PutInt(m.RoomID) }
func (m *RoundCanceled) decode(r *Reader) { m.RoomID = r.Int() }

type RoomDestroyed struct{ RoomID int32 }

func (RoomDestroyed) Opcode() Opcode      { return OpRoomDestroyed }
func (m RoomDestroyed) encode(w *Writer)  { w.PutInt(m.RoomID) }
func (m *RoomDestroyed) decode(r *Reader) { m.RoomID = r.Int() }

// Winner carries 0 for a draw, 1 or 2 for the winning slot. PlayerID is -1
// on a draw.
type Winner struct {
	RoomID   int32
	Winner   int32
	PlayerID int32
}

func (Winner) Opcode() Opcode { return OpWinner }
func (m Winner) encode(w *Writer) {
	w.PutInt(m.RoomID)
	w.PutInt(m.Winner)
	w.PutInt(m.PlayerID)
}
func (m *Winner) decode(r *Reader) {
	m.RoomID = r.Int()
	m.Winner = r.Int()
	m.PlayerID = r.Int()
}

type TimeUpdate struct {
	RoomID  int32
	Seconds int32
}

func (TimeUpdate) Opcode() Opcode { return OpTimeUpdate }
func (m TimeUpdate) encode(w *Writer) {
	w.PutInt(m.RoomID)
	w.PutInt(m.Seconds)
}
func (m *TimeUpdate) decode(r *Reader) {
	m.RoomID = r.Int()
	m.Seconds = r.Int()
}

type StateUpdate struct {
	RoomID int32
	State  int32
}

func (StateUpdate) Opcode() Opcode { return OpStateUpdate }
func (m StateUpdate) encode(w *Writer) {
	w.PutInt(m.RoomID)
	w.PutInt(m.State)
}
func (m *StateUpdate) decode(r *Reader) {
	m.RoomID = r.Int()
	m.State = r.Int()
}

type SelectionUpdate struct {
	PlayerID  int32
	Selection int32
}

func (SelectionUpdate) Opcode() Opcode { return OpSelectionUpdate }
func (m SelectionUpdate) encode(w *Writer) {
	w.PutInt(m.PlayerID)
	w.PutInt(m.Selection)
}
func (m *SelectionUpdate) decode(r *Reader) {
	m.PlayerID = r.Int()
	m.Selection = r.Int()
}
