package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	requestCases := []Message{
		Disconnect{},
		CreateRoom{MasterID: 7, Name: "Arena"},
		DestroyRoom{RoomID: 3, PlayerID: 7},
		SetName{Name: "alvin"},
		JoinRoom{PlayerID: 2, RoomID: 9},
		LeaveRoom{PlayerID: 2},
		QueryRooms{},
		SetReady{PlayerID: 4},
		QueryRoomPlayers{RoomID: 1},
		StartRound{PlayerID: 1, RoomID: 1},
		Select{PlayerID: 1, Selection: 3},
	}
	eventCases := []Message{
		InvalidCommand{Op: 4242, Message: "unknown command"},
		Error{Op: OpStartRound, Message: "two ready players required"},
		DisconnectNotice{},
		CreateRoomSuccess{RoomID: 12},
		DestroyRoomSuccess{RoomID: 12},
		Registered{PlayerID: 0},
		JoinRoomSuccess{RoomID: 5},
		JoinRoomFail{Message: "room not found"},
		LeaveRoomSuccess{RoomID: 5},
		RoomInfo{RoomID: 1, Name: "Arena", Members: 2, MasterID: 0, State: 2},
		RoomListEnd{Count: 3},
		RoomPlayerInfo{PlayerID: 1, Master: true, Name: "alvin"},
		RoomPlayerInfo{PlayerID: 2, Master: false, Name: "bea"},
		RoomPlayerListEnd{RoomID: 1, Count: 2},
		RoomPlayerJoined{PlayerID: 2, Name: "bea"},
		RoomPlayerDisconnected{PlayerID: 2},
		RoomPlayerReady{PlayerID: 2, Slot: 2},
		RoundStart{RoomID: 1, Player1ID: 1, Player2ID: 2, Seconds: 10},
		RoundEnd{RoomID: 1},
		RoundCanceled{RoomID: 1},
		RoomDestroyed{RoomID: 1},
		Winner{RoomID: 1, Winner: 0, PlayerID: -1},
		TimeUpdate{RoomID: 1, Seconds: 0},
		StateUpdate{RoomID: 1, State: -1},
		SelectionUpdate{PlayerID: 2, Selection: 1},
	}

	groups := []struct {
		name   string
		cases  []Message
		table  map[Opcode]func(*Reader) Message
		decode func([]byte) (Message, error)
	}{
		{name: "requests", cases: requestCases, table: requests, decode: DecodeRequest},
		{name: "events", cases: eventCases, table: events, decode: Decode},
	}

	for _, g := range groups {
		seen := map[Opcode]bool{}
		for _, want := range g.cases {
			t.Run(g.name+"/"+want.Opcode().String(), func(t *testing.T) {
				b, err := Encode(want)
				require.NoError(t, err)
				require.Len(t, b, FrameSize)

				got, err := g.decode(b)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			})
			seen[want.Opcode()] = true
		}
		for op := range g.table {
			assert.Truef(t, seen[op], "no %s round-trip case for %s", g.name, op)
		}
	}
}

func TestDecode_SharedOpcodeDependsOnDirection(t *testing.T) {
	b, err := Encode(StartRound{PlayerID: 4, RoomID: 9})
	require.NoError(t, err)

	req, err := DecodeRequest(b)
	require.NoError(t, err)
	assert.Equal(t, StartRound{PlayerID: 4, RoomID: 9}, req)

	ev, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, RoundStart{RoomID: 4, Player1ID: 9}, ev)

	// a response opcode is not a request
	b, err = Encode(Registered{PlayerID: 1})
	require.NoError(t, err)
	req, err = DecodeRequest(b)
	require.NoError(t, err)
	assert.Equal(t, Unknown{Op: OpRegistered}, req)
}

func TestEncode_LayoutIsBigEndianAndZeroPadded(t *testing.T) {
	b, err := Encode(RoomPlayerJoined{PlayerID: 258, Name: "ab"})
	require.NoError(t, err)

	assert.Equal(t, []byte{0, 0, 0, 211}, b[0:4])
	assert.Equal(t, []byte{0, 0, 1, 2}, b[4:8])
	assert.Equal(t, []byte("ab"), b[8:10])
	assert.Equal(t, make([]byte, FrameSize-10), b[10:])
}

func TestStringFields_Boundaries(t *testing.T) {
	cases := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{name: "name at limit", msg: SetName{Name: strings.Repeat("n", NameLen)}},
		{name: "name over limit", msg: SetName{Name: strings.Repeat("n", NameLen+1)}, wantErr: true},
		{name: "empty name", msg: SetName{Name: ""}},
		{name: "message at limit", msg: JoinRoomFail{Message: strings.Repeat("m", MessageLen)}},
		{name: "message over limit", msg: JoinRoomFail{Message: strings.Repeat("m", MessageLen+1)}, wantErr: true},
		{name: "multibyte name at limit", msg: SetName{Name: strings.Repeat("é", NameLen/2)}},
		{name: "multibyte name over limit", msg: SetName{Name: strings.Repeat("é", NameLen/2) + "x"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Encode(tc.msg)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrFieldTooLong))
				return
			}
			require.NoError(t, err)
			decode := DecodeRequest
			if tc.msg.Opcode() == OpJoinRoomFail {
				decode = Decode
			}
			got, err := decode(b)
			require.NoError(t, err)
			assert.Equal(t, tc.msg, got)
		})
	}
}

func TestStringField_FollowingFieldStartsAtFixedOffset(t *testing.T) {
	b, err := Encode(RoomInfo{RoomID: 1, Name: "x", Members: 5, MasterID: 6, State: 1})
	require.NoError(t, err)

	// opcode + roomId + 32-byte name
	assert.Equal(t, []byte{0, 0, 0, 5}, b[4+4+NameLen:4+4+NameLen+4])
}

func TestDecode_UnknownOpcodeIsNotAnError(t *testing.T) {
	w := NewWriter(Opcode(4242))
	w.PutInt(1)
	b, err := w.Bytes()
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, Unknown{Op: 4242}, got)
	assert.False(t, Opcode(4242).Known())
	assert.True(t, OpSetName.Known())
}

func TestDecode_RejectsWrongSize(t *testing.T) {
	_, err := Decode(make([]byte, FrameSize-1))
	assert.True(t, errors.Is(err, ErrFrameSize))
}

func TestWriter_RejectsOverflow(t *testing.T) {
	w := NewWriter(OpError)
	for i := 0; i < FrameSize/4; i++ {
		w.PutInt(1)
	}
	_, err := w.Bytes()
	assert.True(t, errors.Is(err, ErrFrameOverflow))
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Registered{PlayerID: 3}))
	require.NoError(t, WriteFrame(&buf, RoomDestroyed{RoomID: 8}))
	require.Equal(t, 2*FrameSize, buf.Len())

	first, err := ReadFrame(&buf)
	require.NoError(t, err)
	m, err := Decode(first)
	require.NoError(t, err)
	assert.Equal(t, Registered{PlayerID: 3}, m)

	second, err := ReadFrame(&buf)
	require.NoError(t, err)
	m, err = Decode(second)
	require.NoError(t, err)
	assert.Equal(t, RoomDestroyed{RoomID: 8}, m)

	_, err = ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrame_ShortRead(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(make([]byte, 100)))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
