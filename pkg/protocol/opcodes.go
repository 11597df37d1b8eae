package protocol

import "strconv"

type Opcode int32

// Client -> Server requests
const (
	OpDisconnect       Opcode = 11
	OpCreateRoom       Opcode = 22
	OpDestroyRoom      Opcode = 26
	OpSetName          Opcode = 64
	OpJoinRoom         Opcode = 88
	OpLeaveRoom        Opcode = 94
	OpQueryRooms       Opcode = 101
	OpSetReady         Opcode = 215
	OpQueryRoomPlayers Opcode = 221
	OpStartRound       Opcode = 231
	OpSelect           Opcode = 311
)

// Server -> Client responses
const (
	OpInvalidCommand     Opcode = 1
	OpError              Opcode = 3
	OpDisconnectNotice   Opcode = 13
	OpCreateRoomSuccess  Opcode = 24
	OpDestroyRoomSuccess Opcode = 28
	OpRegistered         Opcode = 62
	OpJoinRoomSuccess    Opcode = 90
	OpJoinRoomFail       Opcode = 92
	OpLeaveRoomSuccess   Opcode = 96
	OpRoomInfo           Opcode = 103
	OpRoomListEnd        Opcode = 105
	OpRoomPlayerInfo     Opcode = 223
	OpRoomPlayerListEnd  Opcode = 225
)

// Server -> Room broadcasts
const (
	OpRoomPlayerJoined       Opcode = 211
	OpRoomPlayerDisconnected Opcode = 213
	OpRoomPlayerReady        Opcode = 217
	OpRoundStart             Opcode = 231 // same value as the start-round request
	OpRoundEnd               Opcode = 233
	OpRoundCanceled          Opcode = 239
	OpRoomDestroyed          Opcode = 299
	OpWinner                 Opcode = 313
	OpTimeUpdate             Opcode = 355
	OpStateUpdate            Opcode = 357
	OpSelectionUpdate        Opcode = 359
)

var opNames = map[Opcode]string{
	OpDisconnect:             "disconnect",
	OpCreateRoom:             "create-room",
	OpDestroyRoom:            "destroy-room",
	OpSetName:                "set-name",
	OpJoinRoom:               "join-room",
	OpLeaveRoom:              "leave-room",
	OpQueryRooms:             "query-rooms",
	OpSetReady:               "set-ready",
	OpQueryRoomPlayers:       "query-room-players",
	OpStartRound:             "start-round",
	OpSelect:                 "select",
	OpInvalidCommand:         "invalid-command",
	OpError:                  "error",
	OpDisconnectNotice:       "disconnect-notice",
	OpCreateRoomSuccess:      "create-room-success",
	OpDestroyRoomSuccess:     "destroy-room-success",
	OpRegistered:             "registered",
	OpJoinRoomSuccess:        "join-room-success",
	OpJoinRoomFail:           "join-room-fail",
	OpLeaveRoomSuccess:       "leave-room-success",
	OpRoomInfo:               "room-info",
	OpRoomListEnd:            "room-list-end",
	OpRoomPlayerInfo:         "room-player-info",
	OpRoomPlayerListEnd:      "room-player-list-end",
	OpRoomPlayerJoined:       "room-player-joined",
	OpRoomPlayerDisconnected: "room-player-disconnected",
	OpRoomPlayerReady:        "room-player-ready",
	OpRoundEnd:               "round-end",
	OpRoundCanceled:          "round-canceled",
	OpRoomDestroyed:          "room-destroyed",
	OpWinner:                 "winner",
	OpTimeUpdate:             "time-update",
	OpStateUpdate:            "state-update",
	OpSelectionUpdate:        "selection-update",
}

func (o Opcode) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "opcode(" + strconv.Itoa(int(o)) + ")"
}

// Known reports whether o is part of the opcode table in either direction.
func (o Opcode) Known() bool {
	_, req := requests[o]
	_, ev := events[o]
	return req || ev
}
