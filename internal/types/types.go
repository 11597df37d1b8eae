package types

import "github.com/DoyleJ11/jankenpon-server/internal/lobby"

type PlayerView struct {
	ID     int32  `json:"id"`
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Master bool   `json:"master"`
}

type RoomView struct {
	ID       int32        `json:"id"`
	Name     string       `json:"name"`
	MasterID int32        `json:"masterId"`
	State    string       `json:"state"` // "waiting" | "playing"
	Members  []PlayerView `json:"members"`
}

func NewRoomView(info lobby.Info) RoomView {
	v := RoomView{
		ID:       info.ID,
		Name:     info.Name,
		MasterID: info.MasterID,
		State:    info.State.String(),
		Members:  make([]PlayerView, 0, len(info.Members)),
	}
	for _, m := range info.Members {
		v.Members = append(v.Members, PlayerView{ID: m.ID, Name: m.Name, Ready: m.Ready, Master: m.Master})
	}
	return v
}

type Stats struct {
	Players int `json:"players"`
	Rooms   int `json:"rooms"`
}
