package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/DoyleJ11/jankenpon-server/internal/hub"
	"github.com/DoyleJ11/jankenpon-server/internal/types"
)

func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := h.Rooms()
		views := make([]types.RoomView, 0, len(rooms))
		for _, room := range rooms {
			views = append(views, types.NewRoomView(room.Info()))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func Stats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.Stats{Players: h.NumPlayers(), Rooms: len(h.Rooms())})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
