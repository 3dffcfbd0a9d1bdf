package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/drawguess-backend/internal/engine"
)

// Rooms is the read side of the room registry.
type Rooms interface {
	ListPublicRooms(ctx context.Context) ([]engine.RoomSummary, error)
}

func ListRooms(rooms Rooms, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := rooms.ListPublicRooms(r.Context())
		if err != nil {
			log.Warn("list public rooms", zap.Error(err))
			http.Error(w, "rooms unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Rooms []engine.RoomSummary `json:"rooms"`
		}{Rooms: list})
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
