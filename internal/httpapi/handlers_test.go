package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/drawguess-backend/internal/engine"
)

type stubRooms struct {
	rooms []engine.RoomSummary
	err   error
}

func (s stubRooms) ListPublicRooms(context.Context) ([]engine.RoomSummary, error) {
	return s.rooms, s.err
}

func TestHealthz(t *testing.T) {
	srv := SetupRoutes(Deps{Rooms: stubRooms{}})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListRooms(t *testing.T) {
	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	rooms := []engine.RoomSummary{
		{ID: "ABC123", Name: "doodles", Visibility: engine.Public, PlayerCount: 2, MaxPlayers: 8, CreatedAt: created},
	}
	srv := SetupRoutes(Deps{Rooms: stubRooms{rooms: rooms}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Rooms []engine.RoomSummary `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	want := []engine.RoomSummary{{ID: "ABC123", Name: "doodles", PlayerCount: 2, MaxPlayers: 8, CreatedAt: created}}
	if diff := cmp.Diff(want, body.Rooms); diff != "" {
		t.Fatalf("rooms mismatch (-want +got):\n%s", diff)
	}
}

func TestListRooms_Unavailable(t *testing.T) {
	srv := SetupRoutes(Deps{Rooms: stubRooms{err: errors.New("hub stopped")}})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
