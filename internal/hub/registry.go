package hub

import (
	"context"
	"errors"

	"github.com/DoyleJ11/drawguess-backend/internal/engine"
	"github.com/DoyleJ11/drawguess-backend/internal/lobby"
)

// LeaveOutcome tells the caller whether it can still broadcast into the room.
type LeaveOutcome struct {
	Code    string
	Lobby   *lobby.Lobby
	Deleted bool
}

var ErrHubStopped = errors.New("hub stopped")

func ask[T any](ctx context.Context, h *Hub, msg HubMsg, reply chan T) (T, error) {
	var zero T
	select {
	case h.inbox <- msg:
	case <-h.ctx.Done():
		return zero, ErrHubStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-h.ctx.Done():
		return zero, ErrHubStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// SetPublisher must be called before the first room is created.
func (h *Hub) SetPublisher(ctx context.Context, p lobby.Publisher) error {
	select {
	case h.inbox <- SetPublisher{Publisher: p}:
		return nil
	case <-h.ctx.Done():
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateRoom allocates a fresh code and seats creator as the only member.
func (h *Hub) CreateRoom(ctx context.Context, name string, vis engine.Visibility, creator engine.Participant) (*lobby.Lobby, error) {
	reply := make(chan createResult, 1)
	res, err := ask(ctx, h, CreateRoom{Name: name, Visibility: vis, Creator: creator, Reply: reply}, reply)
	if err != nil {
		return nil, err
	}
	return res.lobby, res.err
}

func (h *Hub) Room(ctx context.Context, code string) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	lb, err := ask(ctx, h, GetRoom{Code: code, Reply: reply}, reply)
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, engine.ErrRoomNotFound
	}
	return lb, nil
}

func (h *Hub) RoomOf(ctx context.Context, participantID string) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	lb, err := ask(ctx, h, RoomOf{ParticipantID: participantID, Reply: reply}, reply)
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, engine.ErrNotInRoom
	}
	return lb, nil
}

// JoinRoom seats p in room code. It does not clear an earlier membership of
// p; callers leave first.
func (h *Hub) JoinRoom(ctx context.Context, code string, p engine.Participant) (*lobby.Lobby, error) {
	lb, err := h.Room(ctx, code)
	if err != nil {
		return nil, err
	}
	// From here on the lobby and the index must end up agreeing, so a
	// cancelled caller no longer stops the commit. The lobby and the hub
	// still bail out when they stop.
	ctx = context.WithoutCancel(ctx)
	if err := lb.Join(ctx, p); err != nil {
		return nil, err
	}
	reply := make(chan struct{})
	if _, err := ask(ctx, h, IndexMember{ParticipantID: p.ID, Code: code, Reply: reply}, reply); err != nil {
		return nil, err
	}
	return lb, nil
}

// LeaveRoom removes participantID from whatever room it is in. When that
// empties the room, the room is deleted and Deleted is set.
func (h *Hub) LeaveRoom(ctx context.Context, participantID string) (LeaveOutcome, error) {
	lb, err := h.RoomOf(ctx, participantID)
	if err != nil {
		return LeaveOutcome{}, err
	}
	// Same as JoinRoom: an emptied room has to be removed even if the caller
	// is gone.
	ctx = context.WithoutCancel(ctx)
	res, leaveErr := lb.Leave(ctx, participantID)

	reply := make(chan struct{})
	if _, err := ask(ctx, h, UnindexMember{ParticipantID: participantID, Reply: reply}, reply); err != nil {
		return LeaveOutcome{}, err
	}
	if leaveErr != nil {
		if errors.Is(leaveErr, engine.ErrNotFound) {
			return LeaveOutcome{}, engine.ErrNotInRoom
		}
		return LeaveOutcome{}, leaveErr
	}

	out := LeaveOutcome{Code: lb.ID(), Lobby: lb}
	if res.Empty {
		reply := make(chan struct{})
		if _, err := ask(ctx, h, RemoveRoom{Code: lb.ID(), Reply: reply}, reply); err != nil {
			return LeaveOutcome{}, err
		}
		out.Lobby = nil
		out.Deleted = true
	}
	return out, nil
}

// ListPublicRooms returns the lobby listing, oldest room first.
func (h *Hub) ListPublicRooms(ctx context.Context) ([]engine.RoomSummary, error) {
	reply := make(chan []engine.RoomSummary, 1)
	return ask(ctx, h, ListPublic{Reply: reply}, reply)
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}
