package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/drawguess-backend/internal/archive"
	"github.com/DoyleJ11/drawguess-backend/internal/engine"
	"github.com/DoyleJ11/drawguess-backend/internal/hub"
	"github.com/DoyleJ11/drawguess-backend/internal/types"
)

// Archiver durably records a completed round. Failures are logged and never
// reach game state.
type Archiver interface {
	Archive(ctx context.Context, rec archive.Record) (string, error)
}

type Config struct {
	Archiver       Archiver
	ArchiveTimeout time.Duration
	Logger         *zap.Logger
}

// Coordinator turns inbound actions into registry and lobby calls and fans the
// resulting events out to the right connections. Connection ids double as
// participant ids.
type Coordinator struct {
	hub       *hub.Hub
	transport Transport
	archiver  Archiver
	timeout   time.Duration
	log       *zap.Logger

	ctx context.Context

	// archiveMu orders archives.Add against Wait; once closed is set no new
	// archival starts.
	archiveMu sync.Mutex
	closed    bool
	archives  sync.WaitGroup
}

func NewCoordinator(ctx context.Context, h *hub.Hub, t Transport, cfg Config) (*Coordinator, error) {
	if cfg.Archiver == nil {
		cfg.Archiver = archive.Nop{}
	}
	if cfg.ArchiveTimeout <= 0 {
		cfg.ArchiveTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	c := &Coordinator{
		hub:       h,
		transport: t,
		archiver:  cfg.Archiver,
		timeout:   cfg.ArchiveTimeout,
		log:       cfg.Logger,
		ctx:       ctx,
	}
	if err := h.SetPublisher(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Handle routes one inbound message. Failures are reported to connID as
// Error events; nothing is returned.
func (c *Coordinator) Handle(ctx context.Context, connID string, msg types.ClientMessage) {
	var err error
	switch msg.Type {
	case types.MsgCreateRoom:
		err = c.CreateRoom(ctx, connID, msg.Name, msg.IsPrivate, participantInfo(msg.Participant))
	case types.MsgJoinRoom:
		err = c.JoinRoom(ctx, connID, msg.RoomID, participantInfo(msg.Participant))
	case types.MsgLeaveRoom:
		err = c.LeaveRoom(ctx, connID)
	case types.MsgStartRound:
		err = c.StartRound(ctx, connID, msg.RoomID, msg.Word)
	case types.MsgStroke:
		if msg.Stroke == nil {
			c.reject(connID, msg.Type, types.CodeBadRequest, "missing drawingData")
			return
		}
		err = c.Stroke(ctx, connID, msg.RoomID, *msg.Stroke)
	case types.MsgGuess:
		err = c.Guess(ctx, connID, msg.RoomID, msg.Text)
	case types.MsgListPublicRooms:
		err = c.ListPublicRooms(ctx, connID)
	default:
		c.reject(connID, msg.Type, types.CodeBadRequest, "unknown message type")
		return
	}
	if err != nil {
		c.report(connID, msg.Type, err)
	}
}

func (c *Coordinator) CreateRoom(ctx context.Context, connID, name string, private bool, info types.ParticipantInfo) error {
	if err := c.leaveIfMember(ctx, connID); err != nil {
		return err
	}

	p := participant(connID, info)
	vis := engine.Public
	if private {
		vis = engine.Private
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = p.Name + "'s room"
	}

	lb, err := c.hub.CreateRoom(ctx, name, vis, p)
	if err != nil {
		return err
	}
	view, err := lb.State(ctx, connID)
	if err != nil {
		return err
	}
	To(connID).deliver(c.transport, types.ServerMessage{Type: types.EvtRoomCreated, RoomID: lb.ID(), Room: &view.Room})

	if vis == engine.Public {
		c.broadcastPublicRooms(ctx)
	}
	return nil
}

// JoinRoom leaves the current room first. Joining the room one is already in
// is rejected rather than bouncing through an empty room.
func (c *Coordinator) JoinRoom(ctx context.Context, connID, roomID string, info types.ParticipantInfo) error {
	code := normalizeCode(roomID)
	if cur, err := c.hub.RoomOf(ctx, connID); err == nil && cur.ID() == code {
		return engine.ErrAlreadyMember
	}
	if err := c.leaveIfMember(ctx, connID); err != nil {
		return err
	}

	// RoomJoined and ParticipantJoined go out from Publish inside the lobby.
	lb, err := c.hub.JoinRoom(ctx, code, participant(connID, info))
	if err != nil {
		return err
	}
	c.log.Debug("room joined", zap.String("room", code), zap.String("participant", connID))
	if lb.Visibility() == engine.Public {
		c.broadcastPublicRooms(ctx)
	}
	return nil
}

func (c *Coordinator) LeaveRoom(ctx context.Context, connID string) error {
	out, err := c.hub.LeaveRoom(ctx, connID)
	if err != nil {
		return err
	}
	// A deleted room is not announced; the next listing simply omits it.
	if !out.Deleted && out.Lobby.Visibility() == engine.Public {
		c.broadcastPublicRooms(ctx)
	}
	return nil
}

// Disconnect is a leave that outlives the connection's own context.
func (c *Coordinator) Disconnect(connID string) {
	if err := c.LeaveRoom(c.ctx, connID); err != nil && !errors.Is(err, engine.ErrNoOp) {
		c.log.Debug("leave on disconnect", zap.String("participant", connID), zap.Error(err))
	}
}

func (c *Coordinator) StartRound(ctx context.Context, connID, roomID, word string) error {
	lb, err := c.hub.Room(ctx, normalizeCode(roomID))
	if err != nil {
		return err
	}
	return lb.StartRound(ctx, connID, word)
}

// Stroke never reports an error to the sender; strokes for a missing room or
// from a non-drawer are dropped.
func (c *Coordinator) Stroke(ctx context.Context, connID, roomID string, ev engine.StrokeEvent) error {
	lb, err := c.hub.Room(ctx, normalizeCode(roomID))
	if err == nil {
		err = lb.Stroke(ctx, connID, ev)
	}
	if err != nil {
		c.log.Debug("stroke dropped", zap.String("room", roomID), zap.String("participant", connID), zap.Error(err))
	}
	return nil
}

func (c *Coordinator) Guess(ctx context.Context, connID, roomID, text string) error {
	lb, err := c.hub.Room(ctx, normalizeCode(roomID))
	if err != nil {
		return err
	}
	_, err = lb.Guess(ctx, connID, text)
	return err
}

func (c *Coordinator) ListPublicRooms(ctx context.Context, connID string) error {
	rooms, err := c.hub.ListPublicRooms(ctx)
	if err != nil {
		return err
	}
	To(connID).deliver(c.transport, types.ServerMessage{Type: types.EvtPublicRoomsSnapshot, Rooms: rooms})
	return nil
}

// Wait stops new archival and blocks until in-flight archival finishes or ctx
// is done. Rounds ending after Wait is called are not archived.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.archiveMu.Lock()
	c.closed = true
	c.archiveMu.Unlock()

	done := make(chan struct{})
	go func() {
		c.archives.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) leaveIfMember(ctx context.Context, connID string) error {
	if err := c.LeaveRoom(ctx, connID); err != nil && !errors.Is(err, engine.ErrNoOp) {
		return err
	}
	return nil
}

func (c *Coordinator) broadcastPublicRooms(ctx context.Context) {
	rooms, err := c.hub.ListPublicRooms(ctx)
	if err != nil {
		c.log.Warn("list public rooms", zap.Error(err))
		return
	}
	Everyone().deliver(c.transport, types.ServerMessage{Type: types.EvtPublicRoomsChanged, Rooms: rooms})
}

// report turns err into an Error event for connID. NoOp stays silent.
func (c *Coordinator) report(connID, action string, err error) {
	switch engine.Kind(err) {
	case engine.ErrNoOp:
		c.log.Debug("no-op action", zap.String("action", action), zap.String("participant", connID))
	case engine.ErrNotFound:
		c.reject(connID, action, types.CodeNotFound, err.Error())
	case engine.ErrFull:
		c.reject(connID, action, types.CodeFull, err.Error())
	case engine.ErrRejected:
		c.reject(connID, action, types.CodeRejected, err.Error())
	default:
		c.log.Warn("action failed", zap.String("action", action), zap.String("participant", connID), zap.Error(err))
		c.reject(connID, action, types.CodeUnavailable, "server unavailable")
	}
}

func (c *Coordinator) reject(connID, action, code, message string) {
	To(connID).deliver(c.transport, types.ServerMessage{Type: types.EvtError, Action: action, Code: code, Error: message})
}

func participantInfo(p *types.ParticipantInfo) types.ParticipantInfo {
	if p == nil {
		return types.ParticipantInfo{}
	}
	return *p
}

func participant(connID string, info types.ParticipantInfo) engine.Participant {
	name := strings.TrimSpace(info.DisplayName)
	if name == "" {
		name = "Player"
	}
	return engine.Participant{ID: connID, Identity: strings.TrimSpace(info.Identity), Name: name}
}

func normalizeCode(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}
