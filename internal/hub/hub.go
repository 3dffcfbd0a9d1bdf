package hub

import (
	"context"
	"crypto/rand"
	"math/big"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/drawguess-backend/internal/engine"
	"github.com/DoyleJ11/drawguess-backend/internal/lobby"
)

const (
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength  = 6
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Name       string
	Visibility engine.Visibility
	Creator    engine.Participant
	Reply      chan createResult
}

type GetRoom struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RoomOf struct {
	ParticipantID string
	Reply         chan *lobby.Lobby
}

type IndexMember struct {
	ParticipantID string
	Code          string
	Reply         chan struct{}
}

type UnindexMember struct {
	ParticipantID string
	Reply         chan struct{}
}

type RemoveRoom struct {
	Code  string
	Reply chan struct{}
}

type UpdateSummary struct {
	Summary engine.RoomSummary
}

type ListPublic struct {
	Reply chan []engine.RoomSummary
}

type SetPublisher struct {
	Publisher lobby.Publisher
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()    {}
func (GetRoom) isHubMsg()       {}
func (RoomOf) isHubMsg()        {}
func (IndexMember) isHubMsg()   {}
func (UnindexMember) isHubMsg() {}
func (RemoveRoom) isHubMsg()    {}
func (UpdateSummary) isHubMsg() {}
func (ListPublic) isHubMsg()    {}
func (SetPublisher) isHubMsg()  {}
func (ShutdownHub) isHubMsg()   {}

type createResult struct {
	lobby *lobby.Lobby
	err   error
}

type Config struct {
	RoundDuration time.Duration
	Logger        *zap.Logger
	Now           func() time.Time
}

// Hub is the room registry. Its goroutine owns the code -> lobby map, the
// participant -> code index and the lobby listing; each room's own state
// lives in its lobby goroutine.
type Hub struct {
	inbox     chan HubMsg
	lobbies   map[string]*lobby.Lobby
	members   map[string]string
	summaries map[string]engine.RoomSummary
	publisher lobby.Publisher
	cfg       Config
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewHub(parent context.Context, cfg Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	h := &Hub{
		inbox:     make(chan HubMsg, 64),
		lobbies:   make(map[string]*lobby.Lobby),
		members:   make(map[string]string),
		summaries: make(map[string]engine.RoomSummary),
		cfg:       cfg,
		log:       cfg.Logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				lb, err := h.createRoom(msg)
				msg.Reply <- createResult{lobby: lb, err: err}

			case GetRoom:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case RoomOf:
				msg.Reply <- h.lobbies[h.members[msg.ParticipantID]]

			case IndexMember:
				if _, ok := h.lobbies[msg.Code]; ok {
					h.members[msg.ParticipantID] = msg.Code
				}
				close(msg.Reply)

			case UnindexMember:
				delete(h.members, msg.ParticipantID)
				close(msg.Reply)

			case RemoveRoom:
				h.removeRoom(msg.Code)
				close(msg.Reply)

			case UpdateSummary:
				// Late updates from a room that is already gone are dropped.
				if _, ok := h.lobbies[msg.Summary.ID]; ok {
					h.summaries[msg.Summary.ID] = msg.Summary
				}

			case ListPublic:
				msg.Reply <- h.publicSummaries()

			case SetPublisher:
				h.publisher = msg.Publisher

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) createRoom(msg CreateRoom) (*lobby.Lobby, error) {
	var code string
	for {
		c, err := generateCode()
		if err != nil {
			return nil, err
		}
		if _, taken := h.lobbies[c]; !taken {
			code = c
			break
		}
		h.log.Debug("collision on room code, regenerating", zap.String("code", c))
	}

	room := engine.NewRoom(code, msg.Name, msg.Visibility, msg.Creator, h.cfg.Now())
	lb := lobby.NewLobby(h.ctx, room, lobby.Config{
		RoundDuration: h.cfg.RoundDuration,
		Publisher:     h.publisher,
		Summaries:     h,
		Logger:        h.log.Named("lobby"),
		Now:           h.cfg.Now,
	})
	h.lobbies[code] = lb
	h.summaries[code] = engine.Summarize(room)
	h.members[msg.Creator.ID] = code
	h.log.Info("room created", zap.String("room", code), zap.String("visibility", string(msg.Visibility)))
	return lb, nil
}

func (h *Hub) removeRoom(code string) {
	lb, ok := h.lobbies[code]
	if !ok {
		return
	}
	delete(h.lobbies, code)
	delete(h.summaries, code)
	for pid, c := range h.members {
		if c == code {
			delete(h.members, pid)
		}
	}
	select {
	case lb.Inbox() <- lobby.Shutdown{}:
	default: // already stopped when it emptied
	}
	h.log.Info("room deleted", zap.String("room", code))
}

func (h *Hub) publicSummaries() []engine.RoomSummary {
	out := make([]engine.RoomSummary, 0, len(h.summaries))
	for _, s := range h.summaries {
		if s.Visibility == engine.Public {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b engine.RoomSummary) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		default:
		}
	}
	clear(h.lobbies)
	clear(h.members)
	clear(h.summaries)
	h.cancel()
}

// UpdateSummary implements lobby.SummarySink.
func (h *Hub) UpdateSummary(s engine.RoomSummary) {
	select {
	case h.inbox <- UpdateSummary{Summary: s}:
	case <-h.ctx.Done():
	}
}

func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// Swapped out in tests to force collisions.
var generateCode = GenerateCode
