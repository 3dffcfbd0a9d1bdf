package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/drawguess-backend/internal/types"
)

type client struct {
	id   string
	out  chan []byte
	once sync.Once
	kick func()
}

// enqueue never blocks. A client whose outbox is full is kicked, since a
// lobby goroutine is on the other end of this call.
func (c *client) enqueue(payload []byte) {
	select {
	case c.out <- payload:
	default:
		c.once.Do(func() { go c.kick() })
	}
}

// Clients is the set of live connections. It implements session.Transport.
type Clients struct {
	mu    sync.RWMutex
	conns map[string]*client
	log   *zap.Logger
}

func NewClients(log *zap.Logger) *Clients {
	if log == nil {
		log = zap.NewNop()
	}
	return &Clients{conns: make(map[string]*client), log: log}
}

func (cs *Clients) add(id string, outbox int, kick func()) *client {
	c := &client{id: id, out: make(chan []byte, outbox), kick: kick}
	cs.mu.Lock()
	cs.conns[id] = c
	cs.mu.Unlock()
	return c
}

func (cs *Clients) remove(id string) {
	cs.mu.Lock()
	delete(cs.conns, id)
	cs.mu.Unlock()
}

func (cs *Clients) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.conns)
}

func (cs *Clients) Send(connID string, msg types.ServerMessage) {
	cs.mu.RLock()
	c := cs.conns[connID]
	cs.mu.RUnlock()
	if c == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		cs.log.Warn("encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	c.enqueue(payload)
}

func (cs *Clients) Broadcast(msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		cs.log.Warn("encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for _, c := range cs.conns {
		c.enqueue(payload)
	}
}
