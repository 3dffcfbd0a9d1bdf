package session

import (
	"github.com/DoyleJ11/drawguess-backend/internal/engine"
	"github.com/DoyleJ11/drawguess-backend/internal/types"
)

// Transport delivers events to connections. Send to an unknown or closed
// connection is silently dropped.
type Transport interface {
	Send(connID string, msg types.ServerMessage)
	Broadcast(msg types.ServerMessage)
}

type recipientKind int

const (
	unicast recipientKind = iota
	multicast
	everyone
)

// Recipients is resolved when it is built, so a room set reflects the
// membership at the moment the event was produced.
type Recipients struct {
	kind recipientKind
	ids  []string
}

func To(connID string) Recipients {
	return Recipients{kind: unicast, ids: []string{connID}}
}

// RoomExcept addresses every current member of r other than except.
func RoomExcept(r *engine.Room, except string) Recipients {
	ids := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p.ID != except {
			ids = append(ids, p.ID)
		}
	}
	return Recipients{kind: multicast, ids: ids}
}

func RoomAll(r *engine.Room) Recipients { return RoomExcept(r, "") }

func Everyone() Recipients { return Recipients{kind: everyone} }

func (rc Recipients) IDs() []string { return rc.ids }

func (rc Recipients) deliver(t Transport, msg types.ServerMessage) {
	if rc.kind == everyone {
		t.Broadcast(msg)
		return
	}
	for _, id := range rc.ids {
		t.Send(id, msg)
	}
}
