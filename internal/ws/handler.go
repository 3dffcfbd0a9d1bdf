package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/drawguess-backend/internal/types"
)

// Actions is the session side of a connection.
type Actions interface {
	Handle(ctx context.Context, connID string, msg types.ClientMessage)
	Disconnect(connID string)
}

type Options struct {
	// OriginPatterns is passed to websocket.Accept; empty means same origin.
	OriginPatterns []string
	ReadLimit      int64
	MessageRate    float64
	MessageBurst   int
	OutboxSize     int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32 << 10
	}
	if o.MessageRate <= 0 {
		o.MessageRate = 50
	}
	if o.MessageBurst <= 0 {
		o.MessageBurst = 100
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 256
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	return o
}

func Handler(a Actions, clients *Clients, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			clients.log.Debug("websocket accept", zap.Error(err))
			return
		}
		defer conn.CloseNow()
		conn.SetReadLimit(opts.ReadLimit)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		id := uuid.NewString()
		log := clients.log.With(zap.String("conn", id))
		c := clients.add(id, opts.OutboxSize, func() {
			log.Info("dropping slow client")
			cancel()
			_ = conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages")
		})
		defer clients.remove(id)
		defer a.Disconnect(id)

		// Writer goroutine
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case payload := <-c.out:
					wctx, wcancel := context.WithTimeout(ctx, opts.WriteTimeout)
					err := conn.Write(wctx, websocket.MessageText, payload)
					wcancel()
					if err != nil {
						log.Debug("write failed", zap.Error(err))
						cancel()
						return
					}
				}
			}
		}()

		// Keepalive; Ping needs the reader loop below to be running.
		go func() {
			t := time.NewTicker(opts.PingInterval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					pctx, pcancel := context.WithTimeout(ctx, opts.WriteTimeout)
					err := conn.Ping(pctx)
					pcancel()
					if err != nil {
						log.Debug("ping failed", zap.Error(err))
						cancel()
						return
					}
				}
			}
		}()

		clients.Send(id, types.ServerMessage{Type: types.EvtConnected, ParticipantID: id})
		log.Debug("client connected")

		limiter := rate.NewLimiter(rate.Limit(opts.MessageRate), opts.MessageBurst)

		// Reader loop
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Debug("client disconnected")
				default:
					log.Debug("read failed", zap.Error(err))
				}
				return
			}
			if !limiter.Allow() {
				clients.Send(id, errorMessage(types.CodeRateLimited, "too many messages"))
				continue
			}
			if typ != websocket.MessageText {
				clients.Send(id, errorMessage(types.CodeBadRequest, "expected a text message"))
				continue
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				clients.Send(id, errorMessage(types.CodeBadRequest, "bad json"))
				continue
			}
			a.Handle(ctx, id, cm)
		}
	}
}

func errorMessage(code, msg string) types.ServerMessage {
	return types.ServerMessage{Type: types.EvtError, Code: code, Error: msg}
}
