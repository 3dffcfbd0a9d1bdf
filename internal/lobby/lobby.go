package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/drawguess-backend/internal/engine"
)

// Publisher fans events out to connections. It is called from the lobby
// goroutine, so it may read r but must not retain it.
type Publisher interface {
	Publish(r *engine.Room, events []engine.Event)
}

// SummarySink receives the lobby listing entry after every change that could
// affect it.
type SummarySink interface {
	UpdateSummary(s engine.RoomSummary)
}

type Msg interface{ isLobbyMsg() }

type Join struct {
	Participant engine.Participant
	Reply       chan error
}

func (Join) isLobbyMsg() {}

type Leave struct {
	ParticipantID string
	Reply         chan LeaveResult
}

func (Leave) isLobbyMsg() {}

type StartRound struct {
	SenderID string
	Word     string
	Reply    chan error
}

func (StartRound) isLobbyMsg() {}

// Stroke is fire-and-forget; nobody waits for it.
type Stroke struct {
	SenderID string
	Stroke   engine.StrokeEvent
}

func (Stroke) isLobbyMsg() {}

type Guess struct {
	SenderID string
	Text     string
	Reply    chan GuessResult
}

func (Guess) isLobbyMsg() {}

// TimerFired is posted by the round timer. RoundID ties it to the round that
// armed it.
type TimerFired struct{ RoundID string }

func (TimerFired) isLobbyMsg() {}

type GetState struct {
	ViewerID string
	Reply    chan View
}

func (GetState) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type LeaveResult struct {
	Empty bool
	Err   error
}

type GuessResult struct {
	Outcome engine.Outcome
	Err     error
}

type View struct {
	Room    engine.RoomView
	Summary engine.RoomSummary
	Round   *engine.Round
}

type Config struct {
	RoundDuration time.Duration
	Publisher     Publisher
	Summaries     SummarySink
	Logger        *zap.Logger
	Now           func() time.Time
}

type Lobby struct {
	inbox  chan Msg
	room   *engine.Room
	cfg    Config
	timer  *time.Timer
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewLobby(parent context.Context, room *engine.Room, cfg Config) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RoundDuration <= 0 {
		cfg.RoundDuration = engine.DefaultRoundDuration
	}

	l := &Lobby{
		inbox:  make(chan Msg, 64),
		room:   room,
		cfg:    cfg,
		log:    cfg.Logger.With(zap.String("room", room.ID)),
		ctx:    ctx,
		cancel: cancel,
	}

	go l.loop()
	return l
}

// ID and Visibility never change after creation, so reading them outside
// the lobby goroutine is safe.
func (l *Lobby) ID() string { return l.room.ID }

func (l *Lobby) Visibility() engine.Visibility { return l.room.Visibility }

// Expose the inbox so tests or the timer can post messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the lobby stops, either because it emptied or was shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				events, err := engine.Join(l.room, msg.Participant)
				if err == nil {
					l.publish(events)
					l.summarize()
				}
				msg.Reply <- err

			case Leave:
				events, err := engine.Leave(l.room, msg.ParticipantID, l.cfg.Now())
				if err != nil {
					msg.Reply <- LeaveResult{Err: err}
					break
				}
				if l.room.Empty() {
					// Nobody left to tell, but a round the drawer abandoned still
					// needs to reach the publisher for archival.
					l.publish(events)
					msg.Reply <- LeaveResult{Empty: true}
					l.log.Debug("room emptied")
					l.shutdown()
					return
				}
				l.publish(events)
				l.summarize()
				msg.Reply <- LeaveResult{}

			case StartRound:
				rd, err := engine.StartRound(l.room, msg.SenderID, msg.Word, l.cfg.RoundDuration, l.cfg.Now())
				if err == nil {
					l.armTimer(rd.ID, rd.Duration)
					l.publish([]engine.Event{{Type: engine.EvtRoundStarted, ParticipantID: rd.DrawerID, Round: rd}})
					l.summarize()
					l.log.Info("round started", zap.String("round", rd.ID), zap.String("drawer", rd.DrawerID))
				}
				msg.Reply <- err

			case Stroke:
				// Dropped strokes are a normal transient state, not an error.
				events, _ := engine.Apply(l.room, engine.Command{Type: engine.CmdStroke, SenderID: msg.SenderID, Stroke: msg.Stroke}, l.cfg.Now())
				l.publish(events)

			case Guess:
				outcome, events, err := engine.SubmitGuess(l.room, msg.SenderID, msg.Text, l.cfg.Now())
				if err == nil {
					l.publish(events)
					if outcome == engine.Won {
						l.summarize()
						l.log.Info("round won", zap.String("round", l.room.Round.ID), zap.String("participant", msg.SenderID))
					}
				}
				msg.Reply <- GuessResult{Outcome: outcome, Err: err}

			case TimerFired:
				events, _ := engine.Apply(l.room, engine.Command{Type: engine.CmdExpire, RoundID: msg.RoundID}, l.cfg.Now())
				if len(events) == 0 {
					l.log.Debug("stale round timer ignored", zap.String("round", msg.RoundID))
					break
				}
				l.timer = nil
				l.publish(events)
				l.summarize()
				l.log.Info("round timed out", zap.String("round", msg.RoundID))

			case GetState:
				v := View{Room: engine.ViewRoom(l.room, msg.ViewerID), Summary: engine.Summarize(l.room)}
				if l.room.Round != nil {
					snap := l.room.Round.Snapshot()
					v.Round = &snap
				}
				msg.Reply <- v

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) shutdown() {
	l.stopTimer()
	l.cancel()
}

func (l *Lobby) publish(events []engine.Event) {
	if len(events) == 0 || l.cfg.Publisher == nil {
		return
	}
	if engine.ContainsEvent(events, engine.EvtRoundEnded) {
		l.stopTimer()
	}
	l.cfg.Publisher.Publish(l.room, events)
}

func (l *Lobby) summarize() {
	if l.cfg.Summaries != nil {
		l.cfg.Summaries.UpdateSummary(engine.Summarize(l.room))
	}
}

// armTimer schedules expiry of roundID. The callback goes through the inbox
// so it is serialized with every other mutation of the room.
func (l *Lobby) armTimer(roundID string, d time.Duration) {
	l.stopTimer()
	l.timer = time.AfterFunc(d, func() {
		select {
		case l.inbox <- TimerFired{RoundID: roundID}:
		case <-l.ctx.Done():
		}
	})
}

// stopTimer is an optimization only; a fire that already raced into the inbox
// is discarded by engine.Expire.
func (l *Lobby) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// A lobby that has stopped is indistinguishable from a deleted room.
var errStopped = engine.ErrRoomNotFound

func (l *Lobby) send(ctx context.Context, m Msg) error {
	if l.ctx.Err() != nil {
		return errStopped
	}
	select {
	case l.inbox <- m:
		return nil
	case <-l.ctx.Done():
		return errStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// await waits for a reply. A reply posted just before the lobby stopped still
// wins over the stop signal.
func await[T any](ctx context.Context, l *Lobby, reply chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-l.ctx.Done():
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, errStopped
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (l *Lobby) Join(ctx context.Context, p engine.Participant) error {
	reply := make(chan error, 1)
	if err := l.send(ctx, Join{Participant: p, Reply: reply}); err != nil {
		return err
	}
	err, werr := await(ctx, l, reply)
	if werr != nil {
		return werr
	}
	return err
}

func (l *Lobby) Leave(ctx context.Context, participantID string) (LeaveResult, error) {
	reply := make(chan LeaveResult, 1)
	if err := l.send(ctx, Leave{ParticipantID: participantID, Reply: reply}); err != nil {
		return LeaveResult{}, err
	}
	res, err := await(ctx, l, reply)
	if err != nil {
		return LeaveResult{}, err
	}
	return res, res.Err
}

func (l *Lobby) StartRound(ctx context.Context, senderID, word string) error {
	reply := make(chan error, 1)
	if err := l.send(ctx, StartRound{SenderID: senderID, Word: word, Reply: reply}); err != nil {
		return err
	}
	err, werr := await(ctx, l, reply)
	if werr != nil {
		return werr
	}
	return err
}

func (l *Lobby) Stroke(ctx context.Context, senderID string, ev engine.StrokeEvent) error {
	return l.send(ctx, Stroke{SenderID: senderID, Stroke: ev})
}

func (l *Lobby) Guess(ctx context.Context, senderID, text string) (engine.Outcome, error) {
	reply := make(chan GuessResult, 1)
	if err := l.send(ctx, Guess{SenderID: senderID, Text: text, Reply: reply}); err != nil {
		return "", err
	}
	res, err := await(ctx, l, reply)
	if err != nil {
		return "", err
	}
	return res.Outcome, res.Err
}

func (l *Lobby) State(ctx context.Context, viewerID string) (View, error) {
	reply := make(chan View, 1)
	if err := l.send(ctx, GetState{ViewerID: viewerID, Reply: reply}); err != nil {
		return View{}, err
	}
	return await(ctx, l, reply)
}
