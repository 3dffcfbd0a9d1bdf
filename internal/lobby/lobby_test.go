package lobby

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DoyleJ11/drawguess-backend/internal/engine"
)

type published struct {
	Type          engine.EventType
	ParticipantID string
	Round         engine.Round
	Members       []string
}

type chanPublisher chan published

func (c chanPublisher) Publish(r *engine.Room, events []engine.Event) {
	for _, e := range events {
		p := published{Type: e.Type, ParticipantID: e.ParticipantID, Members: r.MemberIDs()}
		if e.Round != nil {
			p.Round = e.Round.Snapshot()
		}
		c <- p
	}
}

type chanSink chan engine.RoomSummary

func (c chanSink) UpdateSummary(s engine.RoomSummary) {
	select {
	case c <- s:
	default:
	}
}

// helper: receive one event with a timeout so tests never hang
func recvEvent(t *testing.T, ch <-chan published, within time.Duration) published {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(within):
		t.Fatalf("timed out waiting for event")
		return published{} // unreachable
	}
}

func recvNoEvent(t *testing.T, ch <-chan published, within time.Duration) {
	t.Helper()
	select {
	case p := <-ch:
		t.Fatalf("expected no event within %v, but got: %+v", within, p)
	case <-time.After(within):
		// good: no event
	}
}

func newTestLobby(t *testing.T, d time.Duration, members ...string) (*Lobby, chanPublisher, chanSink) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	room := engine.NewRoom("ABC123", "test", engine.Public, engine.Participant{ID: members[0], Name: members[0]}, time.Now())
	for _, id := range members[1:] {
		if _, err := engine.Join(room, engine.Participant{ID: id, Name: id}); err != nil {
			t.Fatalf("seed join: %v", err)
		}
	}
	pub := make(chanPublisher, 64)
	sink := make(chanSink, 64)
	l := NewLobby(ctx, room, Config{RoundDuration: d, Publisher: pub, Summaries: sink})
	return l, pub, sink
}

func other(members []string, id string) string {
	for _, m := range members {
		if m != id {
			return m
		}
	}
	return ""
}

func TestLobby_Join_PublishesAndRejectsWhenFull(t *testing.T) {
	l, pub, sink := newTestLobby(t, time.Hour, "c")
	ctx := context.Background()

	for i := 1; i < engine.DefaultCapacity; i++ {
		id := fmt.Sprintf("p%d", i)
		if err := l.Join(ctx, engine.Participant{ID: id}); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		ev := recvEvent(t, pub, 100*time.Millisecond)
		if ev.Type != engine.EvtParticipantJoined || ev.ParticipantID != id {
			t.Fatalf("unexpected event %+v", ev)
		}
	}

	if err := l.Join(ctx, engine.Participant{ID: "late"}); !errors.Is(err, engine.ErrRoomFull) {
		t.Fatalf("want ErrRoomFull, got %v", err)
	}
	recvNoEvent(t, pub, 50*time.Millisecond)

	v, err := l.State(ctx, "c")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if v.Summary.PlayerCount != engine.DefaultCapacity {
		t.Fatalf("player count: got %d", v.Summary.PlayerCount)
	}
	if len(sink) == 0 {
		t.Fatalf("expected summary updates")
	}
}

func TestLobby_TimerFires_RoundEnded(t *testing.T) {
	l, pub, _ := newTestLobby(t, 50*time.Millisecond, "p1", "p2")

	if err := l.StartRound(context.Background(), "p1", "cat"); err != nil {
		t.Fatalf("start: %v", err)
	}
	started := recvEvent(t, pub, 100*time.Millisecond)
	if started.Type != engine.EvtRoundStarted {
		t.Fatalf("want RoundStarted, got %v", started.Type)
	}

	ended := recvEvent(t, pub, 500*time.Millisecond)
	if ended.Type != engine.EvtRoundEnded {
		t.Fatalf("want RoundEnded, got %v", ended.Type)
	}
	if ended.Round.EndReason != engine.EndTimedOut || ended.Round.WinnerID != "" {
		t.Fatalf("reason=%q winner=%q", ended.Round.EndReason, ended.Round.WinnerID)
	}
	recvNoEvent(t, pub, 100*time.Millisecond)
}

func TestLobby_GuessBeatsTimer_SingleRoundEnded(t *testing.T) {
	members := []string{"p1", "p2"}
	l, pub, _ := newTestLobby(t, 150*time.Millisecond, members...)
	ctx := context.Background()

	if err := l.StartRound(ctx, "p1", "cat"); err != nil {
		t.Fatalf("start: %v", err)
	}
	started := recvEvent(t, pub, 100*time.Millisecond)
	guesser := other(members, started.Round.DrawerID)

	outcome, err := l.Guess(ctx, guesser, "Cat")
	if err != nil || outcome != engine.Won {
		t.Fatalf("guess: outcome=%v err=%v", outcome, err)
	}
	if ev := recvEvent(t, pub, 100*time.Millisecond); ev.Type != engine.EvtGuessCorrect {
		t.Fatalf("want GuessCorrect, got %v", ev.Type)
	}
	ended := recvEvent(t, pub, 100*time.Millisecond)
	if ended.Type != engine.EvtRoundEnded || ended.Round.WinnerID != guesser {
		t.Fatalf("unexpected end %+v", ended)
	}

	// the round timer would have fired by now
	recvNoEvent(t, pub, 300*time.Millisecond)
}

func TestLobby_TimerGen_DropsStaleFires(t *testing.T) {
	members := []string{"p1", "p2"}
	l, pub, _ := newTestLobby(t, time.Hour, members...)
	ctx := context.Background()

	_ = l.StartRound(ctx, "p1", "cat")
	first := recvEvent(t, pub, 100*time.Millisecond)
	if _, err := l.Guess(ctx, other(members, first.Round.DrawerID), "cat"); err != nil {
		t.Fatalf("guess: %v", err)
	}
	_ = recvEvent(t, pub, 100*time.Millisecond) // GuessCorrect
	_ = recvEvent(t, pub, 100*time.Millisecond) // RoundEnded

	if err := l.StartRound(ctx, "p2", "dog"); err != nil {
		t.Fatalf("second start: %v", err)
	}
	second := recvEvent(t, pub, 100*time.Millisecond)

	// a fire for the first round arriving late
	l.Inbox() <- TimerFired{RoundID: first.Round.ID}
	recvNoEvent(t, pub, 100*time.Millisecond)

	v, err := l.State(ctx, "p1")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if v.Round == nil || v.Round.ID != second.Round.ID || v.Round.Ended {
		t.Fatalf("second round disturbed by stale timer: %+v", v.Round)
	}
}

func TestLobby_StartRound_RejectedWhileActive(t *testing.T) {
	l, pub, _ := newTestLobby(t, time.Hour, "p1", "p2")
	ctx := context.Background()

	_ = l.StartRound(ctx, "p1", "cat")
	_ = recvEvent(t, pub, 100*time.Millisecond)

	if err := l.StartRound(ctx, "p2", "dog"); !errors.Is(err, engine.ErrRoundActive) {
		t.Fatalf("want ErrRoundActive, got %v", err)
	}
	recvNoEvent(t, pub, 50*time.Millisecond)
}

func TestLobby_Stroke_OnlyFromDrawer(t *testing.T) {
	members := []string{"p1", "p2"}
	l, pub, _ := newTestLobby(t, time.Hour, members...)
	ctx := context.Background()

	_ = l.StartRound(ctx, "p1", "cat")
	started := recvEvent(t, pub, 100*time.Millisecond)
	drawer := started.Round.DrawerID
	ev := engine.StrokeEvent{Kind: engine.StrokeStart, X: 10, Y: 10}

	_ = l.Stroke(ctx, other(members, drawer), ev)
	recvNoEvent(t, pub, 50*time.Millisecond)

	_ = l.Stroke(ctx, drawer, ev)
	got := recvEvent(t, pub, 100*time.Millisecond)
	if got.Type != engine.EvtStrokeRelayed || got.ParticipantID != drawer {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestLobby_LastLeaveStopsLobby(t *testing.T) {
	l, pub, _ := newTestLobby(t, time.Hour, "p1")
	ctx := context.Background()

	res, err := l.Leave(ctx, "p1")
	if err != nil || !res.Empty {
		t.Fatalf("leave: res=%+v err=%v", res, err)
	}
	select {
	case <-l.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("lobby did not stop")
	}
	ev := recvEvent(t, pub, 100*time.Millisecond)
	if ev.Type != engine.EvtParticipantLeft || len(ev.Members) != 0 {
		t.Fatalf("unexpected event %+v", ev)
	}
	recvNoEvent(t, pub, 50*time.Millisecond)

	if err := l.Join(ctx, engine.Participant{ID: "p2"}); !errors.Is(err, engine.ErrRoomNotFound) {
		t.Fatalf("join after close: want ErrRoomNotFound, got %v", err)
	}
	if err := l.Stroke(ctx, "p1", engine.StrokeEvent{Kind: engine.StrokeDraw}); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("stroke after close: want not found, got %v", err)
	}
}

func TestLobby_Leave_PublishesToRemaining(t *testing.T) {
	l, pub, _ := newTestLobby(t, time.Hour, "p1", "p2", "p3")

	res, err := l.Leave(context.Background(), "p2")
	if err != nil || res.Empty {
		t.Fatalf("leave: res=%+v err=%v", res, err)
	}
	ev := recvEvent(t, pub, 100*time.Millisecond)
	if ev.Type != engine.EvtParticipantLeft || ev.ParticipantID != "p2" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if len(ev.Members) != 2 {
		t.Fatalf("remaining members: %v", ev.Members)
	}

	if _, err := l.Leave(context.Background(), "p2"); !errors.Is(err, engine.ErrNoOp) {
		t.Fatalf("second leave: want no-op, got %v", err)
	}
}

func TestLobby_Shutdown_StopsTimer_NoFire(t *testing.T) {
	l, pub, _ := newTestLobby(t, 200*time.Millisecond, "p1", "p2")

	_ = l.StartRound(context.Background(), "p1", "cat")
	_ = recvEvent(t, pub, 100*time.Millisecond) // RoundStarted

	l.Inbox() <- Shutdown{}
	recvNoEvent(t, pub, 400*time.Millisecond)
}
