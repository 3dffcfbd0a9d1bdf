package engine

import (
	"strconv"
	"strings"
	"time"
)

type Outcome string

const (
	Continued Outcome = "continued"
	Won       Outcome = "won"
	TimedOut  Outcome = "timed_out"
)

type CommandType string

const (
	CmdJoin       CommandType = "Join"
	CmdLeave      CommandType = "Leave"
	CmdStartRound CommandType = "StartRound"
	CmdStroke     CommandType = "Stroke"
	CmdGuess      CommandType = "Guess"
	CmdExpire     CommandType = "Expire"
)

/*
	CmdJoin       -> EvtParticipantJoined
	CmdLeave      -> EvtParticipantLeft (-> EvtRoundEnded when the drawer walks out mid-round)
	CmdStartRound -> EvtRoundStarted
	CmdStroke     -> EvtStrokeRelayed, or nothing when the sender may not draw
	CmdGuess      -> EvtGuessReceived, or EvtGuessCorrect -> EvtRoundEnded
	CmdExpire     -> EvtRoundEnded, or nothing for a stale timer
*/

type Command struct {
	Type        CommandType
	SenderID    string
	Participant Participant
	Word        string
	Text        string
	Stroke      StrokeEvent
	RoundID     string
	Duration    time.Duration
}

type EventType string

const (
	EvtParticipantJoined EventType = "ParticipantJoined"
	EvtParticipantLeft   EventType = "ParticipantLeft"
	EvtRoundStarted      EventType = "RoundStarted"
	EvtStrokeRelayed     EventType = "StrokeRelayed"
	EvtGuessReceived     EventType = "GuessReceived"
	EvtGuessCorrect      EventType = "GuessCorrect"
	EvtRoundEnded        EventType = "RoundEnded"
)

// Event points into live room state. Consumers must read it before the room
// is mutated again.
type Event struct {
	Type          EventType
	ParticipantID string
	Participant   *Participant
	Round         *Round
	Stroke        StrokeEvent
	Guess         Guess
}

// Apply runs cmd against r. r is mutated in place; the caller owns the
// serialization of all Apply calls for the same room.
func Apply(r *Room, cmd Command, now time.Time) ([]Event, error) {
	switch cmd.Type {
	case CmdJoin:
		return Join(r, cmd.Participant)
	case CmdLeave:
		return Leave(r, cmd.SenderID, now)
	case CmdStartRound:
		rd, err := StartRound(r, cmd.SenderID, cmd.Word, cmd.Duration, now)
		if err != nil {
			return nil, err
		}
		return []Event{{Type: EvtRoundStarted, ParticipantID: rd.DrawerID, Round: rd}}, nil
	case CmdStroke:
		return RelayStroke(r, cmd.SenderID, cmd.Stroke), nil
	case CmdGuess:
		_, events, err := SubmitGuess(r, cmd.SenderID, cmd.Text, now)
		return events, err
	case CmdExpire:
		_, events := Expire(r, cmd.RoundID, now)
		return events, nil
	default:
		return nil, ErrRejected
	}
}

func Join(r *Room, p Participant) ([]Event, error) {
	if r.Member(p.ID) != nil {
		return nil, ErrAlreadyMember
	}
	if len(r.Participants) >= r.Capacity {
		return nil, ErrRoomFull
	}
	np := p
	np.IsDrawer = false
	r.Participants = append(r.Participants, &np)
	return []Event{{Type: EvtParticipantJoined, ParticipantID: np.ID, Participant: &np}}, nil
}

func Leave(r *Room, id string, now time.Time) ([]Event, error) {
	idx := -1
	for i, p := range r.Participants {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotInRoom
	}
	r.Participants = append(r.Participants[:idx], r.Participants[idx+1:]...)
	events := []Event{{Type: EvtParticipantLeft, ParticipantID: id}}

	if r.Round.Active() && r.Round.DrawerID == id {
		end(r, EndDrawerLeft, now)
		events = append(events, Event{Type: EvtRoundEnded, Round: r.Round})
	}
	return events, nil
}

// StartRound opens a new round with a uniformly random drawer. A blank word
// falls back to the built-in word list.
func StartRound(r *Room, senderID, word string, d time.Duration, now time.Time) (*Round, error) {
	if r.Member(senderID) == nil {
		return nil, ErrNotMember
	}
	if r.Round.Active() {
		return nil, ErrRoundActive
	}
	if d <= 0 {
		d = DefaultRoundDuration
	}
	word = strings.TrimSpace(word)
	if word == "" {
		word = RandomWord()
	}

	drawer := r.Participants[randIntN(len(r.Participants))]
	for _, p := range r.Participants {
		p.IsDrawer = p == drawer
	}

	r.roundSeq++
	r.Round = &Round{
		ID:        strconv.Itoa(r.roundSeq),
		Word:      word,
		DrawerID:  drawer.ID,
		StartedAt: now,
		Duration:  d,
	}
	return r.Round, nil
}

// RelayStroke drops strokes from anyone but the drawer of an active round.
func RelayStroke(r *Room, senderID string, ev StrokeEvent) []Event {
	if !r.Round.Active() || r.Round.DrawerID != senderID || !validStroke(ev) {
		return nil
	}
	if len(r.Round.Strokes) < MaxRetainedStrokes {
		r.Round.Strokes = append(r.Round.Strokes, ev)
	} else {
		r.Round.StrokesDropped++
	}
	return []Event{{Type: EvtStrokeRelayed, ParticipantID: senderID, Stroke: ev}}
}

func SubmitGuess(r *Room, senderID, text string, now time.Time) (Outcome, []Event, error) {
	p := r.Member(senderID)
	if p == nil {
		return "", nil, ErrNotMember
	}
	if !r.Round.Active() {
		return "", nil, ErrNoActiveRound
	}
	if r.Round.DrawerID == senderID {
		return "", nil, ErrDrawerGuess
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, ErrEmptyGuess
	}

	g := Guess{ParticipantID: senderID, Text: text, At: now, Correct: matches(text, r.Round.Word)}
	r.Round.Guesses = append(r.Round.Guesses, g)

	if !g.Correct || r.Round.WinnerID != "" {
		return Continued, []Event{{Type: EvtGuessReceived, ParticipantID: senderID, Participant: p, Guess: g}}, nil
	}

	r.Round.WinnerID = senderID
	p.Score += WinBonus
	end(r, EndGuessed, now)
	return Won, []Event{
		{Type: EvtGuessCorrect, ParticipantID: senderID, Participant: p, Guess: g, Round: r.Round},
		{Type: EvtRoundEnded, Round: r.Round},
	}, nil
}

// Expire ends the round identified by roundID without a winner. Stale ids and
// already ended rounds are ignored.
func Expire(r *Room, roundID string, now time.Time) (bool, []Event) {
	if r == nil || r.Round == nil || r.Round.ID != roundID || r.Round.Ended {
		return false, nil
	}
	end(r, EndTimedOut, now)
	return true, []Event{{Type: EvtRoundEnded, Round: r.Round}}
}

func end(r *Room, reason EndReason, now time.Time) {
	r.Round.Ended = true
	r.Round.EndedAt = now
	r.Round.EndReason = reason
	for _, p := range r.Participants {
		p.IsDrawer = false
	}
}
