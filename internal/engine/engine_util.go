package engine

import (
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// RedactionGlyph replaces every character of the word for non-drawers.
const RedactionGlyph = "•"

// Swapped out in tests.
var randIntN = rand.IntN

func RandomWord() string {
	return Words[randIntN(len(Words))]
}

func Redact(word string) string {
	return strings.Repeat(RedactionGlyph, utf8.RuneCountInString(word))
}

// matches compares with Unicode case folding; a fresh Caser per call since
// Casers are stateful.
func matches(guess, word string) bool {
	return cases.Fold().String(strings.TrimSpace(guess)) == cases.Fold().String(word)
}

func validStroke(ev StrokeEvent) bool {
	switch ev.Kind {
	case StrokeStart, StrokeDraw, StrokeEnd:
		return true
	}
	return false
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

type ParticipantView struct {
	ID       string `json:"id"`
	Identity string `json:"identity,omitempty"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsDrawer bool   `json:"isDrawer"`
}

type GuessView struct {
	ParticipantID string    `json:"player"`
	Text          string    `json:"guess"`
	At            time.Time `json:"timestamp"`
	Correct       bool      `json:"isCorrect"`
}

type RoundView struct {
	ID          string      `json:"id"`
	Word        string      `json:"word"`
	DrawerID    string      `json:"drawer"`
	StartedAt   time.Time   `json:"startTime"`
	DurationMS  int64       `json:"duration"`
	Guesses     []GuessView `json:"guesses"`
	StrokeCount int         `json:"strokeCount"`
	WinnerID    string      `json:"winner,omitempty"`
	Ended       bool        `json:"ended"`
	EndReason   EndReason   `json:"endReason,omitempty"`
}

type RoomView struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	IsPrivate    bool              `json:"isPrivate"`
	Participants []ParticipantView `json:"players"`
	MaxPlayers   int               `json:"maxPlayers"`
	CreatedAt    time.Time         `json:"createdAt"`
	CurrentRound *RoundView        `json:"currentRound,omitempty"`
}

// RoomSummary is the lobby listing entry; it never carries the word or guesses.
type RoomSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Visibility  Visibility `json:"-"`
	PlayerCount int        `json:"playerCount"`
	MaxPlayers  int        `json:"maxPlayers"`
	InRound     bool       `json:"inRound"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func ViewParticipant(p *Participant) ParticipantView {
	return ParticipantView{ID: p.ID, Identity: p.Identity, Name: p.Name, Score: p.Score, IsDrawer: p.IsDrawer}
}

// ViewRound renders rd for viewerID. While the round is active only the
// drawer sees the literal word.
func ViewRound(rd *Round, viewerID string) RoundView {
	v := RoundView{
		ID:          rd.ID,
		Word:        rd.Word,
		DrawerID:    rd.DrawerID,
		StartedAt:   rd.StartedAt,
		DurationMS:  rd.Duration.Milliseconds(),
		Guesses:     make([]GuessView, 0, len(rd.Guesses)),
		StrokeCount: len(rd.Strokes) + rd.StrokesDropped,
		WinnerID:    rd.WinnerID,
		Ended:       rd.Ended,
		EndReason:   rd.EndReason,
	}
	if !rd.Ended && viewerID != rd.DrawerID {
		v.Word = Redact(rd.Word)
	}
	for _, g := range rd.Guesses {
		v.Guesses = append(v.Guesses, GuessView{ParticipantID: g.ParticipantID, Text: g.Text, At: g.At, Correct: g.Correct})
	}
	return v
}

func ViewRoom(r *Room, viewerID string) RoomView {
	v := RoomView{
		ID:           r.ID,
		Name:         r.Name,
		IsPrivate:    r.Visibility == Private,
		Participants: make([]ParticipantView, 0, len(r.Participants)),
		MaxPlayers:   r.Capacity,
		CreatedAt:    r.CreatedAt,
	}
	for _, p := range r.Participants {
		v.Participants = append(v.Participants, ViewParticipant(p))
	}
	if r.Round != nil {
		rv := ViewRound(r.Round, viewerID)
		v.CurrentRound = &rv
	}
	return v
}

func Summarize(r *Room) RoomSummary {
	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		Visibility:  r.Visibility,
		PlayerCount: len(r.Participants),
		MaxPlayers:  r.Capacity,
		InRound:     r.Round.Active(),
		CreatedAt:   r.CreatedAt,
	}
}
