package engine

import "time"

const (
	DefaultCapacity      = 8
	DefaultRoundDuration = 90 * time.Second
	WinBonus             = 10
	MaxRetainedStrokes   = 5000
)

type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

type Participant struct {
	ID       string
	Identity string
	Name     string
	Score    int
	IsDrawer bool
}

type Room struct {
	ID           string
	Name         string
	Visibility   Visibility
	Participants []*Participant
	Capacity     int
	CreatedAt    time.Time
	Round        *Round

	roundSeq int
}

type StrokeKind string

const (
	StrokeStart StrokeKind = "start"
	StrokeDraw  StrokeKind = "draw"
	StrokeEnd   StrokeKind = "end"
)

// StrokeEvent is opaque to game logic; it is only validated for kind, then
// relayed and retained.
type StrokeEvent struct {
	Kind      StrokeKind `json:"type"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Color     string     `json:"color"`
	Size      float64    `json:"size"`
	Timestamp int64      `json:"timestamp"`
}

type Guess struct {
	ParticipantID string
	Text          string
	At            time.Time
	Correct       bool
}

type EndReason string

const (
	EndGuessed    EndReason = "guessed"
	EndTimedOut   EndReason = "timed_out"
	EndDrawerLeft EndReason = "drawer_left"
)

type Round struct {
	ID             string
	Word           string
	DrawerID       string
	StartedAt      time.Time
	Duration       time.Duration
	Guesses        []Guess
	Strokes        []StrokeEvent
	StrokesDropped int
	WinnerID       string
	Ended          bool
	EndedAt        time.Time
	EndReason      EndReason
}

// Active reports whether the round accepts strokes and guesses.
func (rd *Round) Active() bool { return rd != nil && !rd.Ended }

// Snapshot returns a deep copy that is safe to hand to another goroutine.
func (rd *Round) Snapshot() Round {
	out := *rd
	out.Guesses = append([]Guess(nil), rd.Guesses...)
	out.Strokes = append([]StrokeEvent(nil), rd.Strokes...)
	return out
}

func NewRoom(id, name string, vis Visibility, creator Participant, now time.Time) *Room {
	p := creator
	p.IsDrawer = false
	return &Room{
		ID:           id,
		Name:         name,
		Visibility:   vis,
		Participants: []*Participant{&p},
		Capacity:     DefaultCapacity,
		CreatedAt:    now,
	}
}

func (r *Room) Member(id string) *Participant {
	for _, p := range r.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) MemberIDs() []string {
	ids := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		ids = append(ids, p.ID)
	}
	return ids
}

func (r *Room) Empty() bool { return len(r.Participants) == 0 }
