package types

import "github.com/DoyleJ11/drawguess-backend/internal/engine"

// Client -> server message types.
const (
	MsgCreateRoom      = "CreateRoom"
	MsgJoinRoom        = "JoinRoom"
	MsgLeaveRoom       = "LeaveRoom"
	MsgStartRound      = "StartRound"
	MsgStroke          = "Stroke"
	MsgGuess           = "Guess"
	MsgListPublicRooms = "ListPublicRooms"
)

// Server -> client event types.
const (
	EvtConnected           = "Connected"
	EvtRoomCreated         = "RoomCreated"
	EvtRoomJoined          = "RoomJoined"
	EvtParticipantJoined   = "ParticipantJoined"
	EvtParticipantLeft     = "ParticipantLeft"
	EvtPublicRoomsChanged  = "PublicRoomsChanged"
	EvtPublicRoomsSnapshot = "PublicRoomsSnapshot"
	EvtRoundStarted        = "RoundStarted"
	EvtStrokeRelayed       = "StrokeRelayed"
	EvtGuessReceived       = "GuessReceived"
	EvtGuessCorrect        = "GuessCorrect"
	EvtRoundEnded          = "RoundEnded"
	EvtError               = "Error"
)

// Error codes carried by Error events.
const (
	CodeNotFound    = "not_found"
	CodeFull        = "full"
	CodeRejected    = "rejected"
	CodeBadRequest  = "bad_request"
	CodeUnavailable = "unavailable"
	CodeRateLimited = "rate_limited"
)

type ParticipantInfo struct {
	Identity    string `json:"address"`
	DisplayName string `json:"name"`
}

type ClientMessage struct {
	Type        string              `json:"type"`
	RoomID      string              `json:"roomId,omitempty"`
	Name        string              `json:"name,omitempty"`
	IsPrivate   bool                `json:"isPrivate,omitempty"`
	Participant *ParticipantInfo    `json:"player,omitempty"`
	Word        string              `json:"word,omitempty"`
	Text        string              `json:"guess,omitempty"`
	Stroke      *engine.StrokeEvent `json:"drawingData,omitempty"`
}

type ServerMessage struct {
	Type          string                  `json:"type"`
	RoomID        string                  `json:"roomId,omitempty"`
	Room          *engine.RoomView        `json:"room,omitempty"`
	Rooms         []engine.RoomSummary    `json:"rooms,omitempty"`
	Participant   *engine.ParticipantView `json:"player,omitempty"`
	ParticipantID string                  `json:"playerId,omitempty"`
	PlayerName    string                  `json:"playerName,omitempty"`
	Round         *engine.RoundView       `json:"round,omitempty"`
	Stroke        *engine.StrokeEvent     `json:"drawingData,omitempty"`
	Guess         string                  `json:"guess,omitempty"`
	Word          string                  `json:"word,omitempty"`
	Action        string                  `json:"action,omitempty"`
	Code          string                  `json:"code,omitempty"`
	Error         string                  `json:"error,omitempty"`
}
