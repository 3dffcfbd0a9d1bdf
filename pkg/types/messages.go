package types

// Wire protocol over /ws. Every frame is one JSON object with a "type".
// Room codes are 6 characters, A-Z and 0-9, matched case-insensitively.

// Client -> Server
// CreateRoom:
//   name: string
//   isPrivate: boolean
//   player: { address: string, name: string }
//
// JoinRoom:
//   roomId: string
//   player: { address: string, name: string }
//
// LeaveRoom: {}
//
// StartRound:
//   roomId: string
//   word?: string // blank picks from the built-in list
//
// Stroke (drawer only, silently dropped otherwise):
//   roomId: string
//   drawingData: { type: "start" | "draw" | "end", x, y, color, size, timestamp }
//
// Guess:
//   roomId: string
//   guess: string
//
// ListPublicRooms: {}

// Server -> Client
// Connected:      playerId // this connection's participant id
// RoomCreated:    roomId, room
// RoomJoined:     roomId, room // rendered for the joiner
// ParticipantJoined: roomId, player
// ParticipantLeft:   roomId, playerId
// PublicRoomsChanged / PublicRoomsSnapshot:
//   rooms: [{ id, name, playerCount, maxPlayers, inRound, createdAt }] // absent when empty
// RoundStarted:   roomId, round // word is "•" per character except for the drawer
// StrokeRelayed:  roomId, playerId, drawingData
// GuessReceived:  roomId, playerId, playerName, guess
// GuessCorrect:   roomId, playerId, playerName, word
// RoundEnded:     roomId, round, room // endReason: "guessed" | "timed_out" | "drawer_left"
//
// Error:
//   action: string // the client message type that failed, if any
//   code: "not_found" | "full" | "rejected" | "bad_request" | "rate_limited" | "unavailable"
//   error: string
