package session

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/DoyleJ11/drawguess-backend/internal/archive"
	"github.com/DoyleJ11/drawguess-backend/internal/engine"
	"github.com/DoyleJ11/drawguess-backend/internal/types"
)

// Publish implements lobby.Publisher. It runs on the lobby goroutine, so
// everything it needs from r is copied before it returns.
func (c *Coordinator) Publish(r *engine.Room, events []engine.Event) {
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtParticipantJoined:
			view := engine.ViewRoom(r, ev.ParticipantID)
			To(ev.ParticipantID).deliver(c.transport, types.ServerMessage{Type: types.EvtRoomJoined, RoomID: r.ID, Room: &view})
			pv := engine.ViewParticipant(ev.Participant)
			RoomExcept(r, ev.ParticipantID).deliver(c.transport, types.ServerMessage{Type: types.EvtParticipantJoined, RoomID: r.ID, Participant: &pv})

		case engine.EvtParticipantLeft:
			RoomAll(r).deliver(c.transport, types.ServerMessage{Type: types.EvtParticipantLeft, RoomID: r.ID, ParticipantID: ev.ParticipantID})

		case engine.EvtRoundStarted:
			// Per viewer: only the drawer's copy carries the word.
			for _, p := range r.Participants {
				rv := engine.ViewRound(ev.Round, p.ID)
				To(p.ID).deliver(c.transport, types.ServerMessage{Type: types.EvtRoundStarted, RoomID: r.ID, Round: &rv})
			}

		case engine.EvtStrokeRelayed:
			stroke := ev.Stroke
			RoomExcept(r, ev.ParticipantID).deliver(c.transport, types.ServerMessage{Type: types.EvtStrokeRelayed, RoomID: r.ID, ParticipantID: ev.ParticipantID, Stroke: &stroke})

		case engine.EvtGuessReceived:
			RoomAll(r).deliver(c.transport, types.ServerMessage{
				Type:          types.EvtGuessReceived,
				RoomID:        r.ID,
				ParticipantID: ev.ParticipantID,
				PlayerName:    displayName(ev.Participant),
				Guess:         ev.Guess.Text,
			})

		case engine.EvtGuessCorrect:
			RoomAll(r).deliver(c.transport, types.ServerMessage{
				Type:          types.EvtGuessCorrect,
				RoomID:        r.ID,
				ParticipantID: ev.ParticipantID,
				PlayerName:    displayName(ev.Participant),
				Word:          ev.Round.Word,
			})

		case engine.EvtRoundEnded:
			// Ended rounds render the word for everyone; the room view carries scores.
			rv := engine.ViewRound(ev.Round, "")
			room := engine.ViewRoom(r, "")
			RoomAll(r).deliver(c.transport, types.ServerMessage{Type: types.EvtRoundEnded, RoomID: r.ID, Round: &rv, Room: &room})
			c.archive(archive.Record{RoomID: r.ID, Round: ev.Round.Snapshot(), Participants: room.Participants})
		}
	}
}

// archive hands rec to the archiver in the background. The stroke artifact is
// encoded off the lobby goroutine.
func (c *Coordinator) archive(rec archive.Record) {
	c.archiveMu.Lock()
	if c.closed {
		c.archiveMu.Unlock()
		c.log.Debug("archival closed, round not archived", zap.String("room", rec.RoomID), zap.String("round", rec.Round.ID))
		return
	}
	c.archives.Add(1)
	c.archiveMu.Unlock()
	go func() {
		defer c.archives.Done()
		log := c.log.With(zap.String("room", rec.RoomID), zap.String("round", rec.Round.ID))

		artifact, err := json.Marshal(rec.Round.Strokes)
		if err != nil {
			log.Warn("encode stroke artifact", zap.Error(err))
			return
		}
		rec.Artifact = artifact

		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), c.timeout)
		defer cancel()
		ref, err := c.archiver.Archive(ctx, rec)
		if err != nil {
			log.Warn("archive round", zap.Error(err))
			return
		}
		if ref != "" {
			log.Info("round archived", zap.String("ref", ref))
		}
	}()
}

func displayName(p *engine.Participant) string {
	if p == nil {
		return ""
	}
	return p.Name
}
