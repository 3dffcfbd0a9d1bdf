package archive

import (
	"time"

	"github.com/DoyleJ11/drawguess-backend/internal/engine"
)

// Record is one completed round handed over for archival. Round must be a
// snapshot; Store never touches live room state.
type Record struct {
	RoomID       string
	Round        engine.Round
	Participants []engine.ParticipantView
	Artifact     []byte
}

type RoundRecord struct {
	ID             string    `gorm:"primaryKey;size:36"`
	RoomID         string    `gorm:"size:6;not null;index:idx_round_records_room"`
	RoundID        string    `gorm:"size:32;not null"`
	DrawerID       string    `gorm:"size:64;not null"`
	Word           string    `gorm:"size:128;not null"`
	WinnerID       string    `gorm:"size:64"`
	EndReason      string    `gorm:"size:32;not null"`
	StartedAt      time.Time `gorm:"not null"`
	EndedAt        time.Time `gorm:"not null"`
	DurationMS     int64     `gorm:"not null"`
	StrokeCount    int       `gorm:"not null"`
	StrokesDropped int       `gorm:"not null;default:0"`
	Participants   string    `gorm:"type:text;not null"` // JSON array of participant views
	Artifact       []byte
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_round_records_room"`

	Guesses []GuessRecord `gorm:"foreignKey:RoundRecordID;constraint:OnDelete:CASCADE"`
}

func (RoundRecord) TableName() string { return "round_records" }

type GuessRecord struct {
	ID            uint      `gorm:"primaryKey"`
	RoundRecordID string    `gorm:"size:36;not null;index"`
	ParticipantID string    `gorm:"size:64;not null"`
	Text          string    `gorm:"size:256;not null"`
	Correct       bool      `gorm:"not null;default:false"`
	GuessedAt     time.Time `gorm:"not null"`
}

func (GuessRecord) TableName() string { return "guess_records" }
