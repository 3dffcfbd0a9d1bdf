package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("archived round not found")

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewStore migrates the schema on db.
func NewStore(db *gorm.DB, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := db.AutoMigrate(&RoundRecord{}, &GuessRecord{}); err != nil {
		return nil, fmt.Errorf("migrate archive schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Open connects to Postgres through a pgx pool and returns a migrated Store
// plus a close func for the pool.
func Open(ctx context.Context, databaseURL string, log *zap.Logger) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("open gorm: %w", err)
	}

	s, err := NewStore(db, log)
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, nil, err
	}
	closeFn := func() {
		_ = sqlDB.Close()
		pool.Close()
	}
	return s, closeFn, nil
}

// Archive stores rec and returns the record id as its external reference.
func (s *Store) Archive(ctx context.Context, rec Record) (string, error) {
	participants, err := json.Marshal(rec.Participants)
	if err != nil {
		return "", fmt.Errorf("encode participants: %w", err)
	}

	rd := rec.Round
	row := RoundRecord{
		ID:             uuid.NewString(),
		RoomID:         rec.RoomID,
		RoundID:        rd.ID,
		DrawerID:       rd.DrawerID,
		Word:           rd.Word,
		WinnerID:       rd.WinnerID,
		EndReason:      string(rd.EndReason),
		StartedAt:      rd.StartedAt,
		EndedAt:        rd.EndedAt,
		DurationMS:     rd.Duration.Milliseconds(),
		StrokeCount:    len(rd.Strokes),
		StrokesDropped: rd.StrokesDropped,
		Participants:   string(participants),
		Artifact:       rec.Artifact,
	}
	for _, g := range rd.Guesses {
		row.Guesses = append(row.Guesses, GuessRecord{
			ParticipantID: g.ParticipantID,
			Text:          g.Text,
			Correct:       g.Correct,
			GuessedAt:     g.At,
		})
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert round record: %w", err)
	}
	s.log.Debug("round archived",
		zap.String("room", rec.RoomID),
		zap.String("round", rd.ID),
		zap.String("ref", row.ID))
	return row.ID, nil
}

func (s *Store) Find(ctx context.Context, id string) (*RoundRecord, error) {
	var row RoundRecord
	err := s.db.WithContext(ctx).Preload("Guesses").First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find round record: %w", err)
	}
	return &row, nil
}

// Nop is used when no database is configured.
type Nop struct{}

func (Nop) Archive(context.Context, Record) (string, error) { return "", nil }
