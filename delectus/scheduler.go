package delectus

import (
	"context"
	"fmt"
	"time"

	"acroparty/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Scheduler is the periodic driver: once per tick it enumerates every playing
// game and hands each to the Processor. A failure in one game never blocks the
// rest of the tick, and there is no in-tick retry; the next tick re-derives
// the same decision from persisted state.
type Scheduler struct {
	db        *gorm.DB
	processor *Processor
	logger    *zap.SugaredLogger
	interval  time.Duration
}

// Status is the debug snapshot exposed at /api/debug/delectus.
type Status struct {
	ActiveGames int64     `json:"active_games"`
	LobbyGames  int64     `json:"lobby_games"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewScheduler(db *gorm.DB, processor *Processor, logger *zap.SugaredLogger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{
		db:        db,
		processor: processor,
		logger:    logger,
		interval:  interval,
	}
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Infow("delectus started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("delectus stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick processes every playing game once and returns how many were processed
// successfully.
func (s *Scheduler) Tick(ctx context.Context) int {
	var games []models.Game
	if err := s.db.Where("status = ?", models.GameStatusPlaying).Find(&games).Error; err != nil {
		s.logger.Errorw("enumerating games", "error", err)
		return 0
	}

	processed := 0
	for i := range games {
		game := &games[i]
		if err := s.processGame(ctx, game); err != nil {
			s.logger.Errorw("error processing game", "game_id", game.ID, "game", game.Code, "error", err)
			continue
		}
		processed++
	}
	return processed
}

// processGame isolates one game's failure, panics included, from the rest of
// the tick.
func (s *Scheduler) processGame(ctx context.Context, game *models.Game) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.processor.Process(ctx, game)
}

// GetStatus reports game counts for the debug endpoint.
func (s *Scheduler) GetStatus() Status {
	var status Status
	s.db.Model(&models.Game{}).Where("status = ?", models.GameStatusPlaying).Count(&status.ActiveGames)
	s.db.Model(&models.Game{}).Where("status = ?", models.GameStatusLobby).Count(&status.LobbyGames)
	status.Timestamp = time.Now().UTC()
	return status
}
