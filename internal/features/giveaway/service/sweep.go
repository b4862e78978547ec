package service

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"giveaway-draw-backend/internal/common/logger"
)

// Sweeper periodically closes filling giveaways whose entry cutoff passed.
type Sweeper struct {
	scheduler *gocron.Scheduler
	service   GiveawayService
	interval  time.Duration
}

func NewSweeper(service GiveawayService, interval time.Duration) *Sweeper {
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		interval:  interval,
	}
}

// Start schedules the sweep and runs it in the background until Stop.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(s.sweep)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	logger.Info().Dur("interval", s.interval).Msg("Cutoff sweep started")
	return nil
}

func (s *Sweeper) Stop() {
	s.scheduler.Stop()
	logger.Info().Msg("Cutoff sweep stopped")
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	closed, err := s.service.CloseExpired(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Cutoff sweep failed")
		return
	}
	if closed > 0 {
		logger.Info().Int("closed", closed).Msg("Cutoff sweep closed giveaways")
	}
}
