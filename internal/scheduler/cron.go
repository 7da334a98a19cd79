package scheduler

import (
	"context"
	"fmt"

	"github.com/amaumene/showsync/internal/config"
	"github.com/amaumene/showsync/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages the periodic background refreshes
type Scheduler struct {
	cron         *cron.Cron
	watchedCtrl  *controllers.WatchedController
	trendingCtrl *controllers.TrendingController
	episodesCtrl *controllers.EpisodesController
	cfg          *config.Config
	logger       *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(
	watchedCtrl *controllers.WatchedController,
	trendingCtrl *controllers.TrendingController,
	episodesCtrl *controllers.EpisodesController,
	cfg *config.Config,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		watchedCtrl:  watchedCtrl,
		trendingCtrl: trendingCtrl,
		episodesCtrl: episodesCtrl,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.cfg.WatchedSyncCron, s.runWatchedSync)
	if err != nil {
		return fmt.Errorf("failed to add watched sync job: %w", err)
	}

	_, err = s.cron.AddFunc(s.cfg.TrendingSyncCron, s.runTrendingRefresh)
	if err != nil {
		return fmt.Errorf("failed to add trending refresh job: %w", err)
	}

	_, err = s.cron.AddFunc(s.cfg.PendingUploadCron, s.runPendingUpload)
	if err != nil {
		return fmt.Errorf("failed to add pending upload job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Run an initial sync immediately
	go func() {
		s.runPendingUpload()
		s.runWatchedSync()
		s.runTrendingRefresh()
	}()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runWatchedSync executes the watched-show sync job
func (s *Scheduler) runWatchedSync() {
	s.logger.Info("Running scheduled watched sync")

	if err := s.watchedCtrl.SyncWatchedShows(context.Background()); err != nil {
		s.logger.WithError(err).Error("Watched sync job failed")
	} else {
		s.logger.Info("Watched sync job completed")
	}
}

// runTrendingRefresh executes the trending refresh job
func (s *Scheduler) runTrendingRefresh() {
	s.logger.Info("Running scheduled trending refresh")

	if err := s.trendingCtrl.Refresh(context.Background()); err != nil {
		s.logger.WithError(err).Error("Trending refresh job failed")
	} else {
		s.logger.Info("Trending refresh job completed")
	}
}

// runPendingUpload pushes unconfirmed local watch mutations to Trakt
func (s *Scheduler) runPendingUpload() {
	s.logger.Debug("Running pending watch entry upload")

	if err := s.episodesCtrl.ProcessPendingWatchEntries(context.Background()); err != nil {
		s.logger.WithError(err).Error("Pending upload job failed")
	}
}
