package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/showsync/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// maxParallelResolves bounds the per-item fan-out of placeholder resolution
// and detail refreshes
const maxParallelResolves = 8

// WatchedController synchronizes the local watched-show snapshot with Trakt
type WatchedController struct {
	db          *models.Database
	traktClient TraktAPI
	showsCtrl   *ShowsController
	logger      *logrus.Logger
}

// NewWatchedController creates a new watched controller
func NewWatchedController(db *models.Database, traktClient TraktAPI, showsCtrl *ShowsController, logger *logrus.Logger) *WatchedController {
	return &WatchedController{
		db:          db,
		traktClient: traktClient,
		showsCtrl:   showsCtrl,
		logger:      logger,
	}
}

// SyncWatchedShows replaces the local watched-show snapshot with the remote
// one: fetch the complete list, resolve every referenced show to a stable
// local ID, then swap the snapshot in a single transaction. Any failure
// before the swap leaves the existing snapshot untouched. Afterwards, shows
// never detail-fetched before are refreshed in parallel, best-effort.
func (c *WatchedController) SyncWatchedShows(ctx context.Context) error {
	c.logger.Info("Syncing watched shows")

	records, err := c.traktClient.GetWatchedShows(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch watched shows: %w", err)
	}

	// Resolve placeholders in parallel; each resolution is independent and
	// idempotent. A resolution failure aborts the sync before any write.
	rows := make([]*models.WatchedShow, len(records))
	g := new(errgroup.Group)
	g.SetLimit(maxParallelResolves)
	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			showID, err := c.showsCtrl.ResolveShow(record.Show)
			if errors.Is(err, ErrNoRemoteID) {
				c.logger.WithError(err).Warn("Skipping watched record without show identity")
				return nil
			}
			if err != nil {
				return err
			}
			rows[i] = &models.WatchedShow{
				ShowID:        showID,
				Plays:         record.Plays,
				LastWatchedAt: record.LastWatchedAt,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	entries := make([]*models.WatchedShow, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			entries = append(entries, row)
		}
	}

	err = c.db.RunInTransaction(func(txn *models.Txn) error {
		return txn.ReplaceWatchedShows(entries)
	})
	if err != nil {
		return fmt.Errorf("failed to replace watched snapshot: %w", err)
	}

	c.logger.WithField("count", len(entries)).Info("Watched snapshot replaced")

	// Best-effort detail refresh for shows never fetched before. Per-item
	// failures are logged and do not fail the sync.
	g = new(errgroup.Group)
	g.SetLimit(maxParallelResolves)
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			if err := c.showsCtrl.EnsureShowDetails(ctx, entry.ShowID); err != nil {
				c.logger.WithError(err).WithField("show_id", entry.ShowID).
					Warn("Failed to refresh show details")
			}
			return nil
		})
	}
	g.Wait()

	return nil
}
