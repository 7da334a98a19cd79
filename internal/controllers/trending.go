package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/showsync/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// TrendingController maintains the local cache of the remote trending
// listing, page by page
type TrendingController struct {
	db          *models.Database
	traktClient TraktAPI
	showsCtrl   *ShowsController
	pageSize    int
	logger      *logrus.Logger
}

// NewTrendingController creates a new trending controller
func NewTrendingController(db *models.Database, traktClient TraktAPI, showsCtrl *ShowsController, pageSize int, logger *logrus.Logger) *TrendingController {
	return &TrendingController{
		db:          db,
		traktClient: traktClient,
		showsCtrl:   showsCtrl,
		pageSize:    pageSize,
		logger:      logger,
	}
}

// Refresh throws away every cached page and stores a freshly fetched page 0.
// The clear and the page-0 write happen in the same transaction, so observers
// see one atomic replace, never an empty intermediate list.
func (c *TrendingController) Refresh(ctx context.Context) error {
	return c.updateTrending(ctx, 0, true)
}

// LoadNextPage appends the page after the last fully stored one. On an empty
// cache it behaves as Refresh.
func (c *TrendingController) LoadNextPage(ctx context.Context) error {
	lastPage, ok, err := c.db.GetTrendingLastPage()
	if err != nil {
		return fmt.Errorf("failed to read trending cache state: %w", err)
	}
	if !ok {
		return c.Refresh(ctx)
	}
	return c.updateTrending(ctx, lastPage+1, false)
}

// updateTrending fetches one page, resolves every referenced show to a local
// ID, and persists the page's join rows. With reset set, the cache is cleared
// in the same transaction.
func (c *TrendingController) updateTrending(ctx context.Context, page int, reset bool) error {
	c.logger.WithFields(logrus.Fields{
		"page":  page,
		"reset": reset,
	}).Info("Updating trending shows")

	records, err := c.traktClient.GetTrendingShows(ctx, page, c.pageSize)
	if err != nil {
		return fmt.Errorf("failed to fetch trending page %d: %w", page, err)
	}

	entries := make([]*models.TrendingEntry, len(records))
	g := new(errgroup.Group)
	g.SetLimit(maxParallelResolves)
	for rank, record := range records {
		rank, record := rank, record
		g.Go(func() error {
			showID, err := c.showsCtrl.ResolveShow(record.Show)
			if errors.Is(err, ErrNoRemoteID) {
				c.logger.WithError(err).WithField("rank", rank).
					Warn("Skipping trending record without show identity")
				return nil
			}
			if err != nil {
				return err
			}
			entries[rank] = &models.TrendingEntry{
				ShowID:   showID,
				Page:     page,
				Rank:     rank,
				Watchers: record.Watchers,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rows := make([]*models.TrendingEntry, 0, len(entries))
	for _, entry := range entries {
		if entry != nil {
			rows = append(rows, entry)
		}
	}

	err = c.db.RunInTransaction(func(txn *models.Txn) error {
		if reset {
			if err := txn.DeleteAllTrending(); err != nil {
				return err
			}
		}
		return txn.InsertTrendingPage(rows)
	})
	if err != nil {
		return fmt.Errorf("failed to store trending page %d: %w", page, err)
	}

	c.logger.WithFields(logrus.Fields{
		"page":  page,
		"count": len(rows),
	}).Info("Trending page stored")

	// Best-effort full-detail pass for the shows on this page, outside the
	// transaction. Per-item failures never roll back the page write.
	g = new(errgroup.Group)
	g.SetLimit(maxParallelResolves)
	for _, row := range rows {
		row := row
		g.Go(func() error {
			if err := c.showsCtrl.EnsureShowDetails(ctx, row.ShowID); err != nil {
				c.logger.WithError(err).WithField("show_id", row.ShowID).
					Warn("Failed to refresh trending show details")
			}
			return nil
		})
	}
	g.Wait()

	return nil
}
