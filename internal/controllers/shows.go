package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/showsync/internal/models"
	"github.com/amaumene/showsync/internal/services/trakt"
	"github.com/sirupsen/logrus"
)

// ErrNoRemoteID marks a fetched record that is missing its remote identity.
// Such records are skipped individually; they never abort a whole batch.
var ErrNoRemoteID = errors.New("record has no trakt id")

// TraktAPI is the slice of the Trakt client consumed by the controllers
type TraktAPI interface {
	GetWatchedShows(ctx context.Context) ([]trakt.WatchedShowRecord, error)
	GetTrendingShows(ctx context.Context, page, limit int) ([]trakt.TrendingShowRecord, error)
	GetShowDetails(ctx context.Context, traktID int) (*trakt.ShowDetails, error)
	GetShowSeasons(ctx context.Context, traktID int) ([]trakt.SeasonRecord, error)
	GetShowHistory(ctx context.Context, traktID int) ([]trakt.HistoryRecord, error)
	AddEpisodesToHistory(ctx context.Context, adds []trakt.HistoryAdd) ([]trakt.AddedHistoryRecord, error)
	RemoveEpisodesFromHistory(ctx context.Context, historyIDs []int64) error
}

// ShowsController resolves remote show references to stable local IDs and
// keeps show details fresh
type ShowsController struct {
	db          *models.Database
	traktClient TraktAPI
	logger      *logrus.Logger
}

// NewShowsController creates a new shows controller
func NewShowsController(db *models.Database, traktClient TraktAPI, logger *logrus.Logger) *ShowsController {
	return &ShowsController{
		db:          db,
		traktClient: traktClient,
		logger:      logger,
	}
}

// ResolveShow returns the stable local ID for a remote show reference,
// creating a placeholder row if the show is not known locally yet. Idempotent
// and safe to call from parallel fetch fan-out.
func (c *ShowsController) ResolveShow(ref *trakt.ShowRef) (uint64, error) {
	if ref == nil || ref.IDs.Trakt == 0 {
		return 0, fmt.Errorf("show reference: %w", ErrNoRemoteID)
	}

	return c.db.GetShowIDOrCreatePlaceholder(&models.Show{
		TraktID: ref.IDs.Trakt,
		Title:   ref.Title,
		Year:    ref.Year,
	})
}

// UpdateShow fetches the full show record and merges it over the local row,
// preserving the surrogate ID. The request ledger is stamped only after both
// the fetch and the store write succeeded.
func (c *ShowsController) UpdateShow(ctx context.Context, showID uint64) error {
	show, err := c.db.GetShowByID(showID)
	if err != nil {
		return fmt.Errorf("failed to load show %d: %w", showID, err)
	}

	details, err := c.traktClient.GetShowDetails(ctx, show.TraktID)
	if err != nil {
		return fmt.Errorf("failed to fetch details for show %d: %w", showID, err)
	}

	if _, err := c.db.SaveShow(&models.Show{
		TraktID:  show.TraktID,
		Title:    details.Title,
		Year:     details.Year,
		Overview: details.Overview,
		Status:   details.Status,
		Rating:   details.Rating,
	}); err != nil {
		return fmt.Errorf("failed to save show %d: %w", showID, err)
	}

	if err := c.db.TouchRequest(models.RequestShowDetails, showID); err != nil {
		return fmt.Errorf("failed to record show details request: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"show_id": showID,
		"title":   details.Title,
	}).Debug("Updated show details")

	return nil
}

// detailRefreshInterval is how long a fetched show detail record stays fresh
// before EnsureShowDetails fetches it again
const detailRefreshInterval = 7 * 24 * time.Hour

// EnsureShowDetails triggers a full detail refresh for shows whose details
// were never fetched, or not refreshed within detailRefreshInterval, per the
// request ledger. Fresh shows are left alone.
func (c *ShowsController) EnsureShowDetails(ctx context.Context, showID uint64) error {
	recent, err := c.db.RequestedSince(models.RequestShowDetails, showID, detailRefreshInterval)
	if err != nil {
		return err
	}
	if recent {
		return nil
	}
	return c.UpdateShow(ctx, showID)
}
