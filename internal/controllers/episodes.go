package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/showsync/internal/models"
	"github.com/amaumene/showsync/internal/services/trakt"
	"github.com/amaumene/showsync/internal/syncer"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// EpisodesController keeps seasons, episodes and per-episode watch entries in
// sync with Trakt, and pushes locally created watch mutations back out
type EpisodesController struct {
	db          *models.Database
	traktClient TraktAPI
	logger      *logrus.Logger
}

// NewEpisodesController creates a new episodes controller
func NewEpisodesController(db *models.Database, traktClient TraktAPI, logger *logrus.Logger) *EpisodesController {
	return &EpisodesController{
		db:          db,
		traktClient: traktClient,
		logger:      logger,
	}
}

// RefreshShowSeasons fetches all seasons of a show, episodes included, and
// merges them over the local rows in one transaction. Surrogate IDs of
// existing seasons and episodes are preserved.
func (c *EpisodesController) RefreshShowSeasons(ctx context.Context, showID uint64) error {
	show, err := c.db.GetShowByID(showID)
	if err != nil {
		return fmt.Errorf("failed to load show %d: %w", showID, err)
	}

	seasons, err := c.traktClient.GetShowSeasons(ctx, show.TraktID)
	if err != nil {
		return fmt.Errorf("failed to fetch seasons for show %d: %w", showID, err)
	}

	err = c.db.RunInTransaction(func(txn *models.Txn) error {
		for _, season := range seasons {
			if season.IDs.Trakt == 0 {
				c.logger.WithField("number", season.Number).
					Warn("Skipping season without trakt id")
				continue
			}

			seasonID, err := txn.SaveSeason(&models.Season{
				ShowID:       showID,
				TraktID:      season.IDs.Trakt,
				Number:       season.Number,
				EpisodeCount: season.EpisodeCount,
			})
			if err != nil {
				return err
			}

			for _, episode := range season.Episodes {
				if episode.IDs.Trakt == 0 {
					c.logger.WithFields(logrus.Fields{
						"season": episode.Season,
						"number": episode.Number,
					}).Warn("Skipping episode without trakt id")
					continue
				}

				if _, err := txn.SaveEpisode(&models.Episode{
					SeasonID:   seasonID,
					ShowID:     showID,
					TraktID:    episode.IDs.Trakt,
					Season:     episode.Season,
					Number:     episode.Number,
					Title:      episode.Title,
					FirstAired: episode.FirstAired,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store seasons for show %d: %w", showID, err)
	}

	if err := c.db.TouchRequest(models.RequestShowSeasons, showID); err != nil {
		return fmt.Errorf("failed to record seasons request: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"show_id": showID,
		"seasons": len(seasons),
	}).Info("Show seasons refreshed")

	return nil
}

// SyncShowWatchEntries reconciles the per-episode watch entries of one show
// against the remote history. Entries carrying a pending action belong to the
// upload pipeline and are excluded from the pass, so they can never be
// deleted here.
func (c *EpisodesController) SyncShowWatchEntries(ctx context.Context, showID uint64) error {
	show, err := c.db.GetShowByID(showID)
	if err != nil {
		return fmt.Errorf("failed to load show %d: %w", showID, err)
	}

	records, err := c.traktClient.GetShowHistory(ctx, show.TraktID)
	if err != nil {
		return fmt.Errorf("failed to fetch history for show %d: %w", showID, err)
	}

	// Resolve episode placeholders up front, in parallel, so the
	// transaction below only touches the local store.
	incoming := make([]*models.WatchEntry, len(records))
	g := new(errgroup.Group)
	g.SetLimit(maxParallelResolves)
	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			if record.ID == 0 || record.Episode == nil || record.Episode.IDs.Trakt == 0 {
				c.logger.Warn("Skipping history record without episode identity")
				return nil
			}
			episodeID, err := c.db.GetEpisodeIDOrCreatePlaceholder(&models.Episode{
				ShowID:  showID,
				TraktID: record.Episode.IDs.Trakt,
				Season:  record.Episode.Season,
				Number:  record.Episode.Number,
				Title:   record.Episode.Title,
			})
			if err != nil {
				return err
			}
			incoming[i] = &models.WatchEntry{
				EpisodeID:     episodeID,
				ShowID:        showID,
				TraktID:       record.ID,
				WatchedAt:     record.WatchedAt,
				PendingAction: models.ActionNothing,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	resolved := make([]*models.WatchEntry, 0, len(incoming))
	for _, entry := range incoming {
		if entry != nil {
			resolved = append(resolved, entry)
		}
	}

	return c.db.RunInTransaction(func(txn *models.Txn) error {
		current, err := txn.GetWatchEntriesForShowWithAction(showID, models.ActionNothing)
		if err != nil {
			return err
		}

		result, err := syncer.Sync(c.logger, syncer.Funcs[*models.WatchEntry, int64]{
			Key: func(entry *models.WatchEntry) (int64, error) {
				if entry.TraktID == 0 {
					return 0, ErrNoRemoteID
				}
				return entry.TraktID, nil
			},
			LocalID: func(entry *models.WatchEntry) uint64 { return entry.ID },
			AssignID: func(entry *models.WatchEntry, id uint64) *models.WatchEntry {
				merged := *entry
				merged.ID = id
				return &merged
			},
			Insert: txn.InsertWatchEntry,
			Update: txn.UpdateWatchEntry,
			Delete: txn.DeleteWatchEntries,
		}, current, resolved, syncer.Options{RemoveMissing: true})
		if err != nil {
			return err
		}

		c.logger.WithFields(logrus.Fields{
			"show_id": showID,
			"added":   result.Added,
			"updated": result.Updated,
			"deleted": result.Deleted,
		}).Info("Watch entries reconciled")
		return nil
	})
}

// MarkEpisodeWatched records a local watch event for an episode. The entry
// carries ActionUpload until the upload pipeline confirms it with Trakt.
func (c *EpisodesController) MarkEpisodeWatched(episodeID uint64) error {
	episode, err := c.db.GetEpisodeByID(episodeID)
	if err != nil {
		return fmt.Errorf("failed to load episode %d: %w", episodeID, err)
	}

	return c.db.RunInTransaction(func(txn *models.Txn) error {
		return txn.InsertWatchEntry(&models.WatchEntry{
			EpisodeID:     episodeID,
			ShowID:        episode.ShowID,
			WatchedAt:     time.Now(),
			PendingAction: models.ActionUpload,
		})
	})
}

// MarkWatchEntryDeleted flags a watch entry for remote deletion. An entry
// that was never uploaded is simply removed; a confirmed one is kept with
// ActionDelete until Trakt acknowledges the removal.
func (c *EpisodesController) MarkWatchEntryDeleted(entryID uint64) error {
	entry, err := c.db.GetWatchEntryByID(entryID)
	if err != nil {
		return fmt.Errorf("failed to load watch entry %d: %w", entryID, err)
	}

	return c.db.RunInTransaction(func(txn *models.Txn) error {
		if entry.TraktID == 0 {
			return txn.DeleteWatchEntries([]uint64{entry.ID})
		}
		entry.PendingAction = models.ActionDelete
		return txn.UpdateWatchEntry(entry)
	})
}

// ProcessPendingWatchEntries pushes unconfirmed local mutations to Trakt:
// entries with ActionUpload are submitted and stamped with the remote
// history ID on confirmation; entries with ActionDelete are removed remotely
// and then dropped locally.
func (c *EpisodesController) ProcessPendingWatchEntries(ctx context.Context) error {
	if err := c.processUploads(ctx); err != nil {
		return err
	}
	return c.processDeletes(ctx)
}

func (c *EpisodesController) processUploads(ctx context.Context) error {
	uploads, err := c.db.GetWatchEntriesWithAction(models.ActionUpload)
	if err != nil {
		return fmt.Errorf("failed to load pending uploads: %w", err)
	}
	if len(uploads) == 0 {
		return nil
	}

	adds := make([]trakt.HistoryAdd, 0, len(uploads))
	episodeTraktIDs := make(map[uint64]int, len(uploads))
	for _, entry := range uploads {
		episode, err := c.db.GetEpisodeByID(entry.EpisodeID)
		if err != nil {
			c.logger.WithError(err).WithField("entry_id", entry.ID).
				Warn("Pending upload references unknown episode, leaving it for later")
			continue
		}
		episodeTraktIDs[entry.ID] = episode.TraktID
		adds = append(adds, trakt.HistoryAdd{
			EpisodeTraktID: episode.TraktID,
			WatchedAt:      entry.WatchedAt,
		})
	}
	if len(adds) == 0 {
		return nil
	}

	confirmed, err := c.traktClient.AddEpisodesToHistory(ctx, adds)
	if err != nil {
		return fmt.Errorf("failed to upload watch entries: %w", err)
	}

	historyByEpisode := make(map[int]int64, len(confirmed))
	for _, record := range confirmed {
		historyByEpisode[record.Episode.IDs.Trakt] = record.ID
	}

	return c.db.RunInTransaction(func(txn *models.Txn) error {
		for _, entry := range uploads {
			historyID, ok := historyByEpisode[episodeTraktIDs[entry.ID]]
			if !ok {
				// Not confirmed this round; the entry keeps ActionUpload
				continue
			}
			entry.TraktID = historyID
			entry.PendingAction = models.ActionNothing
			if err := txn.UpdateWatchEntry(entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *EpisodesController) processDeletes(ctx context.Context) error {
	deletes, err := c.db.GetWatchEntriesWithAction(models.ActionDelete)
	if err != nil {
		return fmt.Errorf("failed to load pending deletes: %w", err)
	}
	if len(deletes) == 0 {
		return nil
	}

	historyIDs := make([]int64, 0, len(deletes))
	for _, entry := range deletes {
		if entry.TraktID != 0 {
			historyIDs = append(historyIDs, entry.TraktID)
		}
	}

	if len(historyIDs) > 0 {
		if err := c.traktClient.RemoveEpisodesFromHistory(ctx, historyIDs); err != nil {
			return fmt.Errorf("failed to remove watch entries remotely: %w", err)
		}
	}

	ids := make([]uint64, 0, len(deletes))
	for _, entry := range deletes {
		ids = append(ids, entry.ID)
	}

	return c.db.RunInTransaction(func(txn *models.Txn) error {
		return txn.DeleteWatchEntries(ids)
	})
}
