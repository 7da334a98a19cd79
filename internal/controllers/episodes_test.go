package controllers

import (
	"context"
	"testing"
	"time"

	"github.com/amaumene/showsync/internal/models"
	"github.com/amaumene/showsync/internal/services/trakt"
)

func historyRecord(historyID int64, episodeTraktID, season, number int) trakt.HistoryRecord {
	record := trakt.HistoryRecord{
		ID:        historyID,
		WatchedAt: time.Now(),
		Type:      "episode",
		Episode: &trakt.EpisodeRecord{
			Season: season,
			Number: number,
		},
	}
	record.Episode.IDs.Trakt = episodeTraktID
	return record
}

func seedShow(t *testing.T, db *models.Database, traktID int) uint64 {
	t.Helper()
	showID, err := db.SaveShow(&models.Show{TraktID: traktID, Title: "Seeded"})
	if err != nil {
		t.Fatalf("Failed to seed show: %v", err)
	}
	return showID
}

func seedEpisode(t *testing.T, db *models.Database, showID uint64, traktID, season, number int) uint64 {
	t.Helper()
	episodeID, err := db.GetEpisodeIDOrCreatePlaceholder(&models.Episode{
		ShowID:  showID,
		TraktID: traktID,
		Season:  season,
		Number:  number,
	})
	if err != nil {
		t.Fatalf("Failed to seed episode: %v", err)
	}
	return episodeID
}

func TestRefreshShowSeasonsPersists(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)

	season := trakt.SeasonRecord{Number: 1, EpisodeCount: 2}
	season.IDs.Trakt = 11
	episode1 := trakt.EpisodeRecord{Season: 1, Number: 1, Title: "Pilot"}
	episode1.IDs.Trakt = 101
	episode2 := trakt.EpisodeRecord{Season: 1, Number: 2, Title: "Next"}
	episode2.IDs.Trakt = 102
	season.Episodes = []trakt.EpisodeRecord{episode1, episode2}
	fake.seasons[10] = []trakt.SeasonRecord{season}

	if err := ctrl.RefreshShowSeasons(context.Background(), showID); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	seasons, err := db.GetSeasonsByShowID(showID)
	if err != nil {
		t.Fatalf("Season read failed: %v", err)
	}
	if len(seasons) != 1 || seasons[0].Number != 1 {
		t.Fatalf("Expected one season numbered 1, got %+v", seasons)
	}

	episodes, err := db.GetEpisodesByShowID(showID)
	if err != nil {
		t.Fatalf("Episode read failed: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("Expected 2 episodes, got %d", len(episodes))
	}
	for _, episode := range episodes {
		if episode.SeasonID != seasons[0].ID {
			t.Errorf("Episode %d not linked to its season", episode.TraktID)
		}
	}

	recent, err := db.RequestedSince(models.RequestShowSeasons, showID, time.Minute)
	if err != nil || !recent {
		t.Errorf("Seasons request should be in the ledger (recent=%v err=%v)", recent, err)
	}
}

func TestRefreshShowSeasonsPreservesEpisodeIDs(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)
	placeholderID := seedEpisode(t, db, showID, 101, 1, 1)

	season := trakt.SeasonRecord{Number: 1, EpisodeCount: 1}
	season.IDs.Trakt = 11
	episode := trakt.EpisodeRecord{Season: 1, Number: 1, Title: "Pilot"}
	episode.IDs.Trakt = 101
	season.Episodes = []trakt.EpisodeRecord{episode}
	fake.seasons[10] = []trakt.SeasonRecord{season}

	if err := ctrl.RefreshShowSeasons(context.Background(), showID); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	stored, err := db.GetEpisodeByID(placeholderID)
	if err != nil {
		t.Fatalf("Placeholder surrogate ID was not preserved: %v", err)
	}
	if stored.Title != "Pilot" {
		t.Errorf("Placeholder should carry full attributes now, got %+v", stored)
	}
}

func TestSyncShowWatchEntriesReconciles(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)
	fake.history[10] = []trakt.HistoryRecord{
		historyRecord(900, 101, 1, 1),
		historyRecord(901, 102, 1, 2),
	}

	if err := ctrl.SyncShowWatchEntries(context.Background(), showID); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	entries, err := db.GetWatchEntriesForShow(showID)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 watch entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.PendingAction != models.ActionNothing {
			t.Errorf("Synced entry should carry no pending action, got %v", entry.PendingAction)
		}
		if entry.TraktID == 0 {
			t.Error("Synced entry should carry the remote history ID")
		}
		if _, err := db.GetEpisodeByID(entry.EpisodeID); err != nil {
			t.Errorf("Entry references episode %d which does not exist locally", entry.EpisodeID)
		}
	}
}

func TestSyncShowWatchEntriesIdentityContinuity(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)
	fake.history[10] = []trakt.HistoryRecord{historyRecord(900, 101, 1, 1)}

	if err := ctrl.SyncShowWatchEntries(context.Background(), showID); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	first, _ := db.GetWatchEntriesForShow(showID)

	if err := ctrl.SyncShowWatchEntries(context.Background(), showID); err != nil {
		t.Fatalf("Second sync failed: %v", err)
	}
	second, _ := db.GetWatchEntriesForShow(showID)

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Expected 1 entry in both passes, got %d and %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Errorf("Watch entry surrogate ID changed across syncs: %d != %d", first[0].ID, second[0].ID)
	}
}

func TestPendingUploadSurvivesReconciliation(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)
	episodeID := seedEpisode(t, db, showID, 101, 1, 1)

	if err := ctrl.MarkEpisodeWatched(episodeID); err != nil {
		t.Fatalf("MarkEpisodeWatched failed: %v", err)
	}

	// Remote history is empty; the unconfirmed local entry must survive.
	if err := ctrl.SyncShowWatchEntries(context.Background(), showID); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	entries, _ := db.GetWatchEntriesForShow(showID)
	if len(entries) != 1 {
		t.Fatalf("Unconfirmed local entry was deleted by the sync: %d entries", len(entries))
	}
	if entries[0].PendingAction != models.ActionUpload {
		t.Errorf("Entry should still be pending upload, got %v", entries[0].PendingAction)
	}
}

func TestSyncedEntryAbsentFromRemoteIsDeleted(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)
	fake.history[10] = []trakt.HistoryRecord{historyRecord(900, 101, 1, 1)}

	if err := ctrl.SyncShowWatchEntries(context.Background(), showID); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	fake.mu.Lock()
	fake.history[10] = nil
	fake.mu.Unlock()

	if err := ctrl.SyncShowWatchEntries(context.Background(), showID); err != nil {
		t.Fatalf("Second sync failed: %v", err)
	}

	entries, _ := db.GetWatchEntriesForShow(showID)
	if len(entries) != 0 {
		t.Errorf("Entry removed remotely should be removed locally, got %d entries", len(entries))
	}
}

func TestProcessPendingUploadsStampsRemoteID(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)
	episodeID := seedEpisode(t, db, showID, 101, 1, 1)

	if err := ctrl.MarkEpisodeWatched(episodeID); err != nil {
		t.Fatalf("MarkEpisodeWatched failed: %v", err)
	}

	confirmed := trakt.AddedHistoryRecord{ID: 555}
	confirmed.Episode.IDs.Trakt = 101
	fake.addResponse = []trakt.AddedHistoryRecord{confirmed}

	if err := ctrl.ProcessPendingWatchEntries(context.Background()); err != nil {
		t.Fatalf("Pending processing failed: %v", err)
	}

	if len(fake.addedCalls) != 1 || len(fake.addedCalls[0]) != 1 {
		t.Fatalf("Expected one upload call with one event, got %+v", fake.addedCalls)
	}
	if fake.addedCalls[0][0].EpisodeTraktID != 101 {
		t.Errorf("Upload referenced wrong episode: %+v", fake.addedCalls[0][0])
	}

	entries, _ := db.GetWatchEntriesForShow(showID)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].TraktID != 555 {
		t.Errorf("Expected stamped history ID 555, got %d", entries[0].TraktID)
	}
	if entries[0].PendingAction != models.ActionNothing {
		t.Errorf("Confirmed entry should carry no pending action, got %v", entries[0].PendingAction)
	}
}

func TestProcessPendingUploadsKeepsUnconfirmed(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)
	episodeID := seedEpisode(t, db, showID, 101, 1, 1)

	if err := ctrl.MarkEpisodeWatched(episodeID); err != nil {
		t.Fatalf("MarkEpisodeWatched failed: %v", err)
	}

	// Trakt confirms nothing this round.
	if err := ctrl.ProcessPendingWatchEntries(context.Background()); err != nil {
		t.Fatalf("Pending processing failed: %v", err)
	}

	entries, _ := db.GetWatchEntriesForShow(showID)
	if len(entries) != 1 || entries[0].PendingAction != models.ActionUpload {
		t.Errorf("Unconfirmed entry must keep its pending upload: %+v", entries)
	}
}

func TestMarkWatchEntryDeletedNeverUploaded(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)
	episodeID := seedEpisode(t, db, showID, 101, 1, 1)

	if err := ctrl.MarkEpisodeWatched(episodeID); err != nil {
		t.Fatalf("MarkEpisodeWatched failed: %v", err)
	}
	entries, _ := db.GetWatchEntriesForShow(showID)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	if err := ctrl.MarkWatchEntryDeleted(entries[0].ID); err != nil {
		t.Fatalf("MarkWatchEntryDeleted failed: %v", err)
	}

	entries, _ = db.GetWatchEntriesForShow(showID)
	if len(entries) != 0 {
		t.Errorf("Never-uploaded entry should be removed outright, got %+v", entries)
	}
	if len(fake.removedIDs) != 0 {
		t.Errorf("No remote removal should happen for a never-uploaded entry, got %v", fake.removedIDs)
	}
}

func TestMarkWatchEntryDeletedConfirmedEntry(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)
	fake.history[10] = []trakt.HistoryRecord{historyRecord(900, 101, 1, 1)}

	if err := ctrl.SyncShowWatchEntries(context.Background(), showID); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	entries, _ := db.GetWatchEntriesForShow(showID)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	if err := ctrl.MarkWatchEntryDeleted(entries[0].ID); err != nil {
		t.Fatalf("MarkWatchEntryDeleted failed: %v", err)
	}

	// Until the pipeline runs, the entry stays with a pending delete.
	entries, _ = db.GetWatchEntriesForShow(showID)
	if len(entries) != 1 || entries[0].PendingAction != models.ActionDelete {
		t.Fatalf("Confirmed entry should be kept pending delete: %+v", entries)
	}

	if err := ctrl.ProcessPendingWatchEntries(context.Background()); err != nil {
		t.Fatalf("Pending processing failed: %v", err)
	}

	if len(fake.removedIDs) != 1 || fake.removedIDs[0] != 900 {
		t.Errorf("Expected remote removal of history ID 900, got %v", fake.removedIDs)
	}
	entries, _ = db.GetWatchEntriesForShow(showID)
	if len(entries) != 0 {
		t.Errorf("Entry should be dropped after remote removal, got %+v", entries)
	}
}

func TestPendingDeleteExcludedFromReconciliation(t *testing.T) {
	db := newTestDB(t)
	fake := newFakeTrakt()
	ctrl := NewEpisodesController(db, fake, testLogger())

	showID := seedShow(t, db, 10)
	fake.history[10] = []trakt.HistoryRecord{historyRecord(900, 101, 1, 1)}

	if err := ctrl.SyncShowWatchEntries(context.Background(), showID); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	entries, _ := db.GetWatchEntriesForShow(showID)
	if err := ctrl.MarkWatchEntryDeleted(entries[0].ID); err != nil {
		t.Fatalf("MarkWatchEntryDeleted failed: %v", err)
	}

	// The remote still lists the event; the local pending delete must win.
	if err := ctrl.SyncShowWatchEntries(context.Background(), showID); err != nil {
		t.Fatalf("Second sync failed: %v", err)
	}

	entries, _ = db.GetWatchEntriesForShow(showID)
	pendingDeletes := 0
	for _, entry := range entries {
		if entry.PendingAction == models.ActionDelete {
			pendingDeletes++
		}
	}
	if pendingDeletes != 1 {
		t.Errorf("Pending delete should survive reconciliation, got %+v", entries)
	}
}
