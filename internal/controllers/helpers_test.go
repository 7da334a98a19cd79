package controllers

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/amaumene/showsync/internal/models"
	"github.com/amaumene/showsync/internal/services/trakt"
	"github.com/sirupsen/logrus"
)

func newTestDB(t *testing.T) *models.Database {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fakeTrakt is an in-memory TraktAPI for controller tests
type fakeTrakt struct {
	mu sync.Mutex

	watched    []trakt.WatchedShowRecord
	watchedErr error

	trending    map[int][]trakt.TrendingShowRecord
	trendingErr error

	details map[int]*trakt.ShowDetails
	seasons map[int][]trakt.SeasonRecord
	history map[int][]trakt.HistoryRecord

	addResponse []trakt.AddedHistoryRecord

	// call records
	trendingPages []int
	detailCalls   map[int]int
	addedCalls    [][]trakt.HistoryAdd
	removedIDs    []int64
}

func newFakeTrakt() *fakeTrakt {
	return &fakeTrakt{
		trending:    make(map[int][]trakt.TrendingShowRecord),
		details:     make(map[int]*trakt.ShowDetails),
		seasons:     make(map[int][]trakt.SeasonRecord),
		history:     make(map[int][]trakt.HistoryRecord),
		detailCalls: make(map[int]int),
	}
}

func (f *fakeTrakt) GetWatchedShows(ctx context.Context) ([]trakt.WatchedShowRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchedErr != nil {
		return nil, f.watchedErr
	}
	return f.watched, nil
}

func (f *fakeTrakt) GetTrendingShows(ctx context.Context, page, limit int) ([]trakt.TrendingShowRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trendingErr != nil {
		return nil, f.trendingErr
	}
	f.trendingPages = append(f.trendingPages, page)
	records := f.trending[page]
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (f *fakeTrakt) GetShowDetails(ctx context.Context, traktID int) (*trakt.ShowDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[traktID]++
	details, ok := f.details[traktID]
	if !ok {
		return nil, fmt.Errorf("unknown show %d", traktID)
	}
	return details, nil
}

func (f *fakeTrakt) GetShowSeasons(ctx context.Context, traktID int) ([]trakt.SeasonRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seasons[traktID], nil
}

func (f *fakeTrakt) GetShowHistory(ctx context.Context, traktID int) ([]trakt.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history[traktID], nil
}

func (f *fakeTrakt) AddEpisodesToHistory(ctx context.Context, adds []trakt.HistoryAdd) ([]trakt.AddedHistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addedCalls = append(f.addedCalls, adds)
	return f.addResponse, nil
}

func (f *fakeTrakt) RemoveEpisodesFromHistory(ctx context.Context, historyIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedIDs = append(f.removedIDs, historyIDs...)
	return nil
}

func showRef(traktID int, title string) *trakt.ShowRef {
	ref := &trakt.ShowRef{Title: title}
	ref.IDs.Trakt = traktID
	return ref
}
