package models

import (
	"github.com/timshannon/bolthold"
)

// Trending cache operations

// InsertTrendingPage stores the join rows of one fetched trending page
func (t *Txn) InsertTrendingPage(entries []*TrendingEntry) error {
	for _, entry := range entries {
		if err := t.store.TxInsert(t.tx, bolthold.NextSequence(), entry); err != nil {
			return err
		}
	}
	t.touch(EntityTrending)
	return nil
}

// DeleteAllTrending clears the whole trending cache
func (t *Txn) DeleteAllTrending() error {
	if err := t.store.TxDeleteMatching(t.tx, &TrendingEntry{}, nil); err != nil {
		return err
	}
	t.touch(EntityTrending)
	return nil
}

// GetTrendingEntries retrieves the whole trending cache ordered by page and
// rank
func (db *Database) GetTrendingEntries() ([]*TrendingEntry, error) {
	var entries []*TrendingEntry
	err := db.store.Find(&entries, (&bolthold.Query{}).SortBy("Page", "Rank"))
	return entries, err
}

// GetTrendingLastPage returns the highest page number stored in the trending
// cache, or ok=false if the cache is empty
func (db *Database) GetTrendingLastPage() (page int, ok bool, err error) {
	var entries []*TrendingEntry
	err = db.store.Find(&entries, nil)
	if err != nil {
		return 0, false, err
	}
	if len(entries) == 0 {
		return 0, false, nil
	}
	for _, entry := range entries {
		if entry.Page > page {
			page = entry.Page
		}
	}
	return page, true, nil
}
