package models

import (
	"github.com/timshannon/bolthold"
)

// Watched-show snapshot operations

// ReplaceWatchedShows deletes the whole watched-show snapshot and inserts the
// given rows in its place. Callers run this inside one transaction so
// observers never see the intermediate empty state.
func (t *Txn) ReplaceWatchedShows(entries []*WatchedShow) error {
	if err := t.store.TxDeleteMatching(t.tx, &WatchedShow{}, nil); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := t.store.TxInsert(t.tx, bolthold.NextSequence(), entry); err != nil {
			return err
		}
	}
	t.touch(EntityWatchedShow)
	return nil
}

// GetWatchedShows retrieves the current watched-show snapshot
func (db *Database) GetWatchedShows() ([]*WatchedShow, error) {
	var entries []*WatchedShow
	err := db.store.Find(&entries, nil)
	return entries, err
}

// Watch entry operations

// InsertWatchEntry inserts a new watch entry
func (t *Txn) InsertWatchEntry(entry *WatchEntry) error {
	if err := t.store.TxInsert(t.tx, bolthold.NextSequence(), entry); err != nil {
		return err
	}
	t.touch(EntityWatchEntry)
	return nil
}

// UpdateWatchEntry updates an existing watch entry in place
func (t *Txn) UpdateWatchEntry(entry *WatchEntry) error {
	if err := t.store.TxUpdate(t.tx, entry.ID, entry); err != nil {
		return err
	}
	t.touch(EntityWatchEntry)
	return nil
}

// DeleteWatchEntries deletes the watch entries with the given local IDs
func (t *Txn) DeleteWatchEntries(ids []uint64) error {
	for _, id := range ids {
		if err := t.store.TxDelete(t.tx, id, &WatchEntry{}); err != nil {
			return err
		}
	}
	if len(ids) > 0 {
		t.touch(EntityWatchEntry)
	}
	return nil
}

// GetWatchEntryByID retrieves a watch entry by its local ID
func (db *Database) GetWatchEntryByID(id uint64) (*WatchEntry, error) {
	var entry WatchEntry
	if err := db.store.Get(id, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetWatchEntriesForShow retrieves all watch entries of a show
func (db *Database) GetWatchEntriesForShow(showID uint64) ([]*WatchEntry, error) {
	var entries []*WatchEntry
	err := db.store.Find(&entries, bolthold.Where("ShowID").Eq(showID))
	return entries, err
}

// GetWatchEntriesForShowWithAction retrieves the watch entries of a show that
// carry the given pending action
func (db *Database) GetWatchEntriesForShowWithAction(showID uint64, action PendingAction) ([]*WatchEntry, error) {
	var entries []*WatchEntry
	err := db.store.Find(&entries,
		bolthold.Where("ShowID").Eq(showID).And("PendingAction").Eq(action))
	return entries, err
}

// GetWatchEntriesForShowWithAction is the transactional variant, reading the
// uncommitted state of the enclosing transaction
func (t *Txn) GetWatchEntriesForShowWithAction(showID uint64, action PendingAction) ([]*WatchEntry, error) {
	var entries []*WatchEntry
	err := t.store.TxFind(t.tx, &entries,
		bolthold.Where("ShowID").Eq(showID).And("PendingAction").Eq(action))
	return entries, err
}

// GetWatchEntriesWithAction retrieves all watch entries carrying the given
// pending action, across all shows
func (db *Database) GetWatchEntriesWithAction(action PendingAction) ([]*WatchEntry, error) {
	var entries []*WatchEntry
	err := db.store.Find(&entries, bolthold.Where("PendingAction").Eq(action))
	return entries, err
}
