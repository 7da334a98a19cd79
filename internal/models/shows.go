package models

import (
	"time"

	"github.com/timshannon/bolthold"
)

// Show operations

// SaveShow inserts the show, or updates the existing row with the same Trakt
// ID while preserving its surrogate ID. Returns the surrogate ID either way.
func (t *Txn) SaveShow(show *Show) (uint64, error) {
	var existing Show
	err := t.store.TxFindOne(t.tx, &existing, bolthold.Where("TraktID").Eq(show.TraktID))
	switch err {
	case nil:
		show.ID = existing.ID
		show.CreatedAt = existing.CreatedAt
		show.UpdatedAt = time.Now()
		if err := t.store.TxUpdate(t.tx, show.ID, show); err != nil {
			return 0, err
		}
	case bolthold.ErrNotFound:
		show.CreatedAt = time.Now()
		show.UpdatedAt = show.CreatedAt
		if err := t.store.TxInsert(t.tx, bolthold.NextSequence(), show); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	t.touch(EntityShow)
	return show.ID, nil
}

// SaveShow is the single-statement variant of Txn.SaveShow
func (db *Database) SaveShow(show *Show) (uint64, error) {
	var id uint64
	err := db.RunInTransaction(func(txn *Txn) error {
		var err error
		id, err = txn.SaveShow(show)
		return err
	})
	return id, err
}

// GetShowByID retrieves a show by its local ID
func (db *Database) GetShowByID(id uint64) (*Show, error) {
	var show Show
	if err := db.store.Get(id, &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// GetShowByTraktID retrieves a show by its Trakt ID
func (db *Database) GetShowByTraktID(traktID int) (*Show, error) {
	var show Show
	if err := db.store.FindOne(&show, bolthold.Where("TraktID").Eq(traktID)); err != nil {
		return nil, err
	}
	return &show, nil
}

// GetShowIDOrCreatePlaceholder returns the local ID of the show with the
// given Trakt ID, inserting a minimal placeholder row if none exists yet.
// Safe under concurrent resolution of the same Trakt ID: the unique index on
// TraktID rejects the duplicate insert and the winner's row is returned.
func (db *Database) GetShowIDOrCreatePlaceholder(placeholder *Show) (uint64, error) {
	var existing Show
	err := db.store.FindOne(&existing, bolthold.Where("TraktID").Eq(placeholder.TraktID))
	if err == nil {
		return existing.ID, nil
	}
	if err != bolthold.ErrNotFound {
		return 0, err
	}

	placeholder.CreatedAt = time.Now()
	placeholder.UpdatedAt = placeholder.CreatedAt
	err = db.store.Insert(bolthold.NextSequence(), placeholder)
	if err == nil {
		db.notifyOne(EntityShow)
		return placeholder.ID, nil
	}
	if err != bolthold.ErrUniqueExists {
		return 0, err
	}

	// Lost the race against a concurrent resolver, fetch the winner's row
	if err := db.store.FindOne(&existing, bolthold.Where("TraktID").Eq(placeholder.TraktID)); err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// Season operations

// SaveSeason inserts or updates a season, preserving the surrogate ID of an
// existing row with the same Trakt ID
func (t *Txn) SaveSeason(season *Season) (uint64, error) {
	var existing Season
	err := t.store.TxFindOne(t.tx, &existing, bolthold.Where("TraktID").Eq(season.TraktID))
	switch err {
	case nil:
		season.ID = existing.ID
		season.CreatedAt = existing.CreatedAt
		season.UpdatedAt = time.Now()
		if err := t.store.TxUpdate(t.tx, season.ID, season); err != nil {
			return 0, err
		}
	case bolthold.ErrNotFound:
		season.CreatedAt = time.Now()
		season.UpdatedAt = season.CreatedAt
		if err := t.store.TxInsert(t.tx, bolthold.NextSequence(), season); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	t.touch(EntitySeason)
	return season.ID, nil
}

// GetSeasonsByShowID retrieves all seasons of a show ordered by number
func (db *Database) GetSeasonsByShowID(showID uint64) ([]*Season, error) {
	var seasons []*Season
	err := db.store.Find(&seasons, bolthold.Where("ShowID").Eq(showID).SortBy("Number"))
	return seasons, err
}

// Episode operations

// SaveEpisode inserts or updates an episode, preserving the surrogate ID of
// an existing row with the same Trakt ID
func (t *Txn) SaveEpisode(episode *Episode) (uint64, error) {
	var existing Episode
	err := t.store.TxFindOne(t.tx, &existing, bolthold.Where("TraktID").Eq(episode.TraktID))
	switch err {
	case nil:
		episode.ID = existing.ID
		episode.CreatedAt = existing.CreatedAt
		episode.UpdatedAt = time.Now()
		if err := t.store.TxUpdate(t.tx, episode.ID, episode); err != nil {
			return 0, err
		}
	case bolthold.ErrNotFound:
		episode.CreatedAt = time.Now()
		episode.UpdatedAt = episode.CreatedAt
		if err := t.store.TxInsert(t.tx, bolthold.NextSequence(), episode); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	t.touch(EntityEpisode)
	return episode.ID, nil
}

// GetEpisodeByID retrieves an episode by its local ID
func (db *Database) GetEpisodeByID(id uint64) (*Episode, error) {
	var episode Episode
	if err := db.store.Get(id, &episode); err != nil {
		return nil, err
	}
	return &episode, nil
}

// GetEpisodesByShowID retrieves all episodes of a show
func (db *Database) GetEpisodesByShowID(showID uint64) ([]*Episode, error) {
	var episodes []*Episode
	err := db.store.Find(&episodes, bolthold.Where("ShowID").Eq(showID).SortBy("Season", "Number"))
	return episodes, err
}

// GetEpisodeIDOrCreatePlaceholder returns the local ID of the episode with
// the given Trakt ID, inserting a placeholder row if none exists. Same race
// handling as GetShowIDOrCreatePlaceholder.
func (db *Database) GetEpisodeIDOrCreatePlaceholder(placeholder *Episode) (uint64, error) {
	var existing Episode
	err := db.store.FindOne(&existing, bolthold.Where("TraktID").Eq(placeholder.TraktID))
	if err == nil {
		return existing.ID, nil
	}
	if err != bolthold.ErrNotFound {
		return 0, err
	}

	placeholder.CreatedAt = time.Now()
	placeholder.UpdatedAt = placeholder.CreatedAt
	err = db.store.Insert(bolthold.NextSequence(), placeholder)
	if err == nil {
		db.notifyOne(EntityEpisode)
		return placeholder.ID, nil
	}
	if err != bolthold.ErrUniqueExists {
		return 0, err
	}

	if err := db.store.FindOne(&existing, bolthold.Where("TraktID").Eq(placeholder.TraktID)); err != nil {
		return 0, err
	}
	return existing.ID, nil
}
