package models

import (
	"time"

	"github.com/timshannon/bolthold"
)

// Request ledger operations

// TouchRequest records a successful remote request for the given kind and
// entity, overwriting any previous ledger entry for the pair
func (db *Database) TouchRequest(kind RequestKind, entityID uint64) error {
	return db.RunInTransaction(func(txn *Txn) error {
		var existing LastRequest
		err := txn.store.TxFindOne(txn.tx, &existing,
			bolthold.Where("Kind").Eq(kind).And("EntityID").Eq(entityID))
		switch err {
		case nil:
			existing.Timestamp = time.Now()
			if err := txn.store.TxUpdate(txn.tx, existing.ID, &existing); err != nil {
				return err
			}
		case bolthold.ErrNotFound:
			entry := &LastRequest{Kind: kind, EntityID: entityID, Timestamp: time.Now()}
			if err := txn.store.TxInsert(txn.tx, bolthold.NextSequence(), entry); err != nil {
				return err
			}
		default:
			return err
		}
		txn.touch(EntityLastRequest)
		return nil
	})
}

// RequestedSince reports whether a successful remote request of the given
// kind has been recorded for the entity within the given window. An entity
// never requested at all reports false for any window.
func (db *Database) RequestedSince(kind RequestKind, entityID uint64, window time.Duration) (bool, error) {
	var entry LastRequest
	err := db.store.FindOne(&entry,
		bolthold.Where("Kind").Eq(kind).And("EntityID").Eq(entityID))
	switch err {
	case nil:
		return time.Since(entry.Timestamp) < window, nil
	case bolthold.ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}
