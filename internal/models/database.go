package models

import (
	"fmt"
	"sync"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store and fans out change notifications to
// observers after each committed transaction
type Database struct {
	store *bolthold.Store

	mu        sync.Mutex
	observers map[EntityType][]chan struct{}
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{
		store:     store,
		observers: make(map[EntityType][]chan struct{}),
	}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Txn is one write transaction. All mutations performed through it become
// visible atomically on commit; observers of the touched entity types are
// notified once, after the commit.
type Txn struct {
	tx      *bbolt.Tx
	store   *bolthold.Store
	changed map[EntityType]struct{}
}

func (t *Txn) touch(entityType EntityType) {
	t.changed[entityType] = struct{}{}
}

// RunInTransaction runs body inside a single write transaction. If body
// returns an error the transaction is rolled back and no observer is
// notified; the store is left exactly as it was before the call.
func (db *Database) RunInTransaction(body func(txn *Txn) error) error {
	changed := make(map[EntityType]struct{})

	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		return body(&Txn{tx: tx, store: db.store, changed: changed})
	})
	if err != nil {
		return err
	}

	db.notify(changed)
	return nil
}

// Observe subscribes to change notifications for one entity type. The
// returned channel receives (coalesced) signals after every committed
// transaction that touched the type; the cancel function unsubscribes.
// Observers are expected to re-query the store on each signal.
func (db *Database) Observe(entityType EntityType) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	db.mu.Lock()
	db.observers[entityType] = append(db.observers[entityType], ch)
	db.mu.Unlock()

	cancel := func() {
		db.mu.Lock()
		defer db.mu.Unlock()
		subs := db.observers[entityType]
		for i, sub := range subs {
			if sub == ch {
				db.observers[entityType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}

	return ch, cancel
}

// notify signals all observers of the touched entity types. Sends never
// block: a pending, undelivered signal already covers the new commit.
func (db *Database) notify(changed map[EntityType]struct{}) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for entityType := range changed {
		for _, ch := range db.observers[entityType] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

func (db *Database) notifyOne(entityType EntityType) {
	db.notify(map[EntityType]struct{}{entityType: {}})
}
