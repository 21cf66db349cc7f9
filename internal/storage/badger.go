package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"linksvault/internal/domain"
)

// BadgerRepository implements Repository and BlobStore on top of BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerRepository opens the database at the specified path.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.Info("BadgerDB opened successfully at path: ", dbPath)

	return &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
	}, nil
}

// Close closes the BadgerDB database connection.
func (r *BadgerRepository) Close() error {
	r.log.Info("Closing BadgerDB...")
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Info("BadgerDB closed.")
	return nil
}

// RunGC reclaims value-log space until the context is cancelled.
func (r *BadgerRepository) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := r.db.RunValueLogGC(0.7)
			switch {
			case err == nil:
				r.log.Debug("BadgerDB GC completed")
			case errors.Is(err, badger.ErrNoRewrite):
				r.log.Debug("BadgerDB GC: no rewrite needed")
			default:
				r.log.WithError(err).Warn("BadgerDB GC failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// generateLinkKey format: collection:{collectionID}:link:{comparisonKey}
func generateLinkKey(collectionID, key string) []byte {
	return []byte(fmt.Sprintf("collection:%s:link:%s", collectionID, key))
}

// generateCollectionPrefix format: collection:{collectionID}:link:
func generateCollectionPrefix(collectionID string) []byte {
	return []byte(fmt.Sprintf("collection:%s:link:", collectionID))
}

// generateItemKey format: item:{key}
func generateItemKey(key string) []byte {
	return []byte("item:" + key)
}

// SaveLink stores or updates a link under its comparison key.
func (r *BadgerRepository) SaveLink(ctx context.Context, collectionID string, link domain.LinkEntry) error {
	log := r.log.WithFields(logrus.Fields{
		"collection_id": collectionID,
		"url":           link.URL,
	})

	linkBytes, err := json.Marshal(link)
	if err != nil {
		log.WithError(err).Error("Failed to marshal link to JSON")
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	key := generateLinkKey(collectionID, link.Key())
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, linkBytes))
	})
	if err != nil {
		log.WithError(err).Error("Failed to save link to BadgerDB")
		return fmt.Errorf("failed to save link: %w", err)
	}

	log.Debug("Link saved")
	return nil
}

// GetLinks retrieves all links of a collection, newest first.
func (r *BadgerRepository) GetLinks(ctx context.Context, collectionID string) ([]domain.LinkEntry, error) {
	log := r.log.WithField("collection_id", collectionID)

	var links []domain.LinkEntry
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := generateCollectionPrefix(collectionID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				link, err := decodeLink(val)
				if err != nil {
					return fmt.Errorf("failed to unmarshal link data for key %s: %w", string(item.Key()), err)
				}
				links = append(links, link)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to retrieve links from BadgerDB")
		return nil, fmt.Errorf("failed to get links for collection %s: %w", collectionID, err)
	}

	sortNewestFirst(links)
	log.WithField("link_count", len(links)).Debug("Links retrieved")
	return links, nil
}

// GetLink retrieves one link by comparison key.
func (r *BadgerRepository) GetLink(ctx context.Context, collectionID, key string) (domain.LinkEntry, error) {
	var link domain.LinkEntry
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(generateLinkKey(collectionID, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			link, err = decodeLink(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.LinkEntry{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.LinkEntry{}, fmt.Errorf("failed to get link %s: %w", key, err)
	}
	return link, nil
}

// DeleteLink removes a link by comparison key.
func (r *BadgerRepository) DeleteLink(ctx context.Context, collectionID, key string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(generateLinkKey(collectionID, key))
	})
	if err != nil {
		r.log.WithError(err).WithField("key", key).Error("Failed to delete link from BadgerDB")
		return fmt.Errorf("failed to delete link %s from collection %s: %w", key, collectionID, err)
	}
	return nil
}

// GetItem reads a blob value.
func (r *BadgerRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(generateItemKey(key))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value = string(val)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get item %s: %w", key, err)
	}
	return value, true, nil
}

// SetItem writes a blob value, replacing any previous one.
func (r *BadgerRepository) SetItem(ctx context.Context, key, value string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(generateItemKey(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to set item %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes a blob value. Removing a missing key is not an error.
func (r *BadgerRepository) RemoveItem(ctx context.Context, key string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(generateItemKey(key))
	})
	if err != nil {
		return fmt.Errorf("failed to remove item %s: %w", key, err)
	}
	return nil
}

func decodeLink(val []byte) (domain.LinkEntry, error) {
	var link domain.LinkEntry
	if err := json.Unmarshal(val, &link); err != nil {
		return domain.LinkEntry{}, err
	}
	if link.Timestamp == "" {
		link.Timestamp = domain.LegacyTimestamp(link.URL)
	}
	if link.Title == "" {
		link.Title = link.URL
	}
	return link, nil
}

// sortNewestFirst orders by timestamp; legacy timestamps sort after real ones.
func sortNewestFirst(links []domain.LinkEntry) {
	parsed := make(map[string]time.Time, len(links))
	for _, l := range links {
		if ts, err := time.Parse(time.RFC3339Nano, l.Timestamp); err == nil {
			parsed[l.Timestamp] = ts
		}
	}
	sort.SliceStable(links, func(i, j int) bool {
		ti, okI := parsed[links[i].Timestamp]
		tj, okJ := parsed[links[j].Timestamp]
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI != okJ:
			return okI
		default:
			return links[i].Timestamp < links[j].Timestamp
		}
	})
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
