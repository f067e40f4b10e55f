// ABOUTME: Bolt-backed cache of last-used submission preferences
// ABOUTME: Restores model selection and skill sets across process restarts

// Package prefs persists the handful of submission defaults worth keeping
// across restarts: the last model the user picked and the skill sets they
// had enabled. Conversation state itself always comes from the platform;
// only input preferences live here.
package prefs

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/minnowchat/minnow/internal/chat"
)

var prefsBucket = []byte("prefs")

const (
	modelKey     = "model_selector"
	skillSetsKey = "skill_set_ids"
)

// Store is a bolt-backed preference cache.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the preference database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening preference db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(prefsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing preference db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LastModelSelector returns the most recently saved model selection, if any.
func (s *Store) LastModelSelector() (chat.ModelSelector, bool, error) {
	var selector chat.ModelSelector
	found, err := s.get(modelKey, &selector)
	return selector, found, err
}

// SaveModelSelector records the model selection to restore on next start.
func (s *Store) SaveModelSelector(selector chat.ModelSelector) error {
	return s.put(modelKey, selector)
}

// LastSkillSetIDs returns the most recently saved skill set selection.
func (s *Store) LastSkillSetIDs() ([]string, error) {
	var ids []string
	if _, err := s.get(skillSetsKey, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveSkillSetIDs records the skill set selection to restore on next start.
func (s *Store) SaveSkillSetIDs(ids []string) error {
	return s.put(skillSetsKey, ids)
}

func (s *Store) get(key string, dst any) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(prefsBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("unmarshaling preference %q: %w", key, err)
		}
		return nil
	})
	return found, err
}

func (s *Store) put(key string, value any) error {
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling preference %q: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(prefsBucket).Put([]byte(key), v)
	})
}
