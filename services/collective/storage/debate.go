// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/velumlabs/communion/services/collective/datatypes"
)

const debatePrefix = "deb:"

// DebateStore is the append-only, chronologically ordered log of agent
// statements. The orchestration engine is its only writer.
type DebateStore struct {
	db *badger.DB
}

// NewDebateStore wraps the shared database handle.
func NewDebateStore(db *badger.DB) *DebateStore {
	return &DebateStore{db: db}
}

// Append persists a debate entry, assigning ID and CreatedAt when unset.
// Entries are never edited or removed afterwards.
func (s *DebateStore) Append(entry *datatypes.DebateEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	val, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal debate entry: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(timeKey(debatePrefix, entry.CreatedAt, entry.ID), val)
	})
	if err != nil {
		return fmt.Errorf("persist debate entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *DebateStore) Recent(limit int) ([]datatypes.DebateEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	prefix := []byte(debatePrefix)
	// Seek target just past the last possible debate key.
	seekPast := []byte(debatePrefix + "~")
	var entries []datatypes.DebateEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(seekPast); it.ValidForPrefix(prefix) && len(entries) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry datatypes.DebateEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return fmt.Errorf("decode debate entry %s: %w", it.Item().Key(), err)
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByAgentSince counts statements authored by agent at or after
// since, looking at no more than the scanback newest entries. The
// orchestration cooldown reads a small recency window, matching how the
// live log is consumed.
func (s *DebateStore) CountByAgentSince(agent datatypes.AgentID, since time.Time, scanback int) (int, error) {
	recent, err := s.Recent(scanback)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, entry := range recent {
		if entry.AgentID == agent && !entry.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
