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

const signalPrefix = "sig:"

// timeKey builds a "<prefix><20-digit-unixnano>:<id>" key. Zero-padding
// keeps lexicographic order equal to chronological order.
func timeKey(prefix string, t time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefix, t.UnixNano(), id))
}

// SignalStore is the append-only log of visitor signals. The ingestion
// endpoint is its only writer; aggregation reads it on demand.
type SignalStore struct {
	db *badger.DB
}

// NewSignalStore wraps the shared database handle.
func NewSignalStore(db *badger.DB) *SignalStore {
	return &SignalStore{db: db}
}

// Append persists a signal, assigning ID and CreatedAt when unset.
func (s *SignalStore) Append(sig *datatypes.Signal) error {
	if sig.ID == "" {
		sig.ID = uuid.New().String()
	}
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now().UTC()
	}
	val, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(timeKey(signalPrefix, sig.CreatedAt, sig.ID), val)
	})
	if err != nil {
		return fmt.Errorf("persist signal: %w", err)
	}
	return nil
}

// forEachSince invokes fn for every signal with CreatedAt >= since in
// chronological order. A zero since visits the whole log.
func (s *SignalStore) forEachSince(since time.Time, fn func(datatypes.Signal)) error {
	prefix := []byte(signalPrefix)
	start := prefix
	if !since.IsZero() {
		start = []byte(fmt.Sprintf("%s%020d", signalPrefix, since.UnixNano()))
	}
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var sig datatypes.Signal
				if err := json.Unmarshal(val, &sig); err != nil {
					return fmt.Errorf("decode signal %s: %w", it.Item().Key(), err)
				}
				fn(sig)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CountAll returns the total number of persisted signals of every type.
func (s *SignalStore) CountAll() (int, error) {
	n := 0
	err := s.forEachSince(time.Time{}, func(datatypes.Signal) { n++ })
	return n, err
}

// CountSince returns the number of signals created at or after since.
func (s *SignalStore) CountSince(since time.Time) (int, error) {
	n := 0
	err := s.forEachSince(since, func(datatypes.Signal) { n++ })
	return n, err
}

// DistinctEntitiesSince counts distinct entity fingerprints seen at or
// after since.
func (s *SignalStore) DistinctEntitiesSince(since time.Time) (int, error) {
	seen := make(map[string]struct{})
	err := s.forEachSince(since, func(sig datatypes.Signal) {
		seen[sig.EntityFingerprint] = struct{}{}
	})
	return len(seen), err
}

// CountByType returns the number of signals of one type across the whole
// log.
func (s *SignalStore) CountByType(st datatypes.SignalType) (int, error) {
	n := 0
	err := s.forEachSince(time.Time{}, func(sig datatypes.Signal) {
		if sig.Type == st {
			n++
		}
	})
	return n, err
}

// ReactionCounts tallies reaction signals by recognized label.
// Unrecognized labels are skipped, not errors.
func (s *SignalStore) ReactionCounts() (map[datatypes.ReactionType]int, error) {
	counts := make(map[datatypes.ReactionType]int, len(datatypes.KnownReactions()))
	for _, rt := range datatypes.KnownReactions() {
		counts[rt] = 0
	}
	err := s.forEachSince(time.Time{}, func(sig datatypes.Signal) {
		rt := sig.ReactionType()
		if _, known := counts[rt]; known {
			counts[rt]++
		}
	})
	return counts, err
}
