// SPDX-License-Identifier: GPL-2.0-or-later

// Package keys holds the per region XTEA keys.
package keys

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

type Key [4]uint32

func (k Key) IsZero() bool {
	return k == Key{}
}

// Store maps region ids to keys. The table is only ever replaced as a whole.
type Store struct {
	mu    sync.RWMutex
	table map[uint32]Key
}

func NewStore() *Store {
	return &Store{table: make(map[uint32]Key)}
}

// Get returns the key of a region. All zero keys count as absent.
func (s *Store) Get(region uint32) (Key, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.table[region]
	return k, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

// Replace swaps in a new table.
func (s *Store) Replace(table map[uint32]Key) {
	t := make(map[uint32]Key, len(table))
	for r, k := range table {
		if !k.IsZero() {
			t[r] = k
		}
	}
	s.mu.Lock()
	s.table = t
	s.mu.Unlock()
}

// LoadFile reads an xteas.json file and replaces the table.
func (s *Store) LoadFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Reload(f)
}

// Reload parses keys from r and replaces the table. On error the old table
// is kept.
func (s *Store) Reload(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	t, err := Parse(data)
	if err != nil {
		return err
	}
	s.Replace(t)
	return nil
}

type entry struct {
	Mapsquare *int64  `json:"mapsquare"`
	Region    *int64  `json:"region"`
	Key       []int64 `json:"key"`
	Keys      []int64 `json:"keys"`
}

// Parse accepts either an array of {mapsquare|region, key|keys} objects or
// the legacy object keyed by mapsquare id.
func Parse(data []byte) (map[uint32]Key, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return map[uint32]Key{}, nil
	}
	if data[0] == '{' {
		return parseLegacy(data)
	}
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "could not decode keys")
	}
	t := make(map[uint32]Key, len(entries))
	for i, e := range entries {
		id := e.Mapsquare
		if id == nil {
			id = e.Region
		}
		if id == nil {
			return nil, errors.Errorf("key entry %d has no region", i)
		}
		raw := e.Key
		if raw == nil {
			raw = e.Keys
		}
		k, err := toKey(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "key entry %d (region %d)", i, *id)
		}
		t[uint32(*id)] = k
	}
	return t, nil
}

func parseLegacy(data []byte) (map[uint32]Key, error) {
	var m map[string][]int64
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "could not decode legacy keys")
	}
	t := make(map[uint32]Key, len(m))
	for name, raw := range m {
		id, err := strconv.ParseUint(name, 10, 32)
		if err != nil {
			return nil, errors.Errorf("bad mapsquare id %q", name)
		}
		k, err := toKey(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "mapsquare %d", id)
		}
		t[uint32(id)] = k
	}
	return t, nil
}

func toKey(raw []int64) (Key, error) {
	var k Key
	if len(raw) != 4 {
		return k, errors.Errorf("key has %d parts, want 4", len(raw))
	}
	for i, v := range raw {
		// keys are published both as signed and unsigned ints
		k[i] = uint32(v)
	}
	return k, nil
}
