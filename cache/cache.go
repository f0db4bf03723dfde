// SPDX-License-Identifier: GPL-2.0-or-later

// Package cache reads the indexed, compressed and partly encrypted game cache.
package cache

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rscene/keys"
)

// Index ids.
const (
	IndexFrames    = 0
	IndexFrameMaps = 1
	IndexConfigs   = 2
	IndexMaps      = 5
	IndexModels    = 7
	IndexSprites   = 8
	IndexTextures  = 9
)

// KeyLookup is the part of the key store the cache needs.
type KeyLookup interface {
	Get(region uint32) (keys.Key, bool)
}

type Cache struct {
	store Store
	keys  KeyLookup
	log   *zap.Logger

	mu     sync.Mutex
	tables map[int]*ReferenceTable
}

type Option func(*Cache)

func WithKeys(k KeyLookup) Option {
	return func(c *Cache) { c.keys = k }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// Open opens the disk cache in dir.
func Open(dir string, opts ...Option) (*Cache, error) {
	s, err := OpenDiskStore(dir)
	if err != nil {
		return nil, err
	}
	return New(s, opts...), nil
}

func New(s Store, opts ...Option) *Cache {
	c := &Cache{
		store:  s,
		log:    zap.NewNop(),
		tables: make(map[int]*ReferenceTable),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) Close() error {
	return c.store.Close()
}

// Table returns the reference table of an index.
func (c *Cache) Table(index int) (*ReferenceTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tables[index]; ok {
		return t, nil
	}
	raw, err := c.store.Read(ReferenceIndex, index)
	if err != nil {
		return nil, errors.Wrapf(err, "reference table %d", index)
	}
	ct, err := DecodeContainer(raw, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "reference table %d", index)
	}
	t, err := DecodeReferenceTable(ct.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "reference table %d", index)
	}
	c.tables[index] = t
	c.log.Debug("reference table loaded", zap.Int("index", index), zap.Int("archives", len(t.Archives)))
	return t, nil
}

// Read returns the decompressed data of an archive.
func (c *Cache) Read(index, archive int) ([]byte, error) {
	return c.read(index, archive, nil)
}

func (c *Cache) read(index, archive int, key *[4]uint32) ([]byte, error) {
	raw, err := c.store.Read(index, archive)
	if err != nil {
		return nil, err
	}
	ct, err := DecodeContainer(raw, key)
	if err != nil {
		return nil, errors.Wrapf(err, "index %d archive %d", index, archive)
	}
	return ct.Data, nil
}

// ReadEncrypted reads an archive with the key of region. Without a key the
// data is read as is, unless required is set, which yields ErrMissingKey.
func (c *Cache) ReadEncrypted(index, archive int, region uint32, required bool) ([]byte, error) {
	var key *[4]uint32
	if c.keys != nil {
		if k, ok := c.keys.Get(region); ok {
			kk := [4]uint32(k)
			key = &kk
		}
	}
	if key == nil && required {
		return nil, errors.Wrapf(ErrMissingKey, "index %d archive %d region %d", index, archive, region)
	}
	return c.read(index, archive, key)
}

// Files returns all files of an archive keyed by file id.
func (c *Cache) Files(index, archive int) (map[int][]byte, error) {
	t, err := c.Table(index)
	if err != nil {
		return nil, err
	}
	info, ok := t.Archives[archive]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "index %d archive %d", index, archive)
	}
	data, err := c.Read(index, archive)
	if err != nil {
		return nil, err
	}
	files, err := SplitFiles(data, info.FileIDs)
	if err != nil {
		return nil, errors.Wrapf(err, "index %d archive %d", index, archive)
	}
	return files, nil
}

// File returns a single file of an archive.
func (c *Cache) File(index, archive, file int) ([]byte, error) {
	files, err := c.Files(index, archive)
	if err != nil {
		return nil, err
	}
	f, ok := files[file]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "index %d archive %d file %d", index, archive, file)
	}
	return f, nil
}

// FindArchive resolves an archive by name.
func (c *Cache) FindArchive(index int, name string) (int, error) {
	t, err := c.Table(index)
	if err != nil {
		return 0, err
	}
	id, ok := t.Find(name)
	if !ok {
		return 0, errors.Wrapf(ErrNotFound, "index %d archive %q", index, name)
	}
	return id, nil
}

// RegionXY splits a region id into its map square coordinates.
func RegionXY(region uint32) (int, int) {
	return int(region>>8) & 0xff, int(region) & 0xff
}

func TilesArchiveName(region uint32) string {
	x, y := RegionXY(region)
	return fmt.Sprintf("m%d_%d", x, y)
}

func LocationsArchiveName(region uint32) string {
	x, y := RegionXY(region)
	return fmt.Sprintf("l%d_%d", x, y)
}

// MapTiles returns the unencrypted terrain data of a region.
func (c *Cache) MapTiles(region uint32) ([]byte, error) {
	id, err := c.FindArchive(IndexMaps, TilesArchiveName(region))
	if err != nil {
		return nil, err
	}
	return c.Read(IndexMaps, id)
}

// MapLocations returns the decrypted object placements of a region.
func (c *Cache) MapLocations(region uint32) ([]byte, error) {
	id, err := c.FindArchive(IndexMaps, LocationsArchiveName(region))
	if err != nil {
		return nil, err
	}
	return c.ReadEncrypted(IndexMaps, id, region, true)
}
