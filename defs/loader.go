// SPDX-License-Identifier: GPL-2.0-or-later

package defs

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"rscene/cache"
	"rscene/model"
	"rscene/spr"
	"rscene/texture"
)

// Config archive ids within cache.IndexConfigs.
const (
	ConfigUnderlay = 1
	ConfigOverlay  = 4
	ConfigObject   = 6
)

// Source is the part of the cache the loaders read from. *cache.Cache
// implements it.
type Source interface {
	Read(index, archive int) ([]byte, error)
	Files(index, archive int) (map[int][]byte, error)
	MapTiles(region uint32) ([]byte, error)
	MapLocations(region uint32) ([]byte, error)
}

type result[T any] struct {
	v   *T
	err error
}

// Loader decodes definitions on first use and keeps the outcome, errors
// included, until Reset.
type Loader[T any] struct {
	kind           string
	index, archive int
	fetch          func(id int) ([]byte, error)
	decode         func(id int, data []byte) (*T, error)
	log            *zap.Logger

	group   singleflight.Group
	mu      sync.Mutex
	entries map[int]result[T]
}

func newLoader[T any](kind string, index, archive int, log *zap.Logger,
	fetch func(int) ([]byte, error), decode func(int, []byte) (*T, error)) *Loader[T] {
	return &Loader[T]{
		kind:    kind,
		index:   index,
		archive: archive,
		fetch:   fetch,
		decode:  decode,
		log:     log,
		entries: make(map[int]result[T]),
	}
}

// Get returns definition id. Absent entities yield an error wrapping
// cache.ErrNotFound.
func (l *Loader[T]) Get(id int) (*T, error) {
	l.mu.Lock()
	r, ok := l.entries[id]
	l.mu.Unlock()
	if ok {
		return r.v, r.err
	}
	v, err, _ := l.group.Do(strconv.Itoa(id), func() (interface{}, error) {
		l.mu.Lock()
		r, ok := l.entries[id]
		l.mu.Unlock()
		if ok {
			return r, nil
		}
		r = l.load(id)
		l.mu.Lock()
		l.entries[id] = r
		l.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	r = v.(result[T])
	return r.v, r.err
}

func (l *Loader[T]) load(id int) result[T] {
	data, err := l.fetch(id)
	if err != nil {
		return result[T]{err: err}
	}
	v, err := l.decode(id, data)
	if err != nil {
		archive := l.archive
		if archive < 0 {
			archive = id & 0xffff
		}
		var oe *OpcodeError
		if errors.As(err, &oe) {
			oe.Index, oe.Archive = l.index, archive
		}
		l.log.Warn("definition skipped",
			zap.String("kind", l.kind),
			zap.Int("id", id),
			zap.Int("index", l.index),
			zap.Int("archive", archive),
			zap.Error(err))
		return result[T]{err: err}
	}
	return result[T]{v: v}
}

// Len is the number of cached outcomes.
func (l *Loader[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset drops every cached outcome.
func (l *Loader[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[int]result[T])
}

// archiveFiles reads a multi file archive once and serves its files by id.
func archiveFiles(src Source, index, archive int) func(int) ([]byte, error) {
	files := sync.OnceValues(func() (map[int][]byte, error) {
		return src.Files(index, archive)
	})
	return func(id int) ([]byte, error) {
		m, err := files()
		if err != nil {
			return nil, err
		}
		data, ok := m[id]
		if !ok {
			return nil, errors.Wrapf(cache.ErrNotFound, "index %d archive %d file %d", index, archive, id)
		}
		return data, nil
	}
}

// Locations are the object placements of one region.
type Locations struct {
	Region    uint32
	Instances []LocationInstance
}

// Set bundles the loaders of every definition kind a scene needs.
type Set struct {
	Underlays *Loader[UnderlayDef]
	Overlays  *Loader[OverlayDef]
	Objects   *Loader[ObjectDef]
	Models    *Loader[model.ModelDef]
	Sprites   *Loader[spr.Sprite]
	Textures  *Loader[texture.Def]
	Regions   *Loader[RegionDef]
	Locations *Loader[Locations]
}

// NewSet wires the loaders to src. revision selects the terrain layout.
func NewSet(src Source, revision int, log *zap.Logger) *Set {
	if log == nil {
		log = zap.NewNop()
	}
	read := func(index int) func(int) ([]byte, error) {
		return func(id int) ([]byte, error) { return src.Read(index, id) }
	}
	return &Set{
		Underlays: newLoader("underlay", cache.IndexConfigs, ConfigUnderlay, log,
			archiveFiles(src, cache.IndexConfigs, ConfigUnderlay), DecodeUnderlay),
		Overlays: newLoader("overlay", cache.IndexConfigs, ConfigOverlay, log,
			archiveFiles(src, cache.IndexConfigs, ConfigOverlay), DecodeOverlay),
		Objects: newLoader("object", cache.IndexConfigs, ConfigObject, log,
			archiveFiles(src, cache.IndexConfigs, ConfigObject), DecodeObject),
		Models: newLoader("model", cache.IndexModels, -1, log,
			func(id int) ([]byte, error) { return src.Read(cache.IndexModels, id&0xffff) },
			model.Decode),
		Sprites: newLoader("sprite", cache.IndexSprites, -1, log, read(cache.IndexSprites),
			func(id int, data []byte) (*spr.Sprite, error) {
				frames, err := spr.Decode(id, data)
				if err != nil {
					return nil, err
				}
				return frames[0], nil
			}),
		Textures: newLoader("texture", cache.IndexTextures, 0, log,
			archiveFiles(src, cache.IndexTextures, 0), texture.Decode),
		Regions: newLoader("region", cache.IndexMaps, -1, log,
			func(id int) ([]byte, error) { return src.MapTiles(uint32(id)) },
			func(id int, data []byte) (*RegionDef, error) {
				return DecodeRegion(uint32(id), data, revision)
			}),
		Locations: newLoader("locations", cache.IndexMaps, -1, log,
			func(id int) ([]byte, error) { return src.MapLocations(uint32(id)) },
			func(id int, data []byte) (*Locations, error) {
				inst, err := DecodeLocations(data)
				if err != nil {
					return nil, err
				}
				return &Locations{Region: uint32(id), Instances: inst}, nil
			}),
	}
}

// Sprite serves the first frame of sprite id to texture resolution.
func (s *Set) Sprite(id int) (*spr.Sprite, error) {
	return s.Sprites.Get(id)
}

// Reset clears every loader.
func (s *Set) Reset() {
	s.Underlays.Reset()
	s.Overlays.Reset()
	s.Objects.Reset()
	s.Models.Reset()
	s.Sprites.Reset()
	s.Textures.Reset()
	s.Regions.Reset()
	s.Locations.Reset()
}
