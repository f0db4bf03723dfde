// SPDX-License-Identifier: GPL-2.0-or-later

// Package compose turns placed objects into transformed, lit models.
package compose

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rscene/cache"
	"rscene/cvars"
	"rscene/defs"
	"rscene/model"
)

const (
	// mergedType is the tag type of objects without a shape type list.
	mergedType = 10
	// rotatedOffset selects the mirrored variant of a model.
	rotatedOffset = 65536
)

// ModelSource returns shared, read only models.
type ModelSource interface {
	Get(id int) (*model.ModelDef, error)
}

// Tag packs orientation, shape type and object id into disjoint bits.
func Tag(orientation, shapeType, objectID int) int64 {
	return int64(orientation) + int64(shapeType)<<3 + int64(objectID)<<10
}

// Resolver resolves and caches object models. Cached models are shared
// between all placements and must be cloned before they are changed.
type Resolver struct {
	models ModelSource
	opts   *cvars.DebugOptions
	log    *zap.Logger

	// barrier is held for reading by every resolution and for writing by
	// Invalidate.
	barrier sync.RWMutex
	mu      sync.Mutex
	cache   map[int64]*model.ModelDef
}

// New creates a resolver. opts may be nil, every override is off then.
func New(models ModelSource, opts *cvars.DebugOptions, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{
		models: models,
		opts:   opts,
		log:    log,
		cache:  make(map[int64]*model.ModelDef),
	}
	if opts != nil {
		opts.OnResolveChange(r.Invalidate)
	}
	return r
}

// Invalidate drops every cached model. It waits for resolutions in flight.
func (r *Resolver) Invalidate() {
	r.barrier.Lock()
	defer r.barrier.Unlock()
	r.mu.Lock()
	r.cache = make(map[int64]*model.ModelDef)
	r.mu.Unlock()
	r.log.Debug("model cache invalidated")
}

// Len is the number of cached resolutions.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

type overrides struct {
	onlyType, subIndex, badIndex int
	removeTyped                  bool
}

func (r *Resolver) overrides() overrides {
	if r.opts == nil {
		return overrides{onlyType: -1, subIndex: -1, badIndex: -1}
	}
	return overrides{
		onlyType:    r.opts.ShowOnlyModelType.Int(),
		subIndex:    r.opts.ModelSubIndex.Int(),
		badIndex:    r.opts.BadModelIndexOverride.Int(),
		removeTyped: r.opts.RemoveProperlyTypedModels.Bool(),
	}
}

// Resolve returns the model of obj placed with shapeType and orientation.
// A nil model with a nil error means the object has no model for this
// placement.
func (r *Resolver) Resolve(obj *defs.ObjectDef, shapeType, orientation int) (*model.ModelDef, error) {
	r.barrier.RLock()
	defer r.barrier.RUnlock()

	o := r.overrides()
	if o.onlyType >= 0 && shapeType != o.onlyType {
		return nil, nil
	}
	typ := shapeType
	if !obj.HasTypes() {
		typ = mergedType
	}
	tag := Tag(orientation, typ, obj.ID)

	r.mu.Lock()
	m, ok := r.cache[tag]
	r.mu.Unlock()
	if ok {
		return m, nil
	}

	m, err := r.build(obj, shapeType, orientation, o)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.Tag = tag
		m.Light(obj.Ambient, obj.Contrast)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.cache[tag]; ok {
		return prev, nil
	}
	r.cache[tag] = m
	return m, nil
}

func (r *Resolver) build(obj *defs.ObjectDef, shapeType, orientation int, o overrides) (*model.ModelDef, error) {
	if len(obj.ModelIDs) == 0 {
		return nil, nil
	}
	if !obj.HasTypes() {
		return r.buildParts(obj, shapeType, orientation, o)
	}
	idx := slices.Index(obj.ModelTypes, shapeType)
	switch {
	case idx == -1 && len(obj.ModelTypes) == 1:
		idx = singleTypeFallback(obj)
	case idx == -1:
		if o.badIndex < 0 || o.badIndex >= len(obj.ModelTypes) {
			r.log.Debug("no model for shape type",
				zap.Int("object", obj.ID), zap.Int("type", shapeType))
			return nil, nil
		}
		idx = o.badIndex
	case o.removeTyped:
		return nil, nil
	}
	rotated := obj.IsRotated != (orientation > 3)
	m, err := r.part(obj, idx, rotated, shapeType, orientation)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// singleTypeFallback picks the only model of an object that supports a
// single shape type, whatever type was asked for.
func singleTypeFallback(*defs.ObjectDef) int {
	return 0
}

func (r *Resolver) buildParts(obj *defs.ObjectDef, shapeType, orientation int, o overrides) (*model.ModelDef, error) {
	n := len(obj.ModelIDs)
	if n > 1 && o.subIndex >= 0 {
		if o.subIndex >= n {
			return nil, nil
		}
		m, err := r.part(obj, o.subIndex, obj.IsRotated, shapeType, orientation)
		if errors.Is(err, cache.ErrNotFound) {
			return nil, nil
		}
		return m, err
	}
	if o.removeTyped {
		return nil, nil
	}
	var parts []*model.ModelDef
	for i := range obj.ModelIDs {
		m, err := r.part(obj, i, obj.IsRotated, shapeType, orientation)
		if err != nil {
			r.log.Debug("model part skipped",
				zap.Int("object", obj.ID), zap.Int("part", i), zap.Error(err))
			continue
		}
		parts = append(parts, m)
	}
	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0], nil
	}
	return model.Merge(parts...), nil
}

// part loads model idx of obj and applies the placement transforms to a
// private copy.
func (r *Resolver) part(obj *defs.ObjectDef, idx int, rotated bool, shapeType, orientation int) (*model.ModelDef, error) {
	id := obj.ModelIDs[idx]
	if rotated {
		id += rotatedOffset
	}
	shared, err := r.models.Get(id)
	if err != nil {
		return nil, errors.Wrapf(err, "object %d", obj.ID)
	}
	m := shared.Clone()
	if rotated {
		m.RotateMulti()
	}
	if shapeType >= defs.LocWallDecorStraight && shapeType <= defs.LocWallDecorDiagBoth && orientation > 3 {
		m.Rotate(256)
		m.Translate(45, 0, -45)
	}
	m.RotateQuarter(orientation)
	for i := range obj.RecolorFind {
		m.Recolor(obj.RecolorFind[i], obj.RecolorReplace[i])
	}
	for i := range obj.RetextureFind {
		m.Retexture(obj.RetextureFind[i], obj.RetextureReplace[i])
	}
	m.Scale(obj.ModelSizeX, obj.ModelSizeHeight, obj.ModelSizeY)
	m.Translate(obj.OffsetX, obj.OffsetHeight, obj.OffsetY)
	// the mirrored variant swaps face corners
	m.ComputeTextureUVs()
	return m, nil
}
