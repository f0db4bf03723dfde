// SPDX-License-Identifier: GPL-2.0-or-later

package defs

import (
	"strings"

	"rscene/stream"
)

// ObjectDef describes a placeable world object and the models that make it
// up. ModelTypes is nil when ModelIDs is a plain list of parts to merge.
type ObjectDef struct {
	ID         int
	Name       string
	ModelIDs   []int
	ModelTypes []int

	SizeX, SizeY      int
	InteractType      int
	BlocksProjectile  bool
	WallOrDoor        int
	ContouredGround   int
	MergeNormals      bool
	Occludes          bool
	AnimationID       int
	DecorDisplacement int
	Ambient           int
	Contrast          int
	Actions           [5]string

	RecolorFind      []uint16
	RecolorReplace   []uint16
	RetextureFind    []int16
	RetextureReplace []int16

	IsRotated bool
	Shadow    bool

	ModelSizeX, ModelSizeHeight, ModelSizeY int
	OffsetX, OffsetHeight, OffsetY          int

	MapSceneID      int
	MapAreaID       int
	BlockingMask    int
	ObstructsGround bool
	IsHollow        bool
	SupportsItems   int

	TransformVarbit int
	TransformVarp   int
	Transforms      []int

	AmbientSoundID       int
	AmbientSoundDistance int
	AmbientSoundMin      int
	AmbientSoundMax      int
	AmbientSounds        []int

	Params map[int]any
}

func newObjectDef(id int) *ObjectDef {
	return &ObjectDef{
		ID:                id,
		Name:              "null",
		SizeX:             1,
		SizeY:             1,
		InteractType:      2,
		BlocksProjectile:  true,
		WallOrDoor:        -1,
		ContouredGround:   -1,
		AnimationID:       -1,
		DecorDisplacement: 16,
		Shadow:            true,
		ModelSizeX:        128,
		ModelSizeHeight:   128,
		ModelSizeY:        128,
		MapSceneID:        -1,
		MapAreaID:         -1,
		SupportsItems:     -1,
		TransformVarbit:   -1,
		TransformVarp:     -1,
		AmbientSoundID:    -1,
	}
}

// optU16 reads a u16 where 0xffff means unset.
func optU16(r *stream.Reader) int {
	v := int(r.Uint16())
	if v == 0xffff {
		return -1
	}
	return v
}

func readTransforms(r *stream.Reader, last int) []int {
	n := int(r.Uint8())
	t := make([]int, n+2)
	for i := 0; i <= n; i++ {
		t[i] = optU16(r)
	}
	t[n+1] = last
	return t
}

var objectOpcodes = opcodes[ObjectDef]{
	1: func(d *ObjectDef, r *stream.Reader, _ byte) {
		n := int(r.Uint8())
		if n == 0 {
			return
		}
		d.ModelTypes = nil
		d.ModelIDs = make([]int, n)
		for i := range d.ModelIDs {
			d.ModelIDs[i] = int(r.Uint16())
		}
	},
	2: func(d *ObjectDef, r *stream.Reader, _ byte) { d.Name = r.String() },
	5: func(d *ObjectDef, r *stream.Reader, _ byte) {
		n := int(r.Uint8())
		if n == 0 {
			return
		}
		d.ModelIDs = make([]int, n)
		d.ModelTypes = make([]int, n)
		for i := 0; i < n; i++ {
			d.ModelIDs[i] = int(r.Uint16())
			d.ModelTypes[i] = int(r.Uint8())
		}
	},
	14: func(d *ObjectDef, r *stream.Reader, _ byte) { d.SizeX = int(r.Uint8()) },
	15: func(d *ObjectDef, r *stream.Reader, _ byte) { d.SizeY = int(r.Uint8()) },
	17: func(d *ObjectDef, _ *stream.Reader, _ byte) {
		d.InteractType = 0
		d.BlocksProjectile = false
	},
	18: func(d *ObjectDef, _ *stream.Reader, _ byte) { d.BlocksProjectile = false },
	19: func(d *ObjectDef, r *stream.Reader, _ byte) { d.WallOrDoor = int(r.Uint8()) },
	21: func(d *ObjectDef, _ *stream.Reader, _ byte) { d.ContouredGround = 0 },
	22: func(d *ObjectDef, _ *stream.Reader, _ byte) { d.MergeNormals = true },
	23: func(d *ObjectDef, _ *stream.Reader, _ byte) { d.Occludes = true },
	24: func(d *ObjectDef, r *stream.Reader, _ byte) { d.AnimationID = optU16(r) },
	27: func(d *ObjectDef, _ *stream.Reader, _ byte) { d.InteractType = 1 },
	28: func(d *ObjectDef, r *stream.Reader, _ byte) { d.DecorDisplacement = int(r.Uint8()) },
	29: func(d *ObjectDef, r *stream.Reader, _ byte) { d.Ambient = int(r.Int8()) },
	39: func(d *ObjectDef, r *stream.Reader, _ byte) { d.Contrast = int(r.Int8()) * 25 },
	40: func(d *ObjectDef, r *stream.Reader, _ byte) {
		n := int(r.Uint8())
		d.RecolorFind = make([]uint16, n)
		d.RecolorReplace = make([]uint16, n)
		for i := 0; i < n; i++ {
			d.RecolorFind[i] = r.Uint16()
			d.RecolorReplace[i] = r.Uint16()
		}
	},
	41: func(d *ObjectDef, r *stream.Reader, _ byte) {
		n := int(r.Uint8())
		d.RetextureFind = make([]int16, n)
		d.RetextureReplace = make([]int16, n)
		for i := 0; i < n; i++ {
			d.RetextureFind[i] = r.Int16()
			d.RetextureReplace[i] = r.Int16()
		}
	},
	61: skip[ObjectDef](2),
	62: func(d *ObjectDef, _ *stream.Reader, _ byte) { d.IsRotated = true },
	64: func(d *ObjectDef, _ *stream.Reader, _ byte) { d.Shadow = false },
	65: func(d *ObjectDef, r *stream.Reader, _ byte) { d.ModelSizeX = int(r.Uint16()) },
	66: func(d *ObjectDef, r *stream.Reader, _ byte) { d.ModelSizeHeight = int(r.Uint16()) },
	67: func(d *ObjectDef, r *stream.Reader, _ byte) { d.ModelSizeY = int(r.Uint16()) },
	68: func(d *ObjectDef, r *stream.Reader, _ byte) { d.MapSceneID = int(r.Uint16()) },
	69: func(d *ObjectDef, r *stream.Reader, _ byte) { d.BlockingMask = int(r.Int8()) },
	70: func(d *ObjectDef, r *stream.Reader, _ byte) { d.OffsetX = int(r.Int16()) },
	71: func(d *ObjectDef, r *stream.Reader, _ byte) { d.OffsetHeight = int(r.Int16()) },
	72: func(d *ObjectDef, r *stream.Reader, _ byte) { d.OffsetY = int(r.Int16()) },
	73: func(d *ObjectDef, _ *stream.Reader, _ byte) { d.ObstructsGround = true },
	74: func(d *ObjectDef, _ *stream.Reader, _ byte) { d.IsHollow = true },
	75: func(d *ObjectDef, r *stream.Reader, _ byte) { d.SupportsItems = int(r.Uint8()) },
	77: func(d *ObjectDef, r *stream.Reader, _ byte) {
		d.TransformVarbit = optU16(r)
		d.TransformVarp = optU16(r)
		d.Transforms = readTransforms(r, -1)
	},
	78: func(d *ObjectDef, r *stream.Reader, _ byte) {
		d.AmbientSoundID = int(r.Uint16())
		d.AmbientSoundDistance = int(r.Uint8())
		r.Skip(1)
	},
	79: func(d *ObjectDef, r *stream.Reader, _ byte) {
		d.AmbientSoundMin = int(r.Uint16())
		d.AmbientSoundMax = int(r.Uint16())
		d.AmbientSoundDistance = int(r.Uint8())
		r.Skip(1)
		n := int(r.Uint8())
		d.AmbientSounds = make([]int, n)
		for i := range d.AmbientSounds {
			d.AmbientSounds[i] = int(r.Uint16())
		}
	},
	// the byte was once the ground contour distance and now holds a dummy
	81: skip[ObjectDef](1),
	82: func(d *ObjectDef, r *stream.Reader, _ byte) { d.MapAreaID = int(r.Uint16()) },
	89: func(*ObjectDef, *stream.Reader, byte) {},
	90: func(*ObjectDef, *stream.Reader, byte) {},
	92: func(d *ObjectDef, r *stream.Reader, _ byte) {
		d.TransformVarbit = optU16(r)
		d.TransformVarp = optU16(r)
		last := optU16(r)
		d.Transforms = readTransforms(r, last)
	},
	249: func(d *ObjectDef, r *stream.Reader, _ byte) {
		n := int(r.Uint8())
		d.Params = make(map[int]any, n)
		for i := 0; i < n; i++ {
			str := r.Uint8() == 1
			key := int(r.Uint24())
			if str {
				d.Params[key] = r.String()
			} else {
				d.Params[key] = int(r.Int32())
			}
		}
	},
}

func init() {
	for op := byte(30); op < 35; op++ {
		objectOpcodes[op] = func(d *ObjectDef, r *stream.Reader, op byte) {
			a := r.String()
			if strings.EqualFold(a, "hidden") {
				a = ""
			}
			d.Actions[op-30] = a
		}
	}
}

// DecodeObject decodes one object definition.
func DecodeObject(id int, data []byte) (*ObjectDef, error) {
	d := newObjectDef(id)
	if err := objectOpcodes.decode("object", id, data, d); err != nil {
		return nil, err
	}
	d.post()
	return d, nil
}

func (d *ObjectDef) post() {
	if d.WallOrDoor == -1 {
		d.WallOrDoor = 0
		if d.ModelIDs != nil && (d.ModelTypes == nil || d.ModelTypes[0] == 10) {
			d.WallOrDoor = 1
		}
		for _, a := range d.Actions {
			if a != "" {
				d.WallOrDoor = 1
			}
		}
	}
	if d.SupportsItems == -1 {
		d.SupportsItems = 0
		if d.InteractType != 0 {
			d.SupportsItems = 1
		}
	}
}

// HasTypes reports whether models are selected by shape type.
func (d *ObjectDef) HasTypes() bool {
	return d.ModelTypes != nil
}
