// SPDX-License-Identifier: GPL-2.0-or-later

// Package cvars defines the debug variables that steer model resolution
// and scene assembly.
package cvars

import (
	"fmt"

	"rscene/cvar"
)

type DebugOptions struct {
	ShowOnlyModelType         *cvar.Cvar
	ModelSubIndex             *cvar.Cvar
	BadModelIndexOverride     *cvar.Cvar
	RemoveProperlyTypedModels *cvar.Cvar

	ShowTilePaint  *cvar.Cvar
	ShowTileModels *cvar.Cvar
	ZLevels        [4]*cvar.Cvar
}

// NewDebugOptions registers the debug variables in r.
func NewDebugOptions(r *cvar.Registry) *DebugOptions {
	d := &DebugOptions{
		ShowOnlyModelType:         r.MustRegister("show_only_model_type", cvar.Off, cvar.ARCHIVE),
		ModelSubIndex:             r.MustRegister("model_sub_index", cvar.Off, cvar.ARCHIVE),
		BadModelIndexOverride:     r.MustRegister("bad_model_index_override", cvar.Off, cvar.ARCHIVE),
		RemoveProperlyTypedModels: r.MustRegister("remove_properly_typed_models", "0", cvar.ARCHIVE),

		ShowTilePaint:  r.MustRegister("show_tile_paint", "1", cvar.ARCHIVE),
		ShowTileModels: r.MustRegister("show_tile_models", "1", cvar.ARCHIVE),
	}
	for z := range d.ZLevels {
		d.ZLevels[z] = r.MustRegister(fmt.Sprintf("z_level_%d", z), "1", cvar.ARCHIVE)
	}
	return d
}

// OnResolveChange calls f whenever a variable that changes model
// resolution is set.
func (d *DebugOptions) OnResolveChange(f func()) {
	cb := func(*cvar.Cvar) { f() }
	d.ShowOnlyModelType.AddCallback(cb)
	d.ModelSubIndex.AddCallback(cb)
	d.BadModelIndexOverride.AddCallback(cb)
	d.RemoveProperlyTypedModels.AddCallback(cb)
}

// PlaneVisible reports whether plane z goes into the scene.
func (d *DebugOptions) PlaneVisible(z int) bool {
	if z < 0 || z >= len(d.ZLevels) {
		return false
	}
	return d.ZLevels[z].Bool()
}
