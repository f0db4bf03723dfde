// SPDX-License-Identifier: GPL-2.0-or-later

package defs

import (
	"rscene/palette"
	"rscene/stream"
)

// UnderlayDef is the ground colour below a tile, blended with its
// neighbours.
type UnderlayDef struct {
	ID  int
	RGB int
	palette.HSL
}

var underlayOpcodes = opcodes[UnderlayDef]{
	1: func(d *UnderlayDef, r *stream.Reader, _ byte) { d.RGB = int(r.Uint24()) },
}

func DecodeUnderlay(id int, data []byte) (*UnderlayDef, error) {
	d := &UnderlayDef{ID: id}
	if err := underlayOpcodes.decode("underlay", id, data, d); err != nil {
		return nil, err
	}
	d.HSL = palette.FromRGB(d.RGB)
	return d, nil
}

// OverlayDef is a shaped or textured tile surface drawn above the
// underlay.
type OverlayDef struct {
	ID           int
	RGB          int
	Texture      int
	SecondaryRGB int
	HideUnderlay bool
	Name         string

	palette.HSL
	Secondary palette.HSL
}

// OverlayHidden is the colour of overlays that are not drawn.
const OverlayHidden = 0xff00ff

var overlayOpcodes = opcodes[OverlayDef]{
	1: func(d *OverlayDef, r *stream.Reader, _ byte) { d.RGB = int(r.Uint24()) },
	2: func(d *OverlayDef, r *stream.Reader, _ byte) { d.Texture = int(r.Uint8()) },
	5: func(d *OverlayDef, _ *stream.Reader, _ byte) { d.HideUnderlay = false },
	7: func(d *OverlayDef, r *stream.Reader, _ byte) { d.SecondaryRGB = int(r.Uint24()) },
	8: func(d *OverlayDef, r *stream.Reader, _ byte) { d.Name = r.String() },
}

func DecodeOverlay(id int, data []byte) (*OverlayDef, error) {
	d := &OverlayDef{ID: id, Texture: -1, SecondaryRGB: -1, HideUnderlay: true}
	if err := overlayOpcodes.decode("overlay", id, data, d); err != nil {
		return nil, err
	}
	if d.SecondaryRGB != -1 {
		d.Secondary = palette.FromRGBPlain(d.SecondaryRGB)
	}
	d.HSL = palette.FromRGBPlain(d.RGB)
	return d, nil
}
