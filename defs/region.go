// SPDX-License-Identifier: GPL-2.0-or-later

package defs

import (
	"github.com/pkg/errors"

	"rscene/cache"
	"rscene/stream"
)

const (
	Planes     = 4
	RegionSize = 64

	// OverlayShortRevision is the first cache revision storing overlay ids
	// as 16 bit values.
	OverlayShortRevision = 209
)

// Tile is one terrain cell of a region. OverlayID and UnderlayID are one
// based, zero means none.
type Tile struct {
	Height int
	// CacheHeight is the stored height value if HasHeight is set,
	// otherwise the height is generated.
	CacheHeight     int
	HasHeight       bool
	AttrOpcode      int
	Settings        int
	OverlayID       int
	OverlayPath     int
	OverlayRotation int
	UnderlayID      int
}

// RegionDef is the terrain of one 64x64 map square.
type RegionDef struct {
	ID    uint32
	Tiles [Planes][RegionSize][RegionSize]Tile
}

// BaseX is the world x of the region's first column.
func (d *RegionDef) BaseX() int {
	return int(d.ID>>8&0xff) << 6
}

func (d *RegionDef) BaseY() int {
	return int(d.ID&0xff) << 6
}

// DecodeRegion decodes the m{x}_{y} archive of a region and calculates its
// terrain heights.
func DecodeRegion(id uint32, data []byte, revision int) (*RegionDef, error) {
	r := stream.NewReader(data)
	wide := revision >= OverlayShortRevision
	attr := func() int {
		if wide {
			return int(r.Uint16())
		}
		return int(r.Uint8())
	}
	d := &RegionDef{ID: id}
	for z := range d.Tiles {
		for x := range d.Tiles[z] {
			for y := range d.Tiles[z][x] {
				t := &d.Tiles[z][x][y]
			tile:
				for {
					a := attr()
					switch {
					case a == 0:
						break tile
					case a == 1:
						t.CacheHeight = int(r.Uint8())
						t.HasHeight = true
						t.Height = t.CacheHeight
						break tile
					case a <= 49:
						t.AttrOpcode = a
						if wide {
							t.OverlayID = int(r.Uint16())
						} else {
							t.OverlayID = int(r.Uint8())
						}
						t.OverlayPath = (a - 2) / 4
						t.OverlayRotation = (a - 2) & 3
					case a <= 81:
						t.Settings = a - 49
					default:
						t.UnderlayID = a - 81
					}
					if r.Err() != nil {
						break tile
					}
				}
				if err := r.Err(); err != nil {
					return nil, errors.Wrapf(cache.ErrCorrupt, "region %d tile %d,%d,%d: %v", id, z, x, y, err)
				}
			}
		}
	}
	d.CalculateTerrain()
	return d, nil
}

// CalculateTerrain fills in the heights of all tiles. Planes above zero
// stack on the plane below, tiles without a stored height get generated
// noise.
func (d *RegionDef) CalculateTerrain() {
	bx, by := d.BaseX(), d.BaseY()
	for z := range d.Tiles {
		for x := range d.Tiles[z] {
			for y := range d.Tiles[z][x] {
				t := &d.Tiles[z][x][y]
				if !t.HasHeight {
					if z == 0 {
						t.Height = -GeneratedHeight(bx+x+0xe3b7b, by+y+0x87cce) * 8
					} else {
						t.Height = d.Tiles[z-1][x][y].Height - 240
					}
					continue
				}
				h := t.CacheHeight
				if h == 1 {
					h = 0
				}
				if z == 0 {
					t.Height = -h * 8
				} else {
					t.Height = d.Tiles[z-1][x][y].Height - h*8
				}
			}
		}
	}
}
