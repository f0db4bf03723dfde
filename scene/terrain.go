// SPDX-License-Identifier: GPL-2.0-or-later

package scene

import (
	"github.com/chewxy/math32"

	"rscene/defs"
	"rscene/palette"
)

const (
	hidden = palette.Hidden
	// blend is the reach of the underlay colour averaging window.
	blend = 5
)

// RegionSource returns decoded terrain by region id.
type RegionSource interface {
	Get(id int) (*defs.RegionDef, error)
}

// world reads terrain in world tile coordinates, across region borders.
type world struct {
	regions RegionSource
}

func regionID(wx, wy int) int {
	return (wx>>6)<<8 | wy>>6
}

func (w world) tile(z, wx, wy int) *defs.Tile {
	if wx < 0 || wy < 0 || wx>>6 > 0xff || wy>>6 > 0xff {
		return nil
	}
	r, err := w.regions.Get(regionID(wx, wy))
	if err != nil {
		return nil
	}
	return &r.Tiles[z][wx&63][wy&63]
}

// height is 0 outside of any decodable region.
func (w world) height(z, wx, wy int) int {
	if t := w.tile(z, wx, wy); t != nil {
		return t.Height
	}
	return 0
}

func (w world) settings(z, wx, wy int) int {
	if t := w.tile(z, wx, wy); t != nil {
		return t.Settings
	}
	return 0
}

// lightness computes the vertex light of every tile corner of the region at
// bx, by from the slope of the ground plane.
func (w world) lightness(bx, by int) [defs.RegionSize + 1][defs.RegionSize + 1]int {
	const z = 0
	norm := int(math32.Sqrt(5100)) * 768 >> 8
	var out [defs.RegionSize + 1][defs.RegionSize + 1]int
	for x := range out {
		for y := range out[x] {
			wx, wy := bx+x, by+y
			dx := w.height(z, wx+1, wy) - w.height(z, wx-1, wy)
			dy := w.height(z, wx, wy+1) - w.height(z, wx, wy-1)
			d := int(math32.Sqrt(float32(dx*dx + dy*dy + 65536)))
			light := ((dx<<8)/d*-50+(dy<<8)/d*-50+(65536/d)*-10)/norm + 96
			shadow := w.settings(z, wx-1, wy)>>2 +
				w.settings(z, wx, wy-1)>>2 +
				w.settings(z, wx+1, wy)>>3 +
				w.settings(z, wx, wy+1)>>3 +
				w.settings(z, wx, wy)>>1
			out[x][y] = light - shadow
		}
	}
	return out
}

// UnderlaySource returns underlay definitions by id.
type UnderlaySource interface {
	Get(id int) (*defs.UnderlayDef, error)
}

type hslSum struct {
	hue, sat, light, mul, num int
}

func (s *hslSum) add(o hslSum) {
	s.hue += o.hue
	s.sat += o.sat
	s.light += o.light
	s.mul += o.mul
	s.num += o.num
}

// color averages the window into a packed hsl value, -1 if it is empty.
func (s hslSum) color() int {
	if s.mul <= 0 || s.num <= 0 {
		return -1
	}
	return palette.Pack(s.hue*256/s.mul, s.sat/s.num, s.light/s.num)
}

// underlayBlend averages the underlays around each tile of plane z of the
// region at bx, by. The window spans blend-1 tiles before and blend tiles
// after the tile on both axes.
func underlayBlend(w world, underlays UnderlaySource, z, bx, by int) [defs.RegionSize][defs.RegionSize]hslSum {
	const span = defs.RegionSize + 2*blend - 1
	var cells [span][span]hslSum
	for i := range cells {
		for j := range cells[i] {
			t := w.tile(z, bx+i+1-blend, by+j+1-blend)
			if t == nil || t.UnderlayID <= 0 {
				continue
			}
			u, err := underlays.Get(t.UnderlayID - 1)
			if err != nil {
				continue
			}
			cells[i][j] = hslSum{u.Hue, u.Saturation, u.Lightness, u.HueMultiplier, 1}
		}
	}
	var out [defs.RegionSize][defs.RegionSize]hslSum
	for x := range out {
		for y := range out[x] {
			var s hslSum
			for i := x; i < x+2*blend; i++ {
				for j := y; j < y+2*blend; j++ {
					s.add(cells[i][j])
				}
			}
			out[x][y] = s
		}
	}
	return out
}
