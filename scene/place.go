// SPDX-License-Identifier: GPL-2.0-or-later

package scene

import (
	"github.com/chewxy/math32"

	"rscene/defs"
	"rscene/model"
)

// diagonalAngle is an eighth turn of the 2048 step circle.
const diagonalAngle = 256

// footprint is the area an instance covers, with the ground corners used
// to place it.
type footprint struct {
	width, length int
	// x and z of the model origin within the region, in model units.
	x, z   int
	height int
}

func (w world) footprint(obj *defs.ObjectDef, loc defs.LocationInstance, bx, by int) footprint {
	f := footprint{width: obj.SizeX, length: obj.SizeY}
	if loc.Orientation == 1 || loc.Orientation == 3 {
		f.width, f.length = obj.SizeY, obj.SizeX
	}
	x0, x1 := loc.X, loc.X+1
	if f.width+loc.X <= defs.RegionSize {
		x0, x1 = f.width>>1+loc.X, (f.width+1)>>1+loc.X
	}
	y0, y1 := loc.Y, loc.Y+1
	if f.length+loc.Y <= defs.RegionSize {
		y0, y1 = f.length>>1+loc.Y, (f.length+1)>>1+loc.Y
	}
	f.x = loc.X<<7 + f.width<<6
	f.z = loc.Y<<7 + f.length<<6
	z := loc.Plane
	f.height = (w.height(z, bx+x1, by+y1) +
		w.height(z, bx+x0, by+y1) +
		w.height(z, bx+x1, by+y0) +
		w.height(z, bx+x0, by+y0)) >> 2
	return f
}

// contour bends a copy of m onto the ground of plane z around the region
// local position x, y. m is returned unchanged when the ground under its
// bounds is flat at height.
func (w world) contour(m *model.ModelDef, z, bx, by, x, y, height int) *model.ModelDef {
	r2 := 0
	for i := range m.VertexX {
		d := m.VertexX[i]*m.VertexX[i] + m.VertexZ[i]*m.VertexZ[i]
		r2 = max(r2, d)
	}
	radius := int(math32.Sqrt(float32(r2)) + 0.99)
	left := (x - radius) >> 7
	right := (x + radius + 127) >> 7
	top := (y - radius) >> 7
	bottom := (y + radius + 127) >> 7
	if w.height(z, bx+left, by+top) == height &&
		w.height(z, bx+right, by+top) == height &&
		w.height(z, bx+left, by+bottom) == height &&
		w.height(z, bx+right, by+bottom) == height {
		return m
	}
	c := m.Clone()
	for i := range c.VertexY {
		vx := x + m.VertexX[i]
		vz := y + m.VertexZ[i]
		fx, fz := vx&127, vz&127
		tx, tz := bx+vx>>7, by+vz>>7
		south := (w.height(z, tx, tz)*(128-fx) + w.height(z, tx+1, tz)*fx) >> 7
		north := (w.height(z, tx, tz+1)*(128-fx) + fx*w.height(z, tx+1, tz+1)) >> 7
		ground := (south*(128-fz) + north*fz) >> 7
		c.VertexY[i] = ground + m.VertexY[i] - height
	}
	return c
}

// placement is one model a location instance turns into.
type placement struct {
	kind        Kind
	orientation int
}

// placements lists the models of a location type. Unknown types place
// nothing.
func placements(loc defs.LocationInstance) []placement {
	o := loc.Orientation
	switch t := loc.Type; {
	case t == defs.LocWallStraight:
		return []placement{{KindWall, o}}
	case t == defs.LocWallCorner:
		return []placement{{KindWall, (o + 1) & 3}, {KindWall, o + 4}}
	case t >= defs.LocWallDecorStraight && t <= defs.LocWallDecorDiagBoth:
		return []placement{{KindWallDecoration, o}}
	case t == defs.LocFloorDecoration:
		return []placement{{KindFloorDecoration, o}}
	case t == defs.LocWallDiagonalEdge, t == defs.LocWallSquareCorner,
		t >= defs.LocWallDiagonal && t <= defs.LocRoofDiagonalEdge:
		return []placement{{KindGameObject, o}}
	}
	return nil
}

// origin returns the model origin of a placement relative to its tile.
func (p placement) origin(f footprint) (int, int) {
	switch p.kind {
	case KindWallDecoration, KindFloorDecoration:
		return TileSize / 2, TileSize / 2
	}
	return f.width << 6, f.length << 6
}
