// SPDX-License-Identifier: GPL-2.0-or-later

// Package scene assembles the terrain and the placed objects of a square of
// map regions into one tile grid.
package scene

import (
	"rscene/defs"
	"rscene/model"
)

// TileSize is the edge of a tile in model units.
const TileSize = 128

// Corner order of the per tile height and colour arrays.
const (
	SW = iota
	SE
	NE
	NW
)

// TilePaint is a flat quad.
type TilePaint struct {
	Heights [4]int
	// Colors are lit hsl values, palette.Hidden for an invisible tile.
	Colors  [4]int
	Texture int
}

// Hidden reports whether the quad is not drawn.
func (p *TilePaint) Hidden() bool {
	return p.Colors[NE] == hidden
}

// Kind says how an object is attached to its tile.
type Kind int

const (
	KindWall Kind = iota
	KindWallDecoration
	KindGameObject
	KindFloorDecoration
)

func (k Kind) String() string {
	switch k {
	case KindWall:
		return "wall"
	case KindWallDecoration:
		return "wall decoration"
	case KindGameObject:
		return "game object"
	case KindFloorDecoration:
		return "floor decoration"
	}
	return "unknown"
}

// Placed is one object model put into the scene.
type Placed struct {
	Kind        Kind
	ObjectID    int
	Type        int
	Orientation int
	// Model is shared with every placement of the same resolution unless the
	// placement had to adapt it to the ground.
	Model *model.ModelDef
	// X and Z locate the model origin in scene units, Y is the ground height.
	X, Y, Z int
}

// Tile is one cell of the scene grid.
type Tile struct {
	Plane, X, Y int
	Paint       *TilePaint
	Model       *TileModel
	Objects     []Placed
}

// Scene is the tile grid of (2*Radius+1)^2 regions. Tiles that hold nothing
// are nil.
type Scene struct {
	Center uint32
	Radius int
	// Size is the number of tiles per side.
	Size  int
	Tiles [defs.Planes][][]*Tile
}

// NewScene returns an empty scene of (2*radius+1)^2 regions.
func NewScene(center uint32, radius int) *Scene {
	s := &Scene{
		Center: center,
		Radius: radius,
		Size:   (2*radius + 1) * defs.RegionSize,
	}
	for z := range s.Tiles {
		s.Tiles[z] = make([][]*Tile, s.Size)
		for x := range s.Tiles[z] {
			s.Tiles[z][x] = make([]*Tile, s.Size)
		}
	}
	return s
}

// tile returns the tile at plane z and scene coordinates x, y, creating it
// if needed.
func (s *Scene) tile(z, x, y int) *Tile {
	t := s.Tiles[z][x][y]
	if t == nil {
		t = &Tile{Plane: z, X: x, Y: y}
		s.Tiles[z][x][y] = t
	}
	return t
}

// Get returns the tile at plane z and scene coordinates x, y or nil.
func (s *Scene) Get(z, x, y int) *Tile {
	if z < 0 || z >= len(s.Tiles) || x < 0 || y < 0 || x >= s.Size || y >= s.Size {
		return nil
	}
	return s.Tiles[z][x][y]
}

// Each calls f for every tile in plane, x, y order.
func (s *Scene) Each(f func(*Tile)) {
	for z := range s.Tiles {
		for x := range s.Tiles[z] {
			for _, t := range s.Tiles[z][x] {
				if t != nil {
					f(t)
				}
			}
		}
	}
}

// Count is the number of non empty tiles.
func (s *Scene) Count() int {
	n := 0
	s.Each(func(*Tile) { n++ })
	return n
}
