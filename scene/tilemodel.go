// SPDX-License-Identifier: GPL-2.0-or-later

package scene

// Vertex positions of the overlay shapes, indexed by path. Values 1-8 walk
// the tile border from the south west corner, 9-16 are inner points.
var shapeVertices = [...][]int{
	{1, 3, 5, 7},
	{1, 3, 5, 7},
	{1, 3, 5, 7},
	{1, 3, 5, 7, 6},
	{1, 3, 5, 7, 6},
	{1, 3, 5, 7, 6},
	{1, 3, 5, 7, 6},
	{1, 3, 5, 7, 2, 6},
	{1, 3, 5, 7, 2, 8},
	{1, 3, 5, 7, 2, 8},
	{1, 3, 5, 7, 11, 12},
	{1, 3, 5, 7, 11, 12},
	{1, 3, 5, 7, 13, 14},
}

// Faces of the overlay shapes as (overlay, a, b, c) quadruples. overlay 0
// draws the underlay colour, 1 the overlay.
var shapeFaces = [...][]int{
	{0, 1, 2, 3, 0, 0, 1, 3},
	{1, 1, 2, 3, 1, 0, 1, 3},
	{0, 1, 2, 3, 1, 0, 1, 3},
	{0, 0, 1, 2, 0, 0, 2, 4, 1, 0, 4, 3},
	{0, 0, 1, 4, 0, 0, 4, 3, 1, 1, 2, 4},
	{0, 0, 4, 3, 1, 0, 1, 2, 1, 0, 2, 4},
	{0, 1, 2, 4, 1, 0, 1, 4, 1, 0, 4, 3},
	{0, 4, 1, 2, 0, 4, 2, 5, 1, 0, 4, 5, 1, 0, 5, 3},
	{0, 4, 1, 2, 0, 4, 2, 3, 0, 4, 3, 5, 1, 0, 4, 5},
	{0, 0, 4, 5, 1, 4, 1, 2, 1, 4, 2, 3, 1, 4, 3, 5},
	{0, 0, 1, 5, 0, 1, 4, 5, 0, 1, 2, 4, 1, 0, 5, 3, 1, 5, 4, 3, 1, 4, 2, 3},
	{1, 0, 1, 5, 1, 1, 4, 5, 1, 1, 2, 4, 0, 0, 5, 3, 0, 5, 4, 3, 0, 4, 2, 3},
	{1, 0, 5, 4, 1, 0, 1, 5, 0, 0, 4, 3, 0, 4, 5, 3, 0, 5, 2, 3, 0, 1, 2, 5},
}

// ShapeCount is the number of overlay paths.
const ShapeCount = len(shapeVertices)

// TileModel is the mesh of a tile whose overlay covers only part of it.
// Vertices are relative to the south west corner of the tile, X east, Y the
// height and Z north.
type TileModel struct {
	Path, Rotation int
	Texture        int
	Flat           bool

	VertexX, VertexY, VertexZ []int
	FaceA, FaceB, FaceC       []int
	ColorA, ColorB, ColorC    []int
	// FaceTextures is nil for an untextured overlay, -1 marks an underlay
	// face.
	FaceTextures []int
}

type corner struct {
	x, z        int
	height      int
	under, over int
}

// NewTileModel builds the mesh of overlay path with rotation 0-3. heights
// and both colour sets are in SW, SE, NE, NW order.
func NewTileModel(path, rotation, texture int, heights, under, over [4]int) *TileModel {
	const (
		full    = TileSize
		half    = TileSize / 2
		quarter = TileSize / 4
		three   = TileSize / 4 * 3
	)
	m := &TileModel{
		Path:     path,
		Rotation: rotation,
		Texture:  texture,
		Flat:     heights[SE] == heights[SW] && heights[NE] == heights[SW] && heights[NW] == heights[SW],
	}
	at := func(c int) corner {
		return corner{height: heights[c], under: under[c], over: over[c]}
	}
	mid := func(a, b int) corner {
		return corner{
			height: (heights[a] + heights[b]) >> 1,
			under:  (under[a] + under[b]) >> 1,
			over:   (over[a] + over[b]) >> 1,
		}
	}

	shape := shapeVertices[path]
	corners := make([]corner, len(shape))
	for i, v := range shape {
		if v&1 == 0 && v <= 8 {
			v = (v-rotation-rotation-1)&7 + 1
		}
		if v >= 9 && v <= 12 {
			v = (v-9-rotation)&3 + 9
		}
		if v >= 13 && v <= 16 {
			v = (v-13-rotation)&3 + 13
		}
		var c corner
		switch v {
		case 1:
			c = at(SW)
		case 2:
			c = mid(SE, SW)
			c.x = half
		case 3:
			c = at(SE)
			c.x = full
		case 4:
			c = mid(NE, SE)
			c.x, c.z = full, half
		case 5:
			c = at(NE)
			c.x, c.z = full, full
		case 6:
			c = mid(NE, NW)
			c.x, c.z = half, full
		case 7:
			c = at(NW)
			c.z = full
		case 8:
			c = mid(NW, SW)
			c.z = half
		case 9:
			c = mid(SE, SW)
			c.x, c.z = half, quarter
		case 10:
			c = mid(NE, SE)
			c.x, c.z = three, half
		case 11:
			c = mid(NE, NW)
			c.x, c.z = half, three
		case 12:
			c = mid(NW, SW)
			c.x, c.z = quarter, half
		case 13:
			c = at(SW)
			c.x, c.z = quarter, quarter
		case 14:
			c = at(SE)
			c.x, c.z = three, quarter
		case 15:
			c = at(NE)
			c.x, c.z = three, three
		default:
			c = at(NW)
			c.x, c.z = quarter, three
		}
		corners[i] = c
		m.VertexX = append(m.VertexX, c.x)
		m.VertexY = append(m.VertexY, c.height)
		m.VertexZ = append(m.VertexZ, c.z)
	}

	faces := shapeFaces[path]
	n := len(faces) / 4
	m.FaceA, m.FaceB, m.FaceC = make([]int, n), make([]int, n), make([]int, n)
	m.ColorA, m.ColorB, m.ColorC = make([]int, n), make([]int, n), make([]int, n)
	if texture != -1 {
		m.FaceTextures = make([]int, n)
	}
	for f := 0; f < n; f++ {
		q := faces[f*4 : f*4+4]
		var v [3]int
		for k := range v {
			v[k] = q[k+1]
			if v[k] < 4 {
				v[k] = (v[k] - rotation) & 3
			}
		}
		m.FaceA[f], m.FaceB[f], m.FaceC[f] = v[0], v[1], v[2]
		if q[0] == 0 {
			m.ColorA[f], m.ColorB[f], m.ColorC[f] = corners[v[0]].under, corners[v[1]].under, corners[v[2]].under
			if m.FaceTextures != nil {
				m.FaceTextures[f] = -1
			}
		} else {
			m.ColorA[f], m.ColorB[f], m.ColorC[f] = corners[v[0]].over, corners[v[1]].over, corners[v[2]].over
			if m.FaceTextures != nil {
				m.FaceTextures[f] = texture
			}
		}
	}
	return m
}

func (m *TileModel) FaceCount() int { return len(m.FaceA) }

// FaceTexture returns the texture of face i or -1.
func (m *TileModel) FaceTexture(i int) int {
	if m.FaceTextures == nil {
		return -1
	}
	return m.FaceTextures[i]
}
