// SPDX-License-Identifier: GPL-2.0-or-later

package gltf

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rscene/cache"
	"rscene/model"
	"rscene/palette"
	"rscene/scene"
)

func TestFloatVectorBuffer(t *testing.T) {
	b := NewFloatVectorBuffer(3)
	b.Add(1, 2, 3)
	b.Add(-1, 5, 0)
	b.Add(7)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []float32{-1, 2, 0}, b.Min())
	assert.Equal(t, []float32{7, 5, 3}, b.Max())
	require.Len(t, b.Bytes(), 24)
	assert.Equal(t, math.Float32bits(1), binary.LittleEndian.Uint32(b.Bytes()))
	assert.Equal(t, math.Float32bits(-1), binary.LittleEndian.Uint32(b.Bytes()[12:]))
}

func TestFloatVectorBufferNonFinite(t *testing.T) {
	b := NewFloatVectorBuffer(2)
	b.Add(float32(math.NaN()), 2)
	b.Add(float32(math.Inf(1)), float32(math.Inf(-1)))
	assert.Equal(t, []float32{0, 0}, b.Min())
	assert.Equal(t, []float32{0, 2}, b.Max())
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(b.Bytes()))
}

func TestVecType(t *testing.T) {
	tests := []struct {
		dims int
		want string
	}{
		{2, "VEC2"},
		{3, "VEC3"},
		{4, "VEC4"},
		{1, "SCALAR"},
	}
	for _, tc := range tests {
		if got := vecType(tc.dims); got != tc.want {
			t.Errorf("vecType(%d) = %v, want %v", tc.dims, got, tc.want)
		}
	}
}

func readDoc(t *testing.T, name string) *document {
	t.Helper()
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	var doc document
	require.NoError(t, json.Unmarshal(data, &doc))
	return &doc
}

// floats reads the floats of accessor i.
func floats(t *testing.T, doc *document, data []byte, i int) []float32 {
	t.Helper()
	a := doc.Accessors[i]
	v := doc.BufferViews[a.BufferView]
	require.LessOrEqual(t, v.ByteOffset+v.ByteLength, len(data))
	var out []float32
	for p := v.ByteOffset; p < v.ByteOffset+v.ByteLength; p += 4 {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(data[p:])))
	}
	return out
}

const paintColor = 0x1234

func paintScene() *scene.Scene {
	s := scene.NewScene(12850, 0)
	s.Tiles[0][1][2] = &scene.Tile{
		X: 1, Y: 2,
		Paint: &scene.TilePaint{
			Heights: [4]int{scene.SW: 0, scene.SE: -8, scene.NE: -16, scene.NW: 0},
			Colors:  [4]int{paintColor, paintColor, paintColor, paintColor},
			Texture: -1,
		},
	}
	return s
}

func TestExportFlatPaint(t *testing.T) {
	dir := t.TempDir()
	e := &Exporter{OutDir: dir}
	files, err := e.Export(paintScene())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "data.bin"), filepath.Join(dir, "scene.gltf")}, files)

	doc := readDoc(t, filepath.Join(dir, "scene.gltf"))
	data, err := os.ReadFile(filepath.Join(dir, "data.bin"))
	require.NoError(t, err)

	assert.Equal(t, "2.0", doc.Asset.Version)
	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Materials, 1)
	assert.Equal(t, "flat", doc.Materials[0].Name)
	assert.Nil(t, doc.Materials[0].PBR.BaseColorTexture)
	assert.True(t, doc.Materials[0].DoubleSided)
	assert.Equal(t, "MASK", doc.Materials[0].AlphaMode)
	assert.Equal(t, float32(0.2), doc.Materials[0].AlphaCutoff)
	assert.Empty(t, doc.Textures)
	assert.Empty(t, doc.Images)

	prim := doc.Meshes[0].Primitives[0]
	assert.Nil(t, prim.Attributes.Texcoord)
	require.NotNil(t, prim.Attributes.Color)
	require.NotNil(t, prim.Material)
	assert.Equal(t, 0, *prim.Material)
	assert.Equal(t, modeTriangles, prim.Mode)

	pos := doc.Accessors[prim.Attributes.Position]
	assert.Equal(t, 6, pos.Count)
	assert.Equal(t, "VEC3", pos.Type)
	assert.Equal(t, []float32{128, 0, -384}, pos.Min)
	assert.Equal(t, []float32{256, 16, -256}, pos.Max)
	// first triangle starts at the north east corner
	assert.Equal(t, []float32{256, 16, -384}, floats(t, doc, data, prim.Attributes.Position)[:3])

	c := palette.New(1).Float(paintColor)
	assert.Equal(t, c[:], floats(t, doc, data, *prim.Attributes.Color)[:3])

	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, []int{1}, doc.Nodes[0].Children)
	require.NotNil(t, doc.Nodes[1].Mesh)
	assert.Equal(t, 0, *doc.Nodes[1].Mesh)
	assert.Equal(t, []sceneNode{{Nodes: []int{0}}}, doc.Scenes)

	require.Len(t, doc.Buffers, 1)
	assert.Equal(t, "data.bin", doc.Buffers[0].URI)
	assert.Equal(t, 6*3*4*2, doc.Buffers[0].ByteLength)
	assert.Equal(t, fmt.Sprintf("%016x", xxhash.Sum64(data)), doc.Buffers[0].Extras.XXHash64)
}

func TestExportScale(t *testing.T) {
	dir := t.TempDir()
	e := &Exporter{OutDir: dir, Scale: 1.0 / 128}
	_, err := e.Export(paintScene())
	require.NoError(t, err)
	doc := readDoc(t, filepath.Join(dir, "scene.gltf"))
	assert.Equal(t, []float32{2, 0.125, -2}, doc.Accessors[0].Max)
}

func TestRepeatedExportsAreIdentical(t *testing.T) {
	dir := t.TempDir()
	e := &Exporter{OutDir: dir}
	_, err := e.Export(paintScene())
	require.NoError(t, err)
	files, err := e.Export(paintScene())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "data-1.bin"), filepath.Join(dir, "scene-1.gltf")}, files)

	for _, pair := range [][2]string{{"data.bin", "data-1.bin"}, {"scene.gltf", "scene-1.gltf"}} {
		a, err := os.ReadFile(filepath.Join(dir, pair[0]))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dir, pair[1]))
		require.NoError(t, err)
		if pair[0] == "scene.gltf" {
			// only the buffer name differs
			var da, db document
			require.NoError(t, json.Unmarshal(a, &da))
			require.NoError(t, json.Unmarshal(b, &db))
			db.Buffers[0].URI = da.Buffers[0].URI
			assert.Equal(t, da, db)
			continue
		}
		assert.Equal(t, a, b, pair[0])
	}
}

func TestExportSkipsHidden(t *testing.T) {
	s := scene.NewScene(12850, 0)
	hidden := [4]int{palette.Hidden, palette.Hidden, palette.Hidden, palette.Hidden}
	m := &model.ModelDef{
		VertexX: []int{0, 1, 0}, VertexY: []int{0, 0, 0}, VertexZ: []int{0, 0, 1},
		FaceA: []int{0}, FaceB: []int{1}, FaceC: []int{2},
		Colors1: []int{5}, Colors2: []int{5}, Colors3: []int{model.ColorHidden},
	}
	s.Tiles[0][0][0] = &scene.Tile{
		Paint:   &scene.TilePaint{Colors: hidden, Texture: -1},
		Model:   scene.NewTileModel(1, 0, -1, [4]int{}, hidden, hidden),
		Objects: []scene.Placed{{Model: m}},
	}
	dir := t.TempDir()
	_, err := (&Exporter{OutDir: dir}).Export(s)
	require.NoError(t, err)
	doc := readDoc(t, filepath.Join(dir, "scene.gltf"))
	assert.Empty(t, doc.Meshes)
	assert.Empty(t, doc.Buffers)
	assert.Len(t, doc.Nodes, 1)
}

type images map[int][]byte

func (im images) Image(id int) ([]byte, int, error) {
	if d, ok := im[id]; ok {
		return d, 2, nil
	}
	return nil, 0, errors.Wrapf(cache.ErrNotFound, "texture %d", id)
}

func TestExportTextures(t *testing.T) {
	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 0, 0, 0, 0,
	}
	var colors [4]int
	for i := range colors {
		colors[i] = 900
	}
	s := scene.NewScene(12850, 0)
	s.Tiles[0][3][3] = &scene.Tile{
		X: 3, Y: 3,
		Paint: &scene.TilePaint{Colors: colors, Texture: 3},
	}
	s.Tiles[0][3][4] = &scene.Tile{
		X: 3, Y: 4,
		Model: scene.NewTileModel(2, 0, 5, [4]int{}, colors, colors),
	}
	dir := t.TempDir()
	e := &Exporter{OutDir: dir, Textures: images{3: pixels, 5: pixels}}
	_, err := e.Export(s)
	require.NoError(t, err)

	doc := readDoc(t, filepath.Join(dir, "scene.gltf"))
	data, err := os.ReadFile(filepath.Join(dir, "data.bin"))
	require.NoError(t, err)
	require.Len(t, doc.Meshes, 3)
	require.Len(t, doc.Materials, 3)
	assert.Equal(t, []string{"flat", "texture 3", "texture 5"},
		[]string{doc.Materials[0].Name, doc.Materials[1].Name, doc.Materials[2].Name})
	require.NotNil(t, doc.Materials[2].PBR.BaseColorTexture)
	assert.Equal(t, 1, doc.Materials[2].PBR.BaseColorTexture.Index)
	assert.Equal(t, []textureEntry{{Source: 0}, {Source: 1}}, doc.Textures)
	// texture 5 renders like texture 3 and shares its file
	assert.Equal(t, []imageEntry{{URI: "textures/3.png"}, {URI: "textures/3.png"}}, doc.Images)
	assert.FileExists(t, filepath.Join(dir, TexturesDir, "3.png"))
	assert.NoFileExists(t, filepath.Join(dir, TexturesDir, "5.png"))

	paint := doc.Meshes[1].Primitives[0]
	require.NotNil(t, paint.Attributes.Texcoord)
	assert.Nil(t, paint.Attributes.Color)
	uv := floats(t, doc, data, *paint.Attributes.Texcoord)
	assert.Equal(t, []float32{1, 1, 0, 1, 1, 0, 0, 0, 1, 0, 0, 1}, uv)
}

func TestExportModel(t *testing.T) {
	m := &model.ModelDef{
		VertexX:    []int{0, 128, 0},
		VertexY:    []int{-10, -10, -10},
		VertexZ:    []int{0, 0, 128},
		FaceA:      []int{0},
		FaceB:      []int{1},
		FaceC:      []int{2},
		FaceColors: []uint16{700},
	}
	m.Light(0, 0)
	s := scene.NewScene(12850, 0)
	s.Tiles[0][1][1] = &scene.Tile{
		X: 1, Y: 1,
		Objects: []scene.Placed{{Model: m, X: 192, Y: -20, Z: 192}},
	}
	dir := t.TempDir()
	_, err := (&Exporter{OutDir: dir}).Export(s)
	require.NoError(t, err)
	doc := readDoc(t, filepath.Join(dir, "scene.gltf"))
	data, err := os.ReadFile(filepath.Join(dir, "data.bin"))
	require.NoError(t, err)
	require.Len(t, doc.Meshes, 1)
	pos := floats(t, doc, data, doc.Meshes[0].Primitives[0].Attributes.Position)
	assert.Equal(t, []float32{192, 30, -192, 320, 30, -192, 192, 30, -320}, pos)
}

func TestExportDegenerateTextureTriangle(t *testing.T) {
	m := &model.ModelDef{
		VertexX:            []int{0, 128, 0},
		VertexY:            []int{0, 0, 0},
		VertexZ:            []int{0, 0, 128},
		FaceA:              []int{0},
		FaceB:              []int{1},
		FaceC:              []int{2},
		FaceColors:         []uint16{700},
		FaceTextures:       []int16{4},
		TextureCoords:      []int{0},
		TextureRenderTypes: []uint8{0},
		TextureA:           []int{1},
		TextureB:           []int{1},
		TextureC:           []int{1},
	}
	m.ComputeNormals()
	m.ComputeTextureUVs()
	m.Light(0, 0)
	s := scene.NewScene(12850, 0)
	s.Tiles[0][1][1] = &scene.Tile{
		X: 1, Y: 1,
		Objects: []scene.Placed{{Model: m, X: 192, Z: 192}},
	}
	dir := t.TempDir()
	_, err := (&Exporter{OutDir: dir}).Export(s)
	require.NoError(t, err)
	doc := readDoc(t, filepath.Join(dir, "scene.gltf"))
	data, err := os.ReadFile(filepath.Join(dir, "data.bin"))
	require.NoError(t, err)
	require.Len(t, doc.Meshes, 1)
	attr := doc.Meshes[0].Primitives[0].Attributes
	require.NotNil(t, attr.Texcoord)
	assert.Equal(t, []float32{0, 1, 1, 1, 0, 0}, floats(t, doc, data, *attr.Texcoord))
}

func TestExportBadOutDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err := (&Exporter{OutDir: filepath.Join(file, "out")}).Export(paintScene())
	assert.Error(t, err)
}
