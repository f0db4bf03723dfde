// SPDX-License-Identifier: GPL-2.0-or-later

// Package gltf writes scenes as glTF 2.0 with a separate binary buffer.
package gltf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rscene/image"
	"rscene/model"
	"rscene/palette"
	"rscene/scene"
)

// TexturesDir is the directory of texture images below the output
// directory.
const TexturesDir = "textures"

// TextureSource renders a texture id as square rgba pixels.
type TextureSource interface {
	Image(id int) (rgba []byte, size int, err error)
}

// Exporter writes every scene it is given into OutDir. The first export
// is scene.gltf with data.bin, later ones add -1, -2 and so on.
type Exporter struct {
	OutDir string
	// Scale converts scene units to output units. Zero means 1.
	Scale float32
	// Textures may be nil, texture images are not written then.
	Textures TextureSource
	Log      *zap.Logger

	mu      sync.Mutex
	runs    int
	palette *palette.Palette
}

// Export writes s and returns the paths it wrote. Files written before a
// failure are left in place.
func (e *Exporter) Export(s *scene.Scene) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.palette == nil {
		e.palette = palette.New(1)
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	scale := e.Scale
	if scale == 0 {
		scale = 1
	}

	suffix := ""
	if e.runs > 0 {
		suffix = "-" + strconv.Itoa(e.runs)
	}
	e.runs++

	c := &collector{pal: e.palette, scale: scale, groups: make(map[int]*materialBuffers)}
	s.Each(c.tile)

	if err := os.MkdirAll(e.OutDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "output directory")
	}
	var written []string
	doc, data := c.document("data" + suffix + ".bin")

	if len(c.textures()) > 0 && e.Textures != nil {
		paths, err := e.writeTextures(c.textures(), doc, log)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}

	bin := filepath.Join(e.OutDir, "data"+suffix+".bin")
	if err := os.WriteFile(bin, data, 0o644); err != nil {
		return written, errors.Wrap(err, "buffer")
	}
	written = append(written, bin)

	js, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return written, errors.Wrap(err, "scene json")
	}
	name := filepath.Join(e.OutDir, "scene"+suffix+".gltf")
	if err := os.WriteFile(name, append(js, '\n'), 0o644); err != nil {
		return written, errors.Wrap(err, "scene json")
	}
	written = append(written, name)
	log.Info("scene exported",
		zap.String("file", name),
		zap.Int("meshes", len(doc.Meshes)),
		zap.Int("bytes", len(data)))
	return written, nil
}

// writeTextures renders the images referenced by doc. Textures that render
// to the same pixels share one file.
func (e *Exporter) writeTextures(ids []int, doc *document, log *zap.Logger) ([]string, error) {
	dir := filepath.Join(e.OutDir, TexturesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "texture directory")
	}
	var written []string
	images := make(map[uint64]int)
	for i, id := range ids {
		rgba, size, err := e.Textures.Image(id)
		if err != nil {
			log.Warn("texture not rendered", zap.Int("texture", id), zap.Error(err))
			continue
		}
		h := xxhash.Sum64(rgba)
		img := doc.Textures[i].Source
		if first, ok := images[h]; ok {
			doc.Images[img].URI = doc.Images[first].URI
			continue
		}
		images[h] = img
		name := filepath.Join(dir, strconv.Itoa(id)+".png")
		if err := image.Write(name, rgba, size, size); err != nil {
			return written, errors.Wrapf(err, "texture %d", id)
		}
		written = append(written, name)
	}
	return written, nil
}

type collector struct {
	pal    *palette.Palette
	scale  float32
	groups map[int]*materialBuffers
}

func (c *collector) group(material int) *materialBuffers {
	g, ok := c.groups[material]
	if !ok {
		g = newMaterialBuffers(material != flat)
		c.groups[material] = g
	}
	return g
}

// materials returns the material ids in output order, flat first.
func (c *collector) materials() []int {
	ids := make([]int, 0, len(c.groups))
	for id := range c.groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *collector) textures() []int {
	ids := c.materials()
	if len(ids) > 0 && ids[0] == flat {
		ids = ids[1:]
	}
	return ids
}

type vertex struct {
	x, y, z int
	u, v    float32
	color   int
}

func (c *collector) triangle(material int, a, b, d vertex) {
	g := c.group(material)
	for _, p := range [3]vertex{a, b, d} {
		g.addVertex(c.pal, c.scale, p.x, p.y, p.z, p.u, p.v, p.color)
	}
}

func (c *collector) tile(t *scene.Tile) {
	ox, oz := t.X*scene.TileSize, t.Y*scene.TileSize
	if p := t.Paint; p != nil && !p.Hidden() {
		corner := func(i, dx, dz int, u, v float32) vertex {
			return vertex{ox + dx, p.Heights[i], oz + dz, u, v, p.Colors[i]}
		}
		sw := corner(scene.SW, 0, 0, 0, 0)
		se := corner(scene.SE, scene.TileSize, 0, 1, 0)
		ne := corner(scene.NE, scene.TileSize, scene.TileSize, 1, 1)
		nw := corner(scene.NW, 0, scene.TileSize, 0, 1)
		material := flat
		if p.Texture >= 0 {
			material = p.Texture
		}
		c.triangle(material, ne, nw, se)
		c.triangle(material, sw, se, nw)
	}
	if m := t.Model; m != nil {
		c.tileModel(m, ox, oz)
	}
	for _, p := range t.Objects {
		if p.Model != nil {
			c.model(p.Model, p.X, p.Y, p.Z)
		}
	}
}

func (c *collector) tileModel(m *scene.TileModel, ox, oz int) {
	at := func(i, color int) vertex {
		x, z := m.VertexX[i], m.VertexZ[i]
		return vertex{
			ox + x, m.VertexY[i], oz + z,
			float32(x) / scene.TileSize, float32(z) / scene.TileSize,
			color,
		}
	}
	for f := 0; f < m.FaceCount(); f++ {
		if m.ColorA[f] == palette.Hidden {
			continue
		}
		material := flat
		if tex := m.FaceTexture(f); tex >= 0 {
			material = tex
		}
		c.triangle(material,
			at(m.FaceA[f], m.ColorA[f]),
			at(m.FaceB[f], m.ColorB[f]),
			at(m.FaceC[f], m.ColorC[f]))
	}
}

func (c *collector) model(m *model.ModelDef, ox, oy, oz int) {
	if !m.Lit() {
		return
	}
	at := func(i, color int) vertex {
		return vertex{x: ox + m.VertexX[i], y: oy + m.VertexY[i], z: oz + m.VertexZ[i], color: color}
	}
	for f := 0; f < m.FaceCount(); f++ {
		c1, c2, c3, ok := m.Corners(f)
		if !ok {
			continue
		}
		a, b, d := at(m.FaceA[f], c1), at(m.FaceB[f], c2), at(m.FaceC[f], c3)
		material := flat
		if tex := m.Texture(f); tex >= 0 && m.HasUVs != nil && m.HasUVs[f] {
			material = tex
			uv := m.UVs[f]
			a.u, a.v = uv.U[0], uv.V[0]
			b.u, b.v = uv.U[1], uv.V[1]
			d.u, d.v = uv.U[2], uv.V[2]
		}
		c.triangle(material, a, b, d)
	}
}

// document lays out one mesh and node per material below a root node and
// returns the json with its buffer.
func (c *collector) document(bufferURI string) (*document, []byte) {
	doc := &document{
		Asset:  asset{Version: "2.0", Generator: generatorVersion},
		Scenes: []sceneNode{{Nodes: []int{0}}},
		Nodes:  []node{{}},
	}
	var data []byte
	view := func(b *FloatVectorBuffer) int {
		bytes := b.Bytes()
		doc.BufferViews = append(doc.BufferViews, bufferView{
			ByteOffset: len(data),
			ByteLength: len(bytes),
			Target:     targetArray,
		})
		data = append(data, bytes...)
		doc.Accessors = append(doc.Accessors, accessor{
			BufferView:    len(doc.BufferViews) - 1,
			ComponentType: componentFloat,
			Count:         b.Len(),
			Type:          vecType(b.Dims()),
			Min:           b.Min(),
			Max:           b.Max(),
		})
		return len(doc.Accessors) - 1
	}

	for _, id := range c.materials() {
		g := c.groups[id]
		mat := material{
			PBR:         pbr{MetallicFactor: 0},
			DoubleSided: true,
			AlphaMode:   "MASK",
			AlphaCutoff: alphaCutoff,
		}
		prim := primitive{Attributes: attributes{Position: view(g.positions)}, Mode: modeTriangles}
		if g.texcoords != nil {
			tc := view(g.texcoords)
			prim.Attributes.Texcoord = &tc
			doc.Images = append(doc.Images, imageEntry{URI: TexturesDir + "/" + strconv.Itoa(id) + ".png"})
			doc.Textures = append(doc.Textures, textureEntry{Source: len(doc.Images) - 1})
			mat.Name = fmt.Sprintf("texture %d", id)
			mat.PBR.BaseColorTexture = &textureRef{Index: len(doc.Textures) - 1}
		} else {
			col := view(g.colors)
			prim.Attributes.Color = &col
			mat.Name = "flat"
		}
		doc.Materials = append(doc.Materials, mat)
		mi := len(doc.Materials) - 1
		prim.Material = &mi
		doc.Meshes = append(doc.Meshes, mesh{Primitives: []primitive{prim}})
		mn := len(doc.Meshes) - 1
		doc.Nodes = append(doc.Nodes, node{Mesh: &mn})
		doc.Nodes[0].Children = append(doc.Nodes[0].Children, len(doc.Nodes)-1)
	}
	if len(data) > 0 {
		doc.Buffers = []buffer{{
			URI:        bufferURI,
			ByteLength: len(data),
			Extras:     bufferExtras{XXHash64: fmt.Sprintf("%016x", xxhash.Sum64(data))},
		}}
	}
	return doc, data
}
