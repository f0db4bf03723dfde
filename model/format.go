// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"github.com/pkg/errors"

	"rscene/cache"
	"rscene/stream"
)

const (
	hasDeltaX = 1
	hasDeltaY = 2
	hasDeltaZ = 4
)

// format describes one layout of the model footer.
type format struct {
	footer int
	// newTextures models carry texture ids and render types directly,
	// older ones encode them in per face flags.
	newTextures bool
	animaya     bool
}

func init() {
	Register(-3, format{footer: 26, newTextures: true, animaya: true}.decode)
	Register(-2, format{footer: 23, animaya: true}.decode)
	Register(-1, format{footer: 23, newTextures: true}.decode)
	Register(FormatLegacy, format{footer: 18}.decode)
}

type header struct {
	vertices, faces, textures int

	legacyTextured bool
	renderTypes    bool
	priority       uint8
	alphas         bool
	faceSkins      bool
	faceTextures   bool
	vertexSkins    bool
	animayaGroups  bool
}

func (f format) header(r *stream.Reader) header {
	var h header
	h.vertices = int(r.Uint16())
	h.faces = int(r.Uint16())
	h.textures = int(r.Uint8())
	if f.newTextures {
		h.renderTypes = r.Uint8() == 1
	} else {
		h.legacyTextured = r.Uint8() == 1
	}
	h.priority = r.Uint8()
	h.alphas = r.Uint8() == 1
	h.faceSkins = r.Uint8() == 1
	if f.newTextures {
		h.faceTextures = r.Uint8() == 1
	}
	h.vertexSkins = r.Uint8() == 1
	if f.animaya {
		h.animayaGroups = r.Uint8() == 1
	}
	return h
}

func bytesN(r *stream.Reader, n int) []byte {
	b := make([]byte, n)
	copy(b, r.Bytes(n))
	return b
}

func intsN(r *stream.Reader, n int) []int {
	v := make([]int, n)
	for i := range v {
		v[i] = int(r.Uint8())
	}
	return v
}

func (f format) decode(id int, data []byte) (*ModelDef, error) {
	if len(data) < f.footer {
		return nil, errors.Wrapf(cache.ErrCorrupt, "model %d: %d bytes, footer needs %d", id, len(data), f.footer)
	}
	r := stream.NewReader(data)
	r.Seek(len(data) - f.footer)
	h := f.header(r)
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(cache.ErrCorrupt, "model %d footer: %v", id, err)
	}

	m := &ModelDef{ID: id}
	r.Seek(0)
	m.TextureRenderTypes = make([]uint8, h.textures)
	if f.newTextures {
		copy(m.TextureRenderTypes, r.Bytes(h.textures))
	}
	vertexFlags := bytesN(r, h.vertices)
	if h.renderTypes {
		m.FaceRenderTypes = bytesN(r, h.faces)
	}
	compression := bytesN(r, h.faces)
	if h.priority == 255 {
		m.FacePriorities = bytesN(r, h.faces)
	} else {
		m.Priority = h.priority
	}
	if h.faceSkins {
		m.FaceSkins = intsN(r, h.faces)
	}
	var textureFlags []byte
	if h.legacyTextured {
		textureFlags = bytesN(r, h.faces)
	}
	if h.vertexSkins {
		m.VertexSkins = intsN(r, h.vertices)
	}
	if h.animayaGroups && f.newTextures {
		skipAnimaya(r, h.vertices)
	}
	if h.alphas {
		m.FaceAlphas = make([]int8, h.faces)
		for i := range m.FaceAlphas {
			m.FaceAlphas[i] = r.Int8()
		}
	}
	readFaces(r, m, compression)

	if h.faceTextures {
		m.FaceTextures = make([]int16, h.faces)
		for i := range m.FaceTextures {
			m.FaceTextures[i] = r.Int16() - 1
		}
		if h.textures > 0 {
			m.TextureCoords = make([]int, h.faces)
			for i := range m.TextureCoords {
				m.TextureCoords[i] = -1
				if m.FaceTextures[i] != -1 {
					m.TextureCoords[i] = int(r.Uint8()) - 1
				}
			}
		}
	}

	m.FaceColors = make([]uint16, h.faces)
	for i := range m.FaceColors {
		m.FaceColors[i] = r.Uint16()
	}
	if textureFlags != nil {
		applyTextureFlags(m, textureFlags)
	}

	if f.newTextures {
		readVertices(r, m, vertexFlags)
		readTextureTriangles(r, m, false)
	} else {
		readTextureTriangles(r, m, true)
		readVertices(r, m, vertexFlags)
	}
	if h.animayaGroups && !f.newTextures {
		skipAnimaya(r, h.vertices)
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(cache.ErrCorrupt, "model %d: %v", id, err)
	}
	if err := m.validate(); err != nil {
		return nil, errors.Wrapf(err, "model %d", id)
	}
	if h.legacyTextured {
		discardUnusedTextures(m)
	}
	return m, nil
}

func skipAnimaya(r *stream.Reader, vertices int) {
	for i := 0; i < vertices; i++ {
		n := int(r.Uint8())
		r.Skip(2 * n)
	}
}

func readFaces(r *stream.Reader, m *ModelDef, compression []byte) {
	n := len(compression)
	m.FaceA = make([]int, n)
	m.FaceB = make([]int, n)
	m.FaceC = make([]int, n)
	a, b, c := 0, 0, 0
	for i, kind := range compression {
		switch kind {
		case 1:
			a = r.ShortSmart() + c
			b = r.ShortSmart() + a
			c = r.ShortSmart() + b
		case 2:
			b = c
			c = r.ShortSmart() + c
		case 3:
			a = c
			c = r.ShortSmart() + c
		case 4:
			a, b = b, a
			c = r.ShortSmart() + c
		}
		m.FaceA[i], m.FaceB[i], m.FaceC[i] = a, b, c
	}
}

func readAxis(r *stream.Reader, flags []byte, mask byte) []int {
	v := make([]int, len(flags))
	p := 0
	for i, f := range flags {
		if f&mask != 0 {
			p += r.ShortSmart()
		}
		v[i] = p
	}
	return v
}

func readVertices(r *stream.Reader, m *ModelDef, flags []byte) {
	m.VertexX = readAxis(r, flags, hasDeltaX)
	m.VertexY = readAxis(r, flags, hasDeltaY)
	m.VertexZ = readAxis(r, flags, hasDeltaZ)
}

// readTextureTriangles reads the projection triangles. Only render type 0
// triangles are stored unless always is set.
func readTextureTriangles(r *stream.Reader, m *ModelDef, always bool) {
	n := len(m.TextureRenderTypes)
	m.TextureA = make([]int, n)
	m.TextureB = make([]int, n)
	m.TextureC = make([]int, n)
	for i := 0; i < n; i++ {
		if always || m.TextureRenderTypes[i] == 0 {
			m.TextureA[i] = int(r.Uint16())
			m.TextureB[i] = int(r.Uint16())
			m.TextureC[i] = int(r.Uint16())
		}
	}
}

// applyTextureFlags converts the per face flags of legacy models: bit 0
// selects flat shading, bit 1 turns the face colour into a texture id with
// the texture triangle in the remaining bits.
func applyTextureFlags(m *ModelDef, flags []byte) {
	n := len(flags)
	textures := make([]int16, n)
	renderTypes := make([]uint8, n)
	coords := make([]int, n)
	var usesTextures, usesRenderTypes bool
	for i, f := range flags {
		if f&1 == 1 {
			renderTypes[i] = 1
			usesRenderTypes = true
		}
		if f&2 == 2 {
			coords[i] = int(f >> 2)
			textures[i] = int16(m.FaceColors[i])
			m.FaceColors[i] = 127
			if textures[i] != -1 {
				usesTextures = true
			}
		} else {
			coords[i] = -1
			textures[i] = -1
		}
	}
	if usesTextures {
		m.FaceTextures = textures
	}
	if usesRenderTypes {
		m.FaceRenderTypes = renderTypes
	}
	m.TextureCoords = coords
}

// discardUnusedTextures drops texture triangles that coincide with their
// face, the projection is then the default one.
func discardUnusedTextures(m *ModelDef) {
	used := false
	for i, c := range m.TextureCoords {
		if c == -1 {
			continue
		}
		t := c
		if m.FaceA[i] == m.TextureA[t] && m.FaceB[i] == m.TextureB[t] && m.FaceC[i] == m.TextureC[t] {
			m.TextureCoords[i] = -1
		} else {
			used = true
		}
	}
	if !used {
		m.TextureCoords = nil
	}
}

// validate rejects face or texture triangle indices outside the vertex
// list. Texture coordinates pointing past the triangle list are dropped.
func (m *ModelDef) validate() error {
	vc := m.VertexCount()
	for i := range m.FaceA {
		a, b, c := m.FaceA[i], m.FaceB[i], m.FaceC[i]
		if a < 0 || b < 0 || c < 0 || a >= vc || b >= vc || c >= vc {
			return errors.Wrapf(cache.ErrCorrupt, "face %d (%d,%d,%d) outside %d vertices", i, a, b, c, vc)
		}
	}
	for i := range m.TextureA {
		if m.TextureA[i] >= vc || m.TextureB[i] >= vc || m.TextureC[i] >= vc {
			return errors.Wrapf(cache.ErrCorrupt, "texture triangle %d outside %d vertices", i, vc)
		}
	}
	for i, c := range m.TextureCoords {
		if c >= m.TextureCount() {
			m.TextureCoords[i] = -1
		}
	}
	return nil
}
