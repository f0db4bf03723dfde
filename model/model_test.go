// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rscene/cache"
)

type mesh struct {
	x, y, z []int
	faces   [][3]int
	colors  []uint16
}

func appendSmart(b []byte, v int) []byte {
	if v >= -64 && v < 64 {
		return append(b, byte(v+64))
	}
	return binary.BigEndian.AppendUint16(b, uint16(v+0xc000))
}

func (m mesh) vertexFlags() []byte {
	flags := make([]byte, len(m.x))
	for i := range m.x {
		px, py, pz := 0, 0, 0
		if i > 0 {
			px, py, pz = m.x[i-1], m.y[i-1], m.z[i-1]
		}
		if m.x[i] != px {
			flags[i] |= hasDeltaX
		}
		if m.y[i] != py {
			flags[i] |= hasDeltaY
		}
		if m.z[i] != pz {
			flags[i] |= hasDeltaZ
		}
	}
	return flags
}

func (m mesh) faceData() []byte {
	var b []byte
	prev := 0
	for _, f := range m.faces {
		b = appendSmart(b, f[0]-prev)
		b = appendSmart(b, f[1]-f[0])
		b = appendSmart(b, f[2]-f[1])
		prev = f[2]
	}
	return b
}

func (m mesh) vertexData() []byte {
	var b []byte
	for _, axis := range [][]int{m.x, m.y, m.z} {
		p := 0
		for _, v := range axis {
			if v != p {
				b = appendSmart(b, v-p)
			}
			p = v
		}
	}
	return b
}

func compression(n int) []byte {
	c := make([]byte, n)
	for i := range c {
		c[i] = 1
	}
	return c
}

// encodeNew writes m in the -1 format without textures.
func encodeNew(m mesh) []byte {
	var b []byte
	b = append(b, m.vertexFlags()...)
	b = append(b, compression(len(m.faces))...)
	b = append(b, m.faceData()...)
	for _, c := range m.colors {
		b = binary.BigEndian.AppendUint16(b, c)
	}
	b = append(b, m.vertexData()...)

	b = binary.BigEndian.AppendUint16(b, uint16(len(m.x)))
	b = binary.BigEndian.AppendUint16(b, uint16(len(m.faces)))
	b = append(b, 0, 0, 0, 0, 0, 0, 0)
	b = append(b, make([]byte, 10)...)
	return binary.BigEndian.AppendUint16(b, 0xffff)
}

var triangle = mesh{
	x:      []int{0, 128, 0},
	y:      []int{0, 0, 0},
	z:      []int{0, 0, 128},
	faces:  [][3]int{{0, 1, 2}},
	colors: []uint16{0x1234},
}

func TestDecodeNewFormat(t *testing.T) {
	m, err := Decode(7, encodeNew(triangle))
	require.NoError(t, err)
	assert.Equal(t, 7, m.ID)
	assert.Equal(t, []int{0, 128, 0}, m.VertexX)
	assert.Equal(t, []int{0, 0, 0}, m.VertexY)
	assert.Equal(t, []int{0, 0, 128}, m.VertexZ)
	assert.Equal(t, []int{0}, m.FaceA)
	assert.Equal(t, []int{1}, m.FaceB)
	assert.Equal(t, []int{2}, m.FaceC)
	assert.Equal(t, []uint16{0x1234}, m.FaceColors)
	assert.Nil(t, m.FaceTextures)
	assert.Nil(t, m.UVs)
	for i, n := range m.VertexNormals {
		if n != (VertexNormal{0, -256, 0, 1}) {
			t.Errorf("normal %d = %v", i, n)
		}
	}
}

func TestDecodeLegacyTextured(t *testing.T) {
	var b []byte
	b = append(b, triangle.vertexFlags()...)
	b = append(b, compression(1)...)
	b = append(b, 2) // textured, triangle 0
	b = append(b, triangle.faceData()...)
	b = binary.BigEndian.AppendUint16(b, 31) // texture id
	for _, v := range []uint16{0, 1, 2} {
		b = binary.BigEndian.AppendUint16(b, v)
	}
	b = append(b, triangle.vertexData()...)
	b = binary.BigEndian.AppendUint16(b, 3)
	b = binary.BigEndian.AppendUint16(b, 1)
	b = append(b, 1, 1, 0, 0, 0, 0)
	b = append(b, make([]byte, 6)...)
	b = binary.BigEndian.AppendUint16(b, 0x1234)

	m, err := Decode(3, b)
	require.NoError(t, err)
	assert.Equal(t, []int16{31}, m.FaceTextures)
	assert.Equal(t, []uint16{127}, m.FaceColors)
	// the triangle matches the face, so the default mapping is used
	assert.Nil(t, m.TextureCoords)
	require.Len(t, m.UVs, 1)
	assert.True(t, m.HasUVs[0])
	assert.Equal(t, FaceUV{U: [3]float32{0, 1, 0}, V: [3]float32{1, 1, 0}}, m.UVs[0])
}

func TestDecodeCorrupt(t *testing.T) {
	tests := [][]byte{
		nil,
		{0xff},
		{0, 0, 0xff, 0xff},
	}
	for _, data := range tests {
		if _, err := Decode(1, data); !errors.Is(err, cache.ErrCorrupt) {
			t.Errorf("Decode(%v) = %v, want ErrCorrupt", data, err)
		}
	}
	bad := triangle
	bad.faces = [][3]int{{0, 1, 9}}
	_, err := Decode(1, encodeNew(bad))
	assert.ErrorIs(t, err, cache.ErrCorrupt)
}

func TestQuarterTurnsReturnToIdentity(t *testing.T) {
	m, err := Decode(1, encodeNew(triangle))
	require.NoError(t, err)
	r := m.Clone()
	for i := 0; i < 4; i++ {
		r.RotateY90Ccw()
	}
	assert.Equal(t, m.VertexX, r.VertexX)
	assert.Equal(t, m.VertexY, r.VertexY)
	assert.Equal(t, m.VertexZ, r.VertexZ)

	r.RotateY90Ccw()
	r.RotateY270Ccw()
	assert.Equal(t, m.VertexX, r.VertexX)
	assert.Equal(t, m.VertexZ, r.VertexZ)
}

func TestRotate(t *testing.T) {
	a, err := Decode(1, encodeNew(triangle))
	require.NoError(t, err)
	b := a.Clone()
	a.Rotate(1024)
	b.RotateY180()
	assert.Equal(t, b.VertexX, a.VertexX)
	assert.Equal(t, b.VertexZ, a.VertexZ)

	c := b.Clone()
	c.Rotate(0)
	assert.Equal(t, b.VertexX, c.VertexX)
	assert.Equal(t, b.VertexZ, c.VertexZ)
}

func TestRotateMulti(t *testing.T) {
	m, err := Decode(1, encodeNew(triangle))
	require.NoError(t, err)
	m.RotateMulti()
	assert.Equal(t, []int{0, 0, -128}, m.VertexZ)
	assert.Equal(t, []int{2}, m.FaceA)
	assert.Equal(t, []int{0}, m.FaceC)
	assert.Nil(t, m.VertexNormals)
}

func TestScaleTranslateRecolor(t *testing.T) {
	m, err := Decode(1, encodeNew(triangle))
	require.NoError(t, err)
	m.Scale(256, 128, 64)
	assert.Equal(t, []int{0, 256, 0}, m.VertexX)
	assert.Equal(t, []int{0, 0, 64}, m.VertexZ)
	m.Translate(1, 2, 3)
	assert.Equal(t, []int{1, 257, 1}, m.VertexX)
	assert.Equal(t, []int{2, 2, 2}, m.VertexY)
	m.Recolor(0x1234, 0x4321)
	m.Recolor(0x9999, 0)
	assert.Equal(t, []uint16{0x4321}, m.FaceColors)
	m.Retexture(1, 2)
	assert.Nil(t, m.FaceTextures)
}

func TestMergeKeepsOrder(t *testing.T) {
	a, err := Decode(1, encodeNew(triangle))
	require.NoError(t, err)
	b := a.Clone()
	b.Translate(1000, 0, 0)
	b.FaceTextures = []int16{5}
	b.TextureCoords = []int{-1}

	m := Merge(a, b)
	assert.Equal(t, append(append([]int{}, a.VertexX...), b.VertexX...), m.VertexX)
	assert.Equal(t, []int{0, 3}, m.FaceA)
	assert.Equal(t, []int{2, 5}, m.FaceC)
	assert.Equal(t, []int16{-1, 5}, m.FaceTextures)
	assert.Equal(t, []int{-1, -1}, m.TextureCoords)
	assert.Equal(t, []bool{false, true}, m.HasUVs)
}

func TestCloneIsDeep(t *testing.T) {
	a, err := Decode(1, encodeNew(triangle))
	require.NoError(t, err)
	b := a.Clone()
	b.Translate(5, 5, 5)
	b.Recolor(0x1234, 1)
	assert.Equal(t, []int{0, 128, 0}, a.VertexX)
	assert.Equal(t, []uint16{0x1234}, a.FaceColors)
	assert.NotNil(t, a.VertexNormals)
}

func TestLight(t *testing.T) {
	m, err := Decode(1, encodeNew(triangle))
	require.NoError(t, err)
	m.Light(0, 0)
	// normal (0,-256,0): -10*-256/213 + 64 = 76, lightness 0x34*76>>7 = 30
	c1, c2, c3, ok := m.Corners(0)
	require.True(t, ok)
	want := 0x1200 + 30
	if c1 != want || c2 != want || c3 != want {
		t.Errorf("Corners(0) = %x %x %x, want %x", c1, c2, c3, want)
	}

	m.FaceAlphas = []int8{-1}
	m.Light(0, 0)
	if _, _, _, ok := m.Corners(0); ok {
		t.Errorf("face with alpha -1 is visible")
	}
}

// encodeFormat writes m without textures in the footer layout of marker.
func encodeFormat(m mesh, marker int16) []byte {
	var b []byte
	b = append(b, m.vertexFlags()...)
	b = append(b, compression(len(m.faces))...)
	b = append(b, m.faceData()...)
	for _, c := range m.colors {
		b = binary.BigEndian.AppendUint16(b, c)
	}
	b = append(b, m.vertexData()...)

	flags, footer := 5, 18
	switch marker {
	case -3:
		flags, footer = 7, 26
	case -2, -1:
		flags, footer = 6, 23
	}
	b = binary.BigEndian.AppendUint16(b, uint16(len(m.x)))
	b = binary.BigEndian.AppendUint16(b, uint16(len(m.faces)))
	b = append(b, 0)
	b = append(b, make([]byte, flags)...)
	b = append(b, make([]byte, footer-5-flags-2)...)
	return binary.BigEndian.AppendUint16(b, uint16(marker))
}

func TestDecodeEachFormat(t *testing.T) {
	quad := mesh{
		x:      []int{0, 128, 128, 0},
		y:      []int{0, -16, -16, 0},
		z:      []int{0, 0, 128, 128},
		faces:  [][3]int{{0, 1, 2}, {0, 2, 3}},
		colors: []uint16{0x1111, 0x2222},
	}
	for _, marker := range []int16{-3, -2, -1, FormatLegacy} {
		m, err := Decode(5, encodeFormat(quad, marker))
		if err != nil {
			t.Errorf("Decode(format %d) = %v", marker, err)
			continue
		}
		assert.Equal(t, quad.x, m.VertexX, "format %d", marker)
		assert.Equal(t, quad.y, m.VertexY, "format %d", marker)
		assert.Equal(t, quad.z, m.VertexZ, "format %d", marker)
		assert.Equal(t, []int{0, 0}, m.FaceA, "format %d", marker)
		assert.Equal(t, []int{1, 2}, m.FaceB, "format %d", marker)
		assert.Equal(t, []int{2, 3}, m.FaceC, "format %d", marker)
		assert.Equal(t, quad.colors, m.FaceColors, "format %d", marker)
	}
}

func texturedTriangle(a, b, c int) *ModelDef {
	return &ModelDef{
		VertexX:            []int{0, 128, 0, 256},
		VertexY:            []int{0, 0, 0, 0},
		VertexZ:            []int{0, 0, 128, 0},
		FaceA:              []int{0},
		FaceB:              []int{1},
		FaceC:              []int{2},
		FaceTextures:       []int16{4},
		TextureCoords:      []int{0},
		TextureRenderTypes: []uint8{0},
		TextureA:           []int{a},
		TextureB:           []int{b},
		TextureC:           []int{c},
	}
}

func TestTextureProjection(t *testing.T) {
	m := texturedTriangle(0, 1, 2)
	m.ComputeTextureUVs()
	require.True(t, m.HasUVs[0])
	assert.Equal(t, FaceUV{U: [3]float32{0, 1, 0}, V: [3]float32{0, 0, 1}}, m.UVs[0])
}

func TestDegenerateTextureTriangle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c int
	}{
		{"collapsed", 0, 0, 0},
		{"collinear", 0, 1, 3},
		{"two equal", 1, 2, 2},
	}
	for _, tc := range tests {
		m := texturedTriangle(tc.a, tc.b, tc.c)
		m.ComputeTextureUVs()
		if !m.HasUVs[0] {
			t.Errorf("%s: HasUVs = false", tc.name)
		}
		if m.UVs[0] != defaultUV {
			t.Errorf("%s: UVs = %v, want %v", tc.name, m.UVs[0], defaultUV)
		}
	}
}
