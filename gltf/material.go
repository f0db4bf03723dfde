// SPDX-License-Identifier: GPL-2.0-or-later

package gltf

import (
	"rscene/palette"
)

// flat is the material id of vertex coloured geometry.
const flat = -1

// materialBuffers collects the vertices of one material. Flat geometry
// carries colours, textured geometry texture coordinates.
type materialBuffers struct {
	positions *FloatVectorBuffer
	colors    *FloatVectorBuffer
	texcoords *FloatVectorBuffer
}

func newMaterialBuffers(textured bool) *materialBuffers {
	m := &materialBuffers{positions: NewFloatVectorBuffer(3)}
	if textured {
		m.texcoords = NewFloatVectorBuffer(2)
	} else {
		m.colors = NewFloatVectorBuffer(3)
	}
	return m
}

// addVertex stores a vertex given in scene units, y down and z north.
func (m *materialBuffers) addVertex(pal *palette.Palette, scale float32, x, y, z int, u, v float32, hsl int) {
	m.positions.Add(float32(x)*scale, -float32(y)*scale, -float32(z)*scale)
	if m.colors != nil {
		c := pal.Float(hsl)
		m.colors.Add(c[0], c[1], c[2])
	}
	if m.texcoords != nil {
		m.texcoords.Add(u, v)
	}
}
