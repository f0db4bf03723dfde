// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	rmath "rscene/math"
)

// RotateMulti mirrors the model along Z. It turns the stored variant of a
// rotated object into the correctly wound one.
func (m *ModelDef) RotateMulti() {
	for i := range m.VertexZ {
		m.VertexZ[i] = -m.VertexZ[i]
	}
	for i := range m.FaceA {
		m.FaceA[i], m.FaceC[i] = m.FaceC[i], m.FaceA[i]
	}
	m.resetNormals()
}

func (m *ModelDef) RotateY90Ccw() {
	for i := range m.VertexX {
		x := m.VertexX[i]
		m.VertexX[i] = m.VertexZ[i]
		m.VertexZ[i] = -x
	}
	m.resetNormals()
}

func (m *ModelDef) RotateY180() {
	for i := range m.VertexX {
		m.VertexX[i] = -m.VertexX[i]
		m.VertexZ[i] = -m.VertexZ[i]
	}
	m.resetNormals()
}

func (m *ModelDef) RotateY270Ccw() {
	for i := range m.VertexX {
		z := m.VertexZ[i]
		m.VertexZ[i] = m.VertexX[i]
		m.VertexX[i] = -z
	}
	m.resetNormals()
}

// RotateQuarter applies orientation&3 quarter turns.
func (m *ModelDef) RotateQuarter(orientation int) {
	switch orientation & 3 {
	case 1:
		m.RotateY90Ccw()
	case 2:
		m.RotateY180()
	case 3:
		m.RotateY270Ccw()
	}
}

// Rotate turns the model around Y by angle steps of a 2048 step circle.
func (m *ModelDef) Rotate(angle int) {
	angle = rmath.AngleMod(angle)
	sin, cos := rmath.Sine[angle], rmath.Cosine[angle]
	for i := range m.VertexX {
		x, z := m.VertexX[i], m.VertexZ[i]
		m.VertexX[i] = (x*cos + z*sin) >> 16
		m.VertexZ[i] = (z*cos - x*sin) >> 16
	}
	m.resetNormals()
}

func (m *ModelDef) Translate(x, y, z int) {
	for i := range m.VertexX {
		m.VertexX[i] += x
		m.VertexY[i] += y
		m.VertexZ[i] += z
	}
	m.resetNormals()
}

// Scale resizes each axis by s/128.
func (m *ModelDef) Scale(x, y, z int) {
	for i := range m.VertexX {
		m.VertexX[i] = m.VertexX[i] * x / 128
		m.VertexY[i] = y * m.VertexY[i] / 128
		m.VertexZ[i] = z * m.VertexZ[i] / 128
	}
	m.resetNormals()
}

// Recolor replaces every face colour equal to find.
func (m *ModelDef) Recolor(find, replace uint16) {
	for i, c := range m.FaceColors {
		if c == find {
			m.FaceColors[i] = replace
		}
	}
}

// Retexture replaces every face texture equal to find. Untextured models
// are left alone.
func (m *ModelDef) Retexture(find, replace int16) {
	for i, t := range m.FaceTextures {
		if t == find {
			m.FaceTextures[i] = replace
		}
	}
}

// Merge appends parts in order into one model. Faces are offset by the
// vertices of the parts before them and optional per face data missing in
// some parts gets the neutral value.
func Merge(parts ...*ModelDef) *ModelDef {
	out := &ModelDef{}
	if len(parts) == 0 {
		return out
	}
	out.ID = parts[0].ID
	var textured, alphas, renderTypes, priorities, coords bool
	for _, p := range parts {
		textured = textured || p.FaceTextures != nil
		alphas = alphas || p.FaceAlphas != nil
		renderTypes = renderTypes || p.FaceRenderTypes != nil
		priorities = priorities || p.FacePriorities != nil
		coords = coords || p.TextureCoords != nil
	}
	for _, p := range parts {
		base := out.VertexCount()
		tbase := out.TextureCount()
		out.VertexX = append(out.VertexX, p.VertexX...)
		out.VertexY = append(out.VertexY, p.VertexY...)
		out.VertexZ = append(out.VertexZ, p.VertexZ...)
		for i := range p.FaceA {
			out.FaceA = append(out.FaceA, p.FaceA[i]+base)
			out.FaceB = append(out.FaceB, p.FaceB[i]+base)
			out.FaceC = append(out.FaceC, p.FaceC[i]+base)
		}
		out.FaceColors = append(out.FaceColors, p.FaceColors...)
		fc := p.FaceCount()
		if textured {
			out.FaceTextures = appendOr(out.FaceTextures, p.FaceTextures, fc, -1)
		}
		if alphas {
			out.FaceAlphas = appendOr(out.FaceAlphas, p.FaceAlphas, fc, 0)
		}
		if renderTypes {
			out.FaceRenderTypes = appendOr(out.FaceRenderTypes, p.FaceRenderTypes, fc, 0)
		}
		if priorities {
			out.FacePriorities = appendOr(out.FacePriorities, p.FacePriorities, fc, p.Priority)
		}
		for i := range p.TextureA {
			out.TextureA = append(out.TextureA, p.TextureA[i]+base)
			out.TextureB = append(out.TextureB, p.TextureB[i]+base)
			out.TextureC = append(out.TextureC, p.TextureC[i]+base)
		}
		out.TextureRenderTypes = append(out.TextureRenderTypes, p.TextureRenderTypes...)
		if coords {
			for i := 0; i < fc; i++ {
				c := -1
				if p.TextureCoords != nil && p.TextureCoords[i] != -1 {
					c = p.TextureCoords[i] + tbase
				}
				out.TextureCoords = append(out.TextureCoords, c)
			}
		}
	}
	if !priorities {
		out.Priority = parts[0].Priority
	}
	out.ComputeTextureUVs()
	return out
}

func appendOr[T any](dst, src []T, n int, def T) []T {
	if src != nil {
		return append(dst, src...)
	}
	for i := 0; i < n; i++ {
		dst = append(dst, def)
	}
	return dst
}
