// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"github.com/chewxy/math32"

	"rscene/math/vec"
)

// defaultUV maps a face onto the texture when it has no usable triangle.
var defaultUV = FaceUV{U: [3]float32{0, 1, 0}, V: [3]float32{1, 1, 0}}

func (m *ModelDef) vertex(i int) vec.Int3 {
	return vec.Int3{X: m.VertexX[i], Y: m.VertexY[i], Z: m.VertexZ[i]}
}

// ComputeNormals fills the vertex normals of smooth faces and the face
// normals of flat ones. It is a no-op when normals are present.
func (m *ModelDef) ComputeNormals() {
	if m.VertexNormals != nil {
		return
	}
	m.VertexNormals = make([]VertexNormal, m.VertexCount())
	m.FaceNormals = nil
	for i := range m.FaceA {
		a, b, c := m.FaceA[i], m.FaceB[i], m.FaceC[i]
		va := m.vertex(a)
		n := vec.CrossI(vec.SubI(m.vertex(b), va), vec.SubI(m.vertex(c), va))
		n = n.Shrink(8192).Resize(256)
		switch m.RenderType(i) {
		case 0:
			for _, v := range [3]int{a, b, c} {
				vn := &m.VertexNormals[v]
				vn.X += n.X
				vn.Y += n.Y
				vn.Z += n.Z
				vn.Magnitude++
			}
		case 1:
			if m.FaceNormals == nil {
				m.FaceNormals = make([]FaceNormal, m.FaceCount())
			}
			m.FaceNormals[i] = FaceNormal{n.X, n.Y, n.Z}
		}
	}
}

// ComputeTextureUVs projects every textured face onto its texture
// triangle. Faces without a triangle get a fixed mapping.
func (m *ModelDef) ComputeTextureUVs() {
	if m.FaceTextures == nil {
		m.UVs, m.HasUVs = nil, nil
		return
	}
	m.UVs = make([]FaceUV, m.FaceCount())
	m.HasUVs = make([]bool, m.FaceCount())
	for i, t := range m.FaceTextures {
		if t == -1 {
			continue
		}
		m.HasUVs[i] = true
		coord := -1
		if m.TextureCoords != nil {
			coord = m.TextureCoords[i]
		}
		if coord == -1 {
			m.UVs[i] = defaultUV
			continue
		}
		if m.TextureRenderTypes[coord] != 0 {
			continue
		}
		uv, ok := m.project(i, coord)
		if !ok {
			uv = defaultUV
		}
		m.UVs[i] = uv
	}
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

// project maps the face onto the plane of texture triangle coord. It fails
// for a degenerate triangle.
func (m *ModelDef) project(face, coord int) (FaceUV, bool) {
	origin := m.vertex(m.TextureA[coord]).Float()
	e1 := vec.Sub(m.vertex(m.TextureB[coord]).Float(), origin)
	e2 := vec.Sub(m.vertex(m.TextureC[coord]).Float(), origin)
	p := [3]vec.Vec3{
		vec.Sub(m.vertex(m.FaceA[face]).Float(), origin),
		vec.Sub(m.vertex(m.FaceB[face]).Float(), origin),
		vec.Sub(m.vertex(m.FaceC[face]).Float(), origin),
	}
	n := vec.Cross(e1, e2)

	var uv FaceUV
	du := vec.Cross(e2, n)
	dv := vec.Cross(e1, n)
	detU, detV := vec.Dot(du, e1), vec.Dot(dv, e2)
	if detU == 0 || detV == 0 || !finite(detU) || !finite(detV) {
		return uv, false
	}
	su, sv := 1/detU, 1/detV
	for k := range p {
		uv.U[k] = vec.Dot(du, p[k]) * su
		uv.V[k] = vec.Dot(dv, p[k]) * sv
		if !finite(uv.U[k]) || !finite(uv.V[k]) {
			return FaceUV{}, false
		}
	}
	return uv, true
}
