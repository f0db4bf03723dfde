// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"github.com/chewxy/math32"

	rmath "rscene/math"
)

// Light direction shared by all static models.
const (
	lightX = -50
	lightY = -10
	lightZ = -50
)

// Hidden and single colour markers in Colors3.
const (
	ColorFlat   = -1
	ColorHidden = -2
)

func bound(l int) int {
	return rmath.Clamp(2, l, 126)
}

// shade scales the lightness of a packed hsl colour.
func shade(hsl, l int) int {
	return hsl&0xff80 + bound((hsl&0x7f)*l>>7)
}

// Light computes the per corner colours of every face from the normals,
// the ambient light and the contrast of the placed object. Textured faces
// get a plain lightness in 2..126.
func (m *ModelDef) Light(ambient, contrast int) {
	m.ComputeNormals()
	ambient += 64
	contrast += 768
	mag := int(math32.Sqrt(lightX*lightX + lightY*lightY + lightZ*lightZ))
	scale := mag * contrast >> 8

	fc := m.FaceCount()
	m.Colors1 = make([]int, fc)
	m.Colors2 = make([]int, fc)
	m.Colors3 = make([]int, fc)

	vertexLight := func(v int) int {
		n := m.VertexNormals[v]
		d := scale * n.Magnitude
		if d == 0 {
			d = 1
		}
		return (lightY*n.Y+lightZ*n.Z+lightX*n.X)/d + ambient
	}
	faceLight := func(i int) int {
		n := m.FaceNormals[i]
		return (lightY*n.Y+lightZ*n.Z+lightX*n.X)/(scale/2+scale) + ambient
	}

	for i := 0; i < fc; i++ {
		kind := m.RenderType(i)
		switch m.Alpha(i) {
		case -2:
			kind = 3
		case -1:
			kind = 2
		}
		color := int(m.FaceColors[i])
		textured := m.Texture(i) != -1
		switch {
		case kind == 1 && m.FaceNormals == nil:
			m.Colors3[i] = ColorHidden
		case kind == 1:
			l := faceLight(i)
			if textured {
				m.Colors1[i] = bound(l)
			} else {
				m.Colors1[i] = shade(color, l)
			}
			m.Colors3[i] = ColorFlat
		case kind == 3 && !textured:
			m.Colors1[i] = 128
			m.Colors3[i] = ColorFlat
		case kind != 0:
			m.Colors3[i] = ColorHidden
		default:
			la, lb, lc := vertexLight(m.FaceA[i]), vertexLight(m.FaceB[i]), vertexLight(m.FaceC[i])
			if textured {
				m.Colors1[i], m.Colors2[i], m.Colors3[i] = bound(la), bound(lb), bound(lc)
			} else {
				m.Colors1[i], m.Colors2[i], m.Colors3[i] = shade(color, la), shade(color, lb), shade(color, lc)
			}
		}
	}
}

// Corners returns the three colours of face i, ok is false for hidden
// faces.
func (m *ModelDef) Corners(i int) (c1, c2, c3 int, ok bool) {
	c1, c2, c3 = m.Colors1[i], m.Colors2[i], m.Colors3[i]
	switch c3 {
	case ColorHidden:
		return 0, 0, 0, false
	case ColorFlat:
		return c1, c1, c1, true
	}
	return c1, c2, c3, true
}
