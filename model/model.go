// SPDX-License-Identifier: GPL-2.0-or-later

// Package model holds decoded meshes and the transforms applied to them
// while resolving placed objects.
package model

import (
	"slices"
)

// VertexNormal accumulates the normals of all flat shaded faces touching a
// vertex. Magnitude counts the faces.
type VertexNormal struct {
	X, Y, Z   int
	Magnitude int
}

type FaceNormal struct {
	X, Y, Z int
}

// FaceUV holds the texture coordinates of a face's three corners.
type FaceUV struct {
	U, V [3]float32
}

// ModelDef is a triangle mesh in cache units. Y points down.
type ModelDef struct {
	ID int
	// Tag identifies the resolution that produced the model, zero for a
	// freshly decoded one.
	Tag int64

	VertexX, VertexY, VertexZ []int

	FaceA, FaceB, FaceC []int
	FaceColors          []uint16
	// FaceTextures is nil for untextured models, -1 marks an untextured face.
	FaceTextures    []int16
	FaceAlphas      []int8
	FaceRenderTypes []uint8
	FacePriorities  []uint8
	Priority        uint8

	TextureA, TextureB, TextureC []int
	TextureRenderTypes           []uint8
	// TextureCoords maps a face to its texture triangle, -1 for none.
	TextureCoords []int

	VertexSkins []int
	FaceSkins   []int

	VertexNormals []VertexNormal
	FaceNormals   []FaceNormal
	// UVs has an entry per face, nil for untextured models.
	UVs    []FaceUV
	HasUVs []bool

	// Lit colours per face corner, filled by Light. Colors3 is -1 for a
	// face with a single colour and -2 for a hidden face.
	Colors1, Colors2, Colors3 []int
}

func (m *ModelDef) VertexCount() int { return len(m.VertexX) }

func (m *ModelDef) FaceCount() int { return len(m.FaceA) }

func (m *ModelDef) TextureCount() int { return len(m.TextureA) }

// Lit reports whether Light has run.
func (m *ModelDef) Lit() bool { return m.Colors1 != nil }

// Texture returns the texture id of face i or -1.
func (m *ModelDef) Texture(i int) int {
	if m.FaceTextures == nil {
		return -1
	}
	return int(m.FaceTextures[i])
}

func (m *ModelDef) RenderType(i int) int {
	if m.FaceRenderTypes == nil {
		return 0
	}
	return int(m.FaceRenderTypes[i])
}

func (m *ModelDef) Alpha(i int) int {
	if m.FaceAlphas == nil {
		return 0
	}
	return int(m.FaceAlphas[i])
}

// Clone returns a deep copy.
func (m *ModelDef) Clone() *ModelDef {
	c := *m
	c.VertexX = slices.Clone(m.VertexX)
	c.VertexY = slices.Clone(m.VertexY)
	c.VertexZ = slices.Clone(m.VertexZ)
	c.FaceA = slices.Clone(m.FaceA)
	c.FaceB = slices.Clone(m.FaceB)
	c.FaceC = slices.Clone(m.FaceC)
	c.FaceColors = slices.Clone(m.FaceColors)
	c.FaceTextures = slices.Clone(m.FaceTextures)
	c.FaceAlphas = slices.Clone(m.FaceAlphas)
	c.FaceRenderTypes = slices.Clone(m.FaceRenderTypes)
	c.FacePriorities = slices.Clone(m.FacePriorities)
	c.TextureA = slices.Clone(m.TextureA)
	c.TextureB = slices.Clone(m.TextureB)
	c.TextureC = slices.Clone(m.TextureC)
	c.TextureRenderTypes = slices.Clone(m.TextureRenderTypes)
	c.TextureCoords = slices.Clone(m.TextureCoords)
	c.VertexSkins = slices.Clone(m.VertexSkins)
	c.FaceSkins = slices.Clone(m.FaceSkins)
	c.VertexNormals = slices.Clone(m.VertexNormals)
	c.FaceNormals = slices.Clone(m.FaceNormals)
	c.UVs = slices.Clone(m.UVs)
	c.HasUVs = slices.Clone(m.HasUVs)
	c.Colors1 = slices.Clone(m.Colors1)
	c.Colors2 = slices.Clone(m.Colors2)
	c.Colors3 = slices.Clone(m.Colors3)
	return &c
}

// resetNormals drops derived lighting data after a geometric change.
func (m *ModelDef) resetNormals() {
	m.VertexNormals = nil
	m.FaceNormals = nil
}
