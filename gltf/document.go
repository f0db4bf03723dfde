// SPDX-License-Identifier: GPL-2.0-or-later

package gltf

const (
	componentFloat   = 5126
	targetArray      = 34962
	modeTriangles    = 4
	alphaCutoff      = 0.2
	generatorVersion = "rscene"
)

type asset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type sceneNode struct {
	Nodes []int `json:"nodes"`
}

type node struct {
	Mesh     *int  `json:"mesh,omitempty"`
	Children []int `json:"children,omitempty"`
}

type attributes struct {
	Position int  `json:"POSITION"`
	Texcoord *int `json:"TEXCOORD_0,omitempty"`
	Color    *int `json:"COLOR_0,omitempty"`
}

type primitive struct {
	Attributes attributes `json:"attributes"`
	Material   *int       `json:"material,omitempty"`
	Mode       int        `json:"mode"`
}

type mesh struct {
	Primitives []primitive `json:"primitives"`
}

type textureRef struct {
	Index int `json:"index"`
}

type pbr struct {
	BaseColorTexture *textureRef `json:"baseColorTexture,omitempty"`
	MetallicFactor   float32     `json:"metallicFactor"`
}

type material struct {
	Name        string  `json:"name,omitempty"`
	PBR         pbr     `json:"pbrMetallicRoughness"`
	DoubleSided bool    `json:"doubleSided"`
	AlphaMode   string  `json:"alphaMode"`
	AlphaCutoff float32 `json:"alphaCutoff"`
}

type textureEntry struct {
	Source int `json:"source"`
}

type imageEntry struct {
	URI string `json:"uri"`
}

type accessor struct {
	BufferView    int       `json:"bufferView"`
	ByteOffset    int       `json:"byteOffset"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float32 `json:"min"`
	Max           []float32 `json:"max"`
}

type bufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target"`
}

type bufferExtras struct {
	XXHash64 string `json:"xxhash64"`
}

type buffer struct {
	URI        string       `json:"uri"`
	ByteLength int          `json:"byteLength"`
	Extras     bufferExtras `json:"extras"`
}

// document is the json part of a glTF 2.0 file.
type document struct {
	Asset       asset          `json:"asset"`
	Scene       int            `json:"scene"`
	Scenes      []sceneNode    `json:"scenes"`
	Nodes       []node         `json:"nodes"`
	Meshes      []mesh         `json:"meshes,omitempty"`
	Materials   []material     `json:"materials,omitempty"`
	Textures    []textureEntry `json:"textures,omitempty"`
	Images      []imageEntry   `json:"images,omitempty"`
	Accessors   []accessor     `json:"accessors,omitempty"`
	BufferViews []bufferView   `json:"bufferViews,omitempty"`
	Buffers     []buffer       `json:"buffers,omitempty"`
}

func vecType(dims int) string {
	switch dims {
	case 2:
		return "VEC2"
	case 3:
		return "VEC3"
	case 4:
		return "VEC4"
	}
	return "SCALAR"
}
