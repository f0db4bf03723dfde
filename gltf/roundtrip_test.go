// SPDX-License-Identifier: GPL-2.0-or-later

package gltf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rscene/cache"
	"rscene/cache/cachetest"
	"rscene/compose"
	"rscene/defs"
	"rscene/palette"
	"rscene/scene"
)

// A region with a single flat underlay tile exports as one vertex coloured
// quad.
func TestBuildAndExportUnderlayTile(t *testing.T) {
	const (
		region    = 12850
		underlay  = 0x209030
		flatLight = 84
	)
	var tiles []byte
	for z := 0; z < defs.Planes; z++ {
		for x := 0; x < defs.RegionSize; x++ {
			for y := 0; y < defs.RegionSize; y++ {
				switch {
				case z > 0:
					tiles = append(tiles, 0)
				case x == 7 && y == 9:
					tiles = append(tiles, 82, 1, 0)
				default:
					tiles = append(tiles, 1, 0)
				}
			}
		}
	}
	dir := t.TempDir()
	b := cachetest.New()
	b.PutNamed(cache.IndexMaps, cache.TilesArchiveName(region), tiles, nil)
	b.PutFiles(cache.IndexConfigs, defs.ConfigUnderlay, map[int][]byte{0: {1, underlay >> 16, underlay >> 8 & 0xff, underlay & 0xff, 0}})
	require.NoError(t, b.Write(dir))
	c, err := cache.Open(dir)
	require.NoError(t, err)
	defer c.Close()

	set := defs.NewSet(c, 0, nil)
	builder := scene.New(set, compose.New(set.Models, nil, nil), nil)
	s, err := builder.Load(context.Background(), region, 0)
	require.NoError(t, err)
	require.Equal(t, 1, s.Count())
	h := palette.FromRGB(underlay)
	hsl := palette.Light(palette.Pack(h.Hue*256/h.HueMultiplier, h.Saturation, h.Lightness), flatLight)
	tile := s.Get(0, 7, 9)
	require.NotNil(t, tile)
	require.NotNil(t, tile.Paint)
	assert.Equal(t, [4]int{hsl, hsl, hsl, hsl}, tile.Paint.Colors)

	out := t.TempDir()
	_, err = (&Exporter{OutDir: out}).Export(s)
	require.NoError(t, err)
	doc := readDoc(t, filepath.Join(out, "scene.gltf"))
	require.Len(t, doc.Meshes, 1)
	prim := doc.Meshes[0].Primitives[0]
	assert.Nil(t, prim.Attributes.Texcoord)
	require.NotNil(t, prim.Attributes.Color)
	assert.Equal(t, 6, doc.Accessors[prim.Attributes.Position].Count)
	assert.Equal(t, 6, doc.Accessors[*prim.Attributes.Color].Count)
	assert.Empty(t, doc.Textures)

	data, err := os.ReadFile(filepath.Join(out, "data.bin"))
	require.NoError(t, err)
	rgb := palette.HSLToRGB(hsl, 1)
	want := []float32{float32(rgb>>16&255) / 255, float32(rgb>>8&255) / 255, float32(rgb&255) / 255}
	colors := floats(t, doc, data, *prim.Attributes.Color)
	require.Len(t, colors, 18)
	for v := 0; v < 6; v++ {
		assert.Equal(t, want, colors[v*3:v*3+3], "vertex %d", v)
	}
	assert.NotEqual(t, []float32{0, 0, 0}, want)
}
