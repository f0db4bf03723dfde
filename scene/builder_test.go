// SPDX-License-Identifier: GPL-2.0-or-later

package scene

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rscene/cache"
	"rscene/cache/cachetest"
	"rscene/compose"
	"rscene/cvar"
	"rscene/cvars"
	"rscene/defs"
	"rscene/keys"
	"rscene/model"
	"rscene/palette"
)

const (
	region      = 12850
	underlayRGB = 0x40a020
)

var regionKey = [4]uint32{9, 8, 7, 6}

// encodeRegion writes every tile of a region. Flat plane 0 tiles get a
// stored height of zero, tile returns the attributes placed before it.
func encodeRegion(tile func(z, x, y int) []byte) []byte {
	var b []byte
	for z := 0; z < defs.Planes; z++ {
		for x := 0; x < defs.RegionSize; x++ {
			for y := 0; y < defs.RegionSize; y++ {
				if tile != nil {
					b = append(b, tile(z, x, y)...)
				}
				if z == 0 {
					b = append(b, 1, 0)
				} else {
					b = append(b, 0)
				}
			}
		}
	}
	return b
}

type models map[int]*model.ModelDef

func (m models) Get(id int) (*model.ModelDef, error) {
	if d, ok := m[id]; ok {
		return d, nil
	}
	return nil, errors.Wrapf(cache.ErrNotFound, "model %d", id)
}

func wallModel() *model.ModelDef {
	return &model.ModelDef{
		ID:         1,
		VertexX:    []int{-64, 64, -64},
		VertexY:    []int{0, -200, 0},
		VertexZ:    []int{-64, -64, 64},
		FaceA:      []int{0},
		FaceB:      []int{1},
		FaceC:      []int{2},
		FaceColors: []uint16{500},
	}
}

type fixture struct {
	locations []byte
	key       bool
	store     bool
}

// newBuilder writes a cache with region 50,50 holding one underlay tile at
// 10,20 and object 7, a single model wall, and opens a builder on it.
func newBuilder(t *testing.T, fx fixture, opts *cvars.DebugOptions) *Builder {
	t.Helper()
	dir := t.TempDir()
	b := cachetest.New()
	b.PutNamed(cache.IndexMaps, cache.TilesArchiveName(region), encodeRegion(func(z, x, y int) []byte {
		if z == 0 && x == 10 && y == 20 {
			return []byte{82}
		}
		return nil
	}), nil)
	if fx.locations != nil {
		var key *[4]uint32
		if fx.key {
			key = &regionKey
		}
		b.PutNamed(cache.IndexMaps, cache.LocationsArchiveName(region), fx.locations, key)
	}
	b.PutFiles(cache.IndexConfigs, defs.ConfigUnderlay, map[int][]byte{
		0: {1, underlayRGB >> 16, underlayRGB >> 8 & 0xff, underlayRGB & 0xff, 0},
	})
	b.PutFiles(cache.IndexConfigs, defs.ConfigObject, map[int][]byte{
		7: {1, 1, 0, 1, 0},
	})
	require.NoError(t, b.Write(dir))

	var copts []cache.Option
	if fx.store {
		store := keys.NewStore()
		store.Replace(map[uint32]keys.Key{region: keys.Key(regionKey)})
		copts = append(copts, cache.WithKeys(store))
	}
	c, err := cache.Open(dir, copts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	set := defs.NewSet(c, 0, nil)
	res := compose.New(models{1: wallModel()}, opts, nil)
	return New(set, res, opts, WithWorkers(4))
}

func underlayColor() int {
	h := palette.FromRGB(underlayRGB)
	return palette.Light(palette.Pack(h.Hue*256/h.HueMultiplier, h.Saturation, h.Lightness), flatLight)
}

func TestLoadUnderlayTile(t *testing.T) {
	b := newBuilder(t, fixture{}, nil)
	s, err := b.Load(context.Background(), region, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())

	tl := s.Get(0, 10, 20)
	require.NotNil(t, tl)
	require.NotNil(t, tl.Paint)
	assert.Nil(t, tl.Model)
	c := underlayColor()
	assert.Equal(t, [4]int{c, c, c, c}, tl.Paint.Colors)
	assert.Equal(t, [4]int{}, tl.Paint.Heights)
	assert.Equal(t, -1, tl.Paint.Texture)
	assert.False(t, tl.Paint.Hidden())
}

func TestLoadOffsetsCenterRegion(t *testing.T) {
	b := newBuilder(t, fixture{}, nil)
	s, err := b.Load(context.Background(), region, 1)
	require.NoError(t, err)
	assert.Equal(t, 192, s.Size)
	assert.Equal(t, 1, s.Count())
	assert.NotNil(t, s.Get(0, 74, 84))
}

func TestLoadHonoursDebugOptions(t *testing.T) {
	opts := cvars.NewDebugOptions(cvar.New())
	b := newBuilder(t, fixture{}, opts)

	opts.ShowTilePaint.SetBool(false)
	s, err := b.Load(context.Background(), region, 0)
	require.NoError(t, err)
	assert.Zero(t, s.Count())

	opts.ShowTilePaint.SetBool(true)
	opts.ZLevels[0].SetBool(false)
	s, err = b.Load(context.Background(), region, 0)
	require.NoError(t, err)
	assert.Zero(t, s.Count())
}

// wallAndCorner places object 7 as a wall facing east at 10,20 and as a
// corner at 11,20.
var wallAndCorner = []byte{8, 0x82, 0x95, 1, 65, 8, 0, 0}

func TestLoadPlacesObjects(t *testing.T) {
	b := newBuilder(t, fixture{locations: wallAndCorner, key: true, store: true}, nil)
	s, err := b.Load(context.Background(), region, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())

	wall := s.Get(0, 10, 20)
	require.NotNil(t, wall)
	require.Len(t, wall.Objects, 1)
	p := wall.Objects[0]
	assert.Equal(t, KindWall, p.Kind)
	assert.Equal(t, 7, p.ObjectID)
	assert.Equal(t, 1, p.Orientation)
	assert.Equal(t, []int{10*TileSize + 64, 0, 20*TileSize + 64}, []int{p.X, p.Y, p.Z})
	require.NotNil(t, p.Model)
	assert.Equal(t, compose.Tag(1, 10, 7), p.Model.Tag)

	corner := s.Get(0, 11, 20)
	require.NotNil(t, corner)
	require.Len(t, corner.Objects, 2)
	assert.Equal(t, 1, corner.Objects[0].Orientation)
	assert.Equal(t, 4, corner.Objects[1].Orientation)
	assert.Equal(t, defs.LocWallCorner, corner.Objects[1].Type)
	assert.Same(t, p.Model, corner.Objects[0].Model)
}

func TestLoadUnresolvedObjectsLeaveNoTile(t *testing.T) {
	opts := cvars.NewDebugOptions(cvar.New())
	opts.ShowOnlyModelType.SetInt(10)
	b := newBuilder(t, fixture{locations: wallAndCorner, key: true, store: true}, opts)
	s, err := b.Load(context.Background(), region, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	assert.Empty(t, s.Get(0, 10, 20).Objects)
	assert.Nil(t, s.Get(0, 11, 20))
}

func TestLoadWithoutKeyPlacesNothing(t *testing.T) {
	b := newBuilder(t, fixture{locations: wallAndCorner, key: true}, nil)
	s, err := b.Load(context.Background(), region, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	assert.Empty(t, s.Get(0, 10, 20).Objects)
}

func TestStateAndCallbacks(t *testing.T) {
	b := newBuilder(t, fixture{}, nil)
	assert.Equal(t, Empty, b.State())
	assert.Nil(t, b.Scene())

	changes := 0
	var errs []error
	b.OnChange(func() { changes++ })
	b.OnError(func(err error) { errs = append(errs, err) })

	s, err := b.Load(context.Background(), region, 0)
	require.NoError(t, err)
	assert.Equal(t, Ready, b.State())
	assert.Same(t, s, b.Scene())
	assert.Equal(t, 1, changes)

	_, err = b.Load(context.Background(), region+1, 0)
	assert.ErrorIs(t, err, cache.ErrNotFound)
	assert.Equal(t, Empty, b.State())
	assert.Nil(t, b.Scene())
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], cache.ErrNotFound)
	assert.Equal(t, 1, changes)

	_, err = b.Load(context.Background(), region, -1)
	assert.ErrorIs(t, err, ErrRadius)
	assert.Len(t, errs, 2)
}

func TestLoadCanceled(t *testing.T) {
	b := newBuilder(t, fixture{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Load(ctx, region, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Empty, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "unknown", State(9).String())
}
