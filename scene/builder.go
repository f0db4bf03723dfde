// SPDX-License-Identifier: GPL-2.0-or-later

package scene

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rscene/cache"
	"rscene/compose"
	"rscene/cvars"
	"rscene/defs"
	"rscene/palette"
)

type State int

const (
	Empty State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// MaxRadius keeps every region of a build inside the 256x256 map.
const MaxRadius = 127

var ErrRadius = errors.New("radius out of range")

type Option func(*Builder)

func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithWorkers sets how many regions are built at once.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = max(n, 1) }
}

// Builder loads square scenes of regions around a center region.
type Builder struct {
	defs     *defs.Set
	resolver *compose.Resolver
	opts     *cvars.DebugOptions
	log      *zap.Logger
	workers  int

	// load serializes Load calls.
	load sync.Mutex

	mu       sync.Mutex
	state    State
	scene    *Scene
	onChange []func()
	onError  []func(error)
}

// New creates an empty builder. opts may be nil, nothing is filtered then.
func New(set *defs.Set, resolver *compose.Resolver, opts *cvars.DebugOptions, options ...Option) *Builder {
	b := &Builder{
		defs:     set,
		resolver: resolver,
		opts:     opts,
		log:      zap.NewNop(),
		workers:  1,
	}
	for _, o := range options {
		o(b)
	}
	return b
}

func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Scene returns the last completed scene or nil while not Ready.
func (b *Builder) Scene() *Scene {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Ready {
		return nil
	}
	return b.scene
}

// OnChange registers f to run after every completed build.
func (b *Builder) OnChange(f func()) {
	b.mu.Lock()
	b.onChange = append(b.onChange, f)
	b.mu.Unlock()
}

// OnError registers f to run with the error of every failed build.
func (b *Builder) OnError(f func(error)) {
	b.mu.Lock()
	b.onError = append(b.onError, f)
	b.mu.Unlock()
}

func (b *Builder) setState(s State, sc *Scene) {
	b.mu.Lock()
	b.state, b.scene = s, sc
	b.mu.Unlock()
}

func (b *Builder) fail(err error) error {
	b.mu.Lock()
	b.state, b.scene = Empty, nil
	cbs := b.onError
	b.mu.Unlock()
	for _, f := range cbs {
		f(err)
	}
	return err
}

type job struct {
	region uint32
	gx, gy int
}

// Load builds the scene of the (2*radius+1)^2 regions centered on center.
// Regions that cannot be read are left empty, only an unreadable center
// region fails the build.
func (b *Builder) Load(ctx context.Context, center uint32, radius int) (*Scene, error) {
	b.load.Lock()
	defer b.load.Unlock()

	b.setState(Loading, nil)
	log := b.log.With(
		zap.String("build", uuid.Must(uuid.NewV7()).String()),
		zap.Uint32("center", center),
		zap.Int("radius", radius))

	if radius < 0 || radius > MaxRadius {
		return nil, b.fail(errors.Wrapf(ErrRadius, "radius %d", radius))
	}
	if center > 0xffff {
		return nil, b.fail(errors.Wrapf(cache.ErrNotFound, "region %d", center))
	}
	if _, err := b.defs.Regions.Get(int(center)); err != nil {
		return nil, b.fail(errors.Wrapf(err, "center region %d", center))
	}

	cx, cy := cache.RegionXY(center)
	var jobs []job
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			x, y := cx+dx, cy+dy
			if x < 0 || y < 0 || x > 0xff || y > 0xff {
				continue
			}
			jobs = append(jobs, job{region: uint32(x<<8 | y), gx: dx + radius, gy: dy + radius})
		}
	}

	s := NewScene(center, radius)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b.buildRegion(s, j, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, b.fail(err)
	}
	log.Info("scene built", zap.Int("regions", len(jobs)), zap.Int("tiles", s.Count()))

	b.mu.Lock()
	b.state, b.scene = Ready, s
	cbs := b.onChange
	b.mu.Unlock()
	for _, f := range cbs {
		f()
	}
	return s, nil
}

func (b *Builder) planeVisible(z int) bool {
	return b.opts == nil || b.opts.PlaneVisible(z)
}

func (b *Builder) showPaint() bool {
	return b.opts == nil || b.opts.ShowTilePaint.Bool()
}

func (b *Builder) showModels() bool {
	return b.opts == nil || b.opts.ShowTileModels.Bool()
}

func (b *Builder) buildRegion(s *Scene, j job, log *zap.Logger) {
	log = log.With(zap.Uint32("region", j.region))
	r, err := b.defs.Regions.Get(int(j.region))
	if err != nil {
		log.Warn("region skipped", zap.Error(err))
		return
	}
	w := world{regions: b.defs.Regions}
	ox, oy := j.gx*defs.RegionSize, j.gy*defs.RegionSize
	light := w.lightness(r.BaseX(), r.BaseY())
	for z := 0; z < defs.Planes; z++ {
		if b.planeVisible(z) {
			b.paintPlane(s, w, r, z, ox, oy, &light, log)
		}
	}
	b.placeObjects(s, w, r, ox, oy, log)
}

// overlayColor returns the packed hsl and the texture of an overlay. A
// textured overlay has hsl -1, a hidden one -2.
func (b *Builder) overlayColor(id int, log *zap.Logger) (int, int) {
	ov, err := b.defs.Overlays.Get(id)
	switch {
	case err != nil:
		log.Debug("overlay skipped", zap.Int("overlay", id), zap.Error(err))
		return -2, -1
	case ov.Texture >= 0:
		return -1, ov.Texture
	case ov.RGB == defs.OverlayHidden:
		return -2, -1
	}
	return palette.Pack(ov.Hue, ov.Saturation, ov.Lightness), -1
}

func (b *Builder) paintPlane(s *Scene, w world, r *defs.RegionDef, z, ox, oy int,
	light *[defs.RegionSize + 1][defs.RegionSize + 1]int, log *zap.Logger) {
	bx, by := r.BaseX(), r.BaseY()
	sums := underlayBlend(w, b.defs.Underlays, z, bx, by)
	for x := 0; x < defs.RegionSize; x++ {
		for y := 0; y < defs.RegionSize; y++ {
			t := &r.Tiles[z][x][y]
			if t.UnderlayID <= 0 && t.OverlayID <= 0 {
				continue
			}
			heights := [4]int{
				SW: w.height(z, bx+x, by+y),
				SE: w.height(z, bx+x+1, by+y),
				NE: w.height(z, bx+x+1, by+y+1),
				NW: w.height(z, bx+x, by+y+1),
			}
			corners := [4]int{
				SW: light[x][y],
				SE: light[x+1][y],
				NE: light[x+1][y+1],
				NW: light[x][y+1],
			}
			rgb := -1
			if t.UnderlayID > 0 {
				rgb = sums[x][y].color()
			}
			var under [4]int
			for i, c := range corners {
				under[i] = palette.Light(rgb, c)
			}

			if t.OverlayID == 0 {
				if b.showPaint() {
					s.tile(z, ox+x, oy+y).Paint = &TilePaint{Heights: heights, Colors: under, Texture: -1}
				}
				continue
			}
			hsl, texture := b.overlayColor(t.OverlayID-1, log)
			var over [4]int
			for i, c := range corners {
				over[i] = palette.LightOverlay(hsl, c)
			}
			path := t.OverlayPath + 1
			switch {
			case path == 1:
				if b.showPaint() {
					s.tile(z, ox+x, oy+y).Paint = &TilePaint{Heights: heights, Colors: over, Texture: texture}
				}
			case path < ShapeCount:
				if b.showModels() {
					s.tile(z, ox+x, oy+y).Model = NewTileModel(path, t.OverlayRotation, texture, heights, under, over)
				}
			default:
				log.Debug("overlay shape skipped", zap.Int("path", path))
			}
		}
	}
}

func (b *Builder) locations(region uint32, log *zap.Logger) []defs.LocationInstance {
	locs, err := b.defs.Locations.Get(int(region))
	switch {
	case err == nil:
		return locs.Instances
	case errors.Is(err, cache.ErrMissingKey):
		log.Info("no key for region, placing no objects")
	case errors.Is(err, cache.ErrNotFound):
		log.Debug("region has no objects")
	default:
		log.Warn("objects skipped", zap.Error(err))
	}
	return nil
}

func (b *Builder) placeObjects(s *Scene, w world, r *defs.RegionDef, ox, oy int, log *zap.Logger) {
	bx, by := r.BaseX(), r.BaseY()
	for _, loc := range b.locations(r.ID, log) {
		if loc.Plane >= defs.Planes || !b.planeVisible(loc.Plane) {
			continue
		}
		obj, err := b.defs.Objects.Get(loc.ObjectID)
		if err != nil {
			log.Debug("object skipped", zap.Int("object", loc.ObjectID), zap.Error(err))
			continue
		}
		ps := placements(loc)
		if loc.Type == defs.LocWallCorner {
			// a corner needs its plain model before both halves are placed
			if m, err := b.resolver.Resolve(obj, loc.Type, loc.Orientation); err != nil || m == nil {
				continue
			}
		}
		f := w.footprint(obj, loc, bx, by)
		for _, p := range ps {
			m, err := b.resolver.Resolve(obj, loc.Type, p.orientation)
			if err != nil {
				log.Debug("model skipped", zap.Int("object", obj.ID), zap.Int("type", loc.Type), zap.Error(err))
				continue
			}
			if m == nil {
				continue
			}
			if loc.Diagonal() {
				m = m.Clone()
				m.Rotate(diagonalAngle)
			}
			if obj.ContouredGround >= 0 {
				m = w.contour(m, loc.Plane, bx, by, f.x, f.z, f.height)
			}
			ax, az := p.origin(f)
			tile := s.tile(loc.Plane, ox+loc.X, oy+loc.Y)
			tile.Objects = append(tile.Objects, Placed{
				Kind:        p.kind,
				ObjectID:    obj.ID,
				Type:        loc.Type,
				Orientation: p.orientation,
				Model:       m,
				X:           (ox+loc.X)*TileSize + ax,
				Y:           f.height,
				Z:           (oy+loc.Y)*TileSize + az,
			})
		}
	}
}
