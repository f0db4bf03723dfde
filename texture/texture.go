// SPDX-License-Identifier: GPL-2.0-or-later

// Package texture decodes texture definitions and resolves them to pixels
// through their sprites.
package texture

import (
	"github.com/pkg/errors"

	"rscene/cache"
	"rscene/palette"
	"rscene/spr"
	"rscene/stream"
)

// Def is one texture definition.
type Def struct {
	ID         int
	AverageRGB int
	Opaque     bool
	FileIDs    []int
	// Combine and Blend hold one entry per file after the first.
	Combine []int
	Blend   []int
	Colors  []int
	// Animation direction and speed.
	Direction int
	Speed     int
}

// Decode reads texture definition id.
func Decode(id int, data []byte) (*Def, error) {
	r := stream.NewReader(data)
	d := &Def{ID: id}
	d.AverageRGB = int(r.Uint16())
	d.Opaque = r.Uint8() != 0
	n := int(r.Uint8())
	d.FileIDs = make([]int, n)
	for i := range d.FileIDs {
		d.FileIDs[i] = int(r.Uint16())
	}
	if n > 1 {
		d.Combine = make([]int, n-1)
		for i := range d.Combine {
			d.Combine[i] = int(r.Uint8())
		}
		d.Blend = make([]int, n-1)
		for i := range d.Blend {
			d.Blend[i] = int(r.Uint8())
		}
	}
	d.Colors = make([]int, n)
	for i := range d.Colors {
		d.Colors[i] = int(r.Int32())
	}
	d.Direction = int(r.Uint8())
	d.Speed = int(r.Uint8())
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(cache.ErrCorrupt, "texture %d: %v", id, err)
	}
	return d, nil
}

// SpriteSource returns the first frame of a sprite archive.
type SpriteSource interface {
	Sprite(id int) (*spr.Sprite, error)
}

// Pixels renders the texture as size*size argb values. Sizes of 64 and 128
// are supported for sprites of either size. brightness is one of the
// palette brightness exponents.
func (d *Def) Pixels(src SpriteSource, size int, brightness float32) ([]int, error) {
	pixels := make([]int, size*size)
	for i, fid := range d.FileIDs {
		s, err := src.Sprite(fid)
		if err != nil {
			return nil, errors.Wrapf(err, "texture %d sprite %d", d.ID, fid)
		}
		c := *s
		c.Normalize()
		pal := make([]int, len(c.Palette))
		copy(pal, c.Palette)
		if col := d.Colors[i]; col&^0xffffff == 0x3000000 {
			rb := col & 0xff00ff
			g := col >> 8 & 0xff
			for j, p := range pal {
				if p>>8 == p&0xffff {
					p &= 0xff
					pal[j] = (rb*p)>>8&0xff00ff | (g*p)&0xff00
				}
			}
		}
		for j := range pal {
			pal[j] = palette.AdjustBrightness(pal[j], brightness)
		}
		if i > 0 && d.Combine[i-1] != 0 {
			continue
		}
		if len(c.Indices) < c.MaxWidth*c.MaxWidth {
			return nil, errors.Wrapf(cache.ErrCorrupt, "texture %d sprite %d: %dx%d", d.ID, fid, c.MaxWidth, c.MaxHeight)
		}
		switch {
		case size == c.MaxWidth:
			for p := range pixels {
				pixels[p] = pal[c.Indices[p]]
			}
		case c.MaxWidth == 64 && size == 128:
			p := 0
			for y := 0; y < size; y++ {
				for x := 0; x < size; x++ {
					pixels[p] = pal[c.Indices[(y>>1<<6)+(x>>1)]]
					p++
				}
			}
		case c.MaxWidth == 128 && size == 64:
			p := 0
			for y := 0; y < size; y++ {
				for x := 0; x < size; x++ {
					pixels[p] = pal[c.Indices[(x<<1)+(y<<1<<7)]]
					p++
				}
			}
		default:
			return nil, errors.Wrapf(cache.ErrUnsupportedFormat, "texture %d: sprite width %d for size %d", d.ID, c.MaxWidth, size)
		}
	}
	return pixels, nil
}

// RGBA converts argb pixels to 8 bit rgba bytes. Colour 0 is transparent,
// everything else opaque.
func RGBA(pixels []int) []byte {
	out := make([]byte, 0, len(pixels)*4)
	for _, p := range pixels {
		var a byte
		if p&0xffffff != 0 {
			a = 0xff
		}
		out = append(out, byte(p>>16), byte(p>>8), byte(p), a)
	}
	return out
}

// DefSource returns texture definitions by id.
type DefSource interface {
	Get(id int) (*Def, error)
}

// Renderer draws textures as square rgba images.
type Renderer struct {
	Defs       DefSource
	Sprites    SpriteSource
	Size       int
	Brightness float32
}

func (r *Renderer) Image(id int) ([]byte, int, error) {
	d, err := r.Defs.Get(id)
	if err != nil {
		return nil, 0, err
	}
	px, err := d.Pixels(r.Sprites, r.Size, r.Brightness)
	if err != nil {
		return nil, 0, err
	}
	return RGBA(px), r.Size, nil
}
