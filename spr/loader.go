// SPDX-License-Identifier: GPL-2.0-or-later

// Package spr decodes sprite archives.
package spr

import (
	"github.com/pkg/errors"

	"rscene/cache"
	"rscene/stream"
)

// Decode reads all frames of sprite archive id. The frame table sits at
// the end of the data, the pixels at its start.
func Decode(id int, data []byte) ([]*Sprite, error) {
	if len(data) < 2 {
		return nil, errors.Wrapf(cache.ErrCorrupt, "sprite %d: %d bytes", id, len(data))
	}
	r := stream.NewReader(data)
	r.Seek(len(data) - 2)
	count := int(r.Uint16())
	table := len(data) - 7 - count*8
	if count == 0 || table < 0 {
		return nil, errors.Wrapf(cache.ErrCorrupt, "sprite %d: %d frames in %d bytes", id, count, len(data))
	}
	r.Seek(table)
	maxW := int(r.Uint16())
	maxH := int(r.Uint16())
	palLen := int(r.Uint8()) + 1

	frames := make([]*Sprite, count)
	for i := range frames {
		frames[i] = &Sprite{ID: id, Frame: i, MaxWidth: maxW, MaxHeight: maxH}
	}
	for _, f := range frames {
		f.OffsetX = int(r.Uint16())
	}
	for _, f := range frames {
		f.OffsetY = int(r.Uint16())
	}
	for _, f := range frames {
		f.Width = int(r.Uint16())
	}
	for _, f := range frames {
		f.Height = int(r.Uint16())
	}

	palStart := table - (palLen-1)*3
	if palStart < 0 {
		return nil, errors.Wrapf(cache.ErrCorrupt, "sprite %d: palette of %d entries", id, palLen)
	}
	r.Seek(palStart)
	pal := make([]int, palLen)
	for i := 1; i < palLen; i++ {
		pal[i] = int(r.Uint24())
		if pal[i] == 0 {
			pal[i] = 1
		}
	}

	r.Seek(0)
	for _, f := range frames {
		n := f.Width * f.Height
		f.Palette = pal
		flags := r.Uint8()
		f.Indices = readPlane(r, f.Width, f.Height, flags&FlagVertical != 0)
		if flags&FlagAlpha != 0 {
			f.Alphas = readPlane(r, f.Width, f.Height, flags&FlagVertical != 0)
		} else {
			f.Alphas = make([]byte, n)
			for j, idx := range f.Indices {
				if idx != 0 {
					f.Alphas[j] = 0xff
				}
			}
		}
		if err := r.Err(); err != nil {
			return nil, errors.Wrapf(cache.ErrCorrupt, "sprite %d frame %d: %v", id, f.Frame, err)
		}
		for _, idx := range f.Indices {
			if int(idx) >= palLen {
				return nil, errors.Wrapf(cache.ErrCorrupt, "sprite %d frame %d: palette index %d", id, f.Frame, idx)
			}
		}
	}
	return frames, nil
}

func readPlane(r *stream.Reader, w, h int, vertical bool) []byte {
	p := make([]byte, w*h)
	if !vertical {
		copy(p, r.Bytes(len(p)))
		return p
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			p[w*y+x] = r.Uint8()
		}
	}
	return p
}

// Normalize places the frame on its full canvas.
func (s *Sprite) Normalize() {
	if s.Width == s.MaxWidth && s.Height == s.MaxHeight {
		return
	}
	idx := make([]byte, s.MaxWidth*s.MaxHeight)
	alpha := make([]byte, len(idx))
	i := 0
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			p := x + (y+s.OffsetY)*s.MaxWidth + s.OffsetX
			if p < len(idx) {
				idx[p] = s.Indices[i]
				alpha[p] = s.Alphas[i]
			}
			i++
		}
	}
	s.Indices, s.Alphas = idx, alpha
	s.Width, s.Height = s.MaxWidth, s.MaxHeight
	s.OffsetX, s.OffsetY = 0, 0
}
