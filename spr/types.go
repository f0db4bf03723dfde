// SPDX-License-Identifier: GPL-2.0-or-later

package spr

// Frame flags.
const (
	FlagVertical = 1 << iota
	FlagAlpha
)

// Sprite is one palette indexed frame of a sprite archive.
type Sprite struct {
	ID    int
	Frame int

	OffsetX, OffsetY int
	Width, Height    int
	// MaxWidth and MaxHeight are the canvas size shared by all frames.
	MaxWidth, MaxHeight int

	// Indices has Width*Height palette indices, 0 is transparent.
	Indices []byte
	Alphas  []byte
	// Palette holds 24 bit rgb values, entry 0 is unused.
	Palette []int
}

// ARGB returns the pixels as 32 bit argb values.
func (s *Sprite) ARGB() []int {
	p := make([]int, len(s.Indices))
	for i, idx := range s.Indices {
		p[i] = s.Palette[idx] | int(s.Alphas[i])<<24
	}
	return p
}
