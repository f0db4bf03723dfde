// SPDX-License-Identifier: GPL-2.0-or-later

// Package palette converts the packed 16 bit hue/saturation/lightness colours
// of the cache to rgb.
package palette

import (
	"github.com/chewxy/math32"
)

// Hidden marks a colour that must not be drawn.
const Hidden = 12345678

// Brightness exponents applied after the hsl to rgb transform.
const (
	BrightnessMax  = 0.6
	BrightnessHigh = 0.7
	BrightnessLow  = 0.8
	BrightnessMin  = 0.9
)

const (
	hueOffset        = 0.5 / 64
	saturationOffset = 0.5 / 8
)

func unpackHue(hsl int) int        { return hsl >> 10 & 63 }
func unpackSaturation(hsl int) int { return hsl >> 7 & 7 }
func unpackLuminance(hsl int) int  { return hsl & 127 }

// AdjustBrightness raises each rgb component to the brightness exponent.
func AdjustBrightness(rgb int, brightness float32) int {
	r := math32.Pow(float32(rgb>>16)/256, brightness)
	g := math32.Pow(float32(rgb>>8&255)/256, brightness)
	b := math32.Pow(float32(rgb&255)/256, brightness)
	return int(r*256)<<16 | int(g*256)<<8 | int(b*256)
}

// HSLToRGB converts a packed hsl value to 24 bit rgb. The result is never 0.
func HSLToRGB(hsl int, brightness float32) int {
	hue := float32(unpackHue(hsl))/64 + hueOffset
	saturation := float32(unpackSaturation(hsl))/8 + saturationOffset
	luminance := float32(unpackLuminance(hsl)) / 128

	chroma := (1 - math32.Abs(2*luminance-1)) * saturation
	x := chroma * (1 - math32.Abs(math32.Mod(hue*6, 2)-1))
	lightness := luminance - chroma/2
	r, g, b := lightness, lightness, lightness
	switch int(hue * 6) {
	case 0:
		r += chroma
		g += x
	case 1:
		g += chroma
		r += x
	case 2:
		g += chroma
		b += x
	case 3:
		b += chroma
		g += x
	case 4:
		b += chroma
		r += x
	default:
		r += chroma
		b += x
	}
	rgb := int(r*256)<<16 | int(g*256)<<8 | int(b*256)
	rgb = AdjustBrightness(rgb, brightness)
	if rgb == 0 {
		rgb = 1
	}
	return rgb
}

// Palette maps every packed hsl value to rgb.
type Palette struct {
	Brightness float32
	rgb        [65536]int32
}

func New(brightness float32) *Palette {
	p := &Palette{Brightness: brightness}
	for i := range p.rgb {
		p.rgb[i] = int32(HSLToRGB(i, brightness))
	}
	return p
}

// RGB looks up the low 16 bits of hsl.
func (p *Palette) RGB(hsl int) int {
	return int(p.rgb[hsl&0xffff])
}

// Float returns the colour as linear 0..1 components.
func (p *Palette) Float(hsl int) [3]float32 {
	c := p.RGB(hsl)
	return [3]float32{
		float32(c>>16&255) / 255,
		float32(c>>8&255) / 255,
		float32(c&255) / 255,
	}
}

// HSL is an rgb colour split into the 8 bit components used for blending.
type HSL struct {
	Hue        int
	Saturation int
	Lightness  int
	// HueMultiplier weighs the hue when several colours are averaged.
	HueMultiplier int
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hsl returns hue in 0..1, saturation and lightness of a 24 bit colour.
func hsl(rgb int) (h, s, l float64) {
	r := float64(rgb>>16&255) / 256
	g := float64(rgb>>8&255) / 256
	b := float64(rgb&255) / 256
	lo := min(r, g, b)
	hi := max(r, g, b)
	l = (lo + hi) / 2
	if lo != hi {
		if l < 0.5 {
			s = (hi - lo) / (hi + lo)
		} else {
			s = (hi - lo) / (2 - hi - lo)
		}
		switch hi {
		case r:
			h = (g - b) / (hi - lo)
		case g:
			h = 2 + (b-r)/(hi-lo)
		default:
			h = 4 + (r-g)/(hi-lo)
		}
	}
	return h / 6, s, l
}

// FromRGB splits rgb the way underlays are blended: the hue is pre-weighted
// by the hue multiplier.
func FromRGB(rgb int) HSL {
	h, s, l := hsl(rgb)
	c := HSL{
		Saturation: clamp(int(s*256), 0, 255),
		Lightness:  clamp(int(l*256), 0, 255),
	}
	if l > 0.5 {
		c.HueMultiplier = int(s * (1 - l) * 512)
	} else {
		c.HueMultiplier = int(s * l * 512)
	}
	if c.HueMultiplier < 1 {
		c.HueMultiplier = 1
	}
	c.Hue = int(float64(c.HueMultiplier) * h)
	return c
}

// FromRGBPlain splits rgb with an unweighted 0..255 hue, as overlays do.
func FromRGBPlain(rgb int) HSL {
	h, s, l := hsl(rgb)
	return HSL{
		Hue:        int(256 * h),
		Saturation: clamp(int(s*256), 0, 255),
		Lightness:  clamp(int(l*256), 0, 255),
	}
}

// Pack builds a packed hsl value from 8 bit components. Saturation is
// reduced for very light colours.
func Pack(hue, saturation, lightness int) int {
	if lightness > 179 {
		saturation /= 2
	}
	if lightness > 192 {
		saturation /= 2
	}
	if lightness > 217 {
		saturation /= 2
	}
	if lightness > 243 {
		saturation /= 2
	}
	return (saturation/32)<<7 + (hue/4)<<10 + lightness/2
}

// Light scales the lightness of hsl by light/128. An unset colour (-1)
// becomes Hidden.
func Light(hsl, light int) int {
	if hsl == -1 {
		return Hidden
	}
	l := clamp((hsl&127)*light/128, 2, 126)
	return hsl&0xff80 + l
}

// LightOverlay is Light for overlay colours: -2 is hidden and -1 keeps only
// the light value.
func LightOverlay(hsl, light int) int {
	switch hsl {
	case -2:
		return Hidden
	case -1:
		return clamp(light, 2, 126)
	}
	l := clamp((hsl&0x7f)*light/128, 2, 126)
	return hsl&0xff80 + l
}
