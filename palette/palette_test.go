// SPDX-License-Identifier: GPL-2.0-or-later

package palette

import (
	"testing"
)

func TestHSLToRGB(t *testing.T) {
	tests := []struct {
		hsl  int
		want int
	}{
		{0, 1},
		{0<<10 | 7<<7 | 64, 0xF81308},
	}
	for _, tc := range tests {
		if got := HSLToRGB(tc.hsl, 1); got != tc.want {
			t.Errorf("HSLToRGB(%d, 1) = %#x, want %#x", tc.hsl, got, tc.want)
		}
	}
}

func TestPaletteFloat(t *testing.T) {
	p := New(1)
	for _, hsl := range []int{0, 100, 0x7fff, 0xffff, 0x1ffff} {
		c := p.Float(hsl)
		for i, v := range c {
			if v < 0 || v > 1 {
				t.Errorf("Float(%d)[%d] = %v, out of range", hsl, i, v)
			}
		}
	}
	if p.RGB(0x10000) != p.RGB(0) {
		t.Errorf("RGB does not wrap at 16 bits")
	}
}

func TestFromRGB(t *testing.T) {
	tests := []struct {
		rgb  int
		want HSL
	}{
		{0x808080, HSL{Hue: 0, Saturation: 0, Lightness: 128, HueMultiplier: 1}},
		{0xff0000, HSL{Hue: 0, Saturation: 255, Lightness: 127, HueMultiplier: 255}},
	}
	for _, tc := range tests {
		if got := FromRGB(tc.rgb); got != tc.want {
			t.Errorf("FromRGB(%#x) = %+v, want %+v", tc.rgb, got, tc.want)
		}
	}
	if got := FromRGBPlain(0x00ff00); got.Hue != 85 || got.Saturation != 255 || got.Lightness != 127 {
		t.Errorf("FromRGBPlain(0x00ff00) = %+v", got)
	}
}

func TestPack(t *testing.T) {
	tests := []struct {
		h, s, l int
		want    int
	}{
		{0, 0, 0, 0},
		{40, 100, 100, 10<<10 | 3<<7 | 50},
		{0, 255, 200, 1<<7 | 100},
	}
	for _, tc := range tests {
		if got := Pack(tc.h, tc.s, tc.l); got != tc.want {
			t.Errorf("Pack(%d, %d, %d) = %d, want %d", tc.h, tc.s, tc.l, got, tc.want)
		}
	}
}

func TestLight(t *testing.T) {
	const c = 5<<10 | 2<<7 | 100
	tests := []struct {
		name string
		f    func(int, int) int
		hsl  int
		l    int
		want int
	}{
		{"unset", Light, -1, 50, Hidden},
		{"half", Light, c, 64, c&0xff80 + 50},
		{"low", Light, c, 1, c&0xff80 + 2},
		{"overlay hidden", LightOverlay, -2, 50, Hidden},
		{"overlay unset high", LightOverlay, -1, 200, 126},
		{"overlay unset low", LightOverlay, -1, 0, 2},
		{"overlay half", LightOverlay, c, 64, c&0xff80 + 50},
	}
	for _, tc := range tests {
		if got := tc.f(tc.hsl, tc.l); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}
