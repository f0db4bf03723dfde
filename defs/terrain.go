// SPDX-License-Identifier: GPL-2.0-or-later

package defs

import (
	rmath "rscene/math"
)

// GeneratedHeight is the smooth noise height used for tiles without a
// stored height. The result is within 10..60.
func GeneratedHeight(x, y int) int {
	n := interpolatedNoise(x+45365, y+91923, 4) - 128 +
		(interpolatedNoise(x+10294, y+37821, 2)-128)>>1 +
		(interpolatedNoise(x, y, 1)-128)>>2
	n = 35 + int(float64(n)*0.3)
	return rmath.Clamp(10, n, 60)
}

func interpolatedNoise(x, y, freq int) int {
	ix, fx := x/freq, x&(freq-1)
	iy, fy := y/freq, y&(freq-1)
	v1 := smoothNoise(ix, iy)
	v2 := smoothNoise(ix+1, iy)
	v3 := smoothNoise(ix, iy+1)
	v4 := smoothNoise(ix+1, iy+1)
	i1 := interpolate(v1, v2, fx, freq)
	i2 := interpolate(v3, v4, fx, freq)
	return interpolate(i1, i2, fy, freq)
}

func smoothNoise(x, y int) int {
	corners := noise(x-1, y-1) + noise(x+1, y-1) + noise(x-1, y+1) + noise(x+1, y+1)
	sides := noise(x-1, y) + noise(x+1, y) + noise(x, y-1) + noise(x, y+1)
	return noise(x, y)/4 + sides/8 + corners/16
}

// noise works in wrapping 32 bit arithmetic.
func noise(x, y int) int {
	n := int32(x + y*57)
	n ^= n << 13
	v := n*(n*n*15731+789221) + 1376312589
	return int(v&0x7fffffff) >> 19 & 255
}

func interpolate(a, b, x, freq int) int {
	f := (65536 - rmath.Cosine[1024*x/freq]) >> 1
	return (f*b)>>16 + (a*(65536-f))>>16
}
