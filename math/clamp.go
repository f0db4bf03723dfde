// SPDX-License-Identifier: GPL-2.0-or-later

package math

type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Clamp bounds val to [lo, hi].
func Clamp[K Number](lo, val, hi K) K {
	if lo > val {
		return lo
	} else if hi < val {
		return hi
	}
	return val
}
