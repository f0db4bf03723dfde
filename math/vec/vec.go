// SPDX-License-Identifier: GPL-2.0-or-later

// Package vec holds the small vector types used by the model code.
package vec

import (
	"github.com/chewxy/math32"
)

// Vec3 is a float vector, used for texture projection.
type Vec3 struct {
	X, Y, Z float32
}

// Sub returns a - b
func Sub(a, b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Dot returns a dot b
func Dot(a, b Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns a cross b
func Cross(a, b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Int3 is a vector in model units.
type Int3 struct {
	X, Y, Z int
}

func (v Int3) Float() Vec3 {
	return Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func SubI(a, b Int3) Int3 {
	return Int3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func CrossI(a, b Int3) Int3 {
	return Int3{
		a.Y*b.Z - b.Y*a.Z,
		a.Z*b.X - b.Z*a.X,
		a.X*b.Y - b.X*a.Y,
	}
}

// Length truncates the euclidean length to an int.
func (v Int3) Length() int {
	return int(math32.Sqrt(float32(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Shrink halves v until every component is within [-limit, limit].
func (v Int3) Shrink(limit int) Int3 {
	out := func(c int) bool { return c > limit || c < -limit }
	for out(v.X) || out(v.Y) || out(v.Z) {
		v.X >>= 1
		v.Y >>= 1
		v.Z >>= 1
	}
	return v
}

// Resize scales v to the given length. A zero vector stays zero.
func (v Int3) Resize(length int) Int3 {
	l := v.Length()
	if l <= 0 {
		l = 1
	}
	return Int3{v.X * length / l, v.Y * length / l, v.Z * length / l}
}
