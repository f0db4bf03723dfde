// SPDX-License-Identifier: GPL-2.0-or-later

package gltf

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
)

// FloatVectorBuffer packs little endian float vectors and keeps the bounds
// of every dimension.
type FloatVectorBuffer struct {
	dims     int
	min, max []float32
	data     []byte
	pos      int
	count    int
}

func NewFloatVectorBuffer(dims int) *FloatVectorBuffer {
	b := &FloatVectorBuffer{
		dims: dims,
		min:  make([]float32, dims),
		max:  make([]float32, dims),
	}
	for i := 0; i < dims; i++ {
		b.min[i] = math32.Inf(1)
		b.max[i] = math32.Inf(-1)
	}
	return b
}

// Add appends values, wrapping to the next vector after dims values. NaN
// and infinite values are stored as 0.
func (b *FloatVectorBuffer) Add(values ...float32) {
	for _, v := range values {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			v = 0
		}
		b.data = binary.LittleEndian.AppendUint32(b.data, math.Float32bits(v))
		b.min[b.pos] = min(b.min[b.pos], v)
		b.max[b.pos] = max(b.max[b.pos], v)
		b.pos++
		if b.pos == b.dims {
			b.pos = 0
			b.count++
		}
	}
}

func (b *FloatVectorBuffer) Dims() int { return b.dims }

// Len is the number of complete vectors.
func (b *FloatVectorBuffer) Len() int { return b.count }

func (b *FloatVectorBuffer) Min() []float32 { return b.min }

func (b *FloatVectorBuffer) Max() []float32 { return b.max }

// Bytes returns the complete vectors.
func (b *FloatVectorBuffer) Bytes() []byte {
	return b.data[:b.count*b.dims*4]
}
