// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"encoding/binary"
	"io"

	"golang.org/x/text/encoding/charmap"
)

// Reader is a big-endian cursor over a byte slice. Once a read fails every
// following read fails as well, so callers may check Err once per record.
type Reader struct {
	b   []byte
	pos int
	err error
}

func NewReader(data []byte) *Reader {
	return &Reader{b: data}
}

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.b) {
		r.err = io.ErrUnexpectedEOF
		return false
	}
	return true
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Len returns the number of bytes of the unread portion of the slice.
func (r *Reader) Len() int {
	return len(r.b) - r.pos
}

func (r *Reader) Seek(pos int) {
	if pos < 0 || pos > len(r.b) {
		r.err = io.ErrUnexpectedEOF
		return
	}
	r.pos = pos
}

func (r *Reader) Skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

func (r *Reader) Bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.b[r.pos : r.pos+n]
	r.pos += n
	return v
}

func (r *Reader) Uint8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.pos]
	r.pos++
	return v
}

func (r *Reader) Int8() int8 {
	return int8(r.Uint8())
}

func (r *Reader) Peek() uint8 {
	if !r.need(1) {
		return 0
	}
	return r.b[r.pos]
}

func (r *Reader) Uint16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return v
}

func (r *Reader) Int16() int16 {
	return int16(r.Uint16())
}

func (r *Reader) Uint24() uint32 {
	if !r.need(3) {
		return 0
	}
	v := uint32(r.b[r.pos])<<16 | uint32(r.b[r.pos+1])<<8 | uint32(r.b[r.pos+2])
	r.pos += 3
	return v
}

func (r *Reader) Uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v
}

func (r *Reader) Int32() int32 {
	return int32(r.Uint32())
}

// UnsignedShortSmart reads one byte for values below 128, else two bytes.
func (r *Reader) UnsignedShortSmart() int {
	if r.Peek() < 128 {
		return int(r.Uint8())
	}
	return int(r.Uint16()) - 0x8000
}

// ShortSmart is the signed variant of UnsignedShortSmart, range -64..16383.
func (r *Reader) ShortSmart() int {
	if r.Peek() < 128 {
		return int(r.Uint8()) - 64
	}
	return int(r.Uint16()) - 0xc000
}

// UnsignedSmartShortExtended sums 32767 chunks until a value below the
// chunk size is read.
func (r *Reader) UnsignedSmartShortExtended() int {
	v := 0
	for {
		n := r.UnsignedShortSmart()
		if r.err != nil || n != 32767 {
			return v + n
		}
		v += 32767
	}
}

// BigSmart reads a u16 id or, when the top bit is set, a 31-bit id.
// 32767 maps to -1.
func (r *Reader) BigSmart() int {
	if r.Peek()&0x80 == 0 {
		v := int(r.Uint16())
		if v == 32767 {
			return -1
		}
		return v
	}
	return int(r.Uint32() & 0x7fffffff)
}

// Smart32 reads a u16 when the top bit is clear, else a 31-bit value.
func (r *Reader) Smart32() int {
	if r.Peek()&0x80 == 0 {
		return int(r.Uint16())
	}
	return int(r.Uint32() & 0x7fffffff)
}

// String reads a zero terminated CP1252 string.
func (r *Reader) String() string {
	if r.err != nil {
		return ""
	}
	end := r.pos
	for end < len(r.b) && r.b[end] != 0 {
		end++
	}
	if end == len(r.b) {
		r.err = io.ErrUnexpectedEOF
		return ""
	}
	raw := r.b[r.pos:end]
	r.pos = end + 1
	s, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(s)
}
