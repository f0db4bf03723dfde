// SPDX-License-Identifier: GPL-2.0-or-later

package defs

import (
	"github.com/pkg/errors"

	"rscene/cache"
	"rscene/stream"
)

// field decodes the payload of one opcode into d.
type field[T any] func(d *T, r *stream.Reader, op byte)

type opcodes[T any] map[byte]field[T]

// decode runs the opcode loop until the terminating zero.
func (t opcodes[T]) decode(kind string, id int, data []byte, d *T) error {
	r := stream.NewReader(data)
	for {
		op := r.Uint8()
		if err := r.Err(); err != nil {
			return errors.Wrapf(cache.ErrCorrupt, "%s %d: %v", kind, id, err)
		}
		if op == 0 {
			return nil
		}
		f, ok := t[op]
		if !ok {
			return &OpcodeError{Kind: kind, Opcode: int(op), ID: id}
		}
		f(d, r, op)
	}
}

// skip returns a field reading and dropping n bytes.
func skip[T any](n int) field[T] {
	return func(_ *T, r *stream.Reader, _ byte) { r.Skip(n) }
}
