// SPDX-License-Identifier: GPL-2.0-or-later

// Package defs decodes the cache definitions of the scene: floor colours,
// objects, object placements and terrain.
package defs

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrUnknownOpcode = errors.New("unknown opcode")

// OpcodeError reports an opcode the decoder of Kind has no field for.
type OpcodeError struct {
	Kind    string
	Opcode  int
	ID      int
	Index   int
	Archive int
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("%s %d (index %d archive %d): opcode %d: %v", e.Kind, e.ID, e.Index, e.Archive, e.Opcode, ErrUnknownOpcode)
}

func (e *OpcodeError) Unwrap() error {
	return ErrUnknownOpcode
}
