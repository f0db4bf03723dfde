// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rscene/cache"
)

// FormatLegacy selects the decoder used when the trailing marker matches no
// registered format.
const FormatLegacy int16 = 0

var decoders = make(map[int16]DecodeFunc)

// DecodeFunc decodes the raw model data of one model id.
type DecodeFunc func(id int, data []byte) (*ModelDef, error)

// Register installs the decoder for models ending in marker.
func Register(marker int16, f DecodeFunc) {
	decoders[marker] = f
}

// Decode picks the decoder by the trailing two byte marker and computes
// normals and texture coordinates of the result.
func Decode(id int, data []byte) (*ModelDef, error) {
	if len(data) < 2 {
		return nil, errors.Wrapf(cache.ErrCorrupt, "model %d: %d bytes", id, len(data))
	}
	marker := int16(binary.BigEndian.Uint16(data[len(data)-2:]))
	f, ok := decoders[marker]
	if !ok {
		f = decoders[FormatLegacy]
	}
	m, err := f(id, data)
	if err != nil {
		return nil, err
	}
	m.ComputeNormals()
	m.ComputeTextureUVs()
	return m, nil
}
