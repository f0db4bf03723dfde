// SPDX-License-Identifier: GPL-2.0-or-later

package defs

import (
	"github.com/pkg/errors"

	"rscene/cache"
	"rscene/stream"
)

// Location types.
const (
	LocWallStraight      = 0
	LocWallDiagonalEdge  = 1
	LocWallCorner        = 2
	LocWallSquareCorner  = 3
	LocWallDecorStraight = 4
	LocWallDecorOffset   = 5
	LocWallDecorDiagOut  = 6
	LocWallDecorDiagIn   = 7
	LocWallDecorDiagBoth = 8
	LocWallDiagonal      = 9
	LocCentrepiece       = 10
	LocCentrepieceDiag   = 11
	LocRoofStraight      = 12
	LocRoofDiagonalEdge  = 21
	LocFloorDecoration   = 22
)

// LocationInstance is one object placed in a region.
type LocationInstance struct {
	ObjectID    int
	Type        int
	Orientation int
	Plane       int
	// X and Y are local to the region.
	X, Y int
}

// Diagonal reports the rotated centrepiece variant.
func (l LocationInstance) Diagonal() bool {
	return l.Type == LocCentrepieceDiag
}

// DecodeLocations decodes the decrypted l{x}_{y} archive of a region.
func DecodeLocations(data []byte) ([]LocationInstance, error) {
	r := stream.NewReader(data)
	var locs []LocationInstance
	id := -1
	for {
		delta := r.UnsignedSmartShortExtended()
		if r.Err() != nil {
			return nil, errors.Wrapf(cache.ErrCorrupt, "locations: %v", r.Err())
		}
		if delta == 0 {
			return locs, nil
		}
		id += delta
		pos := 0
		for {
			off := r.UnsignedShortSmart()
			if off == 0 {
				break
			}
			pos += off - 1
			attr := int(r.Uint8())
			locs = append(locs, LocationInstance{
				ObjectID:    id,
				Type:        attr >> 2,
				Orientation: attr & 3,
				Plane:       pos >> 12 & 3,
				X:           pos >> 6 & 63,
				Y:           pos & 63,
			})
			if r.Err() != nil {
				return nil, errors.Wrapf(cache.ErrCorrupt, "locations of object %d: %v", id, r.Err())
			}
		}
	}
}
