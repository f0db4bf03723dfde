// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"

	"rscene/stream"
)

const (
	flagNames                = 0x1
	flagDigests              = 0x2
	flagLengths              = 0x4
	flagUncompressedChecksum = 0x8
)

// ArchiveInfo is one archive entry of a reference table.
type ArchiveInfo struct {
	ID       int
	NameHash int32
	CRC      int32
	Revision int32
	// FileIDs are sorted ascending.
	FileIDs    []int
	FileHashes []int32
}

// ReferenceTable lists the archives of one index.
type ReferenceTable struct {
	Protocol int
	Revision int32
	Named    bool
	Archives map[int]*ArchiveInfo
	byName   map[int32]int
}

// NameHash is the archive name hash used by reference tables.
func NameHash(name string) int32 {
	var h int32
	for _, c := range []byte(name) {
		h = h*31 + int32(c)
	}
	return h
}

func DecodeReferenceTable(data []byte) (*ReferenceTable, error) {
	r := stream.NewReader(data)
	t := &ReferenceTable{
		Protocol: int(r.Uint8()),
		Archives: make(map[int]*ArchiveInfo),
		byName:   make(map[int32]int),
	}
	if t.Protocol < 5 || t.Protocol > 7 {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "reference table protocol %d", t.Protocol)
	}
	if t.Protocol >= 6 {
		t.Revision = r.Int32()
	}
	flags := r.Uint8()
	t.Named = flags&flagNames != 0
	id := func() int {
		if t.Protocol >= 7 {
			return r.Smart32()
		}
		return int(r.Uint16())
	}

	count := id()
	list := make([]*ArchiveInfo, count)
	last := 0
	for i := range list {
		last += id()
		list[i] = &ArchiveInfo{ID: last}
	}
	if t.Named {
		for _, a := range list {
			a.NameHash = r.Int32()
		}
	}
	for _, a := range list {
		a.CRC = r.Int32()
	}
	if flags&flagUncompressedChecksum != 0 {
		r.Skip(4 * count)
	}
	if flags&flagDigests != 0 {
		r.Skip(64 * count)
	}
	if flags&flagLengths != 0 {
		r.Skip(8 * count)
	}
	for _, a := range list {
		a.Revision = r.Int32()
	}
	for _, a := range list {
		a.FileIDs = make([]int, id())
	}
	for _, a := range list {
		last := 0
		for i := range a.FileIDs {
			last += id()
			a.FileIDs[i] = last
		}
	}
	if t.Named {
		for _, a := range list {
			a.FileHashes = make([]int32, len(a.FileIDs))
			for i := range a.FileHashes {
				a.FileHashes[i] = r.Int32()
			}
		}
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "reference table: %v", err)
	}
	for _, a := range list {
		t.Archives[a.ID] = a
		if t.Named {
			t.byName[a.NameHash] = a.ID
		}
	}
	return t, nil
}

// Find returns the archive id for a name.
func (t *ReferenceTable) Find(name string) (int, bool) {
	id, ok := t.byName[NameHash(name)]
	return id, ok
}

// IDs returns all archive ids ascending.
func (t *ReferenceTable) IDs() []int {
	ids := make([]int, 0, len(t.Archives))
	for id := range t.Archives {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Encode writes the table in protocol 6 (or 7 when t.Protocol is 7).
func (t *ReferenceTable) Encode() []byte {
	proto := t.Protocol
	if proto < 6 {
		proto = 6
	}
	ids := t.IDs()
	var out []byte
	putID := func(v int) {
		if proto >= 7 && v > 0x7fff {
			out = binary.BigEndian.AppendUint32(out, uint32(v)|0x80000000)
			return
		}
		out = binary.BigEndian.AppendUint16(out, uint16(v))
	}
	out = append(out, byte(proto))
	out = binary.BigEndian.AppendUint32(out, uint32(t.Revision))
	var flags byte
	if t.Named {
		flags |= flagNames
	}
	out = append(out, flags)
	putID(len(ids))
	last := 0
	for _, id := range ids {
		putID(id - last)
		last = id
	}
	if t.Named {
		for _, id := range ids {
			out = binary.BigEndian.AppendUint32(out, uint32(t.Archives[id].NameHash))
		}
	}
	for _, id := range ids {
		out = binary.BigEndian.AppendUint32(out, uint32(t.Archives[id].CRC))
	}
	for _, id := range ids {
		out = binary.BigEndian.AppendUint32(out, uint32(t.Archives[id].Revision))
	}
	for _, id := range ids {
		putID(len(t.Archives[id].FileIDs))
	}
	for _, id := range ids {
		last := 0
		for _, f := range t.Archives[id].FileIDs {
			putID(f - last)
			last = f
		}
	}
	if t.Named {
		for _, id := range ids {
			a := t.Archives[id]
			for i := range a.FileIDs {
				var h int32
				if i < len(a.FileHashes) {
					h = a.FileHashes[i]
				}
				out = binary.BigEndian.AppendUint32(out, uint32(h))
			}
		}
	}
	return out
}
