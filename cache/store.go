// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	sectorSize         = 520
	sectorHeader       = 8
	sectorHeaderLarge  = 10
	indexEntrySize     = 6
	ReferenceIndex     = 255
	dataFileName       = "main_file_cache.dat2"
	indexFileNameFmt   = "main_file_cache.idx%d"
	maxArchiveSize     = 1 << 26
	largeArchiveCutoff = 0xffff
)

// Store reads raw, still compressed archives.
type Store interface {
	Read(index, archive int) ([]byte, error)
	Close() error
}

// DiskStore is the dat2 plus idx file layout. os.File.ReadAt is safe for
// concurrent use, reads need no locking.
type DiskStore struct {
	dir     string
	data    *os.File
	indexes map[int]*os.File
}

// OpenDiskStore opens main_file_cache.dat2 and every idx file present in dir.
func OpenDiskStore(dir string) (*DiskStore, error) {
	d, err := os.Open(filepath.Join(dir, dataFileName))
	if err != nil {
		return nil, errors.Wrapf(ErrNotFound, "open %s: %v", dataFileName, err)
	}
	s := &DiskStore{
		dir:     dir,
		data:    d,
		indexes: make(map[int]*os.File),
	}
	for i := 0; i <= ReferenceIndex; i++ {
		f, err := os.Open(filepath.Join(dir, fmt.Sprintf(indexFileNameFmt, i)))
		if err != nil {
			continue
		}
		s.indexes[i] = f
	}
	if _, ok := s.indexes[ReferenceIndex]; !ok {
		s.Close()
		return nil, errors.Wrapf(ErrNotFound, "no reference index in %s", dir)
	}
	return s, nil
}

func (s *DiskStore) String() string {
	return s.dir
}

// Indexes returns the ids of all present idx files except the reference index.
func (s *DiskStore) Indexes() []int {
	var r []int
	for i := 0; i < ReferenceIndex; i++ {
		if _, ok := s.indexes[i]; ok {
			r = append(r, i)
		}
	}
	return r
}

func (s *DiskStore) Close() error {
	var first error
	for _, f := range s.indexes {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	if s.data != nil {
		if err := s.data.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Read follows the sector chain of one archive.
func (s *DiskStore) Read(index, archive int) ([]byte, error) {
	idx, ok := s.indexes[index]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "index %d", index)
	}
	if archive < 0 {
		return nil, errors.Wrapf(ErrNotFound, "index %d archive %d", index, archive)
	}
	var entry [indexEntrySize]byte
	if _, err := idx.ReadAt(entry[:], int64(archive)*indexEntrySize); err != nil {
		return nil, errors.Wrapf(ErrNotFound, "index %d archive %d", index, archive)
	}
	size := int(entry[0])<<16 | int(entry[1])<<8 | int(entry[2])
	sector := int64(entry[3])<<16 | int64(entry[4])<<8 | int64(entry[5])
	if size == 0 || sector == 0 {
		return nil, errors.Wrapf(ErrNotFound, "index %d archive %d", index, archive)
	}
	if size > maxArchiveSize {
		return nil, errors.Wrapf(ErrCorrupt, "index %d archive %d: size %d", index, archive, size)
	}

	header := sectorHeader
	if archive > largeArchiveCutoff {
		header = sectorHeaderLarge
	}
	out := make([]byte, 0, size)
	var buf [sectorSize]byte
	for chunk := 0; len(out) < size; chunk++ {
		if sector == 0 {
			return nil, errors.Wrapf(ErrCorrupt, "index %d archive %d: chain ends early", index, archive)
		}
		n := min(size-len(out), sectorSize-header)
		if _, err := s.data.ReadAt(buf[:header+n], sector*sectorSize); err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "index %d archive %d: sector %d: %v", index, archive, sector, err)
		}
		var (
			gotArchive int
			gotChunk   int
			next       int64
			gotIndex   int
		)
		if header == sectorHeaderLarge {
			gotArchive = int(binary.BigEndian.Uint32(buf[0:]))
			gotChunk = int(binary.BigEndian.Uint16(buf[4:]))
			next = int64(buf[6])<<16 | int64(buf[7])<<8 | int64(buf[8])
			gotIndex = int(buf[9])
		} else {
			gotArchive = int(binary.BigEndian.Uint16(buf[0:]))
			gotChunk = int(binary.BigEndian.Uint16(buf[2:]))
			next = int64(buf[4])<<16 | int64(buf[5])<<8 | int64(buf[6])
			gotIndex = int(buf[7])
		}
		if gotArchive != archive || gotChunk != chunk || gotIndex != index {
			return nil, errors.Wrapf(ErrCorrupt, "index %d archive %d: sector %d belongs to %d/%d chunk %d",
				index, archive, sector, gotIndex, gotArchive, gotChunk)
		}
		out = append(out, buf[header:header+n]...)
		sector = next
	}
	return out, nil
}
