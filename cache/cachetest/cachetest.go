// SPDX-License-Identifier: GPL-2.0-or-later

// Package cachetest writes small synthetic disk caches for tests.
package cachetest

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"rscene/cache"
)

const (
	sectorSize = 520
)

type group struct {
	name        string
	files       map[int][]byte
	key         *[4]uint32
	compression int
	raw         []byte
}

// Builder collects archives and writes them in dat2/idx layout.
type Builder struct {
	indexes map[int]map[int]*group
}

func New() *Builder {
	return &Builder{indexes: make(map[int]map[int]*group)}
}

func (b *Builder) index(i int) map[int]*group {
	m, ok := b.indexes[i]
	if !ok {
		m = make(map[int]*group)
		b.indexes[i] = m
	}
	return m
}

// Put stores a single file archive.
func (b *Builder) Put(index, archive int, data []byte) {
	b.index(index)[archive] = &group{
		files:       map[int][]byte{0: data},
		compression: cache.CompressionGzip,
	}
}

// PutFiles stores a multi file archive.
func (b *Builder) PutFiles(index, archive int, files map[int][]byte) {
	b.index(index)[archive] = &group{
		files:       files,
		compression: cache.CompressionNone,
	}
}

// PutRaw stores raw container bytes, for corrupt input.
func (b *Builder) PutRaw(index, archive int, raw []byte) {
	b.index(index)[archive] = &group{
		files: map[int][]byte{0: nil},
		raw:   raw,
	}
}

// PutNamed stores a named single file archive, encrypted if key is set, and
// returns its archive id.
func (b *Builder) PutNamed(index int, name string, data []byte, key *[4]uint32) int {
	m := b.index(index)
	id := len(m)
	for {
		if _, ok := m[id]; !ok {
			break
		}
		id++
	}
	m[id] = &group{
		name:        name,
		files:       map[int][]byte{0: data},
		key:         key,
		compression: cache.CompressionGzip,
	}
	return id
}

// Write creates main_file_cache.dat2, the idx files and the reference tables.
func (b *Builder) Write(dir string) error {
	w := &writer{
		dat: make([]byte, sectorSize),
		idx: make(map[int][]byte),
	}
	var indexIDs []int
	for i := range b.indexes {
		indexIDs = append(indexIDs, i)
	}
	sort.Ints(indexIDs)
	for _, i := range indexIDs {
		table := &cache.ReferenceTable{
			Protocol: 6,
			Archives: make(map[int]*cache.ArchiveInfo),
		}
		for id, g := range b.indexes[i] {
			var fileIDs []int
			for f := range g.files {
				fileIDs = append(fileIDs, f)
			}
			sort.Ints(fileIDs)
			info := &cache.ArchiveInfo{ID: id, FileIDs: fileIDs}
			if g.name != "" {
				table.Named = true
				info.NameHash = cache.NameHash(g.name)
			}
			table.Archives[id] = info

			raw := g.raw
			if raw == nil {
				var parts [][]byte
				for _, f := range fileIDs {
					parts = append(parts, g.files[f])
				}
				var err error
				raw, err = cache.EncodeContainer(cache.JoinFiles(parts), g.compression, g.key)
				if err != nil {
					return fmt.Errorf("index %d archive %d: %w", i, id, err)
				}
			}
			w.put(i, id, raw)
		}
		ref, err := cache.EncodeContainer(table.Encode(), cache.CompressionNone, nil)
		if err != nil {
			return err
		}
		w.put(cache.ReferenceIndex, i, ref)
	}
	if _, ok := w.idx[cache.ReferenceIndex]; !ok {
		w.idx[cache.ReferenceIndex] = nil
	}
	if err := os.WriteFile(filepath.Join(dir, "main_file_cache.dat2"), w.dat, 0o644); err != nil {
		return err
	}
	for i, data := range w.idx {
		name := filepath.Join(dir, fmt.Sprintf("main_file_cache.idx%d", i))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

type writer struct {
	dat []byte
	idx map[int][]byte
}

func (w *writer) put(index, archive int, data []byte) {
	header := 8
	if archive > 0xffff {
		header = 10
	}
	chunkData := sectorSize - header
	start := len(w.dat) / sectorSize
	sector := start
	for chunk, off := 0, 0; off < len(data); chunk++ {
		n := min(chunkData, len(data)-off)
		next := 0
		if off+n < len(data) {
			next = sector + 1
		}
		var buf [sectorSize]byte
		if header == 10 {
			binary.BigEndian.PutUint32(buf[0:], uint32(archive))
			binary.BigEndian.PutUint16(buf[4:], uint16(chunk))
			buf[6], buf[7], buf[8] = byte(next>>16), byte(next>>8), byte(next)
			buf[9] = byte(index)
		} else {
			binary.BigEndian.PutUint16(buf[0:], uint16(archive))
			binary.BigEndian.PutUint16(buf[2:], uint16(chunk))
			buf[4], buf[5], buf[6] = byte(next>>16), byte(next>>8), byte(next)
			buf[7] = byte(index)
		}
		copy(buf[header:], data[off:off+n])
		w.dat = append(w.dat, buf[:]...)
		off += n
		sector++
	}
	ix := w.idx[index]
	need := (archive + 1) * 6
	if len(ix) < need {
		ix = append(ix, make([]byte, need-len(ix))...)
	}
	e := ix[archive*6:]
	size := len(data)
	e[0], e[1], e[2] = byte(size>>16), byte(size>>8), byte(size)
	e[3], e[4], e[5] = byte(start>>16), byte(start>>8), byte(start)
	w.idx[index] = ix
}
