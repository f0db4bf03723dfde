// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// SplitFiles splits a decompressed group into its files. fileIDs must be
// sorted as in the reference table.
func SplitFiles(data []byte, fileIDs []int) (map[int][]byte, error) {
	files := make(map[int][]byte, len(fileIDs))
	if len(fileIDs) == 0 {
		return files, nil
	}
	if len(fileIDs) == 1 {
		files[fileIDs[0]] = data
		return files, nil
	}
	if len(data) == 0 {
		return nil, errors.Wrap(ErrCorrupt, "empty multi file archive")
	}
	n := len(fileIDs)
	chunks := int(data[len(data)-1])
	table := len(data) - 1 - chunks*n*4
	if table < 0 {
		return nil, errors.Wrapf(ErrCorrupt, "archive of %d bytes cannot hold %d chunks of %d files", len(data), chunks, n)
	}
	sizes := make([][]int, chunks)
	total := make([]int, n)
	p := table
	for c := 0; c < chunks; c++ {
		sizes[c] = make([]int, n)
		size := 0
		for f := 0; f < n; f++ {
			size += int(int32(binary.BigEndian.Uint32(data[p:])))
			p += 4
			if size < 0 {
				return nil, errors.Wrapf(ErrCorrupt, "negative chunk size for file %d", fileIDs[f])
			}
			sizes[c][f] = size
			total[f] += size
		}
	}
	out := make([][]byte, n)
	for f := range out {
		out[f] = make([]byte, 0, total[f])
	}
	offset := 0
	for c := 0; c < chunks; c++ {
		for f := 0; f < n; f++ {
			size := sizes[c][f]
			if offset+size > table {
				return nil, errors.Wrapf(ErrCorrupt, "chunk %d of file %d overruns archive", c, fileIDs[f])
			}
			out[f] = append(out[f], data[offset:offset+size]...)
			offset += size
		}
	}
	for f, id := range fileIDs {
		files[id] = out[f]
	}
	return files, nil
}

// JoinFiles is the inverse of SplitFiles using a single chunk.
func JoinFiles(files [][]byte) []byte {
	if len(files) == 1 {
		return files[0]
	}
	var out []byte
	for _, f := range files {
		out = append(out, f...)
	}
	prev := 0
	for _, f := range files {
		out = binary.BigEndian.AppendUint32(out, uint32(len(f)-prev))
		prev = len(f)
	}
	return append(out, 1)
}
