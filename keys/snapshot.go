// SPDX-License-Identifier: GPL-2.0-or-later

package keys

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Snapshot wire layout:
//
//	message Keys  { repeated Entry entries = 1; }
//	message Entry { uint32 region = 1; repeated fixed32 key = 2 [packed]; }
const (
	fieldEntries = 1
	fieldRegion  = 1
	fieldKey     = 2
)

// Save writes the table as a protobuf message, sorted by region.
func (s *Store) Save(w io.Writer) error {
	s.mu.RLock()
	regions := make([]uint32, 0, len(s.table))
	for r := range s.table {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	var out []byte
	for _, r := range regions {
		k := s.table[r]
		var e []byte
		e = protowire.AppendTag(e, fieldRegion, protowire.VarintType)
		e = protowire.AppendVarint(e, uint64(r))
		var packed []byte
		for _, v := range k {
			packed = protowire.AppendFixed32(packed, v)
		}
		e = protowire.AppendTag(e, fieldKey, protowire.BytesType)
		e = protowire.AppendBytes(e, packed)
		out = protowire.AppendTag(out, fieldEntries, protowire.BytesType)
		out = protowire.AppendBytes(out, e)
	}
	s.mu.RUnlock()
	_, err := w.Write(out)
	return err
}

func (s *Store) SaveFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := s.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Store) LoadSnapshotFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.LoadSnapshot(f)
}

// LoadCached loads the keys of jsonName through the snapshot snapName. The
// snapshot serves the keys while it is not older than the json file,
// otherwise the json is parsed and the snapshot rewritten. fromSnapshot
// reports which file was used. A failed snapshot write is returned with
// the keys already loaded.
func (s *Store) LoadCached(jsonName, snapName string) (fromSnapshot bool, err error) {
	js, err := os.Stat(jsonName)
	if err != nil {
		return false, err
	}
	if ss, err := os.Stat(snapName); err == nil && !ss.ModTime().Before(js.ModTime()) {
		if s.LoadSnapshotFile(snapName) == nil {
			return true, nil
		}
	}
	if err := s.LoadFile(jsonName); err != nil {
		return false, err
	}
	if err := s.SaveFile(snapName); err != nil {
		return false, errors.Wrap(err, "key snapshot")
	}
	return false, nil
}

// LoadSnapshot replaces the table with one written by Save.
func (s *Store) LoadSnapshot(r io.Reader) error {
	in, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	t := make(map[uint32]Key)
	for len(in) > 0 {
		num, typ, n := protowire.ConsumeTag(in)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "failed to decode key snapshot")
		}
		in = in[n:]
		if num != fieldEntries || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, in)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "failed to decode key snapshot")
			}
			in = in[n:]
			continue
		}
		e, n := protowire.ConsumeBytes(in)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "failed to decode key snapshot")
		}
		in = in[n:]
		region, k, err := decodeEntry(e)
		if err != nil {
			return errors.Wrap(err, "failed to decode key snapshot")
		}
		t[region] = k
	}
	s.Replace(t)
	return nil
}

func decodeEntry(e []byte) (uint32, Key, error) {
	var region uint32
	var k Key
	parts := 0
	for len(e) > 0 {
		num, typ, n := protowire.ConsumeTag(e)
		if n < 0 {
			return 0, k, protowire.ParseError(n)
		}
		e = e[n:]
		switch {
		case num == fieldRegion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(e)
			if n < 0 {
				return 0, k, protowire.ParseError(n)
			}
			region = uint32(v)
			e = e[n:]
		case num == fieldKey && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(e)
			if n < 0 {
				return 0, k, protowire.ParseError(n)
			}
			e = e[n:]
			for len(b) > 0 && parts < len(k) {
				v, m := protowire.ConsumeFixed32(b)
				if m < 0 {
					return 0, k, protowire.ParseError(m)
				}
				k[parts] = v
				parts++
				b = b[m:]
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, e)
			if n < 0 {
				return 0, k, protowire.ParseError(n)
			}
			e = e[n:]
		}
	}
	if parts != len(k) {
		return 0, k, errors.Errorf("region %d: key has %d parts, want 4", region, parts)
	}
	return region, k, nil
}
