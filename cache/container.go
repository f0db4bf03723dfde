// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/xtea"
)

const (
	CompressionNone  = 0
	CompressionBzip2 = 1
	CompressionGzip  = 2

	containerHeader = 5
	maxContainer    = 1 << 26
)

var bzip2Magic = []byte("BZh1")

// Container is a decoded archive container.
type Container struct {
	Compression int
	Data        []byte
	// Version is the trailing revision, -1 if absent.
	Version int
}

// DecodeContainer decrypts (when key is not nil) and decompresses a raw
// archive. The input slice is not modified.
func DecodeContainer(raw []byte, key *[4]uint32) (*Container, error) {
	if len(raw) < containerHeader {
		return nil, errors.Wrapf(ErrCorrupt, "container of %d bytes", len(raw))
	}
	compression := int(raw[0])
	length := int(binary.BigEndian.Uint32(raw[1:]))
	if length < 0 || length > maxContainer {
		return nil, errors.Wrapf(ErrCorrupt, "container length %d", length)
	}
	body := length
	switch compression {
	case CompressionNone:
	case CompressionBzip2, CompressionGzip:
		body += 4
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "compression %d", compression)
	}
	if containerHeader+body > len(raw) {
		return nil, errors.Wrapf(ErrCorrupt, "container needs %d bytes, has %d", containerHeader+body, len(raw))
	}
	data := make([]byte, len(raw))
	copy(data, raw)
	if key != nil {
		if err := decrypt(data[containerHeader:containerHeader+body], *key); err != nil {
			return nil, err
		}
	}
	c := &Container{Compression: compression, Version: -1}
	end := containerHeader + body
	if len(data)-end >= 2 {
		c.Version = int(binary.BigEndian.Uint16(data[end:]))
	}
	if compression == CompressionNone {
		c.Data = data[containerHeader:end]
		return c, nil
	}
	want := int(binary.BigEndian.Uint32(data[containerHeader:]))
	if want < 0 || want > maxContainer {
		return nil, errors.Wrapf(ErrCorrupt, "decompressed length %d", want)
	}
	payload := data[containerHeader+4 : end]
	var r io.Reader
	switch compression {
	case CompressionBzip2:
		r = bzip2.NewReader(io.MultiReader(bytes.NewReader(bzip2Magic), bytes.NewReader(payload)))
	case CompressionGzip:
		gz, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "gzip header: %v", err)
		}
		defer gz.Close()
		r = gz
	}
	out := make([]byte, want)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "decompress %d bytes: %v", want, err)
	}
	c.Data = out
	return c, nil
}

// decrypt runs XTEA over all whole 8 byte blocks in place.
func decrypt(b []byte, key [4]uint32) error {
	var k [16]byte
	for i, v := range key {
		binary.BigEndian.PutUint32(k[i*4:], v)
	}
	c, err := xtea.NewCipher(k[:])
	if err != nil {
		return errors.Wrap(ErrCorrupt, err.Error())
	}
	for i := 0; i+xtea.BlockSize <= len(b); i += xtea.BlockSize {
		c.Decrypt(b[i:i+xtea.BlockSize], b[i:i+xtea.BlockSize])
	}
	return nil
}

func encrypt(b []byte, key [4]uint32) {
	var k [16]byte
	for i, v := range key {
		binary.BigEndian.PutUint32(k[i*4:], v)
	}
	c, _ := xtea.NewCipher(k[:])
	for i := 0; i+xtea.BlockSize <= len(b); i += xtea.BlockSize {
		c.Encrypt(b[i:i+xtea.BlockSize], b[i:i+xtea.BlockSize])
	}
}

// EncodeContainer builds a container. Only CompressionNone and
// CompressionGzip can be written.
func EncodeContainer(data []byte, compression int, key *[4]uint32) ([]byte, error) {
	var payload []byte
	switch compression {
	case CompressionNone:
		payload = data
	case CompressionGzip:
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return nil, err
		}
		if err := gz.Close(); err != nil {
			return nil, err
		}
		payload = buf.Bytes()
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "cannot write compression %d", compression)
	}
	out := make([]byte, 0, containerHeader+4+len(payload))
	out = append(out, byte(compression))
	out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	if compression != CompressionNone {
		out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
	}
	out = append(out, payload...)
	if key != nil {
		encrypt(out[containerHeader:], *key)
	}
	return out, nil
}
