// SPDX-License-Identifier: GPL-2.0-or-later

package image

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	data := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 0, 0, 0, 0,
	}
	name := filepath.Join(t.TempDir(), "t.png")
	require.NoError(t, Write(name, data, 2, 2))

	raw, err := os.ReadFile(name)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	r, g, b, a := img.At(1, 0).RGBA()
	assert.Equal(t, []uint32{0, 0xffff, 0, 0xffff}, []uint32{r, g, b, a})
	_, _, _, a = img.At(1, 1).RGBA()
	assert.Zero(t, a)
}

func TestEncodeShortData(t *testing.T) {
	_, err := Encode(make([]byte, 15), 2, 2)
	assert.Error(t, err)
}

func TestWriteFails(t *testing.T) {
	name := filepath.Join(t.TempDir(), "missing", "t.png")
	err := Write(name, make([]byte, 4), 1, 1)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
