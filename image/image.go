// SPDX-License-Identifier: GPL-2.0-or-later

// Package image writes texture images.
package image

import (
	"bytes"
	"image"
	"image/png"
	"os"

	"github.com/pkg/errors"
)

// Encode expects RGBA 8bit data.
func Encode(data []byte, width, height int) ([]byte, error) {
	if len(data) < width*height*4 {
		return nil, errors.Errorf("image of %dx%d needs %d bytes, got %d", width, height, width*height*4, len(data))
	}
	img := &image.NRGBA{
		Pix:    data,
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "png")
	}
	return buf.Bytes(), nil
}

// Write stores RGBA data as png file name.
func Write(name string, data []byte, width, height int) error {
	b, err := Encode(data, width, height)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(name, b, 0o644), "writing image")
}
