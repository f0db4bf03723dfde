// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"errors"
)

var (
	// ErrNotFound reports a missing index, archive or file.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt reports a broken sector chain or a failed decompression.
	ErrCorrupt = errors.New("corrupt")
	// ErrUnsupportedFormat reports an unknown compression or table protocol.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrMissingKey reports an encrypted archive without a known key.
	ErrMissingKey = errors.New("missing key")
)
