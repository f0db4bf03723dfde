// SPDX-License-Identifier: GPL-2.0-or-later

package conlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPrintfGoesToLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Printf("loaded %d regions", 9)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "loaded 9 regions", entries[0].Message)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)
	l, err := New("warn", "console")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
}
