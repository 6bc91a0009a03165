package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(16)
	require.NoError(t, err)
	b, err := RandomHex(16)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)

	def, err := RandomHex(0)
	require.NoError(t, err)
	assert.Len(t, def, 64)
}

func TestTempPassword(t *testing.T) {
	p, err := TempPassword(4)
	require.NoError(t, err)
	assert.Len(t, p, 12)
	for _, r := range p {
		assert.True(t, strings.ContainsRune(passwordAlphabet, r), "unexpected rune %q", r)
	}
}
