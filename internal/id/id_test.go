package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 500 {
		v, err := Generate(PrefixRequest)
		require.NoError(t, err)
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestTokenID_Format(t *testing.T) {
	v, err := TokenID()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(v, "tok_"))
	// 21 character NanoID after the prefix.
	assert.Len(t, strings.TrimPrefix(v, "tok_"), 21)
}
