package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]string{
		{"red"},
		{"red", "s"},
		{"val-1", "val-2", "val-3"},
		{"pending:tx-123", "custom text"},
	}
	for _, tokens := range cases {
		k, err := Encode(tokens)
		require.NoError(t, err)
		assert.Equal(t, tokens, k.Tokens())
		assert.Equal(t, len(tokens), k.Arity())
	}
}

func TestEncodeRejectsDelimiterInToken(t *testing.T) {
	_, err := Encode([]string{"red", "a|b"})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestEncodeEmptySequence(t *testing.T) {
	k, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, Key(""), k)
	assert.Nil(t, k.Tokens())
	assert.Equal(t, 0, k.Arity())
}

func TestEncodeInjectiveForSameLength(t *testing.T) {
	a := MustEncode([]string{"ab", "c"})
	b := MustEncode([]string{"a", "bc"})
	assert.NotEqual(t, a, b)
}

func TestKeyContains(t *testing.T) {
	k := MustEncode([]string{"red", "s"})
	assert.True(t, k.Contains("red", 0))
	assert.True(t, k.Contains("s", 1))
	assert.False(t, k.Contains("red", 1))
	assert.False(t, k.Contains("red", 2))
	assert.False(t, k.Contains("red", -1))
}
