package matrix

import (
	"errors"
	"strings"
)

// Delimiter joins value tokens into a composite key. Tokens carrying the
// delimiter are rejected at input so Encode stays injective for any fixed
// segment count.
const Delimiter = "|"

var ErrInvalidToken = errors.New("matrix: token contains key delimiter")

// Key identifies one variant combination: the ordered join of one value
// token per dimension-with-values. The empty key is reserved for the
// no-dimension case and never enters the keyed maps.
type Key string

// Encode builds a composite key from ordered tokens. The empty sequence
// encodes to the empty key.
func Encode(tokens []string) (Key, error) {
	for _, t := range tokens {
		if strings.Contains(t, Delimiter) {
			return "", ErrInvalidToken
		}
	}
	return Key(strings.Join(tokens, Delimiter)), nil
}

// MustEncode is Encode for tokens already known to be delimiter-free,
// i.e. tokens read back out of an existing key.
func MustEncode(tokens []string) Key {
	k, err := Encode(tokens)
	if err != nil {
		panic(err)
	}
	return k
}

// Tokens splits the key back into its ordered value tokens. The empty key
// yields nil.
func (k Key) Tokens() []string {
	if k == "" {
		return nil
	}
	return strings.Split(string(k), Delimiter)
}

// Arity is the number of segments in the key; 0 for the empty key.
func (k Key) Arity() int {
	if k == "" {
		return 0
	}
	return strings.Count(string(k), Delimiter) + 1
}

// Contains reports whether token occupies position pos of the key.
func (k Key) Contains(token string, pos int) bool {
	tokens := k.Tokens()
	return pos >= 0 && pos < len(tokens) && tokens[pos] == token
}
