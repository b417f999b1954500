package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testDim(id, name string, kind DimensionKind, tokens ...string) Dimension {
	d := Dimension{ID: id, Kind: kind, Name: name}
	for _, tok := range tokens {
		d.Values = append(d.Values, Value{Token: tok, Name: tok})
	}
	return d
}

func TestAllKeysCartesianCount(t *testing.T) {
	dims := []Dimension{
		testDim("d1", "Color", KindCatalog, "red", "blue"),
		testDim("d2", "Size", KindCatalog, "s", "m", "l"),
	}
	keys := AllKeys(dims)
	assert.Len(t, keys, 6)
	assert.Contains(t, keys, MustEncode([]string{"red", "s"}))
	assert.Contains(t, keys, MustEncode([]string{"blue", "l"}))
}

func TestAllKeysPreservesDimensionOrder(t *testing.T) {
	dims := []Dimension{
		testDim("d1", "Color", KindCatalog, "red"),
		testDim("d2", "Size", KindCatalog, "s"),
	}
	list := AllKeyList(dims)
	assert.Equal(t, []Key{MustEncode([]string{"red", "s"})}, list)
}

func TestAllKeysSkipsEmptyDimensions(t *testing.T) {
	dims := []Dimension{
		testDim("d1", "Color", KindCatalog, "red", "blue"),
		testDim("d2", "Size", KindCatalog), // no values
	}
	keys := AllKeys(dims)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, Key("red"))
	assert.Contains(t, keys, Key("blue"))
}

func TestAllKeysEmptyInput(t *testing.T) {
	assert.Empty(t, AllKeys(nil))
	assert.Empty(t, AllKeys([]Dimension{testDim("d1", "Color", KindCatalog)}))
}

func TestAllKeysThreeDimensions(t *testing.T) {
	dims := []Dimension{
		testDim("d1", "Color", KindCatalog, "a", "b"),
		testDim("d2", "Size", KindCatalog, "x", "y"),
		testDim("d3", "Material", KindCustom, "p", "q"),
	}
	assert.Len(t, AllKeys(dims), 8)
}
