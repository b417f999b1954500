package matrix

import "strings"

type DimensionKind int

const (
	// KindCatalog references a persisted attribute definition, optionally
	// linked to a shared taxonomy concept.
	KindCatalog DimensionKind = iota
	// KindCustom is an attribute the user typed ad hoc; its value tokens are
	// raw text until resolved at submit time.
	KindCustom
)

// PendingPrefix marks a value token that references a taxonomy-suggested
// value not yet materialized as a catalog record.
const PendingPrefix = "pending:"

// Value is one selectable entry of a dimension. Token is the identity used
// in composite keys; Name and Swatch are display-only.
type Value struct {
	Token  string `json:"token"`
	Name   string `json:"name"`
	Swatch string `json:"swatch,omitempty"`
}

// Dimension is one ordered axis of variation in the matrix. ID is UI-scoped
// and distinct from any server identifier; AttributeID is filled once the
// dimension is resolved against the catalog.
type Dimension struct {
	ID          string        `json:"id"`
	Kind        DimensionKind `json:"kind"`
	Name        string        `json:"name"`
	AttributeID string        `json:"attribute_id,omitempty"`
	TaxonomyRef string        `json:"taxonomy_ref,omitempty"`
	Values      []Value       `json:"values"`
}

// HasValues reports whether the dimension participates in key composition.
// Empty dimensions are excluded entirely, never padded.
func (d Dimension) HasValues() bool {
	return len(d.Values) > 0
}

// Tokens returns the dimension's value tokens in display order.
func (d Dimension) Tokens() []string {
	tokens := make([]string, len(d.Values))
	for i, v := range d.Values {
		tokens[i] = v.Token
	}
	return tokens
}

func (d Dimension) tokenIndex(token string) int {
	for i, v := range d.Values {
		if v.Token == token {
			return i
		}
	}
	return -1
}

// PendingToken builds the token for a taxonomy value suggestion that has no
// catalog record yet.
func PendingToken(taxonomyValueRef string) string {
	return PendingPrefix + taxonomyValueRef
}

// IsPendingToken reports whether token references an unmaterialized taxonomy
// value.
func IsPendingToken(token string) bool {
	return strings.HasPrefix(token, PendingPrefix)
}

// PendingRef strips the pending prefix, returning the taxonomy value
// reference.
func PendingRef(token string) string {
	return strings.TrimPrefix(token, PendingPrefix)
}

// CustomToken normalizes free text into a custom value token. Trimming is
// the only normalization applied; comparison stays exact.
func CustomToken(text string) string {
	return strings.TrimSpace(text)
}
