package matrix

import (
	"context"
	"fmt"
)

type ResolvedAttribute struct {
	ID   string
	Name string
}

type ResolvedValue struct {
	ID   string
	Name string
}

// Catalog is the persistence collaborator that materializes attribute
// definitions and values. Both operations are find-or-create by name so a
// failed submit can be retried without duplicating catalog rows.
type Catalog interface {
	FindOrCreateAttribute(ctx context.Context, name, taxonomyRef string) (ResolvedAttribute, error)
	FindOrCreateValue(ctx context.Context, attributeID, name, taxonomyValueRef string) (ResolvedValue, error)
}

// ResolveDimensions materializes every pending-taxonomy and custom value
// token into a persisted catalog value identifier, returning the resolved
// dimensions plus the token translation table for rewriting keyed maps.
// Catalog rows created before a later failure stay created; resubmission
// finds them by name instead of duplicating.
func ResolveDimensions(ctx context.Context, cat Catalog, dims []Dimension) ([]Dimension, map[string]string, error) {
	resolved := make([]Dimension, len(dims))
	translation := map[string]string{}

	for i, d := range dims {
		rd := d
		rd.Values = make([]Value, len(d.Values))

		if d.HasValues() && rd.AttributeID == "" {
			attr, err := cat.FindOrCreateAttribute(ctx, d.Name, d.TaxonomyRef)
			if err != nil {
				return nil, nil, fmt.Errorf("resolve attribute %q: %w", d.Name, err)
			}
			rd.AttributeID = attr.ID
		}

		for j, v := range d.Values {
			rv := v
			switch {
			case IsPendingToken(v.Token):
				val, err := cat.FindOrCreateValue(ctx, rd.AttributeID, v.Name, PendingRef(v.Token))
				if err != nil {
					return nil, nil, fmt.Errorf("resolve value %q of %q: %w", v.Name, d.Name, err)
				}
				rv.Token = val.ID
			case d.Kind == KindCustom:
				val, err := cat.FindOrCreateValue(ctx, rd.AttributeID, v.Name, "")
				if err != nil {
					return nil, nil, fmt.Errorf("resolve value %q of %q: %w", v.Name, d.Name, err)
				}
				rv.Token = val.ID
			}
			if rv.Token != v.Token {
				translation[v.Token] = rv.Token
			}
			rd.Values[j] = rv
		}
		resolved[i] = rd
	}
	return resolved, translation, nil
}

// Translate rewrites every keyed map through the token translation table.
// Persisted keys already use catalog identifiers and stay as they are.
func (s *State) Translate(dims []Dimension, translation map[string]string) {
	if len(translation) == 0 {
		s.Dimensions = dims
		return
	}

	rewrite := func(k Key) Key {
		tokens := k.Tokens()
		changed := false
		for i, t := range tokens {
			if id, ok := translation[t]; ok {
				tokens[i] = id
				changed = true
			}
		}
		if !changed {
			return k
		}
		nk, err := Encode(tokens)
		if err != nil {
			return k
		}
		return nk
	}

	enabled := make(map[Key]struct{}, len(s.Enabled))
	for k := range s.Enabled {
		enabled[rewrite(k)] = struct{}{}
	}
	metadata := make(map[Key]Meta, len(s.Metadata))
	for k, m := range s.Metadata {
		metadata[rewrite(k)] = m
	}
	collapsed := make(map[Key]Identity, len(s.Collapsed))
	for k, id := range s.Collapsed {
		collapsed[rewrite(k)] = id
	}

	s.Dimensions = dims
	s.Enabled = enabled
	s.Metadata = metadata
	s.Collapsed = collapsed
}
