package matrix

import "sort"

// Editing transitions. Every transition runs synchronously to completion and
// mutates the state in place; keys whose segment count does not match the
// current shape are skipped rather than remapped (stale entries from a prior
// transition must not crash an edit).

func insertToken(tokens []string, pos int, token string) []string {
	out := make([]string, 0, len(tokens)+1)
	out = append(out, tokens[:pos]...)
	out = append(out, token)
	out = append(out, tokens[pos:]...)
	return out
}

func removeTokenAt(tokens []string, pos int) []string {
	out := make([]string, 0, len(tokens)-1)
	out = append(out, tokens[:pos]...)
	out = append(out, tokens[pos+1:]...)
	return out
}

// Enable marks a combination as existing. Only keys producible from the
// current dimensions are accepted.
func (s *State) Enable(k Key) bool {
	if _, ok := AllKeys(s.Dimensions)[k]; !ok {
		return false
	}
	s.Enabled[k] = struct{}{}
	return true
}

// Disable removes a combination from the enabled set. Metadata and identity
// overlays are kept; enabled-set membership alone decides existence.
func (s *State) Disable(k Key) {
	delete(s.Enabled, k)
}

// AddValues appends values to an existing dimension. If the dimension
// already participated in key composition, every enabled key is cross-joined
// with each new value at the dimension's position (a new color lands on
// every enabled size without re-ticking). Metadata and identity are not
// carried: the synthesized keys are genuinely new variants. If the dimension
// was empty, this is a shape change and routes through dimension population.
func (s *State) AddValues(dimID string, values []Value) {
	idx := s.dimensionIndex(dimID)
	if idx < 0 {
		return
	}

	// Tokens already present in the dimension are no-ops, and a token
	// repeated within one batch counts once. Without this a double-add
	// inflates the dimension and every cardinality derived from it.
	seen := make(map[string]struct{}, len(values))
	fresh := values[:0:0]
	for _, v := range values {
		if s.Dimensions[idx].tokenIndex(v.Token) >= 0 {
			continue
		}
		if _, dup := seen[v.Token]; dup {
			continue
		}
		seen[v.Token] = struct{}{}
		fresh = append(fresh, v)
	}
	values = fresh
	if len(values) == 0 {
		return
	}

	wasEmpty := !s.Dimensions[idx].HasValues()
	if wasEmpty {
		s.populateDimension(idx, values)
		return
	}

	pos := s.keyPosition(idx)
	arity := s.Arity()
	s.Dimensions[idx].Values = append(s.Dimensions[idx].Values, values...)

	valid := AllKeys(s.Dimensions)
	existing := make([]Key, 0, len(s.Enabled))
	for k := range s.Enabled {
		existing = append(existing, k)
	}
	for _, k := range existing {
		tokens := k.Tokens()
		if len(tokens) != arity {
			continue
		}
		for _, v := range values {
			synth := make([]string, len(tokens))
			copy(synth, tokens)
			synth[pos] = v.Token
			nk, err := Encode(synth)
			if err != nil {
				continue
			}
			if _, ok := valid[nk]; ok {
				s.Enabled[nk] = struct{}{}
			}
		}
	}
}

// populateDimension handles the 0-to-1-value transition of a dimension,
// which grows every key by one segment. The first new value expands each
// prior enabled key in place, inheriting its metadata and persisted
// identity; further values only widen the grid as disabled brand-new
// combinations. Prior keys known only through the persisted or collapsed
// maps are expanded the same way so their identities stay reachable,
// without enabling them.
func (s *State) populateDimension(idx int, values []Value) {
	prevArity := s.Arity()
	s.Dimensions[idx].Values = append(s.Dimensions[idx].Values, values...)
	pos := s.keyPosition(idx)
	first := values[0].Token

	if prevArity == 0 {
		// First populated dimension: no prior keys to expand, every value
		// becomes a single-segment enabled key.
		s.Enabled = map[Key]struct{}{}
		for _, v := range values {
			if k, err := Encode([]string{v.Token}); err == nil {
				s.Enabled[k] = struct{}{}
			}
		}
		return
	}

	enabled := make(map[Key]struct{}, len(s.Enabled))
	metadata := make(map[Key]Meta, len(s.Metadata))
	collapsed := make(map[Key]Identity, len(s.Collapsed))

	expand := func(k Key) (Key, bool) {
		tokens := k.Tokens()
		if len(tokens) != prevArity {
			return "", false
		}
		nk, err := Encode(insertToken(tokens, pos, first))
		return nk, err == nil
	}

	for k := range s.Enabled {
		nk, ok := expand(k)
		if !ok {
			enabled[k] = struct{}{} // stale shape, leave untouched
			continue
		}
		enabled[nk] = struct{}{}
		if m, found := s.Metadata[k]; found {
			metadata[nk] = m
		}
		if id, found := s.identityFor(k); found {
			collapsed[nk] = id
		}
	}

	// Identities and metadata of prior-shape keys that were not enabled.
	for k, m := range s.Metadata {
		if _, done := s.Enabled[k]; done {
			continue
		}
		if nk, ok := expand(k); ok {
			metadata[nk] = m
		} else {
			metadata[k] = m
		}
	}
	for k := range s.Persisted {
		if _, done := s.Enabled[k]; done {
			continue
		}
		nk, ok := expand(k)
		if !ok {
			continue
		}
		if _, claimed := collapsed[nk]; claimed {
			continue
		}
		if id, found := s.identityFor(k); found {
			collapsed[nk] = id
		}
	}
	for k, id := range s.Collapsed {
		if _, done := s.Enabled[k]; done {
			continue
		}
		if nk, ok := expand(k); ok {
			if _, claimed := collapsed[nk]; !claimed {
				collapsed[nk] = id
			}
		} else if len(k.Tokens()) != prevArity {
			collapsed[k] = id
		}
	}

	s.Enabled = enabled
	s.Metadata = metadata
	s.Collapsed = collapsed
}

// AddDimension appends a new dimension and, when it arrives populated, runs
// the shape-change expansion.
func (s *State) AddDimension(d Dimension) {
	values := d.Values
	d.Values = nil
	s.Dimensions = append(s.Dimensions, d)
	if len(values) > 0 {
		s.populateDimension(len(s.Dimensions)-1, values)
	}
}

// RemoveValues drops value tokens from a dimension. Enabled keys carrying a
// removed token at the dimension's position are dropped. Removing the last
// value empties the dimension out of key composition entirely, which is a
// segment collapse with identity inheritance.
func (s *State) RemoveValues(dimID string, tokens []string) {
	idx := s.dimensionIndex(dimID)
	if idx < 0 || len(tokens) == 0 || !s.Dimensions[idx].HasValues() {
		return
	}
	pos := s.keyPosition(idx)
	arity := s.Arity()

	removed := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		removed[t] = struct{}{}
	}

	kept := s.Dimensions[idx].Values[:0:0]
	for _, v := range s.Dimensions[idx].Values {
		if _, gone := removed[v.Token]; !gone {
			kept = append(kept, v)
		}
	}

	if len(kept) == 0 {
		s.collapseSegment(pos)
		s.Dimensions[idx].Values = nil
		return
	}

	s.Dimensions[idx].Values = kept
	for k := range s.Enabled {
		t := k.Tokens()
		if len(t) != arity {
			continue
		}
		if _, gone := removed[t[pos]]; gone {
			delete(s.Enabled, k)
		}
	}
}

// RemoveDimension deletes a dimension outright, collapsing the key segment
// it occupied.
func (s *State) RemoveDimension(dimID string) {
	idx := s.dimensionIndex(dimID)
	if idx < 0 {
		return
	}
	if s.Dimensions[idx].HasValues() {
		s.collapseSegment(s.keyPosition(idx))
	}
	s.Dimensions = append(s.Dimensions[:idx], s.Dimensions[idx+1:]...)
}

type collapseCandidate struct {
	oldKey   Key
	identity Identity
	hasID    bool
	meta     Meta
	hasMeta  bool
	enabled  bool
}

// collapseSegment removes one segment position from every known key,
// grouping the old keys by their collapsed form. Each group elects exactly
// one representative to carry identity, override flag and metadata forward:
// persisted-identifier holders beat override holders beat the rest, with the
// lexicographically smallest old key as the deterministic final tie-break.
// Losing group members with persisted identifiers become deletions at sync
// time; shrinking the matrix shrinks the variant set.
func (s *State) collapseSegment(pos int) {
	arity := s.Arity()
	if pos < 0 || pos >= arity {
		return
	}

	known := map[Key]struct{}{}
	for k := range s.Enabled {
		known[k] = struct{}{}
	}
	for k := range s.Persisted {
		known[k] = struct{}{}
	}
	for k := range s.Collapsed {
		known[k] = struct{}{}
	}

	groups := map[Key][]collapseCandidate{}
	for k := range known {
		tokens := k.Tokens()
		if len(tokens) != arity {
			continue
		}
		nk, err := Encode(removeTokenAt(tokens, pos))
		if err != nil {
			continue
		}
		cand := collapseCandidate{oldKey: k}
		cand.identity, cand.hasID = s.identityFor(k)
		cand.meta, cand.hasMeta = s.metaEntry(k)
		_, cand.enabled = s.Enabled[k]
		groups[nk] = append(groups[nk], cand)
	}

	enabled := make(map[Key]struct{}, len(groups))
	metadata := make(map[Key]Meta, len(groups))
	collapsed := make(map[Key]Identity, len(groups))

	// Stale-shape entries survive untouched.
	for k := range s.Enabled {
		if len(k.Tokens()) != arity {
			enabled[k] = struct{}{}
		}
	}
	for k, m := range s.Metadata {
		if len(k.Tokens()) != arity {
			metadata[k] = m
		}
	}
	for k, id := range s.Collapsed {
		if len(k.Tokens()) != arity {
			collapsed[k] = id
		}
	}

	for nk, cands := range groups {
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].hasID != cands[j].hasID {
				return cands[i].hasID
			}
			if cands[i].identity.HasOverrides != cands[j].identity.HasOverrides {
				return cands[i].identity.HasOverrides
			}
			return cands[i].oldKey < cands[j].oldKey
		})
		rep := cands[0]

		anyEnabled := false
		for _, c := range cands {
			if c.enabled {
				anyEnabled = true
				break
			}
		}
		if anyEnabled {
			enabled[nk] = struct{}{}
		}
		if rep.hasID {
			collapsed[nk] = rep.identity
		}
		if rep.hasMeta {
			metadata[nk] = rep.meta
		}
	}

	s.Enabled = enabled
	s.Metadata = metadata
	s.Collapsed = collapsed
}

// RenameValue substitutes a custom value's token in place at the same
// ordinal position. This is pure substitution across every keyed map; key
// cardinalities never change. Catalog-backed values rename on the server
// instead, so only inline-custom dimensions take this path.
func (s *State) RenameValue(dimID string, ordinal int, renamed Value) {
	idx := s.dimensionIndex(dimID)
	if idx < 0 || s.Dimensions[idx].Kind != KindCustom {
		return
	}
	if ordinal < 0 || ordinal >= len(s.Dimensions[idx].Values) {
		return
	}

	oldToken := s.Dimensions[idx].Values[ordinal].Token
	if oldToken == renamed.Token {
		s.Dimensions[idx].Values[ordinal] = renamed
		return
	}
	pos := s.keyPosition(idx)
	arity := s.Arity()
	s.Dimensions[idx].Values[ordinal] = renamed

	substitute := func(k Key) (Key, bool) {
		tokens := k.Tokens()
		if len(tokens) != arity || tokens[pos] != oldToken {
			return k, false
		}
		tokens[pos] = renamed.Token
		nk, err := Encode(tokens)
		if err != nil {
			return k, false
		}
		return nk, true
	}

	enabled := make(map[Key]struct{}, len(s.Enabled))
	for k := range s.Enabled {
		nk, _ := substitute(k)
		enabled[nk] = struct{}{}
	}
	metadata := make(map[Key]Meta, len(s.Metadata))
	for k, m := range s.Metadata {
		nk, _ := substitute(k)
		metadata[nk] = m
	}
	collapsed := make(map[Key]Identity, len(s.Collapsed))
	for k, id := range s.Collapsed {
		nk, _ := substitute(k)
		collapsed[nk] = id
	}
	s.Enabled = enabled
	s.Metadata = metadata
	s.Collapsed = collapsed
}

// Reorder rearranges dimensions to the given id order (drag-and-drop). Keys
// are positional tuples, so the move is a permutation remap of every keyed
// map. Keys with a stale segment count are left unmapped.
func (s *State) Reorder(order []string) {
	if len(order) != len(s.Dimensions) {
		return
	}
	next := make([]Dimension, 0, len(order))
	for _, id := range order {
		idx := s.dimensionIndex(id)
		if idx < 0 {
			return
		}
		next = append(next, s.Dimensions[idx])
	}

	oldActive := activeDimensions(s.Dimensions)
	arity := len(oldActive)
	oldPos := make(map[string]int, arity)
	for i, d := range oldActive {
		oldPos[d.ID] = i
	}

	perm := make([]int, 0, arity) // perm[newPos] = oldPos
	for _, d := range next {
		if d.HasValues() {
			perm = append(perm, oldPos[d.ID])
		}
	}
	s.Dimensions = next

	remap := func(k Key) (Key, bool) {
		tokens := k.Tokens()
		if len(tokens) != arity {
			return k, false
		}
		out := make([]string, arity)
		for newIdx, oldIdx := range perm {
			out[newIdx] = tokens[oldIdx]
		}
		nk, err := Encode(out)
		if err != nil {
			return k, false
		}
		return nk, nk != k
	}

	enabled := make(map[Key]struct{}, len(s.Enabled))
	for k := range s.Enabled {
		nk, _ := remap(k)
		enabled[nk] = struct{}{}
	}
	metadata := make(map[Key]Meta, len(s.Metadata))
	for k, m := range s.Metadata {
		nk, _ := remap(k)
		metadata[nk] = m
	}
	collapsed := make(map[Key]Identity, len(s.Collapsed))
	for k, id := range s.Collapsed {
		nk, _ := remap(k)
		collapsed[nk] = id
	}
	persisted := make(map[Key]PersistedVariant, len(s.Persisted))
	for k, pv := range s.Persisted {
		nk, _ := remap(k)
		pv.Tokens = nk.Tokens()
		persisted[nk] = pv
	}

	s.Enabled = enabled
	s.Metadata = metadata
	s.Collapsed = collapsed
	s.Persisted = persisted
}

// SetDimensionValues replaces a dimension's value list wholesale, the way a
// multi-select edit arrives from the form. Same count on an inline-custom
// dimension with unchanged shape is a positional rename; otherwise the diff
// decomposes into removals and additions. Rename detection must run first:
// the surface symptom (values differ) looks identical, but renames must
// never fall into the add/remove shape-change paths.
func (s *State) SetDimensionValues(dimID string, values []Value) {
	idx := s.dimensionIndex(dimID)
	if idx < 0 {
		return
	}
	current := s.Dimensions[idx].Values

	if s.Dimensions[idx].Kind == KindCustom && len(values) == len(current) && len(values) > 0 {
		for i := range values {
			if values[i].Token != current[i].Token {
				s.RenameValue(dimID, i, values[i])
			}
		}
		return
	}

	have := make(map[string]struct{}, len(current))
	for _, v := range current {
		have[v.Token] = struct{}{}
	}
	want := make(map[string]struct{}, len(values))
	for _, v := range values {
		want[v.Token] = struct{}{}
	}

	var gone []string
	for _, v := range current {
		if _, ok := want[v.Token]; !ok {
			gone = append(gone, v.Token)
		}
	}
	var added []Value
	for _, v := range values {
		if _, ok := have[v.Token]; !ok {
			added = append(added, v)
		}
	}

	if len(gone) > 0 {
		s.RemoveValues(dimID, gone)
	}
	if len(added) > 0 {
		s.AddValues(dimID, added)
	}
}
