package matrix

// Meta is the per-key editable metadata. Absent entries read as empty
// strings; presence in the map says nothing about whether the key exists.
type Meta struct {
	SKU     string `json:"sku"`
	Barcode string `json:"barcode"`
}

// Identity remembers which persisted variant a key inherited across a matrix
// shape change. The persisted map keeps the old key shape until the next
// server round trip, so inherited identities live in this overlay.
type Identity struct {
	VariantID    string `json:"variant_id"`
	HasOverrides bool   `json:"has_overrides"`
}

// PersistedVariant is the read-only oracle row built from the last server
// fetch. Tokens hold the variant's value identifiers in dimension order at
// the time it was saved.
type PersistedVariant struct {
	ID           string
	Tokens       []string
	SKU          string
	Barcode      string
	Label        string
	HasOverrides bool
	IsGhost      bool
}

// ExplicitVariant is a variant with no attribute identity at all (imported
// rows addressed by position). Only meaningful while no dimension carries
// values.
type ExplicitVariant struct {
	ID      string `json:"id,omitempty"`
	SKU     string `json:"sku"`
	Barcode string `json:"barcode"`
	Label   string `json:"label"`
}

// State is the full reconciler state: the dimensions being edited, the
// authoritative enabled-key set, the metadata and identity overlays, and the
// persisted oracle from the last fetch.
type State struct {
	Dimensions []Dimension
	Enabled    map[Key]struct{}
	Metadata   map[Key]Meta
	Collapsed  map[Key]Identity
	Persisted  map[Key]PersistedVariant
	GhostID    string
	Explicit   []ExplicitVariant
}

// NewState returns an empty matrix with all maps allocated.
func NewState() *State {
	return &State{
		Enabled:   map[Key]struct{}{},
		Metadata:  map[Key]Meta{},
		Collapsed: map[Key]Identity{},
		Persisted: map[Key]PersistedVariant{},
	}
}

// Arity is the current number of key segments: the count of dimensions with
// values.
func (s *State) Arity() int {
	return len(activeDimensions(s.Dimensions))
}

// keyPosition maps a dimension index to its segment position among
// dimensions-with-values, or -1 if the dimension is empty.
func (s *State) keyPosition(dimIndex int) int {
	if dimIndex < 0 || dimIndex >= len(s.Dimensions) || !s.Dimensions[dimIndex].HasValues() {
		return -1
	}
	pos := 0
	for i := 0; i < dimIndex; i++ {
		if s.Dimensions[i].HasValues() {
			pos++
		}
	}
	return pos
}

func (s *State) dimensionIndex(dimID string) int {
	for i, d := range s.Dimensions {
		if d.ID == dimID {
			return i
		}
	}
	return -1
}

// MetaFor reads per-key metadata, defaulting to empty strings.
func (s *State) MetaFor(k Key) Meta {
	return s.Metadata[k]
}

func (s *State) metaEntry(k Key) (Meta, bool) {
	m, ok := s.Metadata[k]
	return m, ok
}

// SetMeta records sku/barcode for a key. The entry alone does not enable the
// key.
func (s *State) SetMeta(k Key, m Meta) {
	s.Metadata[k] = m
}

// identityFor resolves a key's persisted identity: the collapsed-mapping
// overlay wins over the persisted oracle since it reflects the newer shape.
func (s *State) identityFor(k Key) (Identity, bool) {
	if id, ok := s.Collapsed[k]; ok && id.VariantID != "" {
		return id, true
	}
	if pv, ok := s.Persisted[k]; ok && pv.ID != "" {
		return Identity{VariantID: pv.ID, HasOverrides: pv.HasOverrides}, true
	}
	return Identity{}, false
}

// Clone deep-copies the state for snapshot/restore around submit.
func (s *State) Clone() *State {
	c := &State{
		Dimensions: make([]Dimension, len(s.Dimensions)),
		Enabled:    make(map[Key]struct{}, len(s.Enabled)),
		Metadata:   make(map[Key]Meta, len(s.Metadata)),
		Collapsed:  make(map[Key]Identity, len(s.Collapsed)),
		Persisted:  make(map[Key]PersistedVariant, len(s.Persisted)),
		GhostID:    s.GhostID,
		Explicit:   make([]ExplicitVariant, len(s.Explicit)),
	}
	for i, d := range s.Dimensions {
		d.Values = append([]Value(nil), d.Values...)
		c.Dimensions[i] = d
	}
	for k := range s.Enabled {
		c.Enabled[k] = struct{}{}
	}
	for k, m := range s.Metadata {
		c.Metadata[k] = m
	}
	for k, id := range s.Collapsed {
		c.Collapsed[k] = id
	}
	for k, pv := range s.Persisted {
		pv.Tokens = append([]string(nil), pv.Tokens...)
		c.Persisted[k] = pv
	}
	copy(c.Explicit, s.Explicit)
	return c
}
