package matrix

// activeDimensions filters to dimensions that participate in key
// composition, preserving order.
func activeDimensions(dims []Dimension) []Dimension {
	active := make([]Dimension, 0, len(dims))
	for _, d := range dims {
		if d.HasValues() {
			active = append(active, d)
		}
	}
	return active
}

// AllKeyList enumerates the cartesian product of the dimensions' value
// tokens in dimension order. No dimension has values, no keys. Exponential
// by nature, bounded in practice by the dimension and value limits.
func AllKeyList(dims []Dimension) []Key {
	active := activeDimensions(dims)
	if len(active) == 0 {
		return nil
	}

	tuples := [][]string{nil}
	for _, d := range active {
		next := make([][]string, 0, len(tuples)*len(d.Values))
		for _, tuple := range tuples {
			for _, v := range d.Values {
				grown := make([]string, len(tuple), len(tuple)+1)
				copy(grown, tuple)
				next = append(next, append(grown, v.Token))
			}
		}
		tuples = next
	}

	keys := make([]Key, 0, len(tuples))
	for _, tuple := range tuples {
		k, err := Encode(tuple)
		if err != nil {
			continue // tokens are validated at entry; skip defensively
		}
		keys = append(keys, k)
	}
	return keys
}

// AllKeys is AllKeyList as a set, for membership checks.
func AllKeys(dims []Dimension) map[Key]struct{} {
	list := AllKeyList(dims)
	set := make(map[Key]struct{}, len(list))
	for _, k := range list {
		set[k] = struct{}{}
	}
	return set
}
