package matrix

import "strings"

// Row is the derived per-combination display view the form renders: one row
// per producible key, in generator order, with badges resolved from the
// identity overlays.
type Row struct {
	Key          Key      `json:"key"`
	Label        string   `json:"label"`
	Swatches     []string `json:"swatches,omitempty"`
	SKU          string   `json:"sku"`
	Barcode      string   `json:"barcode"`
	Enabled      bool     `json:"enabled"`
	IsNew        bool     `json:"is_new"`
	HasOverrides bool     `json:"has_overrides"`
}

// Rows derives the full display table from the current state.
func (s *State) Rows() []Row {
	active := activeDimensions(s.Dimensions)
	if len(active) == 0 {
		return s.explicitRows()
	}

	names := make([]map[string]Value, len(active))
	for i, d := range active {
		names[i] = make(map[string]Value, len(d.Values))
		for _, v := range d.Values {
			names[i][v.Token] = v
		}
	}

	keys := AllKeyList(s.Dimensions)
	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		tokens := k.Tokens()
		labels := make([]string, len(tokens))
		var swatches []string
		for i, t := range tokens {
			v, ok := names[i][t]
			if !ok {
				labels[i] = t
				continue
			}
			labels[i] = v.Name
			if v.Swatch != "" {
				swatches = append(swatches, v.Swatch)
			}
		}

		meta := s.Metadata[k]
		row := Row{
			Key:      k,
			Label:    strings.Join(labels, " / "),
			Swatches: swatches,
			SKU:      meta.SKU,
			Barcode:  meta.Barcode,
		}
		_, row.Enabled = s.Enabled[k]
		id, found := s.identityFor(k)
		row.IsNew = !found
		row.HasOverrides = found && id.HasOverrides
		rows = append(rows, row)
	}
	return rows
}

func (s *State) explicitRows() []Row {
	rows := make([]Row, 0, len(s.Explicit))
	for _, ev := range s.Explicit {
		rows = append(rows, Row{
			Label:   ev.Label,
			SKU:     ev.SKU,
			Barcode: ev.Barcode,
			Enabled: true,
			IsNew:   ev.ID == "",
		})
	}
	return rows
}
