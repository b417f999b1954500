package matrix

import "sort"

// PlannedVariant is one row of the sync plan. ValueIDs are resolved catalog
// value identifiers in dimension order; they are empty for ghost and
// explicit (position-addressed) rows. SKU and barcode are always plain
// strings, never null, so a server that normalizes null to empty cannot
// produce a spurious diff.
type PlannedVariant struct {
	ID       string   `json:"id,omitempty"`
	ValueIDs []string `json:"attribute_value_ids"`
	SKU      string   `json:"sku"`
	Barcode  string   `json:"barcode"`
	Position int      `json:"position"`
	IsGhost  bool     `json:"is_ghost"`
}

// Plan is the minimal create/update/delete set that moves the persisted
// variant rows to the enabled-key set.
type Plan struct {
	Creates []PlannedVariant `json:"creates"`
	Updates []PlannedVariant `json:"updates"`
	Deletes []string         `json:"deletes"`
}

// IsEmpty reports whether applying the plan would change nothing.
func (p Plan) IsEmpty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// isSubsequence reports whether short appears within long in order. Removing
// any index-subset of positions from long yields exactly the set of its
// subsequences, so this is the "explainable as expansion" relation: a saved
// key with fewer segments survives as the source of an expanded enabled key.
func isSubsequence(short, long []string) bool {
	i := 0
	for _, t := range long {
		if i < len(short) && short[i] == t {
			i++
		}
	}
	return i == len(short)
}

// BuildPlan diffs the enabled-key set against the persisted variant rows.
// Tokens must already be resolved to catalog value identifiers; pending or
// custom tokens in the enabled set would never match the persisted oracle.
func BuildPlan(s *State) Plan {
	if s.Arity() == 0 && len(s.Explicit) > 0 {
		return buildExplicitPlan(s)
	}

	keys := make([]Key, 0, len(s.Enabled))
	for k := range s.Enabled {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var plan Plan
	arity := s.Arity()
	used := map[string]struct{}{}

	for pos, k := range keys {
		meta := s.Metadata[k]
		pv := PlannedVariant{
			ValueIDs: k.Tokens(),
			SKU:      meta.SKU,
			Barcode:  meta.Barcode,
			Position: pos,
		}
		if id, ok := s.identityFor(k); ok {
			pv.ID = id.VariantID
			used[id.VariantID] = struct{}{}
			plan.Updates = append(plan.Updates, pv)
		} else {
			plan.Creates = append(plan.Creates, pv)
		}
	}

	// Persisted rows not claimed by an update are deletions unless they are
	// the not-yet-refetched source of an expansion into the larger shape.
	var deletes []string
	for _, saved := range s.Persisted {
		if saved.ID == "" || saved.IsGhost {
			continue
		}
		if _, claimed := used[saved.ID]; claimed {
			continue
		}
		if explainedByExpansion(saved, keys, arity) {
			continue
		}
		deletes = append(deletes, saved.ID)
	}
	// Position-addressed rows carry no attribute identity, so once the
	// matrix is keyed nothing can claim them. They are superseded and their
	// server rows go.
	for _, ev := range s.Explicit {
		if ev.ID == "" {
			continue
		}
		if _, claimed := used[ev.ID]; claimed {
			continue
		}
		deletes = append(deletes, ev.ID)
	}
	sort.Strings(deletes)
	plan.Deletes = deletes

	return applyGhostRules(s, plan)
}

func explainedByExpansion(saved PersistedVariant, enabled []Key, arity int) bool {
	if len(saved.Tokens) == 0 || len(saved.Tokens) >= arity {
		return false
	}
	for _, k := range enabled {
		tokens := k.Tokens()
		if len(tokens) != arity {
			continue
		}
		if isSubsequence(saved.Tokens, tokens) {
			return true
		}
	}
	return false
}

// applyGhostRules enforces the two ghost invariants: a lone brand-new
// variant reuses a known ghost identifier instead of orphaning it, and a
// plan with zero real variants upserts exactly one ghost row so the product
// never drops below one variant.
func applyGhostRules(s *State, plan Plan) Plan {
	ghostReused := false
	if len(plan.Creates) == 1 && s.GhostID != "" {
		pv := plan.Creates[0]
		pv.ID = s.GhostID
		pv.IsGhost = false
		plan.Creates = nil
		plan.Updates = append(plan.Updates, pv)
		ghostReused = true
	}

	if len(plan.Creates) == 0 && len(plan.Updates) == 0 {
		ghost := PlannedVariant{ID: s.GhostID, IsGhost: true}
		if ghost.ID == "" {
			plan.Creates = []PlannedVariant{ghost}
		} else {
			plan.Updates = []PlannedVariant{ghost}
		}
		return plan
	}

	if s.GhostID != "" && !ghostReused {
		plan.Deletes = append(plan.Deletes, s.GhostID)
		sort.Strings(plan.Deletes)
	}
	return plan
}

// buildExplicitPlan handles the no-dimension case: previously imported
// variants carry no attribute identity, so the plan addresses them by list
// position instead of composite key.
func buildExplicitPlan(s *State) Plan {
	var plan Plan
	used := map[string]struct{}{}

	for pos, ev := range s.Explicit {
		pv := PlannedVariant{
			SKU:      ev.SKU,
			Barcode:  ev.Barcode,
			Position: pos,
		}
		if ev.ID != "" {
			pv.ID = ev.ID
			used[ev.ID] = struct{}{}
			plan.Updates = append(plan.Updates, pv)
		} else {
			plan.Creates = append(plan.Creates, pv)
		}
	}

	var deletes []string
	for _, saved := range s.Persisted {
		if saved.ID == "" || saved.IsGhost {
			continue
		}
		if _, claimed := used[saved.ID]; claimed {
			continue
		}
		deletes = append(deletes, saved.ID)
	}
	sort.Strings(deletes)
	plan.Deletes = deletes

	return applyGhostRules(s, plan)
}
