package matrix

import (
	"context"

	"go.uber.org/zap"
)

// ProductSnapshot is the canonical server state a session hydrates from:
// the product's attributes as dimensions and its variant rows with value
// identifiers in attribute order.
type ProductSnapshot struct {
	ProductID  string
	Dimensions []Dimension
	Variants   []PersistedVariant
}

// Store is the persistence collaborator executing sync plans. Both calls are
// black-box CRUD; the reconciler owns no transport or schema.
type Store interface {
	SyncVariants(ctx context.Context, productID string, plan Plan) error
	FetchProduct(ctx context.Context, productID string) (ProductSnapshot, error)
}

// Session drives one product's matrix through edits and submit. It is
// single-writer by construction: every edit runs to completion before the
// next, and submit snapshots the state so a failed round trip leaves the
// matrix exactly as the user had it.
type Session struct {
	productID string
	state     *State
	catalog   Catalog
	store     Store
	logger    *zap.Logger
}

func NewSession(productID string, catalog Catalog, store Store, logger *zap.Logger) *Session {
	return &Session{
		productID: productID,
		state:     NewState(),
		catalog:   catalog,
		store:     store,
		logger:    logger,
	}
}

// State exposes the live matrix for edits and rendering.
func (s *Session) State() *State {
	return s.state
}

// Hydrate rebuilds local state from a fetched server snapshot. The enabled
// set starts as exactly the persisted non-ghost keyed variants; rows without
// any attribute identity become the explicit position-addressed list.
func (s *Session) Hydrate(snap ProductSnapshot) {
	st := NewState()
	st.Dimensions = snap.Dimensions

	for _, v := range snap.Variants {
		if v.IsGhost {
			st.GhostID = v.ID
			continue
		}
		if len(v.Tokens) == 0 {
			st.Explicit = append(st.Explicit, ExplicitVariant{
				ID:      v.ID,
				SKU:     v.SKU,
				Barcode: v.Barcode,
				Label:   v.Label,
			})
			continue
		}
		k, err := Encode(v.Tokens)
		if err != nil {
			continue
		}
		st.Persisted[k] = v
		st.Enabled[k] = struct{}{}
		st.Metadata[k] = Meta{SKU: v.SKU, Barcode: v.Barcode}
	}

	s.state = st
}

// Submit validates, resolves catalog references, builds the plan, applies it
// and re-hydrates from the canonical server state. Any failure past
// validation restores the pre-submit snapshot; catalog rows already created
// stay created and are found by name on retry.
func (s *Session) Submit(ctx context.Context) (Plan, error) {
	if err := ValidateDimensions(s.state.Dimensions); err != nil {
		return Plan{}, err
	}

	snapshot := s.state.Clone()

	resolved, translation, err := ResolveDimensions(ctx, s.catalog, s.state.Dimensions)
	if err != nil {
		s.logger.Error("resolving catalog references failed",
			zap.String("product_id", s.productID), zap.Error(err))
		return Plan{}, err
	}
	s.state.Translate(resolved, translation)

	plan := BuildPlan(s.state)
	s.logger.Info("variant sync plan built",
		zap.String("product_id", s.productID),
		zap.Int("creates", len(plan.Creates)),
		zap.Int("updates", len(plan.Updates)),
		zap.Int("deletes", len(plan.Deletes)),
	)

	if err := s.store.SyncVariants(ctx, s.productID, plan); err != nil {
		s.state = snapshot
		s.logger.Error("variant sync failed",
			zap.String("product_id", s.productID), zap.Error(err))
		return Plan{}, err
	}

	snap, err := s.store.FetchProduct(ctx, s.productID)
	if err != nil {
		s.state = snapshot
		s.logger.Error("re-fetch after sync failed",
			zap.String("product_id", s.productID), zap.Error(err))
		return Plan{}, err
	}
	s.Hydrate(snap)

	return plan, nil
}
