package usecase

import (
	"context"

	"github.com/avelero/passport-service/internal/catalog"
	catalogdto "github.com/avelero/passport-service/internal/catalog/dto"
	"github.com/avelero/passport-service/internal/matrix"
)

// brandCatalog adapts the catalog usecase to matrix.Catalog, pinning every
// call to one brand.
type brandCatalog struct {
	uc      catalog.UseCase
	brandID string
}

func (c *brandCatalog) FindOrCreateAttribute(ctx context.Context, name, taxonomyRef string) (matrix.ResolvedAttribute, error) {
	attr, err := c.uc.FindOrCreateAttribute(ctx, &catalogdto.FindOrCreateAttributeInput{
		BrandID:     c.brandID,
		Name:        name,
		TaxonomyRef: taxonomyRef,
	})
	if err != nil {
		return matrix.ResolvedAttribute{}, err
	}
	return matrix.ResolvedAttribute{ID: attr.ID, Name: attr.Name}, nil
}

func (c *brandCatalog) FindOrCreateValue(ctx context.Context, attributeID, name, taxonomyValueRef string) (matrix.ResolvedValue, error) {
	value, err := c.uc.FindOrCreateValue(ctx, &catalogdto.FindOrCreateValueInput{
		AttributeID:      attributeID,
		Name:             name,
		TaxonomyValueRef: taxonomyValueRef,
	})
	if err != nil {
		return matrix.ResolvedValue{}, err
	}
	return matrix.ResolvedValue{ID: value.ID, Name: value.Name}, nil
}
