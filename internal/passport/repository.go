package passport

import (
	"context"

	"github.com/avelero/passport-service/internal/matrix"
	"github.com/avelero/passport-service/internal/model"
	"github.com/avelero/passport-service/internal/passport/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.PassportFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error

	// Variant rows with their attribute-value links, ordered by position.
	ListVariants(ctx context.Context, productID string) ([]model.Variant, error)
	// The product's attribute dimensions in matrix order, values included.
	ListProductAttributes(ctx context.Context, productID string) ([]model.Attribute, error)
	// ApplyVariantPlan executes a sync plan inside one transaction.
	ApplyVariantPlan(ctx context.Context, productID string, plan matrix.Plan) error
}
