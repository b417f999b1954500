package passport

import (
	"context"
	"errors"
	"io"

	"github.com/avelero/passport-service/internal/matrix"
	"github.com/avelero/passport-service/internal/model"
	"github.com/avelero/passport-service/internal/passport/dto"
)

// ErrImportHeader rejects a CSV whose header row does not match the import
// template, before any data row is read.
var ErrImportHeader = errors.New("csv header does not match the import template")

type UseCase interface {
	CreatePassport(ctx context.Context, input *dto.CreatePassportInput) (*model.Product, error)
	GetPassport(ctx context.Context, id string) (*model.Product, error)
	ListPassports(ctx context.Context, filters *dto.PassportFilters) ([]model.Product, int, error)
	UpdatePassport(ctx context.Context, input *dto.UpdatePassportInput) (*model.Product, error)
	DeletePassport(ctx context.Context, id string) error

	// ImportPassports ingests a CSV of product rows, one passport per valid
	// row. Row failures are collected into the report, not fatal.
	ImportPassports(ctx context.Context, brandID string, r io.Reader) (*dto.ImportReport, error)

	// NewMatrixSession returns a hydrated reconciler session for the product.
	NewMatrixSession(ctx context.Context, brandID, productID string) (*matrix.Session, error)

	// matrix.Store: the reconciler's persistence collaborator.
	SyncVariants(ctx context.Context, productID string, plan matrix.Plan) error
	FetchProduct(ctx context.Context, productID string) (matrix.ProductSnapshot, error)

	// InvalidatePassport drops cached state after an upstream catalog change.
	InvalidatePassport(ctx context.Context, productID string) error
}
