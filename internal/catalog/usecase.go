package catalog

import (
	"context"

	"github.com/avelero/passport-service/internal/catalog/dto"
	"github.com/avelero/passport-service/internal/model"
)

type UseCase interface {
	FindOrCreateAttribute(ctx context.Context, input *dto.FindOrCreateAttributeInput) (*model.Attribute, error)
	FindOrCreateValue(ctx context.Context, input *dto.FindOrCreateValueInput) (*model.AttributeValue, error)
	GetAttribute(ctx context.Context, id string) (*model.Attribute, error)
	ListAttributes(ctx context.Context, brandID string) ([]model.Attribute, error)
	RenameValue(ctx context.Context, input *dto.RenameValueInput) error
	DeleteAttribute(ctx context.Context, id string) error
}
