package catalog

import (
	"context"

	"github.com/avelero/passport-service/internal/model"
)

type Repository interface {
	CreateAttribute(ctx context.Context, attr *model.Attribute) error
	FindAttributeByID(ctx context.Context, id string) (*model.Attribute, error)
	FindAttributeByName(ctx context.Context, brandID, name string) (*model.Attribute, error)
	ListAttributes(ctx context.Context, brandID string) ([]model.Attribute, error)
	DeleteAttribute(ctx context.Context, id string) error

	CreateValue(ctx context.Context, value *model.AttributeValue) error
	FindValueByName(ctx context.Context, attributeID, name string) (*model.AttributeValue, error)
	ListValues(ctx context.Context, attributeID string) ([]model.AttributeValue, error)
	RenameValue(ctx context.Context, id, name string) error
}
