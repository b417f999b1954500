package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/avelero/passport-service/internal/catalog"
	"github.com/avelero/passport-service/internal/catalog/dto"
	"github.com/avelero/passport-service/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type catalogUseCase struct {
	repo   catalog.Repository
	logger *zap.Logger
}

func NewCatalogUseCase(repo catalog.Repository, log *zap.Logger) catalog.UseCase {
	return &catalogUseCase{
		repo:   repo,
		logger: log,
	}
}

// FindOrCreateAttribute returns the brand's attribute with the given name,
// creating it if missing. Look-before-create makes resubmission after a
// partial failure idempotent.
func (uc *catalogUseCase) FindOrCreateAttribute(ctx context.Context, input *dto.FindOrCreateAttributeInput) (*model.Attribute, error) {
	if input.Name == "" {
		return nil, errors.New("attribute name is required")
	}

	existing, err := uc.repo.FindAttributeByName(ctx, input.BrandID, input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	taxonomyRef := &input.TaxonomyRef
	if input.TaxonomyRef == "" {
		taxonomyRef = nil
	}

	attr := &model.Attribute{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		BrandID:     input.BrandID,
		Name:        input.Name,
		TaxonomyRef: taxonomyRef,
		IsActive:    true,
	}
	if err := uc.repo.CreateAttribute(ctx, attr); err != nil {
		return nil, err
	}

	uc.logger.Info("attribute created",
		zap.String("attribute_id", attr.ID),
		zap.String("brand_id", input.BrandID),
		zap.String("name", input.Name),
	)
	return attr, nil
}

func (uc *catalogUseCase) FindOrCreateValue(ctx context.Context, input *dto.FindOrCreateValueInput) (*model.AttributeValue, error) {
	if input.AttributeID == "" {
		return nil, errors.New("attribute id is required")
	}
	if input.Name == "" {
		return nil, errors.New("value name is required")
	}

	existing, err := uc.repo.FindValueByName(ctx, input.AttributeID, input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	taxonomyValueRef := &input.TaxonomyValueRef
	if input.TaxonomyValueRef == "" {
		taxonomyValueRef = nil
	}
	swatch := &input.Swatch
	if input.Swatch == "" {
		swatch = nil
	}

	value := &model.AttributeValue{
		BaseModel:        model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		AttributeID:      input.AttributeID,
		Name:             input.Name,
		TaxonomyValueRef: taxonomyValueRef,
		Swatch:           swatch,
	}
	if err := uc.repo.CreateValue(ctx, value); err != nil {
		return nil, err
	}

	return value, nil
}

func (uc *catalogUseCase) GetAttribute(ctx context.Context, id string) (*model.Attribute, error) {
	attr, err := uc.repo.FindAttributeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, nil
	}

	values, err := uc.repo.ListValues(ctx, id)
	if err != nil {
		return nil, err
	}
	attr.Values = values
	return attr, nil
}

func (uc *catalogUseCase) ListAttributes(ctx context.Context, brandID string) ([]model.Attribute, error) {
	attrs, err := uc.repo.ListAttributes(ctx, brandID)
	if err != nil {
		return nil, err
	}
	for i := range attrs {
		values, err := uc.repo.ListValues(ctx, attrs[i].ID)
		if err != nil {
			return nil, err
		}
		attrs[i].Values = values
	}
	return attrs, nil
}

func (uc *catalogUseCase) RenameValue(ctx context.Context, input *dto.RenameValueInput) error {
	if input.Name == "" {
		return errors.New("value name is required")
	}
	return uc.repo.RenameValue(ctx, input.ValueID, input.Name)
}

func (uc *catalogUseCase) DeleteAttribute(ctx context.Context, id string) error {
	return uc.repo.DeleteAttribute(ctx, id)
}
