package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/avelero/passport-service/internal/category"
	"github.com/avelero/passport-service/internal/category/dto"
	"github.com/avelero/passport-service/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type categoryUseCase struct {
	repo   category.Repository
	logger *zap.Logger
}

func NewCategoryUseCase(repo category.Repository, log *zap.Logger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if input.Name == "" {
		return nil, errors.New("category name is required")
	}

	if input.ParentID != nil && *input.ParentID != "" {
		parent, err := uc.repo.FindByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, errors.New("parent category not found")
		}
		if parent.BrandID != input.BrandID {
			return nil, errors.New("parent category belongs to another brand")
		}
	}

	now := time.Now()
	cat := &model.Category{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BrandID:     input.BrandID,
		ParentID:    input.ParentID,
		Name:        input.Name,
		Description: optional(input.Description),
		ImageURL:    optional(input.ImageURL),
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}

	uc.logger.Info("category created",
		zap.String("category_id", cat.ID),
		zap.String("brand_id", input.BrandID),
	)
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, errors.New("category not found")
	}

	if input.ParentID != nil && *input.ParentID == input.ID {
		return nil, errors.New("category cannot be its own parent")
	}

	cat.Name = input.Name
	cat.Description = optional(input.Description)
	cat.ImageURL = optional(input.ImageURL)
	cat.SortOrder = input.SortOrder
	cat.IsActive = input.IsActive
	cat.ParentID = input.ParentID
	cat.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
