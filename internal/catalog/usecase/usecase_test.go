package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/avelero/passport-service/internal/catalog/dto"
	"github.com/avelero/passport-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	attributes []*model.Attribute
	values     []*model.AttributeValue
	renamed    map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{renamed: map[string]string{}}
}

func (r *fakeRepo) CreateAttribute(_ context.Context, attr *model.Attribute) error {
	r.attributes = append(r.attributes, attr)
	return nil
}

func (r *fakeRepo) FindAttributeByID(_ context.Context, id string) (*model.Attribute, error) {
	for _, a := range r.attributes {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindAttributeByName(_ context.Context, brandID, name string) (*model.Attribute, error) {
	for _, a := range r.attributes {
		if a.BrandID == brandID && strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListAttributes(_ context.Context, brandID string) ([]model.Attribute, error) {
	var out []model.Attribute
	for _, a := range r.attributes {
		if a.BrandID == brandID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeRepo) DeleteAttribute(_ context.Context, id string) error {
	kept := r.attributes[:0]
	for _, a := range r.attributes {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	r.attributes = kept
	return nil
}

func (r *fakeRepo) CreateValue(_ context.Context, value *model.AttributeValue) error {
	r.values = append(r.values, value)
	return nil
}

func (r *fakeRepo) FindValueByName(_ context.Context, attributeID, name string) (*model.AttributeValue, error) {
	for _, v := range r.values {
		if v.AttributeID == attributeID && strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListValues(_ context.Context, attributeID string) ([]model.AttributeValue, error) {
	var out []model.AttributeValue
	for _, v := range r.values {
		if v.AttributeID == attributeID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *fakeRepo) RenameValue(_ context.Context, id, name string) error {
	r.renamed[id] = name
	return nil
}

func TestFindOrCreateAttributeIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	uc := NewCatalogUseCase(repo, zap.NewNop())

	input := &dto.FindOrCreateAttributeInput{BrandID: "b1", Name: "Color", TaxonomyRef: "tax:color"}

	first, err := uc.FindOrCreateAttribute(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, first.TaxonomyRef)
	assert.Equal(t, "tax:color", *first.TaxonomyRef)

	second, err := uc.FindOrCreateAttribute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.attributes, 1)
}

func TestFindOrCreateAttributeMatchesCaseInsensitively(t *testing.T) {
	repo := newFakeRepo()
	uc := NewCatalogUseCase(repo, zap.NewNop())

	first, err := uc.FindOrCreateAttribute(context.Background(),
		&dto.FindOrCreateAttributeInput{BrandID: "b1", Name: "Color"})
	require.NoError(t, err)

	second, err := uc.FindOrCreateAttribute(context.Background(),
		&dto.FindOrCreateAttributeInput{BrandID: "b1", Name: "color"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestFindOrCreateAttributeScopedByBrand(t *testing.T) {
	repo := newFakeRepo()
	uc := NewCatalogUseCase(repo, zap.NewNop())

	a, err := uc.FindOrCreateAttribute(context.Background(),
		&dto.FindOrCreateAttributeInput{BrandID: "b1", Name: "Color"})
	require.NoError(t, err)

	b, err := uc.FindOrCreateAttribute(context.Background(),
		&dto.FindOrCreateAttributeInput{BrandID: "b2", Name: "Color"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, repo.attributes, 2)
}

func TestFindOrCreateAttributeRequiresName(t *testing.T) {
	uc := NewCatalogUseCase(newFakeRepo(), zap.NewNop())
	_, err := uc.FindOrCreateAttribute(context.Background(), &dto.FindOrCreateAttributeInput{BrandID: "b1"})
	assert.Error(t, err)
}

func TestFindOrCreateValueIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	uc := NewCatalogUseCase(repo, zap.NewNop())

	input := &dto.FindOrCreateValueInput{AttributeID: "a1", Name: "Red", Swatch: "#f00"}

	first, err := uc.FindOrCreateValue(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, first.Swatch)
	assert.Equal(t, "#f00", *first.Swatch)
	assert.Nil(t, first.TaxonomyValueRef)

	second, err := uc.FindOrCreateValue(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.values, 1)
}

func TestFindOrCreateValueRequiresAttribute(t *testing.T) {
	uc := NewCatalogUseCase(newFakeRepo(), zap.NewNop())
	_, err := uc.FindOrCreateValue(context.Background(), &dto.FindOrCreateValueInput{Name: "Red"})
	assert.Error(t, err)
}

func TestGetAttributeLoadsValues(t *testing.T) {
	repo := newFakeRepo()
	uc := NewCatalogUseCase(repo, zap.NewNop())

	attr, err := uc.FindOrCreateAttribute(context.Background(),
		&dto.FindOrCreateAttributeInput{BrandID: "b1", Name: "Color"})
	require.NoError(t, err)
	_, err = uc.FindOrCreateValue(context.Background(),
		&dto.FindOrCreateValueInput{AttributeID: attr.ID, Name: "Red"})
	require.NoError(t, err)

	got, err := uc.GetAttribute(context.Background(), attr.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Values, 1)
	assert.Equal(t, "Red", got.Values[0].Name)
}

func TestGetAttributeUnknownIDReturnsNil(t *testing.T) {
	uc := NewCatalogUseCase(newFakeRepo(), zap.NewNop())
	got, err := uc.GetAttribute(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRenameValue(t *testing.T) {
	repo := newFakeRepo()
	uc := NewCatalogUseCase(repo, zap.NewNop())

	err := uc.RenameValue(context.Background(), &dto.RenameValueInput{ValueID: "v1", Name: "Crimson"})
	require.NoError(t, err)
	assert.Equal(t, "Crimson", repo.renamed["v1"])

	err = uc.RenameValue(context.Background(), &dto.RenameValueInput{ValueID: "v1"})
	assert.Error(t, err)
}
