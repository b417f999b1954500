package usecase

import (
	"context"
	"strings"
	"testing"

	catalogdto "github.com/avelero/passport-service/internal/catalog/dto"
	categorydto "github.com/avelero/passport-service/internal/category/dto"
	"github.com/avelero/passport-service/internal/model"
	"github.com/avelero/passport-service/internal/passport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalogUC struct {
	attrs []model.Attribute
}

func (f *fakeCatalogUC) FindOrCreateAttribute(_ context.Context, _ *catalogdto.FindOrCreateAttributeInput) (*model.Attribute, error) {
	return nil, nil
}

func (f *fakeCatalogUC) FindOrCreateValue(_ context.Context, _ *catalogdto.FindOrCreateValueInput) (*model.AttributeValue, error) {
	return nil, nil
}

func (f *fakeCatalogUC) GetAttribute(_ context.Context, _ string) (*model.Attribute, error) {
	return nil, nil
}

func (f *fakeCatalogUC) ListAttributes(_ context.Context, _ string) ([]model.Attribute, error) {
	return f.attrs, nil
}

func (f *fakeCatalogUC) RenameValue(_ context.Context, _ *catalogdto.RenameValueInput) error {
	return nil
}

func (f *fakeCatalogUC) DeleteAttribute(_ context.Context, _ string) error {
	return nil
}

type fakeCategoryUC struct {
	categories []model.Category
}

func (f *fakeCategoryUC) CreateCategory(_ context.Context, _ *categorydto.CreateCategoryInput) (*model.Category, error) {
	return nil, nil
}

func (f *fakeCategoryUC) GetCategory(_ context.Context, _ string) (*model.Category, error) {
	return nil, nil
}

func (f *fakeCategoryUC) ListCategories(_ context.Context, _ *categorydto.CategoryFilters) ([]model.Category, int, error) {
	return f.categories, len(f.categories), nil
}

func (f *fakeCategoryUC) UpdateCategory(_ context.Context, _ *categorydto.UpdateCategoryInput) (*model.Category, error) {
	return nil, nil
}

func (f *fakeCategoryUC) DeleteCategory(_ context.Context, _ string) error {
	return nil
}

func importCSV(rows ...map[string]string) *strings.Reader {
	var b strings.Builder
	b.WriteString(strings.Join(importColumns, ","))
	b.WriteString("\n")
	for _, row := range rows {
		fields := make([]string, len(importColumns))
		for i, col := range importColumns {
			fields[i] = row[col]
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteString("\n")
	}
	return strings.NewReader(b.String())
}

func newImportUseCase(repo *fakeRepo) *passportUseCase {
	catalogUC := &fakeCatalogUC{attrs: []model.Attribute{
		attr("a-color", "Color", attrValue("v-black", "Black"), attrValue("v-navy", "Navy")),
		attr("a-size", "Size", attrValue("v-s", "S"), attrValue("v-m", "M")),
	}}
	categoryUC := &fakeCategoryUC{categories: []model.Category{
		{BaseModel: model.BaseModel{ID: "cat-tops"}, Name: "Tops"},
	}}
	return NewPassportUseCase(repo, catalogUC, categoryUC, nil, nil, nil, zap.NewNop()).(*passportUseCase)
}

func productByUPID(repo *fakeRepo, upid string) *model.Product {
	for _, p := range repo.products {
		if p.UPID != nil && *p.UPID == upid {
			return p
		}
	}
	return nil
}

func TestImportCreatesPassportsAndVariants(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUseCase(repo)

	report, err := uc.ImportPassports(context.Background(), "b1", importCSV(
		map[string]string{
			"product_name": "Classic Tee", "upid": "UPID-100001", "sku": "SKU-TSH-10001",
			"description": "Soft cotton tee", "category_name": "Tops", "season": "SS25",
			"primary_image_url": "https://cdn.example.com/p1.jpg",
			"color_name":        "Black", "size_name": "M",
			"material_1_name": "Cotton", "material_1_percentage": "100",
			"care_codes": "MACHINE_WASH", "eco_claims": "ORGANIC", "environment_score": "80",
		},
		map[string]string{
			"product_name": "Plain Tee", "upid": "UPID-100002", "sku": "SKU-TSH-10002",
			"material_1_name": "Cotton", "material_1_percentage": "100",
		},
	))
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Rejected)
	assert.Empty(t, report.Errors)

	classic := productByUPID(repo, "UPID-100001")
	require.NotNil(t, classic)
	assert.Equal(t, "Classic Tee", classic.Name)
	require.NotNil(t, classic.CategoryID)
	assert.Equal(t, "cat-tops", *classic.CategoryID)
	require.NotNil(t, classic.CareNotes)
	assert.Equal(t, "MACHINE_WASH", *classic.CareNotes)

	require.Len(t, repo.plans, 2)

	// Mapped color and size become a keyed variant create.
	keyed := repo.plans[0]
	require.Len(t, keyed.Creates, 1)
	assert.Equal(t, []string{"v-black", "v-m"}, keyed.Creates[0].ValueIDs)
	assert.Equal(t, "SKU-TSH-10001", keyed.Creates[0].SKU)
	assert.NotEmpty(t, keyed.Creates[0].ID)
	assert.False(t, keyed.Creates[0].IsGhost)

	// No color or size: the variant is a position-addressed row, not a ghost.
	bare := repo.plans[1]
	require.Len(t, bare.Creates, 1)
	assert.Empty(t, bare.Creates[0].ValueIDs)
	assert.Equal(t, "SKU-TSH-10002", bare.Creates[0].SKU)
	assert.False(t, bare.Creates[0].IsGhost)
}

func TestImportRejectsWrongHeader(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUseCase(repo)

	_, err := uc.ImportPassports(context.Background(), "b1",
		strings.NewReader("ProductName,UPID,SKU\nTee,UPID-1,SKU-1\n"))
	assert.ErrorIs(t, err, passport.ErrImportHeader)
	assert.Empty(t, repo.products)
}

func TestImportEmptyFileReportsNothing(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUseCase(repo)

	report, err := uc.ImportPassports(context.Background(), "b1", importCSV())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalRows)
	assert.Empty(t, repo.products)
}

func TestImportRejectsMissingRequiredFields(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUseCase(repo)

	report, err := uc.ImportPassports(context.Background(), "b1", importCSV(
		map[string]string{"upid": "UPID-1", "sku": "SKU-1"},
		map[string]string{"product_name": "Tee"},
	))
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 2, report.Rejected)
	assert.Empty(t, repo.products)

	columns := map[string]bool{}
	for _, e := range report.Errors {
		columns[e.Column] = true
	}
	assert.True(t, columns["product_name"])
	assert.True(t, columns["upid"])
	assert.True(t, columns["sku"])
}

func TestImportRejectsDuplicateUPIDAndSKU(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUseCase(repo)

	report, err := uc.ImportPassports(context.Background(), "b1", importCSV(
		map[string]string{"product_name": "Tee A", "upid": "UPID-1", "sku": "SKU-1"},
		map[string]string{"product_name": "Tee B", "upid": "UPID-1", "sku": "SKU-2"},
		map[string]string{"product_name": "Tee C", "upid": "UPID-3", "sku": "SKU-1"},
	))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Rejected)

	require.Len(t, report.Errors, 2)
	assert.Equal(t, "upid", report.Errors[0].Column)
	assert.Equal(t, 2, report.Errors[0].Row)
	assert.Equal(t, "sku", report.Errors[1].Column)
	assert.Equal(t, 3, report.Errors[1].Row)
}

func TestImportRejectsUnmappedCatalogValues(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUseCase(repo)

	report, err := uc.ImportPassports(context.Background(), "b1", importCSV(
		map[string]string{
			"product_name": "Tee", "upid": "UPID-1", "sku": "SKU-1",
			"color_name": "Coral", "size_name": "2XL", "category_name": "Footwear",
		},
	))
	require.NoError(t, err)

	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Rejected)
	assert.Empty(t, repo.products)

	columns := map[string]bool{}
	for _, e := range report.Errors {
		columns[e.Column] = true
	}
	assert.True(t, columns["color_name"])
	assert.True(t, columns["size_name"])
	assert.True(t, columns["category_name"])
}

func TestImportMapsValueNamesCaseInsensitively(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUseCase(repo)

	report, err := uc.ImportPassports(context.Background(), "b1", importCSV(
		map[string]string{
			"product_name": "Tee", "upid": "UPID-1", "sku": "SKU-1",
			"color_name": "black", "category_name": "tops",
		},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	require.Len(t, repo.plans, 1)
	require.Len(t, repo.plans[0].Creates, 1)
	assert.Equal(t, []string{"v-black"}, repo.plans[0].Creates[0].ValueIDs)
}

func TestImportRejectsFieldViolations(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUseCase(repo)

	report, err := uc.ImportPassports(context.Background(), "b1", importCSV(
		map[string]string{
			"product_name": strings.Repeat("A", 150), "upid": "UPID-1", "sku": "SKU-1",
		},
		map[string]string{
			"product_name": "Tee", "upid": "UPID-2", "sku": "SKU-2",
			"description": strings.Repeat("B", 2500),
		},
		map[string]string{
			"product_name": "Tee", "upid": "UPID-3", "sku": "SKU-3",
			"primary_image_url": "not-a-valid-url",
		},
		map[string]string{
			"product_name": "Tee", "upid": "UPID-4", "sku": "SKU-4",
			"material_1_name": "Cotton", "material_1_percentage": "65",
			"material_2_name": "Polyester", "material_2_percentage": "50",
		},
		map[string]string{
			"product_name": "Tee", "upid": "UPID-5", "sku": "SKU-5",
			"care_codes": "MACHINE_WASH,NOT_A_CODE",
		},
		map[string]string{
			"product_name": "Tee", "upid": "UPID-6", "sku": "SKU-6",
			"environment_score": "150",
		},
	))
	require.NoError(t, err)

	assert.Equal(t, 6, report.TotalRows)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 6, report.Rejected)

	columns := map[string]bool{}
	for _, e := range report.Errors {
		columns[e.Column] = true
	}
	assert.True(t, columns["product_name"])
	assert.True(t, columns["description"])
	assert.True(t, columns["primary_image_url"])
	assert.True(t, columns["material_1_percentage"])
	assert.True(t, columns["care_codes"])
	assert.True(t, columns["environment_score"])
}

func TestImportValidRowsSurviveRejectedOnes(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUseCase(repo)

	report, err := uc.ImportPassports(context.Background(), "b1", importCSV(
		map[string]string{"product_name": "Good Tee", "upid": "UPID-1", "sku": "SKU-1"},
		map[string]string{"product_name": "", "upid": "UPID-2", "sku": "SKU-2"},
		map[string]string{"product_name": "Other Tee", "upid": "UPID-3", "sku": "SKU-3", "color_name": "Navy"},
	))
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Rejected)
	assert.NotNil(t, productByUPID(repo, "UPID-1"))
	assert.Nil(t, productByUPID(repo, "UPID-2"))
	assert.NotNil(t, productByUPID(repo, "UPID-3"))
}
