package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avelero/passport-service/internal/auth"
	"github.com/avelero/passport-service/internal/catalog/dto"
	"github.com/avelero/passport-service/internal/matrix"
	"github.com/avelero/passport-service/internal/model"
	"github.com/avelero/passport-service/internal/passport"
	passportdto "github.com/avelero/passport-service/internal/passport/dto"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUseCase struct {
	products     map[string]*model.Product
	snapshot     matrix.ProductSnapshot
	synced       []matrix.Plan
	syncErr      error
	importReport *passportdto.ImportReport
	importErr    error
	importedCSV  string
}

func newFakeUseCase() *fakeUseCase {
	return &fakeUseCase{products: map[string]*model.Product{}}
}

func (f *fakeUseCase) CreatePassport(_ context.Context, input *passportdto.CreatePassportInput) (*model.Product, error) {
	p := &model.Product{
		BaseModel: model.BaseModel{ID: fmt.Sprintf("p-%d", len(f.products)+1)},
		BrandID:   input.BrandID,
		Name:      input.Name,
		Status:    "draft",
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeUseCase) GetPassport(_ context.Context, id string) (*model.Product, error) {
	return f.products[id], nil
}

func (f *fakeUseCase) ListPassports(_ context.Context, filters *passportdto.PassportFilters) ([]model.Product, int, error) {
	var out []model.Product
	for _, p := range f.products {
		if p.BrandID == filters.BrandID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (f *fakeUseCase) UpdatePassport(_ context.Context, input *passportdto.UpdatePassportInput) (*model.Product, error) {
	p, ok := f.products[input.ID]
	if !ok {
		return nil, errors.New("passport not found")
	}
	p.Name = input.Name
	return p, nil
}

func (f *fakeUseCase) DeletePassport(_ context.Context, id string) error {
	delete(f.products, id)
	return nil
}

func (f *fakeUseCase) NewMatrixSession(_ context.Context, _, productID string) (*matrix.Session, error) {
	sess := matrix.NewSession(productID, fakeSessionCatalog{}, f, zap.NewNop())
	sess.Hydrate(f.snapshot)
	return sess, nil
}

func (f *fakeUseCase) SyncVariants(_ context.Context, _ string, plan matrix.Plan) error {
	if f.syncErr != nil {
		return f.syncErr
	}
	f.synced = append(f.synced, plan)
	return nil
}

func (f *fakeUseCase) FetchProduct(_ context.Context, _ string) (matrix.ProductSnapshot, error) {
	return f.snapshot, nil
}

func (f *fakeUseCase) ImportPassports(_ context.Context, _ string, r io.Reader) (*passportdto.ImportReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.importedCSV = string(data)
	if f.importErr != nil {
		return nil, f.importErr
	}
	if f.importReport != nil {
		return f.importReport, nil
	}
	return &passportdto.ImportReport{}, nil
}

func (f *fakeUseCase) InvalidatePassport(_ context.Context, _ string) error {
	return nil
}

type fakeSessionCatalog struct{}

func (fakeSessionCatalog) FindOrCreateAttribute(_ context.Context, name, _ string) (matrix.ResolvedAttribute, error) {
	return matrix.ResolvedAttribute{ID: "attr-" + name, Name: name}, nil
}

func (fakeSessionCatalog) FindOrCreateValue(_ context.Context, attributeID, name, _ string) (matrix.ResolvedValue, error) {
	return matrix.ResolvedValue{ID: attributeID + ":" + name, Name: name}, nil
}

type fakeCatalogUseCase struct {
	attrs []model.Attribute
}

func (f *fakeCatalogUseCase) FindOrCreateAttribute(_ context.Context, _ *dto.FindOrCreateAttributeInput) (*model.Attribute, error) {
	return nil, errors.New("not used")
}

func (f *fakeCatalogUseCase) FindOrCreateValue(_ context.Context, _ *dto.FindOrCreateValueInput) (*model.AttributeValue, error) {
	return nil, errors.New("not used")
}

func (f *fakeCatalogUseCase) GetAttribute(_ context.Context, _ string) (*model.Attribute, error) {
	return nil, nil
}

func (f *fakeCatalogUseCase) ListAttributes(_ context.Context, _ string) ([]model.Attribute, error) {
	return f.attrs, nil
}

func (f *fakeCatalogUseCase) RenameValue(_ context.Context, _ *dto.RenameValueInput) error {
	return nil
}

func (f *fakeCatalogUseCase) DeleteAttribute(_ context.Context, _ string) error {
	return nil
}

func newTestRouter(uc *fakeUseCase) http.Handler {
	h := NewPassportHandler(uc, &fakeCatalogUseCase{}, zap.NewNop())
	r := chi.NewRouter()
	r.Use(auth.BrandMiddleware)
	h.Routes(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, brandID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if brandID != "" {
		req.Header.Set("X-Brand-ID", brandID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePassportRequiresBrand(t *testing.T) {
	router := newTestRouter(newFakeUseCase())

	rec := doRequest(t, router, http.MethodPost, "/v1/passports", "", map[string]string{"name": "Jacket"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndGetPassport(t *testing.T) {
	uc := newFakeUseCase()
	router := newTestRouter(uc)

	rec := doRequest(t, router, http.MethodPost, "/v1/passports", "b1", map[string]string{"name": "Jacket"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Jacket", created.Name)
	assert.Equal(t, "b1", created.BrandID)

	rec = doRequest(t, router, http.MethodGet, "/v1/passports/"+created.ID, "b1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/v1/passports/unknown", "b1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPassportsEchoesPaging(t *testing.T) {
	uc := newFakeUseCase()
	router := newTestRouter(uc)
	doRequest(t, router, http.MethodPost, "/v1/passports", "b1", map[string]string{"name": "Jacket"})

	rec := doRequest(t, router, http.MethodGet, "/v1/passports?page=2&page_size=5", "b1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total    int `json:"total"`
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 5, resp.PageSize)
}

func TestGetMatrixRendersRows(t *testing.T) {
	uc := newFakeUseCase()
	uc.snapshot = matrix.ProductSnapshot{
		ProductID: "p1",
		Dimensions: []matrix.Dimension{{
			ID: "color", Name: "Color", AttributeID: "attr-Color",
			Values: []matrix.Value{{Token: "v-red", Name: "Red"}, {Token: "v-blue", Name: "Blue"}},
		}},
		Variants: []matrix.PersistedVariant{
			{ID: "var-1", Tokens: []string{"v-red"}, SKU: "R-1", Label: "Red"},
		},
	}
	router := newTestRouter(uc)

	rec := doRequest(t, router, http.MethodGet, "/v1/passports/p1/matrix", "b1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rows []matrix.Row `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "Red", resp.Rows[0].Label)
	assert.True(t, resp.Rows[0].Enabled)
	assert.False(t, resp.Rows[1].Enabled)
}

func TestSyncMatrixAppliesPlan(t *testing.T) {
	uc := newFakeUseCase()
	uc.snapshot = matrix.ProductSnapshot{
		ProductID: "p1",
		Dimensions: []matrix.Dimension{{
			ID: "color", Name: "Color", AttributeID: "attr-Color",
			Values: []matrix.Value{{Token: "v-red", Name: "Red"}},
		}},
		Variants: []matrix.PersistedVariant{
			{ID: "var-1", Tokens: []string{"v-red"}, SKU: "R-1"},
		},
	}
	router := newTestRouter(uc)

	body := map[string]interface{}{
		"dimensions": []matrix.Dimension{{
			ID: "color", Name: "Color", AttributeID: "attr-Color",
			Values: []matrix.Value{{Token: "v-red", Name: "Red"}, {Token: "v-blue", Name: "Blue"}},
		}},
		"enabled_keys": []string{"v-red", "v-blue"},
		"metadata": map[string]matrix.Meta{
			"v-red":  {SKU: "R-1"},
			"v-blue": {SKU: "B-1"},
		},
	}

	rec := doRequest(t, router, http.MethodPost, "/v1/passports/p1/matrix/sync", "b1", body)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, uc.synced, 1)
	plan := uc.synced[0]
	require.Len(t, plan.Creates, 1)
	assert.Equal(t, []string{"v-blue"}, plan.Creates[0].ValueIDs)
	assert.Equal(t, "B-1", plan.Creates[0].SKU)
	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "var-1", plan.Updates[0].ID)
}

func TestSyncMatrixValidationErrorsReturn422(t *testing.T) {
	uc := newFakeUseCase()
	router := newTestRouter(uc)

	body := map[string]interface{}{
		"dimensions": []matrix.Dimension{{
			ID: "color", Name: "",
			Values: []matrix.Value{{Token: "t1", Name: "Red"}, {Token: "t2", Name: "red"}},
		}},
		"enabled_keys": []string{},
	}

	rec := doRequest(t, router, http.MethodPost, "/v1/passports/p1/matrix/sync", "b1", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Fields []matrix.FieldError `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Fields)
	assert.Empty(t, uc.synced)
}

func TestSyncMatrixRejectsBadJSON(t *testing.T) {
	router := newTestRouter(newFakeUseCase())

	req := httptest.NewRequest(http.MethodPost, "/v1/passports/p1/matrix/sync", bytes.NewBufferString("{"))
	req.Header.Set("X-Brand-ID", "b1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportPassportsReturnsReport(t *testing.T) {
	uc := newFakeUseCase()
	uc.importReport = &passportdto.ImportReport{TotalRows: 3, Created: 2, Rejected: 1}
	router := newTestRouter(uc)

	csv := "product_name,upid,sku\nTee,UPID-1,SKU-1\n"
	req := httptest.NewRequest(http.MethodPost, "/v1/passports/import", bytes.NewBufferString(csv))
	req.Header.Set("X-Brand-ID", "b1")
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, csv, uc.importedCSV)

	var resp passportdto.ImportReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.TotalRows)
	assert.Equal(t, 2, resp.Created)
	assert.Equal(t, 1, resp.Rejected)
}

func TestImportPassportsRejectsBadHeader(t *testing.T) {
	uc := newFakeUseCase()
	uc.importErr = passport.ErrImportHeader
	router := newTestRouter(uc)

	req := httptest.NewRequest(http.MethodPost, "/v1/passports/import", bytes.NewBufferString("ProductName,UPID\n"))
	req.Header.Set("X-Brand-ID", "b1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportPassportsRequiresBrand(t *testing.T) {
	router := newTestRouter(newFakeUseCase())

	req := httptest.NewRequest(http.MethodPost, "/v1/passports/import", bytes.NewBufferString(""))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeletePassport(t *testing.T) {
	uc := newFakeUseCase()
	router := newTestRouter(uc)
	rec := doRequest(t, router, http.MethodPost, "/v1/passports", "b1", map[string]string{"name": "Jacket"})
	var created model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doRequest(t, router, http.MethodDelete, "/v1/passports/"+created.ID, "b1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, uc.products)
}
