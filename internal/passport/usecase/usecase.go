package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avelero/passport-service/internal/broker"
	"github.com/avelero/passport-service/internal/catalog"
	"github.com/avelero/passport-service/internal/category"
	"github.com/avelero/passport-service/internal/matrix"
	"github.com/avelero/passport-service/internal/model"
	"github.com/avelero/passport-service/internal/passport"
	"github.com/avelero/passport-service/internal/passport/dto"
	"github.com/avelero/passport-service/internal/search"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type passportUseCase struct {
	repo       passport.Repository
	catalogUC  catalog.UseCase
	categoryUC category.UseCase
	cache      *redis.Client
	es         *search.Client
	producer   *broker.KafkaProducer
	logger     *zap.Logger
}

func NewPassportUseCase(
	repo passport.Repository,
	catalogUC catalog.UseCase,
	categoryUC category.UseCase,
	cache *redis.Client,
	es *search.Client,
	producer *broker.KafkaProducer,
	log *zap.Logger,
) passport.UseCase {
	return &passportUseCase{
		repo:       repo,
		catalogUC:  catalogUC,
		categoryUC: categoryUC,
		cache:      cache,
		es:         es,
		producer:   producer,
		logger:     log,
	}
}

func (uc *passportUseCase) CreatePassport(ctx context.Context, input *dto.CreatePassportInput) (*model.Product, error) {
	if input.Name == "" {
		return nil, errors.New("passport name is required")
	}

	id := uuid.New().String()
	now := time.Now()

	p := &model.Product{
		BaseModel:       model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		BrandID:         input.BrandID,
		UPID:            optional(input.UPID),
		Name:            input.Name,
		Description:     optional(input.Description),
		CategoryID:      optional(input.CategoryID),
		Season:          optional(input.Season),
		CountryOfOrigin: optional(input.CountryOfOrigin),
		CareNotes:       optional(input.CareNotes),
		Status:          "draft",
		ImageURL:        optional(input.ImageURL),
		IsActive:        true,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	// Every product carries at least one variant row from birth; with an
	// empty matrix that row is the ghost.
	ghost := matrix.Plan{Creates: []matrix.PlannedVariant{{ID: uuid.New().String(), IsGhost: true}}}
	if err := uc.repo.ApplyVariantPlan(ctx, id, ghost); err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background(), input.BrandID)
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *passportUseCase) GetPassport(ctx context.Context, id string) (*model.Product, error) {
	cacheKey := "passports:detail:" + id
	if val, err := uc.cache.Get(ctx, cacheKey).Result(); err == nil {
		var p model.Product
		if err := json.Unmarshal([]byte(val), &p); err == nil {
			return &p, nil
		}
	}

	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	variants, err := uc.repo.ListVariants(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Variants = variants

	if data, err := json.Marshal(p); err == nil {
		uc.cache.Set(ctx, cacheKey, data, 5*time.Minute)
	}
	return p, nil
}

func (uc *passportUseCase) ListPassports(ctx context.Context, filters *dto.PassportFilters) ([]model.Product, int, error) {
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil {
		if val, err := uc.cache.Get(ctx, cacheKey).Result(); err == nil {
			var result struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Products, result.Count, nil
			}
		}
	}

	if filters.SearchQuery != "" && uc.es != nil {
		q := map[string]interface{}{
			"query": map[string]interface{}{
				"bool": map[string]interface{}{
					"must": []map[string]interface{}{
						{
							"query_string": map[string]interface{}{
								"query":  fmt.Sprintf("*%s*", filters.SearchQuery),
								"fields": []string{"name^3", "skus", "barcodes", "description"},
							},
						},
						{
							"term": map[string]interface{}{
								"brand_id": filters.BrandID,
							},
						},
					},
				},
			},
			"from": (filters.Page - 1) * filters.PageSize,
		}
		if filters.PageSize > 0 {
			q["size"] = filters.PageSize
		}

		res, err := uc.es.Search(ctx, "passports", q)
		if err == nil {
			var products []model.Product
			for _, hit := range res.Hits.Hits {
				var p model.Product
				if err := json.Unmarshal(hit.Source, &p); err == nil {
					products = append(products, p)
				}
			}
			return products, res.Hits.Total.Value, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		cacheData := struct {
			Products []model.Product
			Count    int
		}{Products: products, Count: count}
		if data, err := json.Marshal(cacheData); err == nil {
			uc.cache.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}

	return products, count, nil
}

func (uc *passportUseCase) UpdatePassport(ctx context.Context, input *dto.UpdatePassportInput) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("passport not found")
	}

	p.UPID = optional(input.UPID)
	p.Name = input.Name
	p.Description = optional(input.Description)
	p.CategoryID = optional(input.CategoryID)
	p.Season = optional(input.Season)
	p.CountryOfOrigin = optional(input.CountryOfOrigin)
	p.CareNotes = optional(input.CareNotes)
	p.ImageURL = optional(input.ImageURL)
	if input.Status != "" {
		p.Status = input.Status
	}
	p.IsActive = input.IsActive
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidatePassportCache(context.Background(), p)
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *passportUseCase) DeletePassport(ctx context.Context, id string) error {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil // Already deleted
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	go uc.invalidatePassportCache(context.Background(), p)
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), "passports", id); err != nil {
				uc.logger.Error("failed to delete passport from ES", zap.Error(err))
			}
		}()
	}
	return nil
}

// NewMatrixSession builds a reconciler session hydrated from the product's
// canonical state, with this usecase as its persistence collaborator and the
// catalog scoped to the brand.
func (uc *passportUseCase) NewMatrixSession(ctx context.Context, brandID, productID string) (*matrix.Session, error) {
	snap, err := uc.FetchProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	session := matrix.NewSession(productID, &brandCatalog{uc: uc.catalogUC, brandID: brandID}, uc, uc.logger)
	session.Hydrate(snap)
	return session, nil
}

// SyncVariants implements matrix.Store. Created rows get their identifiers
// assigned here before the plan reaches the repository.
func (uc *passportUseCase) SyncVariants(ctx context.Context, productID string, plan matrix.Plan) error {
	for i := range plan.Creates {
		if plan.Creates[i].ID == "" {
			plan.Creates[i].ID = uuid.New().String()
		}
	}

	if err := uc.repo.ApplyVariantPlan(ctx, productID, plan); err != nil {
		return err
	}

	p, err := uc.repo.FindByID(ctx, productID)
	if err == nil && p != nil {
		go uc.invalidatePassportCache(context.Background(), p)
		go uc.syncToElastic(context.Background(), p)
	}
	go uc.publishSyncEvent(context.Background(), productID, plan)

	return nil
}

// FetchProduct implements matrix.Store: the product's attributes become
// dimensions (values filtered to the ones its variants use) and its variant
// rows become the persisted oracle, tokens ordered by attribute position.
func (uc *passportUseCase) FetchProduct(ctx context.Context, productID string) (matrix.ProductSnapshot, error) {
	attrs, err := uc.repo.ListProductAttributes(ctx, productID)
	if err != nil {
		return matrix.ProductSnapshot{}, err
	}
	variants, err := uc.repo.ListVariants(ctx, productID)
	if err != nil {
		return matrix.ProductSnapshot{}, err
	}

	attrPos := make(map[string]int, len(attrs))
	for i, a := range attrs {
		attrPos[a.ID] = i
	}

	used := make([]map[string]struct{}, len(attrs))
	for i := range used {
		used[i] = map[string]struct{}{}
	}

	snap := matrix.ProductSnapshot{ProductID: productID}
	for _, v := range variants {
		pv := matrix.PersistedVariant{
			ID:           v.ID,
			SKU:          v.SKU,
			Label:        v.DisplayName,
			HasOverrides: v.HasOverrides,
			IsGhost:      v.IsGhost,
		}
		if v.Barcode != nil {
			pv.Barcode = *v.Barcode
		}

		tokens := make([]string, len(attrs))
		found := 0
		for _, link := range v.AttributeValues {
			pos, ok := attrPos[link.AttributeID]
			if !ok {
				continue
			}
			tokens[pos] = link.ValueID
			used[pos][link.ValueID] = struct{}{}
			found++
		}
		if found == len(attrs) && found > 0 {
			pv.Tokens = tokens
		}
		snap.Variants = append(snap.Variants, pv)
	}

	for i, a := range attrs {
		dim := matrix.Dimension{
			ID:          a.ID,
			Kind:        matrix.KindCatalog,
			Name:        a.Name,
			AttributeID: a.ID,
		}
		if a.TaxonomyRef != nil {
			dim.TaxonomyRef = *a.TaxonomyRef
		}
		for _, val := range a.Values {
			if _, ok := used[i][val.ID]; !ok {
				continue
			}
			v := matrix.Value{Token: val.ID, Name: val.Name}
			if val.Swatch != nil {
				v.Swatch = *val.Swatch
			}
			dim.Values = append(dim.Values, v)
		}
		snap.Dimensions = append(snap.Dimensions, dim)
	}

	return snap, nil
}

func (uc *passportUseCase) InvalidatePassport(ctx context.Context, productID string) error {
	p, err := uc.repo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	uc.invalidatePassportCache(ctx, p)
	return nil
}

func (uc *passportUseCase) generateCacheKey(filters *dto.PassportFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("passports:list:%s:%x", filters.BrandID, md5.Sum(data)), nil
}

func (uc *passportUseCase) invalidateListCache(ctx context.Context, brandID string) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("passports:list:%s:*", brandID)
	keys, err := uc.cache.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Del(ctx, keys...)
	}
}

func (uc *passportUseCase) invalidatePassportCache(ctx context.Context, p *model.Product) {
	if uc.cache == nil {
		return
	}
	uc.cache.Del(ctx, "passports:detail:"+p.ID)
	uc.invalidateListCache(ctx, p.BrandID)
}

func (uc *passportUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	const indexName = "passports"

	mapping := `{
		"mappings": {
			"properties": {
				"brand_id": { "type": "keyword" },
				"name": { "type": "text" },
				"description": { "type": "text" },
				"status": { "type": "keyword" },
				"skus": { "type": "keyword" },
				"barcodes": { "type": "keyword" },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, indexName, mapping)

	variants, err := uc.repo.ListVariants(ctx, p.ID)
	if err != nil {
		uc.logger.Error("failed to load variants for indexing", zap.Error(err))
		return
	}

	doc := map[string]interface{}{
		"id":         p.ID,
		"brand_id":   p.BrandID,
		"name":       p.Name,
		"status":     p.Status,
		"created_at": p.CreatedAt,
	}
	if p.Description != nil {
		doc["description"] = *p.Description
	}
	var skus, barcodes []string
	for _, v := range variants {
		if v.SKU != "" {
			skus = append(skus, v.SKU)
		}
		if v.Barcode != nil && *v.Barcode != "" {
			barcodes = append(barcodes, *v.Barcode)
		}
	}
	doc["skus"] = skus
	doc["barcodes"] = barcodes

	if err := uc.es.Index(ctx, indexName, p.ID, doc); err != nil {
		uc.logger.Error("failed to index passport", zap.Error(err))
	}
}

type variantsSyncedEvent struct {
	EventID   string        `json:"event_id"`
	EventType string        `json:"event_type"`
	Payload   syncedPayload `json:"payload"`
	Timestamp time.Time     `json:"timestamp"`
}

type syncedPayload struct {
	ProductID string `json:"product_id"`
	Creates   int    `json:"creates"`
	Updates   int    `json:"updates"`
	Deletes   int    `json:"deletes"`
}

func (uc *passportUseCase) publishSyncEvent(ctx context.Context, productID string, plan matrix.Plan) {
	if uc.producer == nil {
		return
	}
	event := variantsSyncedEvent{
		EventID:   uuid.New().String(),
		EventType: "PassportVariantsSynced",
		Payload: syncedPayload{
			ProductID: productID,
			Creates:   len(plan.Creates),
			Updates:   len(plan.Updates),
			Deletes:   len(plan.Deletes),
		},
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := uc.producer.WriteMessage(ctx, []byte(productID), data); err != nil {
		uc.logger.Error("failed to publish sync event",
			zap.String("product_id", productID), zap.Error(err))
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
