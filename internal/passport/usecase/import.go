package usecase

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	categorydto "github.com/avelero/passport-service/internal/category/dto"
	"github.com/avelero/passport-service/internal/matrix"
	"github.com/avelero/passport-service/internal/model"
	"github.com/avelero/passport-service/internal/passport"
	"github.com/avelero/passport-service/internal/passport/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// importColumns is the import template's header, in order. The header row
// must match it exactly before any data row is read.
var importColumns = []string{
	"product_name", "upid", "sku", "description", "category_name", "season",
	"primary_image_url", "color_name", "size_name", "product_image_url",
	"material_1_name", "material_1_percentage", "material_2_name", "material_2_percentage",
	"material_3_name", "material_3_percentage", "care_codes", "eco_claims", "environment_score",
}

const (
	importMaxNameLen        = 100
	importMaxDescriptionLen = 2000
)

var importCareCodes = map[string]struct{}{
	"MACHINE_WASH": {}, "HAND_WASH": {}, "DRY_CLEAN": {}, "DO_NOT_BLEACH": {},
	"TUMBLE_DRY": {}, "DO_NOT_IRON": {}, "IRON_LOW_HEAT": {},
}

var importEcoClaims = map[string]struct{}{
	"ORGANIC": {}, "RECYCLED": {}, "FAIR_TRADE": {}, "BLUESIGN": {}, "OEKO_TEX": {},
	"GOTS_CERTIFIED": {}, "CRADLE_TO_CRADLE": {},
}

type importMaterial struct {
	Name       string
	Percentage string
}

type importRow struct {
	Name            string
	UPID            string
	SKU             string
	Description     string
	Category        string
	Season          string
	ImageURL        string
	Color           string
	Size            string
	VariantImageURL string
	Materials       [3]importMaterial
	CareCodes       string
	EcoClaims       string
	EnvScore        string
}

// importAxis is one catalog attribute the import maps a CSV column onto,
// with its value names indexed case-insensitively.
type importAxis struct {
	attrID string
	name   string
	values map[string]string // lower(value name) -> value id
}

func (a importAxis) lookup(name string) (string, bool) {
	if a.attrID == "" {
		return "", false
	}
	id, ok := a.values[strings.ToLower(name)]
	return id, ok
}

type importCatalog struct {
	color      importAxis
	size       importAxis
	categories map[string]string // lower(category name) -> category id
}

// ImportPassports reads the CSV row by row, creating one passport per valid
// row and running its variant through the sync plan path. Color and size
// names must map onto existing catalog values; rows that fail any check are
// reported and skipped without touching the database.
func (uc *passportUseCase) ImportPassports(ctx context.Context, brandID string, r io.Reader) (*dto.ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, passport.ErrImportHeader
	}
	if err != nil {
		return nil, err
	}
	if !validImportHeader(header) {
		return nil, passport.ErrImportHeader
	}

	lookups, err := uc.loadImportCatalog(ctx, brandID)
	if err != nil {
		return nil, err
	}

	report := &dto.ImportReport{}
	seenUPID := map[string]int{}
	seenSKU := map[string]int{}

	for rowNum := 1; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		report.TotalRows++
		if err != nil {
			report.Rejected++
			report.Errors = append(report.Errors, dto.ImportRowError{
				Row: rowNum, Message: "malformed csv row",
			})
			continue
		}

		row := parseImportRow(record)
		errs := row.validate(rowNum)

		if row.UPID != "" {
			if first, dup := seenUPID[row.UPID]; dup {
				errs = append(errs, dto.ImportRowError{
					Row: rowNum, Column: "upid",
					Message: fmt.Sprintf("duplicate of row %d", first),
				})
			} else {
				seenUPID[row.UPID] = rowNum
			}
		}
		if row.SKU != "" {
			if first, dup := seenSKU[row.SKU]; dup {
				errs = append(errs, dto.ImportRowError{
					Row: rowNum, Column: "sku",
					Message: fmt.Sprintf("duplicate of row %d", first),
				})
			} else {
				seenSKU[row.SKU] = rowNum
			}
		}

		var colorID, sizeID, categoryID string
		if row.Color != "" {
			var ok bool
			if colorID, ok = lookups.color.lookup(row.Color); !ok {
				errs = append(errs, dto.ImportRowError{
					Row: rowNum, Column: "color_name",
					Message: fmt.Sprintf("unmapped value %q", row.Color),
				})
			}
		}
		if row.Size != "" {
			var ok bool
			if sizeID, ok = lookups.size.lookup(row.Size); !ok {
				errs = append(errs, dto.ImportRowError{
					Row: rowNum, Column: "size_name",
					Message: fmt.Sprintf("unmapped value %q", row.Size),
				})
			}
		}
		if row.Category != "" {
			var ok bool
			if categoryID, ok = lookups.categories[strings.ToLower(row.Category)]; !ok {
				errs = append(errs, dto.ImportRowError{
					Row: rowNum, Column: "category_name",
					Message: fmt.Sprintf("unmapped value %q", row.Category),
				})
			}
		}

		if len(errs) > 0 {
			report.Rejected++
			report.Errors = append(report.Errors, errs...)
			continue
		}

		if err := uc.createImportedPassport(ctx, brandID, row, categoryID, lookups, colorID, sizeID); err != nil {
			uc.logger.Error("failed to create imported passport",
				zap.Int("row", rowNum), zap.Error(err))
			report.Rejected++
			report.Errors = append(report.Errors, dto.ImportRowError{
				Row: rowNum, Message: err.Error(),
			})
			continue
		}
		report.Created++
	}

	go uc.invalidateListCache(context.Background(), brandID)
	go uc.publishImportEvent(context.Background(), brandID, report)

	return report, nil
}

func validImportHeader(header []string) bool {
	if len(header) != len(importColumns) {
		return false
	}
	for i, col := range importColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return false
		}
	}
	return true
}

func parseImportRow(record []string) importRow {
	fields := make(map[string]string, len(importColumns))
	for i, name := range importColumns {
		if i < len(record) {
			fields[name] = strings.TrimSpace(record[i])
		}
	}

	row := importRow{
		Name:            fields["product_name"],
		UPID:            fields["upid"],
		SKU:             fields["sku"],
		Description:     fields["description"],
		Category:        fields["category_name"],
		Season:          fields["season"],
		ImageURL:        fields["primary_image_url"],
		Color:           fields["color_name"],
		Size:            fields["size_name"],
		VariantImageURL: fields["product_image_url"],
		CareCodes:       fields["care_codes"],
		EcoClaims:       fields["eco_claims"],
		EnvScore:        fields["environment_score"],
	}
	for i := 0; i < 3; i++ {
		row.Materials[i] = importMaterial{
			Name:       fields[fmt.Sprintf("material_%d_name", i+1)],
			Percentage: fields[fmt.Sprintf("material_%d_percentage", i+1)],
		}
	}
	return row
}

func (row importRow) validate(rowNum int) []dto.ImportRowError {
	var errs []dto.ImportRowError
	add := func(column, message string) {
		errs = append(errs, dto.ImportRowError{Row: rowNum, Column: column, Message: message})
	}

	if row.Name == "" {
		add("product_name", "required")
	} else if len(row.Name) > importMaxNameLen {
		add("product_name", fmt.Sprintf("exceeds %d characters", importMaxNameLen))
	}
	if row.UPID == "" {
		add("upid", "required")
	}
	if row.SKU == "" {
		add("sku", "required")
	}
	if len(row.Description) > importMaxDescriptionLen {
		add("description", fmt.Sprintf("exceeds %d characters", importMaxDescriptionLen))
	}
	if row.ImageURL != "" && !validImportURL(row.ImageURL) {
		add("primary_image_url", "not a valid http(s) url")
	}
	if row.VariantImageURL != "" && !validImportURL(row.VariantImageURL) {
		add("product_image_url", "not a valid http(s) url")
	}

	sum := 0
	anyMaterial := false
	for i, m := range row.Materials {
		column := fmt.Sprintf("material_%d_percentage", i+1)
		if m.Name == "" && m.Percentage == "" {
			continue
		}
		anyMaterial = true
		if m.Name == "" {
			add(fmt.Sprintf("material_%d_name", i+1), "required when a percentage is given")
			continue
		}
		if m.Percentage == "" {
			add(column, "required when a material is given")
			continue
		}
		pct, err := strconv.Atoi(m.Percentage)
		if err != nil || pct < 1 || pct > 100 {
			add(column, "must be an integer between 1 and 100")
			continue
		}
		sum += pct
	}
	if anyMaterial && sum != 100 {
		add("material_1_percentage", fmt.Sprintf("percentages sum to %d, expected 100", sum))
	}

	for _, code := range splitImportList(row.CareCodes) {
		if _, ok := importCareCodes[code]; !ok {
			add("care_codes", fmt.Sprintf("unknown care code %q", code))
		}
	}
	for _, claim := range splitImportList(row.EcoClaims) {
		if _, ok := importEcoClaims[claim]; !ok {
			add("eco_claims", fmt.Sprintf("unknown eco claim %q", claim))
		}
	}

	if row.EnvScore != "" {
		score, err := strconv.Atoi(row.EnvScore)
		if err != nil || score < 0 || score > 100 {
			add("environment_score", "must be an integer between 0 and 100")
		}
	}

	return errs
}

func validImportURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func splitImportList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadImportCatalog snapshots the brand's color and size attributes and its
// category tree once per import, so row mapping never touches the database.
func (uc *passportUseCase) loadImportCatalog(ctx context.Context, brandID string) (importCatalog, error) {
	out := importCatalog{categories: map[string]string{}}

	attrs, err := uc.catalogUC.ListAttributes(ctx, brandID)
	if err != nil {
		return out, err
	}
	for _, a := range attrs {
		axis := importAxis{attrID: a.ID, name: a.Name, values: make(map[string]string, len(a.Values))}
		for _, v := range a.Values {
			axis.values[strings.ToLower(v.Name)] = v.ID
		}
		switch {
		case strings.EqualFold(a.Name, "Color"):
			out.color = axis
		case strings.EqualFold(a.Name, "Size"):
			out.size = axis
		}
	}

	if uc.categoryUC != nil {
		categories, _, err := uc.categoryUC.ListCategories(ctx, &categorydto.CategoryFilters{BrandID: brandID})
		if err != nil {
			return out, err
		}
		for _, c := range categories {
			out.categories[strings.ToLower(c.Name)] = c.ID
		}
	}

	return out, nil
}

// createImportedPassport persists one valid row. The variant goes through
// the same plan machinery as interactive matrix edits: a keyed create when
// color or size mapped, a position-addressed create otherwise.
func (uc *passportUseCase) createImportedPassport(
	ctx context.Context,
	brandID string,
	row importRow,
	categoryID string,
	lookups importCatalog,
	colorID, sizeID string,
) error {
	id := uuid.New().String()
	now := time.Now()

	p := &model.Product{
		BaseModel:   model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		BrandID:     brandID,
		UPID:        optional(row.UPID),
		Name:        row.Name,
		Description: optional(row.Description),
		CategoryID:  optional(categoryID),
		Season:      optional(row.Season),
		CareNotes:   optional(strings.Join(splitImportList(row.CareCodes), ", ")),
		Status:      "draft",
		ImageURL:    optional(row.ImageURL),
		IsActive:    true,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return err
	}

	s := matrix.NewState()
	var tokens []string
	if colorID != "" {
		s.Dimensions = append(s.Dimensions, matrix.Dimension{
			ID:          lookups.color.attrID,
			Kind:        matrix.KindCatalog,
			Name:        lookups.color.name,
			AttributeID: lookups.color.attrID,
			Values:      []matrix.Value{{Token: colorID, Name: row.Color}},
		})
		tokens = append(tokens, colorID)
	}
	if sizeID != "" {
		s.Dimensions = append(s.Dimensions, matrix.Dimension{
			ID:          lookups.size.attrID,
			Kind:        matrix.KindCatalog,
			Name:        lookups.size.name,
			AttributeID: lookups.size.attrID,
			Values:      []matrix.Value{{Token: sizeID, Name: row.Size}},
		})
		tokens = append(tokens, sizeID)
	}

	if len(tokens) > 0 {
		k := matrix.MustEncode(tokens)
		s.Enable(k)
		s.SetMeta(k, matrix.Meta{SKU: row.SKU})
	} else {
		s.Explicit = []matrix.ExplicitVariant{{SKU: row.SKU}}
	}

	plan := matrix.BuildPlan(s)
	for i := range plan.Creates {
		if plan.Creates[i].ID == "" {
			plan.Creates[i].ID = uuid.New().String()
		}
	}
	if err := uc.repo.ApplyVariantPlan(ctx, id, plan); err != nil {
		return err
	}

	go uc.syncToElastic(context.Background(), p)
	return nil
}

type importedEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   importedPayload `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type importedPayload struct {
	BrandID   string `json:"brand_id"`
	TotalRows int    `json:"total_rows"`
	Created   int    `json:"created"`
	Rejected  int    `json:"rejected"`
}

func (uc *passportUseCase) publishImportEvent(ctx context.Context, brandID string, report *dto.ImportReport) {
	if uc.producer == nil {
		return
	}
	event := importedEvent{
		EventID:   uuid.New().String(),
		EventType: "PassportsImported",
		Payload: importedPayload{
			BrandID:   brandID,
			TotalRows: report.TotalRows,
			Created:   report.Created,
			Rejected:  report.Rejected,
		},
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := uc.producer.WriteMessage(ctx, []byte(brandID), data); err != nil {
		uc.logger.Error("failed to publish import event",
			zap.String("brand_id", brandID), zap.Error(err))
	}
}
