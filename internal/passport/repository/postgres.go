package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/avelero/passport-service/internal/matrix"
	"github.com/avelero/passport-service/internal/model"
	"github.com/avelero/passport-service/internal/passport/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, brand_id, upid, name, description, category_id, season,
            country_of_origin, care_notes, status, image_url, is_active,
            created_at, updated_at
        )
        VALUES (
            :id, :brand_id, :upid, :name, :description, :category_id, :season,
            :country_of_origin, :care_notes, :status, :image_url, :is_active,
            :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.PassportFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.BrandID != "" {
		conditions = append(conditions, "brand_id = :brand_id")
		args["brand_id"] = f.BrandID
	}
	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, `(name ILIKE :search OR upid ILIKE :search OR EXISTS (
            SELECT 1 FROM variants v
            WHERE v.product_id = products.id
              AND (v.sku ILIKE :search OR v.barcode ILIKE :search)
        ))`)
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	orderBy := "created_at DESC"
	if f.SortBy != "" {
		// Whitelist sortable fields
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "created_at":
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s", whereClause, orderBy)
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &products, args)
	if err != nil {
		return nil, 0, err
	}

	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET upid = :upid,
            name = :name,
            description = :description,
            category_id = :category_id,
            season = :season,
            country_of_origin = :country_of_origin,
            care_notes = :care_notes,
            status = :status,
            image_url = :image_url,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id AND brand_id = :brand_id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	return err
}

func (r *PGRepository) ListVariants(ctx context.Context, productID string) ([]model.Variant, error) {
	var variants []model.Variant
	query := `SELECT * FROM variants WHERE product_id = $1 ORDER BY position, created_at`
	if err := r.DB.SelectContext(ctx, &variants, query, productID); err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return variants, nil
	}

	var links []model.VariantAttributeValue
	linkQuery := `
        SELECT vav.variant_id, vav.attribute_id, vav.value_id
        FROM variant_attribute_values vav
        JOIN variants v ON v.id = vav.variant_id
        WHERE v.product_id = $1
    `
	if err := r.DB.SelectContext(ctx, &links, linkQuery, productID); err != nil {
		return nil, err
	}

	byVariant := make(map[string][]model.VariantAttributeValue, len(variants))
	for _, l := range links {
		byVariant[l.VariantID] = append(byVariant[l.VariantID], l)
	}
	for i := range variants {
		variants[i].AttributeValues = byVariant[variants[i].ID]
	}
	return variants, nil
}

func (r *PGRepository) ListProductAttributes(ctx context.Context, productID string) ([]model.Attribute, error) {
	var attrs []model.Attribute
	query := `
        SELECT a.*
        FROM attributes a
        JOIN product_attributes pa ON pa.attribute_id = a.id
        WHERE pa.product_id = $1
        ORDER BY pa.position
    `
	if err := r.DB.SelectContext(ctx, &attrs, query, productID); err != nil {
		return nil, err
	}

	for i := range attrs {
		var values []model.AttributeValue
		valueQuery := `SELECT * FROM attribute_values WHERE attribute_id = $1 ORDER BY sort_order, name`
		if err := r.DB.SelectContext(ctx, &values, valueQuery, attrs[i].ID); err != nil {
			return nil, err
		}
		attrs[i].Values = values
	}
	return attrs, nil
}

// ApplyVariantPlan executes the plan's deletes, creates and updates in one
// transaction and rewrites the product's attribute order from the plan's
// value identifiers. Created rows must arrive with identifiers already
// assigned.
func (r *PGRepository) ApplyVariantPlan(ctx context.Context, productID string, plan matrix.Plan) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range plan.Deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM variants WHERE id = $1 AND product_id = $2`, id, productID); err != nil {
			return err
		}
	}

	for _, pv := range plan.Creates {
		if err := r.insertVariant(ctx, tx, productID, pv); err != nil {
			return err
		}
	}
	for _, pv := range plan.Updates {
		if err := r.updateVariant(ctx, tx, productID, pv); err != nil {
			return err
		}
	}

	if err := r.rewriteProductAttributes(ctx, tx, productID, plan); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PGRepository) insertVariant(ctx context.Context, tx *sqlx.Tx, productID string, pv matrix.PlannedVariant) error {
	label, err := r.variantLabel(ctx, tx, pv.ValueIDs)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO variants (id, product_id, sku, barcode, display_name, position, is_ghost, has_overrides, created_at, updated_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, false, NOW(), NOW())
    `
	if _, err := tx.ExecContext(ctx, query, pv.ID, productID, pv.SKU, pv.Barcode, label, pv.Position, pv.IsGhost); err != nil {
		return err
	}
	return r.linkValues(ctx, tx, pv)
}

func (r *PGRepository) updateVariant(ctx context.Context, tx *sqlx.Tx, productID string, pv matrix.PlannedVariant) error {
	label, err := r.variantLabel(ctx, tx, pv.ValueIDs)
	if err != nil {
		return err
	}
	query := `
        UPDATE variants
        SET sku = $3, barcode = NULLIF($4, ''), display_name = $5, position = $6, is_ghost = $7, updated_at = NOW()
        WHERE id = $1 AND product_id = $2
    `
	res, err := tx.ExecContext(ctx, query, pv.ID, productID, pv.SKU, pv.Barcode, label, pv.Position, pv.IsGhost)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("variant %s not found for product %s", pv.ID, productID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM variant_attribute_values WHERE variant_id = $1`, pv.ID); err != nil {
		return err
	}
	return r.linkValues(ctx, tx, pv)
}

func (r *PGRepository) linkValues(ctx context.Context, tx *sqlx.Tx, pv matrix.PlannedVariant) error {
	for _, valueID := range pv.ValueIDs {
		query := `
            INSERT INTO variant_attribute_values (variant_id, attribute_id, value_id)
            SELECT $1, attribute_id, id FROM attribute_values WHERE id = $2
        `
		res, err := tx.ExecContext(ctx, query, pv.ID, valueID)
		if err != nil {
			return err
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 0 {
			return fmt.Errorf("attribute value %s does not exist", valueID)
		}
	}
	return nil
}

func (r *PGRepository) variantLabel(ctx context.Context, tx *sqlx.Tx, valueIDs []string) (string, error) {
	names := make([]string, 0, len(valueIDs))
	for _, valueID := range valueIDs {
		var name string
		if err := tx.GetContext(ctx, &name, `SELECT name FROM attribute_values WHERE id = $1`, valueID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", fmt.Errorf("attribute value %s does not exist", valueID)
			}
			return "", err
		}
		names = append(names, name)
	}
	return strings.Join(names, " / "), nil
}

// rewriteProductAttributes derives the product's dimension order from the
// first keyed plan row. Value identifiers arrive in dimension order, so
// their attributes give the order directly.
func (r *PGRepository) rewriteProductAttributes(ctx context.Context, tx *sqlx.Tx, productID string, plan matrix.Plan) error {
	var sample []string
	for _, pv := range plan.Creates {
		if len(pv.ValueIDs) > 0 {
			sample = pv.ValueIDs
			break
		}
	}
	if sample == nil {
		for _, pv := range plan.Updates {
			if len(pv.ValueIDs) > 0 {
				sample = pv.ValueIDs
				break
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_attributes WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for pos, valueID := range sample {
		query := `
            INSERT INTO product_attributes (product_id, attribute_id, position)
            SELECT $1, attribute_id, $2 FROM attribute_values WHERE id = $3
        `
		if _, err := tx.ExecContext(ctx, query, productID, pos, valueID); err != nil {
			return err
		}
	}
	return nil
}
