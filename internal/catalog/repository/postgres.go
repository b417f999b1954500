package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/avelero/passport-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateAttribute(ctx context.Context, a *model.Attribute) error {
	query := `
        INSERT INTO attributes (id, brand_id, name, taxonomy_ref, is_active, created_at, updated_at)
        VALUES (:id, :brand_id, :name, :taxonomy_ref, :is_active, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, a)
	return err
}

func (r *PGRepository) FindAttributeByID(ctx context.Context, id string) (*model.Attribute, error) {
	var attr model.Attribute
	query := `SELECT * FROM attributes WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &attr, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &attr, nil
}

// FindAttributeByName matches case-insensitively: "Color" and "color" are
// the same attribute, which is what makes find-or-create idempotent on
// retry.
func (r *PGRepository) FindAttributeByName(ctx context.Context, brandID, name string) (*model.Attribute, error) {
	var attr model.Attribute
	query := `SELECT * FROM attributes WHERE brand_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`
	err := r.DB.GetContext(ctx, &attr, query, brandID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &attr, nil
}

func (r *PGRepository) ListAttributes(ctx context.Context, brandID string) ([]model.Attribute, error) {
	var attrs []model.Attribute
	query := `SELECT * FROM attributes WHERE brand_id = $1 AND is_active = true ORDER BY name`
	err := r.DB.SelectContext(ctx, &attrs, query, brandID)
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

func (r *PGRepository) DeleteAttribute(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM attributes WHERE id = $1`, id)
	return err
}

func (r *PGRepository) CreateValue(ctx context.Context, v *model.AttributeValue) error {
	query := `
        INSERT INTO attribute_values (id, attribute_id, name, taxonomy_value_ref, swatch, sort_order, created_at, updated_at)
        VALUES (:id, :attribute_id, :name, :taxonomy_value_ref, :swatch, :sort_order, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, v)
	return err
}

func (r *PGRepository) FindValueByName(ctx context.Context, attributeID, name string) (*model.AttributeValue, error) {
	var value model.AttributeValue
	query := `SELECT * FROM attribute_values WHERE attribute_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`
	err := r.DB.GetContext(ctx, &value, query, attributeID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &value, nil
}

func (r *PGRepository) ListValues(ctx context.Context, attributeID string) ([]model.AttributeValue, error) {
	var values []model.AttributeValue
	query := `SELECT * FROM attribute_values WHERE attribute_id = $1 ORDER BY sort_order, name`
	err := r.DB.SelectContext(ctx, &values, query, attributeID)
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (r *PGRepository) RenameValue(ctx context.Context, id, name string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE attribute_values SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	return err
}
