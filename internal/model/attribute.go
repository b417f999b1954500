package model

// Attribute is a catalog-level axis of variation (e.g. Color, Size) owned by
// a brand. TaxonomyRef links it to a shared taxonomy concept when the
// attribute was created from a suggestion rather than free-form.
type Attribute struct {
	BaseModel
	BrandID     string  `db:"brand_id" json:"brand_id"`
	Name        string  `db:"name" json:"name"`
	TaxonomyRef *string `db:"taxonomy_ref" json:"taxonomy_ref"` // Nullable
	IsActive    bool    `db:"is_active" json:"is_active"`

	Values []AttributeValue `db:"-" json:"values"` // Joined data
}

type AttributeValue struct {
	BaseModel
	AttributeID      string  `db:"attribute_id" json:"attribute_id"`
	Name             string  `db:"name" json:"name"`
	TaxonomyValueRef *string `db:"taxonomy_value_ref" json:"taxonomy_value_ref"` // Nullable
	Swatch           *string `db:"swatch" json:"swatch"`                         // Hex color, nullable
	SortOrder        int     `db:"sort_order" json:"sort_order"`
}
