package model

// Product is a brand's product passport: the base record carrying compliance
// metadata plus the variant rows generated from its attribute matrix.
type Product struct {
	BaseModel
	BrandID         string  `db:"brand_id" json:"brand_id"`
	UPID            *string `db:"upid" json:"upid"` // Unique product identifier, nullable
	Name            string  `db:"name" json:"name"`
	Description     *string `db:"description" json:"description"`
	CategoryID      *string `db:"category_id" json:"category_id"` // Nullable
	Season          *string `db:"season" json:"season"`
	CountryOfOrigin *string `db:"country_of_origin" json:"country_of_origin"`
	CareNotes       *string `db:"care_notes" json:"care_notes"`
	Status          string  `db:"status" json:"status"` // draft, published, archived
	ImageURL        *string `db:"image_url" json:"image_url"`
	IsActive        bool    `db:"is_active" json:"is_active"`

	Variants []Variant `db:"-" json:"variants"` // Not in DB table directly
}

// Variant is one concrete combination of attribute values under a product.
// A ghost variant carries no attribute values; it exists only so a product
// with an empty matrix still has one variant row.
type Variant struct {
	BaseModel
	ProductID    string  `db:"product_id" json:"product_id"`
	SKU          string  `db:"sku" json:"sku"`
	Barcode      *string `db:"barcode" json:"barcode"`
	DisplayName  string  `db:"display_name" json:"display_name"`
	Position     int     `db:"position" json:"position"`
	IsGhost      bool    `db:"is_ghost" json:"is_ghost"`
	HasOverrides bool    `db:"has_overrides" json:"has_overrides"`

	AttributeValues []VariantAttributeValue `db:"-" json:"attribute_values"` // Joined data
}

// VariantAttributeValue pins one variant to one value of one attribute.
type VariantAttributeValue struct {
	VariantID   string `db:"variant_id" json:"variant_id"`
	AttributeID string `db:"attribute_id" json:"attribute_id"`
	ValueID     string `db:"value_id" json:"value_id"`
}
