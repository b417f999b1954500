package model

// Category groups passports into a brand's collection tree (e.g. a season's
// line and its sub-lines). Children is populated only for tree responses.
type Category struct {
	BaseModel
	BrandID     string     `db:"brand_id" json:"brand_id"`
	ParentID    *string    `db:"parent_id" json:"parent_id"` // Nullable
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description"`
	ImageURL    *string    `db:"image_url" json:"image_url"`
	SortOrder   int        `db:"sort_order" json:"sort_order"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	Children    []Category `db:"-" json:"children,omitempty"`
}
