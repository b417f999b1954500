package dto

type CategoryFilters struct {
	BrandID  string
	ParentID *string // Nil means ignore, empty string means root categories
	IsActive *bool
	Page     int
	PageSize int
}
