package dto

type PassportFilters struct {
	BrandID     string
	CategoryID  string
	Status      string
	IsActive    *bool
	SearchQuery string // name, variant sku/barcode
	SortBy      string // name, created_at
	SortOrder   string // asc, desc
	Page        int
	PageSize    int
}
