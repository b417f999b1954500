package dto

type CreateCategoryInput struct {
	BrandID     string
	ParentID    *string
	Name        string
	Description string
	ImageURL    string
	SortOrder   int
}

type UpdateCategoryInput struct {
	ID          string
	BrandID     string
	ParentID    *string
	Name        string
	Description string
	ImageURL    string
	SortOrder   int
	IsActive    bool
}
