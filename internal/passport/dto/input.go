package dto

type CreatePassportInput struct {
	BrandID         string
	UPID            string
	Name            string
	Description     string
	CategoryID      string
	Season          string
	CountryOfOrigin string
	CareNotes       string
	ImageURL        string
}

type UpdatePassportInput struct {
	ID              string
	BrandID         string
	UPID            string
	Name            string
	Description     string
	CategoryID      string
	Season          string
	CountryOfOrigin string
	CareNotes       string
	ImageURL        string
	Status          string
	IsActive        bool
}
