package dto

type FindOrCreateAttributeInput struct {
	BrandID     string
	Name        string
	TaxonomyRef string
}

type FindOrCreateValueInput struct {
	AttributeID      string
	Name             string
	TaxonomyValueRef string
	Swatch           string
}

type RenameValueInput struct {
	ValueID string
	BrandID string
	Name    string
}
