package domain

// Feature represents the feature table in SQL DB
type Feature struct {
	ID        int64  `json:"id" db:"id"`
	Brand     string `json:"brand" db:"brand"`
	Country   string `json:"country" db:"country"`
	Content   string `json:"content" db:"content"`
	SubNumber int    `json:"sub_number" db:"sub_number"`
}

// FieldValue exposes the feature columns by their db name for the Excel exporter.
func (f Feature) FieldValue(name string) (interface{}, bool) {
	switch name {
	case "id":
		return f.ID, true
	case "brand":
		return f.Brand, true
	case "country":
		return f.Country, true
	case "content":
		return f.Content, true
	case "sub_number":
		return f.SubNumber, true
	}
	return nil, false
}

// FeatureFilter narrows a feature listing. Empty Brands lists every brand,
// a zero Limit every row.
type FeatureFilter struct {
	Brands []string
	Limit  int
}
