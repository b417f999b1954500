package dto

// ImportRowError pins one rejected CSV row to the column that failed.
// Row numbering is 1-based over data rows, excluding the header.
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

// ImportReport summarizes a bulk CSV import. A row either becomes a
// passport or shows up in Errors; partial rows are never written.
type ImportReport struct {
	TotalRows int              `json:"total_rows"`
	Created   int              `json:"created"`
	Rejected  int              `json:"rejected"`
	Errors    []ImportRowError `json:"errors"`
}
