package domain

// RawRecord is one listing node as it appears in the markup, before normalization.
type RawRecord struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Link  string `json:"link"`
}

// Record is a normalized catalog listing. Name is the business key: two
// records with the same name are the same listing regardless of price or link.
type Record struct {
	Name  string `json:"name"`
	Price int    `json:"price"` // 0 means price unavailable or pending
	Link  string `json:"link"`
}

// Key returns the identity of the record.
func (r Record) Key() string {
	return r.Name
}
