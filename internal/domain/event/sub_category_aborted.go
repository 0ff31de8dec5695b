package event

import "danawa/crawler/internal/domain"

type SubCategoryAbortedEvent struct {
	CategoryName string             `json:"category_name"`
	SubCategory  domain.SubCategory `json:"sub_category"`
	URL          string             `json:"url"`
	PageNumber   int                `json:"page_number"`
	Cause        string             `json:"cause"` // setup, timeout, interaction, render
	Error        string             `json:"error"`
}

func (e *SubCategoryAbortedEvent) EventType() string {
	return "SubCategoryAbortedEvent"
}

func (e *SubCategoryAbortedEvent) EventValue() ([]byte, error) {
	return DefaultEventValue(e)
}
