package event

import "danawa/crawler/internal/domain"

type PageDoneEvent struct {
	CategoryName string             `json:"category_name"`
	SubCategory  domain.SubCategory `json:"sub_category"`
	PageNumber   int                `json:"page_number"`   // 1-based
	TotalPages   int                `json:"total_pages"`   // 0 when the total is unknown
	Stats        domain.PageStats   `json:"stats"`         // counters of this page only
	Collected    int                `json:"collected"`     // records in the category set so far
}

func (e *PageDoneEvent) EventType() string {
	return "PageDoneEvent"
}

func (e *PageDoneEvent) EventValue() ([]byte, error) {
	return DefaultEventValue(e)
}
