package event

import "danawa/crawler/internal/domain"

type CategoryDoneEvent struct {
	Summary domain.CategorySummary `json:"summary"`
}

func (e *CategoryDoneEvent) EventType() string {
	return "CategoryDoneEvent"
}

func (e *CategoryDoneEvent) EventValue() ([]byte, error) {
	return DefaultEventValue(e)
}

type SweepDoneEvent struct {
	Summary domain.SweepSummary `json:"summary"`
}

func (e *SweepDoneEvent) EventType() string {
	return "SweepDoneEvent"
}

func (e *SweepDoneEvent) EventValue() ([]byte, error) {
	return DefaultEventValue(e)
}
