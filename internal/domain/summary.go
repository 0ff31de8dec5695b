package domain

import "time"

// PageStats are the per-page counters of one extraction pass.
type PageStats struct {
	Inserted   int `json:"inserted"`
	Malformed  int `json:"malformed"`
	Duplicates int `json:"duplicates"`
}

// Add accumulates other into s.
func (s *PageStats) Add(other PageStats) {
	s.Inserted += other.Inserted
	s.Malformed += other.Malformed
	s.Duplicates += other.Duplicates
}

// CategorySummary describes the outcome of one category in a sweep.
type CategorySummary struct {
	CategoryID       int           `json:"category_id"`
	CategoryName     string        `json:"category_name"`
	Records          int           `json:"records"`
	RowsAffected     int64         `json:"rows_affected"`
	Stats            PageStats     `json:"stats"`
	FailedSubs       []SubCategory `json:"failed_sub_categories,omitempty"`
	PersistenceError string        `json:"persistence_error,omitempty"`
	ExportPath       string        `json:"export_path,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
}

// SweepSummary describes one full scheduled run.
type SweepSummary struct {
	Categories []CategorySummary `json:"categories"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}
