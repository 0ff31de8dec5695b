// Package dedup holds the per-category record set.
package dedup

import (
	"slices"
	"strings"

	"danawa/crawler/internal/domain"
)

// Set is an insert-only collection of records keyed by name. The first
// record stored under a name wins; later records with that name are
// reported as duplicates and dropped, even if their price or link differ.
//
// A Set is owned by one category run and is not safe for concurrent use.
type Set struct {
	records map[string]domain.Record
}

func New() *Set {
	return &Set{
		records: make(map[string]domain.Record),
	}
}

// Insert stores r if its name is new and reports whether it was.
func (s *Set) Insert(r domain.Record) bool {
	if _, ok := s.records[r.Key()]; ok {
		return false
	}
	s.records[r.Key()] = r
	return true
}

// Get returns the record stored under name.
func (s *Set) Get(name string) (domain.Record, bool) {
	r, ok := s.records[name]
	return r, ok
}

func (s *Set) Len() int {
	return len(s.records)
}

// Sorted returns the records ordered by name using byte-wise comparison.
func (s *Set) Sorted() []domain.Record {
	out := make([]domain.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.Record) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
