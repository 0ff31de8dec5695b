package dedup

import (
	"testing"

	"danawa/crawler/internal/domain"
)

func TestInsertIdentityIsName(t *testing.T) {
	s := New()
	first := domain.Record{Name: "Monitor A", Price: 1200, Link: "http://x/a"}
	second := domain.Record{Name: "Monitor A", Price: 1150, Link: "http://x/other"}

	if !s.Insert(first) {
		t.Fatalf("first insert should be novel")
	}
	if s.Insert(second) {
		t.Fatalf("second insert with same name should be a duplicate")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}

	got, ok := s.Get("Monitor A")
	if !ok || got != first {
		t.Fatalf("stored = %+v, want first-seen %+v", got, first)
	}
}

func TestInsertDistinctNames(t *testing.T) {
	s := New()
	for _, name := range []string{"a", "b", "c"} {
		if !s.Insert(domain.Record{Name: name, Link: "http://x/" + name}) {
			t.Fatalf("insert %q should be novel", name)
		}
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
}

func TestSortedIsOrdinalAscending(t *testing.T) {
	s := New()
	for _, name := range []string{"키보드", "mouse", "Monitor", "monitor", "Desk 2", "Desk 10"} {
		s.Insert(domain.Record{Name: name, Link: "http://x"})
	}

	got := s.Sorted()
	want := []string{"Desk 10", "Desk 2", "Monitor", "monitor", "mouse", "키보드"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("sorted[%d] = %q, want %q (all: %+v)", i, got[i].Name, want[i], got)
		}
	}

	again := s.Sorted()
	for i := range got {
		if again[i] != got[i] {
			t.Fatalf("sorting is not deterministic at %d", i)
		}
	}
}
