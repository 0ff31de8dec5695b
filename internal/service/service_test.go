package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"danawa/crawler/internal/crawler"
	"danawa/crawler/internal/dedup"
	"danawa/crawler/internal/domain"
	"danawa/crawler/internal/domain/event"
	"danawa/crawler/internal/repository"
)

// fakeCrawler inserts the scripted records of each sub-category and then
// returns the scripted error, if any.
type fakeCrawler struct {
	records map[domain.SubCategory][]domain.Record
	errs    map[domain.SubCategory]error
	calls   []domain.SubCategory
}

func (f *fakeCrawler) Run(_ context.Context, _ domain.Category, sub domain.SubCategory, set *dedup.Set) (*crawler.Result, error) {
	f.calls = append(f.calls, sub)
	res := &crawler.Result{SubCategory: sub}
	for _, r := range f.records[sub] {
		if set.Insert(r) {
			res.Stats.Inserted++
		} else {
			res.Stats.Duplicates++
		}
	}
	return res, f.errs[sub]
}

type fakeRepository struct {
	repository.EquipmentRepository
	batches map[int][]domain.Record
	err     error
}

func (f *fakeRepository) UpsertBatch(_ context.Context, categoryID int, records []domain.Record) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.batches == nil {
		f.batches = make(map[int][]domain.Record)
	}
	f.batches[categoryID] = slices.Clone(records)
	return int64(len(records)), nil
}

type fakeExporter struct {
	exported map[string][]domain.Record
}

func (f *fakeExporter) Export(category domain.Category, records []domain.Record) (string, error) {
	if f.exported == nil {
		f.exported = make(map[string][]domain.Record)
	}
	f.exported[category.Name] = slices.Clone(records)
	return category.Name + ".csv", nil
}

type recordingReporter struct {
	types []string
}

func (r *recordingReporter) Report(_ context.Context, e event.Event) error {
	r.types = append(r.types, e.EventType())
	return nil
}

func rec(name string, price int) domain.Record {
	return domain.Record{Name: name, Price: price, Link: "http://x/" + name}
}

func names(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

var monitors = domain.Category{ID: 1, Name: "monitor", SubCategories: []domain.SubCategory{10, 20, 30}}

func TestRunCategoryDedupsAcrossSubCategoriesAndSorts(t *testing.T) {
	fc := &fakeCrawler{records: map[domain.SubCategory][]domain.Record{
		10: {rec("Zowie", 300), rec("Benq", 200)},
		20: {rec("Benq", 999), rec("Asus", 100)},
		30: {rec("LG", 400)},
	}}
	repo := &fakeRepository{}
	exp := &fakeExporter{}

	summary, err := NewService(fc, repo, exp, nil, nil, crawler.NewMetrics()).RunCategory(context.Background(), monitors)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"Asus", "Benq", "LG", "Zowie"}
	if got := names(repo.batches[1]); !slices.Equal(got, want) {
		t.Fatalf("batch = %v, want %v", got, want)
	}
	if got := names(exp.exported["monitor"]); !slices.Equal(got, want) {
		t.Fatalf("export = %v, want %v", got, want)
	}
	if repo.batches[1][1].Price != 200 {
		t.Fatalf("Benq price = %d, want first-seen 200", repo.batches[1][1].Price)
	}
	if summary.Records != 4 || summary.RowsAffected != 4 || summary.Stats.Duplicates != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRunCategoryContinuesAfterAbort(t *testing.T) {
	fc := &fakeCrawler{
		records: map[domain.SubCategory][]domain.Record{
			10: {rec("A", 1)},
			20: {rec("B", 2)},
			30: {rec("C", 3)},
		},
		errs: map[domain.SubCategory]error{
			20: &crawler.AbortError{Cause: crawler.CauseTimeout, URL: "https://x/?cate=20", Page: 2, Err: errors.New("wait timeout")},
		},
	}
	repo := &fakeRepository{}

	summary, err := NewService(fc, repo, &fakeExporter{}, nil, nil, nil).RunCategory(context.Background(), monitors)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !slices.Equal(fc.calls, []domain.SubCategory{10, 20, 30}) {
		t.Fatalf("calls = %v", fc.calls)
	}
	if !slices.Equal(summary.FailedSubs, []domain.SubCategory{20}) {
		t.Fatalf("failed = %v", summary.FailedSubs)
	}
	// records gathered before the abort are kept
	if got := names(repo.batches[1]); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Fatalf("batch = %v", got)
	}
}

func TestRunCategoryExportsWhenPersistenceFails(t *testing.T) {
	fc := &fakeCrawler{records: map[domain.SubCategory][]domain.Record{10: {rec("A", 1)}}}
	repo := &fakeRepository{err: fmt.Errorf("%w: connection reset", repository.ErrBatchRolledBack)}
	exp := &fakeExporter{}
	rep := &recordingReporter{}

	summary, err := NewService(fc, repo, exp, nil, rep, crawler.NewMetrics()).RunCategory(context.Background(), monitors)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.PersistenceError == "" || summary.RowsAffected != 0 {
		t.Fatalf("summary = %+v, want persistence error", summary)
	}
	if len(exp.exported["monitor"]) != 1 || summary.ExportPath != "monitor.csv" {
		t.Fatalf("export = %v path=%q", exp.exported, summary.ExportPath)
	}
	if !slices.Equal(rep.types, []string{"CategoryDoneEvent"}) {
		t.Fatalf("events = %v", rep.types)
	}
}

func TestRunSweepKeepsCategoriesSeparate(t *testing.T) {
	keyboards := domain.Category{ID: 2, Name: "keyboard", SubCategories: []domain.SubCategory{40}}
	fc := &fakeCrawler{records: map[domain.SubCategory][]domain.Record{
		10: {rec("Shared", 1)},
		40: {rec("Shared", 2)},
	}}
	repo := &fakeRepository{}
	rep := &recordingReporter{}
	cats := []domain.Category{{ID: 1, Name: "monitor", SubCategories: []domain.SubCategory{10}}, keyboards}

	summary, err := NewService(fc, repo, &fakeExporter{}, nil, rep, nil).RunSweep(context.Background(), cats)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(summary.Categories) != 2 {
		t.Fatalf("categories = %d", len(summary.Categories))
	}
	if repo.batches[1][0].Price != 1 || repo.batches[2][0].Price != 2 {
		t.Fatalf("batches = %v, each category needs its own set", repo.batches)
	}
	want := []string{"CategoryDoneEvent", "CategoryDoneEvent", "SweepDoneEvent"}
	if !slices.Equal(rep.types, want) {
		t.Fatalf("events = %v, want %v", rep.types, want)
	}
}

func TestRunSweepStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fc := &fakeCrawler{errs: map[domain.SubCategory]error{10: context.Canceled}}
	cancel()
	repo := &fakeRepository{}

	summary, err := NewService(fc, repo, &fakeExporter{}, nil, nil, nil).RunSweep(ctx, []domain.Category{monitors})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(fc.calls) != 1 || repo.batches != nil {
		t.Fatalf("calls=%v batches=%v, want stop before persisting", fc.calls, repo.batches)
	}
	if len(summary.Categories) != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}
