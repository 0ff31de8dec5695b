// Package service runs the category sweep: every sub-category of a category
// feeds one shared record set, which is then persisted and exported.
package service

import (
	"context"
	"errors"
	"time"

	"danawa/crawler/internal/crawler"
	"danawa/crawler/internal/dedup"
	"danawa/crawler/internal/domain"
	"danawa/crawler/internal/domain/event"
	"danawa/crawler/internal/export"
	"danawa/crawler/internal/repository"
	"danawa/crawler/internal/report"
	"danawa/crawler/internal/state"

	log "github.com/sirupsen/logrus"
)

// SubCategoryCrawler is satisfied by *crawler.Controller.
type SubCategoryCrawler interface {
	Run(ctx context.Context, category domain.Category, sub domain.SubCategory, set *dedup.Set) (*crawler.Result, error)
}

type Service struct {
	crawler      SubCategoryCrawler
	repository   repository.EquipmentRepository
	exporter     export.Exporter
	stateManager state.StateManager
	reporter     report.Reporter
	metrics      *crawler.Metrics
}

func NewService(
	subCrawler SubCategoryCrawler,
	repository repository.EquipmentRepository,
	exporter export.Exporter,
	stateManager state.StateManager,
	reporter report.Reporter,
	metrics *crawler.Metrics,
) *Service {
	if stateManager == nil {
		stateManager = state.NewNopStateManager()
	}
	if reporter == nil {
		reporter = report.Nop()
	}
	return &Service{
		crawler:      subCrawler,
		repository:   repository,
		exporter:     exporter,
		stateManager: stateManager,
		reporter:     reporter,
		metrics:      metrics,
	}
}

// RunSweep processes categories strictly in order. Category failures are
// recorded in the summary; only cancellation of ctx ends the sweep early.
func (s *Service) RunSweep(ctx context.Context, categories []domain.Category) (*domain.SweepSummary, error) {
	summary := &domain.SweepSummary{
		Categories: make([]domain.CategorySummary, 0, len(categories)),
		StartedAt:  time.Now(),
	}

	log.Infof("🚀 Starting sweep over %d categories", len(categories))
	for _, category := range categories {
		catSummary, err := s.RunCategory(ctx, category)
		summary.Categories = append(summary.Categories, catSummary)
		if err != nil {
			summary.FinishedAt = time.Now()
			return summary, err
		}
	}

	summary.FinishedAt = time.Now()
	s.metrics.ObserveSweep(summary.FinishedAt.Sub(summary.StartedAt))
	s.emit(ctx, &event.SweepDoneEvent{Summary: *summary})
	return summary, nil
}

// RunCategory crawls every sub-category of category into one set, then
// upserts and exports the set sorted by name. The export is attempted even
// when the upsert fails.
func (s *Service) RunCategory(ctx context.Context, category domain.Category) (domain.CategorySummary, error) {
	summary := domain.CategorySummary{
		CategoryID:   category.ID,
		CategoryName: category.Name,
		StartedAt:    time.Now(),
	}
	set := dedup.New()

	log.Infof("🔄 Processing category: %s (%d sub-categories)", category.Name, len(category.SubCategories))
	for _, sub := range category.SubCategories {
		result, err := s.crawler.Run(ctx, category, sub, set)
		if result != nil {
			summary.Stats.Add(result.Stats)
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			summary.Records = set.Len()
			summary.FinishedAt = time.Now()
			return summary, ctx.Err()
		}

		summary.FailedSubs = append(summary.FailedSubs, sub)
		var abort *crawler.AbortError
		if errors.As(err, &abort) {
			log.WithFields(log.Fields{
				"category": category.Name,
				"url":      abort.URL,
				"cause":    abort.Cause,
				"page":     abort.Page,
			}).Warnf("⚠️ Skipping rest of sub-category %s, %d records kept so far", sub, set.Len())
		} else {
			log.WithField("category", category.Name).Errorf("❌ Sub-category %s failed: %v", sub, err)
		}
	}

	records := set.Sorted()
	summary.Records = len(records)
	log.Infof("📊 %s: %d records (%d skipped, %d duplicates)",
		category.Name, len(records), summary.Stats.Malformed, summary.Stats.Duplicates)

	rows, err := s.repository.UpsertBatch(ctx, category.ID, records)
	if err != nil {
		summary.PersistenceError = err.Error()
		s.metrics.IncBatchFailure(category.Name)
		log.Errorf("❌ Failed to save %s batch: %v", category.Name, err)
	} else {
		summary.RowsAffected = rows
		s.metrics.AddUpserted(category.Name, rows)
		log.Infof("💾 Saved %d rows for %s", rows, category.Name)
	}

	path, err := s.exporter.Export(category, records)
	if err != nil {
		log.Errorf("❌ Failed to export %s: %v", category.Name, err)
	} else {
		summary.ExportPath = path
		log.Infof("📝 Exported %s to %s", category.Name, path)
	}

	summary.FinishedAt = time.Now()
	if err := s.stateManager.SetLastRun(ctx, summary); err != nil {
		log.Warnf("Failed to record last run of %s: %v", category.Name, err)
	}
	s.emit(ctx, &event.CategoryDoneEvent{Summary: summary})

	return summary, nil
}

func (s *Service) emit(ctx context.Context, e event.Event) {
	if err := s.reporter.Report(ctx, e); err != nil {
		log.Warnf("Failed to report %s: %v", e.EventType(), err)
	}
}
