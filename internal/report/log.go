package report

import (
	"context"
	"strconv"
	"time"

	"danawa/crawler/internal/domain/event"

	log "github.com/sirupsen/logrus"
)

type logReporter struct{}

// NewLogReporter writes progress lines through logrus.
func NewLogReporter() Reporter {
	return logReporter{}
}

func (logReporter) Report(_ context.Context, e event.Event) error {
	switch ev := e.(type) {
	case *event.PageDoneEvent:
		pages := "?"
		if ev.TotalPages > 0 {
			pages = strconv.Itoa(ev.TotalPages)
		}
		log.WithFields(log.Fields{
			"category":     ev.CategoryName,
			"sub_category": ev.SubCategory,
			"inserted":     ev.Stats.Inserted,
			"malformed":    ev.Stats.Malformed,
			"duplicates":   ev.Stats.Duplicates,
			"collected":    ev.Collected,
		}).Infof("📄 Page %d/%s done", ev.PageNumber, pages)
	case *event.SubCategoryAbortedEvent:
		log.WithFields(log.Fields{
			"category":     ev.CategoryName,
			"sub_category": ev.SubCategory,
			"url":          ev.URL,
			"page":         ev.PageNumber,
			"cause":        ev.Cause,
		}).Errorf("❌ Sub-category aborted: %s", ev.Error)
	case *event.CategoryDoneEvent:
		s := ev.Summary
		entry := log.WithFields(log.Fields{
			"category":   s.CategoryName,
			"records":    s.Records,
			"rows":       s.RowsAffected,
			"malformed":  s.Stats.Malformed,
			"duplicates": s.Stats.Duplicates,
			"failed":     len(s.FailedSubs),
			"export":     s.ExportPath,
		})
		if s.PersistenceError != "" {
			entry.Errorf("⚠️ Category %s finished without persisting: %s", s.CategoryName, s.PersistenceError)
		} else {
			entry.Infof("✅ Category %s finished in %s", s.CategoryName, s.FinishedAt.Sub(s.StartedAt).Round(time.Second))
		}
	case *event.SweepDoneEvent:
		log.Infof("🎉 Sweep finished: %d categories in %s",
			len(ev.Summary.Categories), ev.Summary.FinishedAt.Sub(ev.Summary.StartedAt).Round(time.Second))
	default:
		log.Debugf("Event %s", e.EventType())
	}
	return nil
}
