package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventbritesync/internal/domain"
	"eventbritesync/internal/mapping"
)

// PageFetcher fetches one page of a paged listing. Extra listing arguments are
// captured by the closure.
type PageFetcher func(ctx context.Context, page int) (domain.Page, error)

// Materializer is the part of the materializer the importer needs.
type Materializer interface {
	MaterializeNamed(ctx context.Context, kind domain.Kind, externalName string, payload any, persist bool) (domain.Record, error)
}

// Importer walks a paged listing and materializes every item. A failing item is
// recorded in the report and does not stop the run.
type Importer struct {
	materializer Materializer
	logger       *slog.Logger
}

// NewImporter returns an Importer.
func NewImporter(m Materializer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{materializer: m, logger: logger}
}

// ImportAll fetches pages starting at 1 until pagination says there are no more.
// A page fetch error ends the run; it is returned together with the report so far.
func (i *Importer) ImportAll(ctx context.Context, kind domain.Kind, itemName string, fetch PageFetcher) (*domain.ImportReport, error) {
	report := &domain.ImportReport{Kind: kind, StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	page := 1
	for {
		i.logger.Info("loading page", "kind", kind, "page", page)
		resp, err := fetch(ctx, page)
		if err != nil {
			return report, fmt.Errorf("fetch %s page %d: %w", kind, page, err)
		}
		report.Pages++

		for _, item := range resp.Items {
			i.importItem(ctx, report, kind, itemName, item)
		}

		next, ok := NextPageNumber(resp.Pagination)
		if !ok {
			break
		}
		if next <= page {
			i.logger.Warn("pagination did not advance, stopping", "kind", kind, "page", page, "page_number", resp.Pagination.PageNumber)
			break
		}
		page = next
	}

	i.logger.Info("done loading all pages",
		"kind", kind,
		"pages", report.Pages,
		"imported", len(report.Succeeded),
		"failed", len(report.Failed),
	)
	return report, nil
}

func (i *Importer) importItem(ctx context.Context, report *domain.ImportReport, kind domain.Kind, itemName string, item domain.Payload) {
	label := ItemLabel(item)
	ebID, _ := mapping.ExternalIDOf(item["id"])
	i.logger.Info("loading item", "kind", kind, "item", label)

	rec, err := i.materialize(ctx, kind, itemName, item)
	if err != nil {
		i.logger.Error("failed to load item", "kind", kind, "item", label, "error", err)
		report.Failed = append(report.Failed, domain.ImportFailure{Label: label, ExternalID: ebID, Err: err})
		return
	}
	report.Succeeded = append(report.Succeeded, rec)
}

// materialize converts a panic while mapping one item into that item's error.
func (i *Importer) materialize(ctx context.Context, kind domain.Kind, itemName string, item domain.Payload) (rec domain.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return i.materializer.MaterializeNamed(ctx, kind, itemName, item, true)
}

// NextPageNumber returns the page after p, or false on the last page.
func NextPageNumber(p domain.Pagination) (int, bool) {
	if p.PageCount > p.PageNumber {
		return p.PageNumber + 1, true
	}
	return 0, false
}

// ItemLabel names an item for progress output: its name text, a profile name,
// or "<#id>" when nothing better is available.
func ItemLabel(item domain.Payload) string {
	if s := nameOf(item["name"]); s != "" {
		return s
	}
	if profile, ok := item["profile"].(map[string]any); ok {
		if s := nameOf(profile["name"]); s != "" {
			return s
		}
	}
	id, _ := mapping.ExternalIDOf(item["id"])
	return fmt.Sprintf("<#%s>", id)
}

func nameOf(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case map[string]any:
		if s, ok := n["text"].(string); ok {
			return s
		}
	}
	return ""
}
