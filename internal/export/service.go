package export

import (
	"context"
	"fmt"
	"time"

	"portfolio/api/internal/content"
)

// SnapshotSource provides the content to export.
type SnapshotSource interface {
	Snapshot() content.Snapshot
}

// Printer turns an HTML page into PDF bytes.
type Printer interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// Service provides portfolio export functionality
type Service struct {
	source  SnapshotSource
	printer Printer
	title   string
	now     func() time.Time
}

// NewService creates an export service. A nil printer uses headless Chrome.
func NewService(source SnapshotSource, printer Printer, title string) *Service {
	if printer == nil {
		printer = ChromePrinter{Timeout: 30 * time.Second}
	}
	return &Service{source: source, printer: printer, title: title, now: time.Now}
}

// ExportPDF renders the current portfolio and prints it to PDF.
func (s *Service) ExportPDF(ctx context.Context) (*Result, error) {
	snapshot := s.source.Snapshot()
	if snapshot.Len() == 0 {
		return nil, ErrContentUnavailable
	}

	html, err := RenderPortfolioHTML(TemplateData{
		Title:       s.title,
		GeneratedAt: s.now(),
		Content:     snapshot,
	})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	data, err := s.printer.PrintPDF(ctx, html)
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:     data,
		Filename: sanitizeFilename(s.title) + ".pdf",
		MimeType: "application/pdf",
	}, nil
}
