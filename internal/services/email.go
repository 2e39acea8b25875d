package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventbritesync/internal/domain"
)

type emailService struct {
	mailer    domain.Mailer
	renderer  domain.EmailTemplateRenderer
	recipient string
	logger    *slog.Logger
}

// NewImportReportNotifier returns a notifier that mails import reports to recipient
// using the "import_report" template. An empty recipient disables it.
func NewImportReportNotifier(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, recipient string, logger *slog.Logger) domain.ImportReportNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &emailService{mailer: mailer, renderer: renderer, recipient: recipient, logger: logger}
}

// NotifyImportReport renders and sends the report.
func (s *emailService) NotifyImportReport(ctx context.Context, title string, report *domain.ImportReport) error {
	if s.recipient == "" {
		return nil
	}
	if report == nil {
		return fmt.Errorf("import report is nil")
	}
	data := &domain.ImportReportEmailData{
		Email:   s.recipient,
		Title:   title,
		Summary: report.Summary(),
	}
	subject, htmlBody, textBody, err := s.renderer.Render("import_report", data)
	if err != nil {
		return fmt.Errorf("failed to render import_report template: %w", err)
	}
	if err := s.mailer.Send(s.recipient, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send import report email: %w", err)
	}
	s.logger.Info("import report sent", "to", s.recipient, "title", title, "failed", len(report.Failed))
	return nil
}
