package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// ImportReportEmailData holds data for the import report email.
type ImportReportEmailData struct {
	Email   string
	Title   string
	Summary ImportReportSummary
}

// ImportReportNotifier tells operators about imports that left items behind.
type ImportReportNotifier interface {
	NotifyImportReport(ctx context.Context, title string, report *ImportReport) error
}
