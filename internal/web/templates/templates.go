// Package templates holds the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissible error banner with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		if code != "" {
			fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ImportSummary renders a staged import: row counts, unresolved columns and
// the validation errors that block it.
func ImportSummary(s core.ImportSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section class="import" id="import-%s" data-phase="%s">`,
			templ.EscapeString(s.ID), templ.EscapeString(string(s.Phase)))
		fmt.Fprintf(&b, `<h2>%s</h2>`, templ.EscapeString(s.FileName))
		fmt.Fprintf(&b, `<p>%d rows, %d of %d columns recognized</p>`,
			s.Rows, s.ResolvedColumns, s.ResolvedColumns+len(s.Unresolved))
		if s.RemovedRows > 0 {
			fmt.Fprintf(&b, `<p>%d invalid rows removed</p>`, s.RemovedRows)
		}

		if len(s.ValidationErrors) > 0 {
			fmt.Fprintf(&b, `<h3>%d validation errors</h3><table class="errors"><thead><tr><th>Row</th><th>Email</th><th>Error</th></tr></thead><tbody>`,
				len(s.ValidationErrors))
			for _, e := range s.ValidationErrors {
				fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td></tr>`,
					e.Row, templ.EscapeString(e.Email), templ.EscapeString(e.Message))
			}
			b.WriteString(`</tbody></table>`)
			fmt.Fprintf(&b, `<a href="/api/imports/%s/invalid-rows?format=xlsx">Download rows with errors</a>`,
				templ.EscapeString(s.ID))
		}
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ReportSummary renders a finished batch with its failure list.
func ReportSummary(r core.BatchReport) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="report">`)
		fmt.Fprintf(&b, `<p class="summary">%s</p>`, templ.EscapeString(r.Summary()))
		fmt.Fprintf(&b, `<p class="duration">Took %s</p>`, r.Duration.Round(time.Millisecond))
		if len(r.Failures) > 0 {
			b.WriteString(`<table class="failures"><thead><tr><th>Row</th><th>Email</th><th>Error</th></tr></thead><tbody>`)
			for _, f := range r.Failures {
				fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td></tr>`,
					f.RowNumber, templ.EscapeString(f.Email), templ.EscapeString(f.Message))
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ImportHistory renders the recent imports table.
func ImportHistory(records []core.ImportRecord) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		if len(records) == 0 {
			b.WriteString(`<p class="empty">No imports yet</p>`)
			_, err := io.WriteString(w, b.String())
			return err
		}

		b.WriteString(`<table class="history"><thead><tr><th>File</th><th>Finished</th><th>Succeeded</th><th>Failed</th><th>Total</th></tr></thead><tbody>`)
		for _, rec := range records {
			status := ""
			if rec.Error != "" {
				status = ` class="failed"`
			}
			fmt.Fprintf(&b, `<tr%s><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>`,
				status,
				templ.EscapeString(rec.FileName),
				rec.FinishedAt.Format("2006-01-02 15:04"),
				rec.Succeeded, rec.Failed, rec.Total)
		}
		b.WriteString(`</tbody></table>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
