// Package pdf renders contracts to printable PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// Document is everything printed on a contract PDF.
type Document struct {
	CompanyName     string
	CompanyAddress  string
	CompanyPhone    string
	CompanyEmail    string
	ContractNumber  string
	Title           string
	Status          string
	ProviderName    string
	ProviderCompany string
	StartDate       *time.Time
	EndDate         *time.Time
	Amount          *decimal.Decimal
	Currency        string
	Content         string
	SignedAt        *time.Time
	Signature       string
}

type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

type FPDFRenderer struct{}

func NewRenderer() *FPDFRenderer {
	return &FPDFRenderer{}
}

const lineHeight = 6.0

func (r *FPDFRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := fpdf.New("P", "mm", "A4", "")
	p.SetTitle(doc.ContractNumber+" "+doc.Title, true)
	p.SetMargins(20, 20, 20)
	p.SetAutoPageBreak(true, 20)
	tr := p.UnicodeTranslatorFromDescriptor("")
	p.SetFooterFunc(func() {
		p.SetY(-15)
		p.SetFont("Helvetica", "I", 8)
		p.CellFormat(0, 10, fmt.Sprintf("%s - page %d", doc.ContractNumber, p.PageNo()), "", 0, "C", false, 0, "")
	})
	p.AddPage()

	p.SetFont("Helvetica", "B", 14)
	p.CellFormat(0, 8, tr(doc.CompanyName), "", 1, "C", false, 0, "")
	p.SetFont("Helvetica", "", 9)
	for _, line := range []string{doc.CompanyAddress, joinNonEmpty(" | ", doc.CompanyPhone, doc.CompanyEmail)} {
		if line != "" {
			p.CellFormat(0, 5, tr(line), "", 1, "C", false, 0, "")
		}
	}
	p.Ln(6)

	p.SetFont("Helvetica", "B", 16)
	p.MultiCell(0, 8, tr(doc.Title), "", "C", false)
	p.Ln(2)

	p.SetFont("Helvetica", "", 10)
	rows := [][2]string{
		{"Contract No.", doc.ContractNumber},
		{"Status", strings.ToUpper(doc.Status)},
		{"Provider", joinNonEmpty(" - ", doc.ProviderName, doc.ProviderCompany)},
		{"Period", period(doc.StartDate, doc.EndDate)},
		{"Amount", amount(doc.Amount, doc.Currency)},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		p.SetFont("Helvetica", "B", 10)
		p.CellFormat(40, lineHeight, row[0], "", 0, "L", false, 0, "")
		p.SetFont("Helvetica", "", 10)
		p.CellFormat(0, lineHeight, tr(row[1]), "", 1, "L", false, 0, "")
	}
	p.Ln(4)

	p.SetFont("Helvetica", "", 11)
	html := p.HTMLBasicNew()
	html.Write(lineHeight, tr(normalizeHTML(doc.Content)))
	p.Ln(lineHeight * 2)

	if doc.SignedAt != nil {
		p.SetFont("Helvetica", "B", 10)
		p.CellFormat(0, lineHeight, "Signed electronically by the provider", "", 1, "L", false, 0, "")
		p.SetFont("Helvetica", "", 10)
		p.CellFormat(0, lineHeight, "Date: "+doc.SignedAt.UTC().Format("2006-01-02 15:04 UTC"), "", 1, "L", false, 0, "")
		if doc.Signature != "" {
			p.CellFormat(0, lineHeight, tr("Signature: "+doc.Signature), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	blockEnd  = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr)>`)
	listItem  = regexp.MustCompile(`(?i)<li[^>]*>`)
	blockOpen = regexp.MustCompile(`(?i)<(p|div|h[1-6]|ul|ol|tr|table|tbody)[^>]*>|</(ul|ol|table|tbody)>`)
)

// normalizeHTML folds editor markup into the subset fpdf's basic HTML writer understands.
func normalizeHTML(content string) string {
	if !strings.Contains(content, "<") {
		return strings.ReplaceAll(content, "\n", "<br>")
	}
	content = listItem.ReplaceAllString(content, "- ")
	content = blockEnd.ReplaceAllString(content, "<br>")
	content = blockOpen.ReplaceAllString(content, "")
	content = strings.NewReplacer("<strong>", "<b>", "</strong>", "</b>", "<em>", "<i>", "</em>", "</i>", "&nbsp;", " ").Replace(content)
	return content
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func period(start, end *time.Time) string {
	const layout = "2006-01-02"
	switch {
	case start != nil && end != nil:
		return start.Format(layout) + " to " + end.Format(layout)
	case start != nil:
		return "from " + start.Format(layout)
	case end != nil:
		return "until " + end.Format(layout)
	}
	return ""
}

func amount(value *decimal.Decimal, currency string) string {
	if value == nil {
		return ""
	}
	return value.StringFixed(2) + " " + currency
}
