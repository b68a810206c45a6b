package receipt

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

// document is the data bound to the receipt template
type document struct {
	School      string
	Reference   string
	IssuedAt    time.Time
	StudentID   string
	StudentName string
	FeeID       string
	Description string
	Currency    string
	Amount      decimal.Decimal
	DueDate     *time.Time
	PaidDate    time.Time
}

// TemplateEngine renders receipt documents with html/template
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine parses the embedded receipt template
func NewTemplateEngine() (*TemplateEngine, error) {
	tmpl, err := template.New("receipt.html").Funcs(funcMap()).ParseFS(templateFS, "templates/receipt.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse receipt template: %w", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

func (e *TemplateEngine) render(doc document) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render receipt %s: %w", doc.Reference, err)
	}
	return buf.Bytes(), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatMoney": formatMoney,
		"formatDate":  formatDate,
		"title":       titleCase,
	}
}

// formatMoney renders "ZAR 1,234.50"
func formatMoney(currency string, d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	intPart, decPart, _ := strings.Cut(d.StringFixed(2), ".")

	var grouped strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteRune(',')
		}
		grouped.WriteRune(c)
	}
	amount := sign + grouped.String() + "." + decPart
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("2 January 2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return formatDate(*t)
	default:
		return ""
	}
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}
