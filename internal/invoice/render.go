package invoice

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/invoice.html
var invoiceTemplateHTML string

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": formatMoney,
}).Parse(invoiceTemplateHTML))

// formatMoney prints an amount with the currency marker the parser reads back
func formatMoney(v float64) string {
	return "AUD " + decimal.NewFromFloat(v).StringFixed(2)
}

// Render fills the invoice document template with a confirmed record
func Render(r Record, issued time.Time) ([]byte, error) {
	data := struct {
		Record
		Issued time.Time
	}{
		Record: r,
		Issued: issued,
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing invoice template: %w", err)
	}
	return buf.Bytes(), nil
}
