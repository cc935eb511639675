package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	accent = lipgloss.Color("#2563EB")
	dim    = lipgloss.Color("#6B7280")
	danger = lipgloss.Color("#EF4444")

	fileStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle  = lipgloss.NewStyle().Foreground(dim)
	errorStyle  = lipgloss.NewStyle().Foreground(danger)
	totalStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Underline(true)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Padding(0, 1)
)

// WriteJSON writes the results as an indented JSON array
func WriteJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// WritePretty writes one boxed summary per result
func WritePretty(w io.Writer, results []Result) error {
	for _, r := range results {
		if _, err := fmt.Fprintln(w, boxStyle.Render(renderResult(r))); err != nil {
			return err
		}
	}
	return nil
}

func renderResult(r Result) string {
	var b strings.Builder

	b.WriteString(fileStyle.Render(r.File))
	b.WriteString("\n")

	if r.Error != "" {
		b.WriteString(errorStyle.Render("error: " + r.Error))
		return b.String()
	}

	rec := r.Invoice
	vendor := rec.Vendor
	if vendor == "" {
		vendor = "-"
	}
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("Vendor:"), vendor)

	if len(rec.Items) == 0 {
		b.WriteString(labelStyle.Render("No items"))
		b.WriteString("\n")
	} else {
		descWidth := len("Item")
		for _, item := range rec.Items {
			descWidth = max(descWidth, lipgloss.Width(item.Description))
		}
		fmt.Fprintf(&b, "%s  %s  %s\n",
			headerStyle.Render(padLeft("Qty", 4)),
			headerStyle.Render(padRight("Item", descWidth)),
			headerStyle.Render(padLeft("Amount", 12)))
		for _, item := range rec.Items {
			fmt.Fprintf(&b, "%s  %s  %s\n",
				padLeft(fmt.Sprintf("%d", item.Quantity), 4),
				padRight(item.Description, descWidth),
				padLeft(money(item.Amount), 12))
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Subtotal:"), money(rec.Subtotal))
	fmt.Fprintf(&b, "%s %s", labelStyle.Render("Total:   "), totalStyle.Render(money(rec.Total)))
	return b.String()
}

func money(v float64) string {
	return "AUD " + decimal.NewFromFloat(v).StringFixed(2)
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padLeft(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}
