package invoice

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Each field is searched for on its own so a garbled line only costs that field.
// An item never spans lines, and its quantity must stand alone: digits
// trailing an amount such as "20.00" never start an item.
var (
	vendorPattern   = regexp.MustCompile(`Vendor:\s*(.+)`)
	itemPattern     = regexp.MustCompile(`(?:^|\s)(\d+)[ \t]+(.+?)[ \t]+AUD[ \t]+([\d.]+)`)
	subtotalPattern = regexp.MustCompile(`Subtotal AUD\s*([\d.]+)`)
	totalPattern    = regexp.MustCompile(`Total AUD\s*([\d.]+)`)
)

// Parse extracts a Record from raw OCR text. It never fails: anything it
// cannot find keeps the default from NewRecord.
func Parse(rawText string) Record {
	record := NewRecord()

	if m := vendorPattern.FindStringSubmatch(rawText); m != nil {
		record.Vendor = strings.TrimSpace(m[1])
	}

	for _, m := range itemPattern.FindAllStringSubmatch(rawText, -1) {
		item, ok := parseLineItem(m[1], m[2], m[3])
		if !ok {
			continue
		}
		record.Items = append(record.Items, item)
	}

	if v, ok := findAmount(subtotalPattern, rawText); ok {
		record.Subtotal = v
	}
	if v, ok := findAmount(totalPattern, rawText); ok {
		record.Total = v
	}

	return record
}

func parseLineItem(quantity, description, amount string) (LineItem, bool) {
	description = strings.TrimSpace(description)
	if description == "" {
		return LineItem{}, false
	}
	qty, err := strconv.Atoi(quantity)
	if err != nil {
		slog.Debug("Skipping line item with unusable quantity", "quantity", quantity, "error", err)
		return LineItem{}, false
	}
	amt, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		slog.Debug("Skipping line item with unusable amount", "amount", amount, "error", err)
		return LineItem{}, false
	}
	return LineItem{
		Quantity:    qty,
		Description: description,
		Amount:      amt,
	}, true
}

// findAmount returns the first match of re converted to a float
func findAmount(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		slog.Debug("Ignoring unusable amount", "pattern", re.String(), "value", m[1], "error", err)
		return 0, false
	}
	return v, true
}
