package invoice

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ConfirmItem is one reviewed line. Amounts accept JSON numbers or strings.
type ConfirmItem struct {
	Quantity int             `json:"quantity"`
	Item     string          `json:"item"`
	Amount   decimal.Decimal `json:"amount"`
}

// ConfirmRequest carries the human-reviewed invoice data
type ConfirmRequest struct {
	Vendor   string          `json:"vendor"`
	Items    []ConfirmItem   `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// ValidationError lists the reviewed fields that could not be accepted
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid invoice data: %s", strings.Join(e.Fields, ", "))
}

// NewConfirmRequest pre-fills a review from an extracted record
func NewConfirmRequest(r Record) ConfirmRequest {
	req := ConfirmRequest{
		Vendor:   r.Vendor,
		Items:    make([]ConfirmItem, 0, len(r.Items)),
		Subtotal: decimal.NewFromFloat(r.Subtotal),
		Total:    decimal.NewFromFloat(r.Total),
	}
	for _, item := range r.Items {
		req.Items = append(req.Items, ConfirmItem{
			Quantity: item.Quantity,
			Item:     item.Description,
			Amount:   decimal.NewFromFloat(item.Amount),
		})
	}
	return req
}

// Record builds a new confirmed Record from the review. Rows with a blank
// description are dropped; amounts are rounded to cents.
func (c ConfirmRequest) Record() (Record, error) {
	var invalid []string

	record := NewRecord()
	record.Vendor = strings.TrimSpace(c.Vendor)

	for i, item := range c.Items {
		description := strings.TrimSpace(item.Item)
		if description == "" {
			continue
		}
		if item.Quantity < 0 {
			invalid = append(invalid, fmt.Sprintf("items[%d].quantity", i))
		}
		if item.Amount.IsNegative() {
			invalid = append(invalid, fmt.Sprintf("items[%d].amount", i))
		}
		record.Items = append(record.Items, LineItem{
			Quantity:    item.Quantity,
			Description: description,
			Amount:      item.Amount.Round(2).InexactFloat64(),
		})
	}

	if c.Subtotal.IsNegative() {
		invalid = append(invalid, "subtotal")
	}
	if c.Total.IsNegative() {
		invalid = append(invalid, "total")
	}
	if len(invalid) > 0 {
		return Record{}, &ValidationError{Fields: invalid}
	}

	record.Subtotal = c.Subtotal.Round(2).InexactFloat64()
	record.Total = c.Total.Round(2).InexactFloat64()
	return record, nil
}
