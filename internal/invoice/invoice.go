package invoice

import "time"

// LineItem is one parsed invoice line
type LineItem struct {
	Quantity    int     `json:"quantity"`
	Description string  `json:"item"`
	Amount      float64 `json:"amount"`
}

// Record is the structured data recovered from an invoice.
// Every field has a usable zero value so a Record is always safe to render.
type Record struct {
	Vendor   string     `json:"vendor"`
	Items    []LineItem `json:"items"`
	Subtotal float64    `json:"subtotal"`
	Total    float64    `json:"total"`
}

// NewRecord returns the default record: no vendor, no items, zero totals
func NewRecord() Record {
	return Record{Items: []LineItem{}}
}

// IsEmpty reports whether nothing was recovered
func (r Record) IsEmpty() bool {
	return r.Vendor == "" && len(r.Items) == 0 && r.Subtotal == 0 && r.Total == 0
}

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// Invoice is an uploaded invoice with its extracted and, once reviewed, confirmed data
type Invoice struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	RawText     string    `json:"raw_text"`
	Extracted   Record    `json:"extracted"`
	Confirmed   *Record   `json:"confirmed,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Status returns StatusConfirmed once the invoice has been reviewed
func (i *Invoice) Status() string {
	if i.Confirmed != nil {
		return StatusConfirmed
	}
	return StatusPending
}
