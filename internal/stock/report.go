package stock

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"bill-mart/internal/model"

	"github.com/google/uuid"
)

// DirectionFilter is the tri-state report filter.
type DirectionFilter string

const (
	FilterAll DirectionFilter = ""
	FilterIn  DirectionFilter = "IN"
	FilterOut DirectionFilter = "OUT"
)

// ParseDirectionFilter accepts "", "all", "in" and "out" in any case.
func ParseDirectionFilter(s string) (DirectionFilter, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ALL":
		return FilterAll, nil
	case "IN":
		return FilterIn, nil
	case "OUT":
		return FilterOut, nil
	}
	return FilterAll, fmt.Errorf("invalid direction filter %q", s)
}

func (f DirectionFilter) match(d model.Direction) bool {
	return f == FilterAll || string(f) == string(d)
}

type ReportQuery struct {
	ProductID *uuid.UUID
	Direction DirectionFilter
	Search    string
}

// ReportRow is one ledger entry flattened for display.
type ReportRow struct {
	ID              uuid.UUID         `json:"id"`
	ProductID       uuid.UUID         `json:"product_id"`
	ProductName     string            `json:"product_name"`
	Attributes      map[string]string `json:"attributes"`
	Direction       model.Direction   `json:"type"`
	Quantity        int               `json:"quantity"`
	TransactionDate time.Time         `json:"transaction_date"`
	Remarks         string            `json:"remarks"`
	InvoiceID       *uuid.UUID        `json:"invoice_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Attribute returns the value for a dynamic column, or "" when the row lacks it.
func (r ReportRow) Attribute(label string) string {
	return r.Attributes[label]
}

// Cells returns the displayed values in column order: name, dynamic columns,
// quantity, type, date, remarks.
func (r ReportRow) Cells(columns []string) []string {
	cells := make([]string, 0, len(columns)+5)
	cells = append(cells, r.ProductName)
	for _, c := range columns {
		cells = append(cells, r.Attribute(c))
	}
	return append(cells,
		strconv.Itoa(r.Quantity),
		string(r.Direction),
		r.TransactionDate.Format("2006-01-02"),
		r.Remarks,
	)
}

// ReportGroup holds the folded buckets of one product over the reported rows.
type ReportGroup struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Buckets     []Bucket  `json:"buckets"`
	Total       int       `json:"total"`
}

type Report struct {
	Columns  []string      `json:"columns"`
	Rows     []ReportRow   `json:"rows"`
	Groups   []ReportGroup `json:"groups"`
	TotalIn  int           `json:"total_in"`
	TotalOut int           `json:"total_out"`
}

// Headers returns the fixed and dynamic column titles in display order.
func (r *Report) Headers() []string {
	h := append([]string{"Name"}, r.Columns...)
	return append(h, "Quantity", "Type", "Transaction Date", "Remarks")
}

// BuildReport flattens txns into rows. Dynamic columns are the sorted union of the
// labels seen after the product and direction filters; search then matches any
// displayed cell, case-insensitively. Running it twice on the same input yields
// the same report.
func BuildReport(txns []model.StockTransaction, products map[uuid.UUID]model.Product, q ReportQuery) *Report {
	selected := make([]model.StockTransaction, 0, len(txns))
	for _, t := range txns {
		if q.ProductID != nil && t.ProductID != *q.ProductID {
			continue
		}
		if !q.Direction.match(t.Direction) {
			continue
		}
		selected = append(selected, t)
	}

	labelSet := map[string]struct{}{}
	for _, t := range selected {
		for _, a := range t.Variant {
			labelSet[a.Label] = struct{}{}
		}
	}
	columns := make([]string, 0, len(labelSet))
	for l := range labelSet {
		columns = append(columns, l)
	}
	sort.Strings(columns)

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	report := &Report{Columns: columns, Rows: []ReportRow{}, Groups: []ReportGroup{}}
	kept := make([]model.StockTransaction, 0, len(selected))
	names := map[uuid.UUID]string{}

	for _, t := range selected {
		row := ReportRow{
			ID:              t.ID,
			ProductID:       t.ProductID,
			ProductName:     productName(t, products),
			Attributes:      make(map[string]string, len(t.Variant)),
			Direction:       t.Direction,
			Quantity:        t.Quantity,
			TransactionDate: t.TransactionDate,
			Remarks:         t.Remarks,
			InvoiceID:       t.InvoiceID,
			CreatedAt:       t.CreatedAt,
		}
		for _, a := range t.Variant {
			row.Attributes[a.Label] = a.Value
		}
		if needle != "" && !rowMatches(row, columns, needle) {
			continue
		}
		report.Rows = append(report.Rows, row)
		kept = append(kept, t)
		names[t.ProductID] = row.ProductName
		if t.Direction == model.DirectionIn {
			report.TotalIn += t.Quantity
		} else {
			report.TotalOut += t.Quantity
		}
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if !a.TransactionDate.Equal(b.TransactionDate) {
			return a.TransactionDate.After(b.TransactionDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	for productID, buckets := range FoldByProduct(kept) {
		report.Groups = append(report.Groups, ReportGroup{
			ProductID:   productID,
			ProductName: names[productID],
			Buckets:     buckets.Sorted(),
			Total:       buckets.Total(),
		})
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		a, b := report.Groups[i], report.Groups[j]
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.ProductID.String() < b.ProductID.String()
	})

	return report
}

func productName(t model.StockTransaction, products map[uuid.UUID]model.Product) string {
	if p, ok := products[t.ProductID]; ok {
		return p.Name
	}
	if t.Product != nil {
		return t.Product.Name
	}
	return ""
}

func rowMatches(row ReportRow, columns []string, needle string) bool {
	for _, cell := range row.Cells(columns) {
		if strings.Contains(strings.ToLower(cell), needle) {
			return true
		}
	}
	return false
}
