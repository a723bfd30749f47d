// Package sheet reads and writes the .xlsx workbooks used for bulk product
// imports and order exports.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"perfume-backoffice/internal/models"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoSheet = errors.New("workbook has no sheets")
	ErrEmpty   = errors.New("sheet is empty")
)

// Row is one data row keyed by its normalized header. Line is the 1-based
// row number in the sheet.
type Row struct {
	Line  int
	Cells map[string]string
}

// Get returns the trimmed cell under key, or "".
func (r Row) Get(key string) string {
	return strings.TrimSpace(r.Cells[key])
}

// ReadRows reads the first sheet of the workbook. The first row is the
// header; blank rows are skipped.
func ReadRows(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = HeaderKey(h)
	}

	out := make([]Row, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		row := Row{Line: i + 2, Cells: make(map[string]string, len(header))}
		blank := true
		for c, v := range cells {
			if c >= len(header) || header[c] == "" {
				continue
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			row.Cells[header[c]] = v
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out, nil
}

// HeaderKey turns "Price 10ml" into "price_10ml".
func HeaderKey(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

const ordersSheet = "Sheet1"

var orderHeader = []any{
	"Order code", "Order date", "Customer", "Product", "Volume (ml)",
	"Price", "Discount", "Delivery fee", "Total", "Profit",
	"Status", "Payment status", "Payment method", "Notes",
}

// WriteOrders writes orders as a single-sheet workbook, one order per row.
func WriteOrders(w io.Writer, orders []models.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &orderHeader); err != nil {
		return err
	}
	if err := f.SetRowStyle(ordersSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, o := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := orderRow(o)
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return fmt.Errorf("write order %s: %w", o.OrderCode, err)
		}
	}
	if err := f.SetColWidth(ordersSheet, "A", "D", 18); err != nil {
		return err
	}

	return f.Write(w)
}

func orderRow(o models.Order) []any {
	var customer, product, method string
	if o.Customer != nil {
		customer = o.Customer.Name
	}
	if o.Product != nil {
		product = o.Product.Brand + " " + o.Product.Name
	}
	if o.PaymentMethod != nil {
		method = string(*o.PaymentMethod)
	}
	date := ""
	if !o.OrderDate.IsZero() {
		date = o.OrderDate.Format("2006-01-02")
	}
	return []any{
		o.OrderCode, date, customer, strings.TrimSpace(product), o.VolumeML(),
		o.EffectivePrice(), o.Discount, o.DeliveryFee, o.Total, o.Profit,
		string(o.Status), string(o.PaymentStatus), method, o.Notes,
	}
}
