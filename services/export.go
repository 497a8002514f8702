// services/export.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"motoshop-backend/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	jobCardSheet = "Job Cards"
	itemSheet    = "Items"
)

var (
	jobCardHeaders = []string{"Job Card", "Created", "Customer", "Phone", "Vehicle", "Description", "Status", "Total"}
	jobCardWidths  = []float64{10, 18, 25, 16, 14, 50, 14, 12}
	itemHeaders    = []string{"Job Card", "Product", "Quantity", "Unit Price", "Subtotal"}
	itemWidths     = []float64{10, 30, 10, 12, 12}
)

// Export renders the job cards created in [from, to) as an XLSX workbook
// with one sheet for cards and one for their items.
func (s *JobCardService) Export(ctx context.Context, from, to *time.Time) ([]byte, error) {
	query := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}

	var cards []models.JobCard
	if err := query.Order("created_at, id").Find(&cards).Error; err != nil {
		return nil, s.fail("export job cards", err)
	}

	data, err := renderJobCardWorkbook(cards)
	if err != nil {
		return nil, s.fail("export job cards", err)
	}
	return data, nil
}

func renderJobCardWorkbook(cards []models.JobCard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", jobCardSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(itemSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := writeHeader(f, jobCardSheet, jobCardHeaders, jobCardWidths, headerStyle); err != nil {
		return nil, err
	}
	if err := writeHeader(f, itemSheet, itemHeaders, itemWidths, headerStyle); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, card := range cards {
		name, phone, vehicle := customerColumns(card)
		row := []interface{}{
			card.ID,
			card.CreatedAt.Format("2006-01-02 15:04"),
			name,
			phone,
			vehicle,
			card.JobDescription,
			card.Status.Label(),
			card.TotalCost.InexactFloat64(),
		}
		if err := writeRow(f, jobCardSheet, i+2, row); err != nil {
			return nil, err
		}
		for _, item := range card.Items {
			row := []interface{}{
				card.ID,
				item.ProductName,
				item.Quantity,
				item.UnitPrice.InexactFloat64(),
				item.Subtotal.InexactFloat64(),
			}
			if err := writeRow(f, itemSheet, itemRow, row); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	for _, sheet := range []string{jobCardSheet, itemSheet} {
		err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		if err != nil {
			return nil, fmt.Errorf("freeze panes on %s: %w", sheet, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, widths []float64, style int) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func customerColumns(card models.JobCard) (name, phone, vehicle string) {
	if card.Customer != nil {
		return card.Customer.Name, card.Customer.Phone, card.Customer.VehicleNumber
	}
	m := card.ManualCustomer
	return m.Name, m.Phone, m.VehicleNumber
}
