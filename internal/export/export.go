// Package export renders bookings as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"

	"tourguide/internal/models"
	"tourguide/internal/pricing"

	"github.com/xuri/excelize/v2"
)

const (
	InvoiceSheet  = "Invoice"
	BookingsSheet = "Bookings"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var bookingColumns = []string{
	"ID", "Date", "Time slot", "Tour", "Tourist", "Group size", "Total price", "Status", "Notes",
}

// Invoice builds a one-sheet invoice for a booking.
func Invoice(b *models.Booking, q pricing.Quote, currency string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", InvoiceSheet); err != nil {
		return nil, fmt.Errorf("error renaming sheet: %w", err)
	}

	rows := [][]any{
		{fmt.Sprintf("Invoice #%d", b.ID)},
		{},
		{"Tour", b.TourTitle},
		{"Guide", b.GuideName},
		{"Tourist", b.TouristName},
		{"Date", b.BookingDate.String()},
		{"Time slot", models.TimeSlotLabel(b.TimeSlot)},
		{"Status", b.Status},
		{},
		{"Price per person", q.BasePricePerPerson},
		{"Group size", q.GroupSize},
		{"Subtotal", q.Subtotal},
		{"Discount (%)", q.DiscountPercentage},
		{"Discount", q.DiscountAmount},
		{"Total (" + currency + ")", b.TotalPrice},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(InvoiceSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("error writing row %d: %w", i+1, err)
		}
	}

	title, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	_ = f.SetCellStyle(InvoiceSheet, "A1", "A1", title)
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	last := fmt.Sprintf("B%d", len(rows))
	_ = f.SetCellStyle(InvoiceSheet, fmt.Sprintf("A%d", len(rows)), last, bold)
	_ = f.SetColWidth(InvoiceSheet, "A", "A", 20)
	_ = f.SetColWidth(InvoiceSheet, "B", "B", 40)

	return f.WriteToBuffer()
}

// Bookings lists bookings one per row under a period header.
func Bookings(bookings []*models.Booking, from, to models.Date) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BookingsSheet); err != nil {
		return nil, fmt.Errorf("error renaming sheet: %w", err)
	}

	_ = f.SetCellValue(BookingsSheet, "A1", fmt.Sprintf("Period: %s - %s", from, to))
	lastCol, _ := excelize.ColumnNumberToName(len(bookingColumns))
	_ = f.MergeCell(BookingsSheet, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(BookingsSheet, "A1", "A1", titleStyle)

	header := make([]any, len(bookingColumns))
	for i, c := range bookingColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(BookingsSheet, "A2", &header); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(BookingsSheet, "A2", lastCol+"2", headerStyle)

	var total float64
	for i, b := range bookings {
		row := []any{
			b.ID, b.BookingDate.String(), models.TimeSlotLabel(b.TimeSlot), b.TourTitle, b.TouristName,
			b.GroupSize, b.TotalPrice, b.Status, b.Notes,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := f.SetSheetRow(BookingsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("error writing booking %d: %w", b.ID, err)
		}
		if b.Status != models.StatusCancelled {
			total += b.TotalPrice
		}
	}

	totalRow := len(bookings) + 3
	_ = f.SetCellValue(BookingsSheet, fmt.Sprintf("F%d", totalRow), "Total")
	_ = f.SetCellValue(BookingsSheet, fmt.Sprintf("G%d", totalRow), pricing.Round2(total))

	_ = f.SetColWidth(BookingsSheet, "A", "A", 8)
	_ = f.SetColWidth(BookingsSheet, "B", "C", 22)
	_ = f.SetColWidth(BookingsSheet, "D", "E", 30)
	_ = f.SetColWidth(BookingsSheet, "F", "H", 14)
	_ = f.SetColWidth(BookingsSheet, "I", "I", 40)

	return f.WriteToBuffer()
}
