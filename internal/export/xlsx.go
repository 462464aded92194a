package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"havenhub/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const bookingsSheet = "Bookings"

// Exporter writes booking history into xlsx files for offline review.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func New(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// Bookings writes the given bookings into an xlsx file and returns its
// path. Bookings outside the [from, to] window are skipped.
func (e *Exporter) Bookings(bookings []models.Booking, from, to time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(bookingsSheet, "A1", fmt.Sprintf("Period: %s - %s",
		from.Format("02.01.2006"), to.Format("02.01.2006")))
	_ = f.MergeCell(bookingsSheet, "A1", "I1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(bookingsSheet, "A1", "A1", titleStyle)

	headers := []string{
		"ID", "Room", "Customer", "Check-in", "Check-out",
		"Status", "Amount", "Paid", "Created",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(bookingsSheet, cell, header)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, headerStyle)
	}

	row := 3
	var total float64
	for _, b := range bookings {
		if b.StartDateTime.After(to) || b.EndDateTime.Before(from) {
			continue
		}

		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("A%d", row), b.ID)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("B%d", row), b.RoomNumber)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("C%d", row), b.CustomerName)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("D%d", row), b.StartDateTime.Format("02.01.2006 15:04"))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("E%d", row), b.EndDateTime.Format("02.01.2006 15:04"))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("F%d", row), string(b.Status))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("G%d", row), b.TotalAmount)
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("H%d", row), boolToYesNo(b.IsPaid))
		_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("I%d", row), b.CreatedAt.Format("02.01.2006 15:04"))

		if styleID, err := statusStyle(f, b.Status); err == nil {
			cell := fmt.Sprintf("F%d", row)
			_ = f.SetCellStyle(bookingsSheet, cell, cell, styleID)
		}

		if b.IsPaid {
			total += b.TotalAmount
		}
		row++
	}

	// Итог по оплаченным
	_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("F%d", row+1), "Paid total:")
	_ = f.SetCellValue(bookingsSheet, fmt.Sprintf("G%d", row+1), total)
	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(bookingsSheet, fmt.Sprintf("F%d", row+1), fmt.Sprintf("G%d", row+1), totalStyle)

	_ = f.SetColWidth(bookingsSheet, "A", "A", 8)
	_ = f.SetColWidth(bookingsSheet, "B", "B", 10)
	_ = f.SetColWidth(bookingsSheet, "C", "C", 25)
	_ = f.SetColWidth(bookingsSheet, "D", "E", 18)
	_ = f.SetColWidth(bookingsSheet, "F", "F", 14)
	_ = f.SetColWidth(bookingsSheet, "G", "G", 12)
	_ = f.SetColWidth(bookingsSheet, "H", "H", 8)
	_ = f.SetColWidth(bookingsSheet, "I", "I", 18)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

// statusStyle раскрашивает статус: зеленый для завершенных, желтый для
// ожидающих, красный для отклоненных и отмененных.
func statusStyle(f *excelize.File, status models.BookingStatus) (int, error) {
	var color string
	switch status {
	case models.StatusApproved, models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusPending, models.StatusCheckedOut:
		color = "#FFEB9C"
	case models.StatusRejected, models.StatusCancelled:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
}

func boolToYesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
