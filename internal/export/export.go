// Package export writes the downtime ledger as a spreadsheet or CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"minetrack/internal/domain"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "Downtimes"

var headers = []string{
	"ID", "Equipment", "Type", "Section", "Cause", "Status", "Reported By",
	"Start", "End", "Duration (h)", "Root Cause", "Repair Notes", "Description",
}

// ParseFormat accepts csv, xlsx or empty (csv).
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q (csv or xlsx)", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Filename returns the suggested download name.
func (f Format) Filename() string {
	return "downtimes." + string(f)
}

// Rows flattens events in ledger order.
func Rows(events []domain.DowntimeEvent) [][]string {
	rows := make([][]string, 0, len(events))
	for _, d := range events {
		end, duration := "", ""
		if d.EndTime != nil {
			end = d.EndTime.UTC().Format(time.RFC3339)
		}
		if dur, ok := d.Duration(); ok {
			duration = strconv.FormatFloat(dur.Hours(), 'f', 1, 64)
		}
		rows = append(rows, []string{
			d.ID, d.EquipmentName, d.EquipmentType, d.Section, d.Cause.Label(), string(d.Status), d.ReportedBy,
			d.StartTime.UTC().Format(time.RFC3339), end, duration, d.RootCause, d.RepairNotes, d.Description,
		})
	}
	return rows
}

// Downtimes writes events to w in the given format.
func Downtimes(w io.Writer, events []domain.DowntimeEvent, format Format) error {
	switch format {
	case FormatXLSX:
		return writeExcel(w, Rows(events))
	case FormatCSV, "":
		return writeCSV(w, Rows(events))
	}
	return fmt.Errorf("unknown export format %q", format)
}

func writeCSV(w io.Writer, data [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	if err := writer.WriteAll(data); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func writeExcel(w io.Writer, data [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	for r, row := range data {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheetName, "A", last, 15); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
