// Package export renders schedule plans as JSON, CSV or XLSX, one row per
// device and slot.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/hems/core/schedule"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat returns the format named s. An empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("export: unsupported format %q", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Row is one slot of a plan.
type Row struct {
	DeviceID   string    `json:"device_id"`
	Slot       int       `json:"slot"`
	At         time.Time `json:"at"`
	Value      float64   `json:"value"`
	Dispatched bool      `json:"dispatched"`
}

var header = []string{"device_id", "slot", "at", "value", "dispatched"}

// Rows flattens plans. Slot i of a plan is due interval*i after install.
func Rows(plans []schedule.Plan, interval time.Duration) []Row {
	var rows []Row
	for _, p := range plans {
		for i, v := range p.Values {
			rows = append(rows, Row{
				DeviceID:   p.DeviceID.String(),
				Slot:       i,
				At:         p.InstalledAt.Add(time.Duration(i) * interval).UTC(),
				Value:      v,
				Dispatched: i <= p.Cursor,
			})
		}
	}
	return rows
}

func (r Row) record() []string {
	return []string{
		r.DeviceID,
		strconv.Itoa(r.Slot),
		r.At.Format(time.RFC3339),
		strconv.FormatFloat(r.Value, 'f', -1, 64),
		strconv.FormatBool(r.Dispatched),
	}
}

// Write encodes rows to w in format f.
func Write(w io.Writer, f Format, rows []Row) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return WriteJSON(w, rows)
	}
}

// WriteJSON writes rows to w in JSON format.
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	return json.NewEncoder(w).Encode(rows)
}

// WriteCSV writes rows to w in CSV format with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const planSheet = "Plan"

// WriteXLSX writes rows to w as a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", planSheet); err != nil {
		return err
	}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(planSheet, cell, h); err != nil {
			return err
		}
	}
	for i, r := range rows {
		row := i + 2
		vals := []any{r.DeviceID, r.Slot, r.At.Format(time.RFC3339), r.Value, r.Dispatched}
		for j, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(planSheet, cell, v); err != nil {
				return err
			}
		}
	}
	_, err := f.WriteTo(w)
	return err
}
