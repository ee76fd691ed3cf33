package panel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

var missingTokens = map[string]bool{
	"":     true,
	".":    true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
}

func isMissingToken(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// Load reads a panel from a .csv, .tsv or .xlsx file.
func Load(path string) (*Panel, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadDelimitedFile(path, ',')
	case ".tsv":
		return ReadDelimitedFile(path, '\t')
	case ".xlsx":
		return ReadXLSXFile(path, "")
	default:
		return nil, fmt.Errorf("unsupported panel file type: %s", path)
	}
}

// ReadCSV reads a comma-delimited panel.
func ReadCSV(r io.Reader) (*Panel, error) {
	return ReadDelimited(r, ',')
}

// ReadDelimitedFile opens path and reads it with the given delimiter.
func ReadDelimitedFile(path string, delim rune) (*Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open panel file: %w", err)
	}
	defer f.Close()
	return ReadDelimited(f, delim)
}

// ReadDelimited reads a header row followed by data rows. Every column, including
// any date column, becomes a field of the panel; the row index is the row ordinal.
func ReadDelimited(r io.Reader, delim rune) (*Panel, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read delimited panel: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("panel file has no header row")
	}
	return fromRecords(records[0], records[1:])
}

func fromRecords(header []string, rows [][]string) (*Panel, error) {
	names := headerNames(header)
	index := make([]string, len(rows))
	for i := range rows {
		index[i] = strconv.Itoa(i)
		if len(rows[i]) > len(names) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(rows[i]), len(names))
		}
	}

	p := New(index)
	for j, name := range names {
		cells := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				cells[i] = rec[j]
			}
		}
		if values, ok := parseNumeric(cells); ok {
			if err := p.AddNumeric(name, values); err != nil {
				return nil, err
			}
			continue
		}
		labels := make([]string, len(cells))
		for i, s := range cells {
			if !isMissingToken(s) {
				labels[i] = s
			}
		}
		if err := p.AddText(name, labels); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// headerNames fills blank names and disambiguates repeats.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]int)
	for j, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", j)
		}
		if n, dup := used[name]; dup {
			used[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			used[name] = 0
		}
		names[j] = name
	}
	return names
}

// parseNumeric returns the cells as floats if every non-missing cell parses.
func parseNumeric(cells []string) ([]float64, bool) {
	values := make([]float64, len(cells))
	for i, s := range cells {
		if isMissingToken(s) {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

func formatCell(c *Column, i int) string {
	if c.IsMissing(i) {
		return ""
	}
	if c.Kind == Text {
		return c.Labels[i]
	}
	return strconv.FormatFloat(c.Values[i], 'g', -1, 64)
}

// WriteCSV writes the panel with its index as a leading "date" column.
// Missing cells are written empty.
func WriteCSV(w io.Writer, p *Panel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date"}, p.ColumnNames()...)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	rec := make([]string, len(p.Columns)+1)
	for i, idx := range p.Index {
		rec[0] = idx
		for j, c := range p.Columns {
			rec[j+1] = formatCell(c, i)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row %s: %w", idx, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the panel to path, creating parent directories.
func WriteCSVFile(path string, p *Panel) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create panel file: %w", err)
	}
	if err := WriteCSV(f, p); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadXLSXFile reads a panel from a spreadsheet. An empty sheet name selects the first sheet.
func ReadXLSXFile(path, sheet string) (*Panel, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", sheet)
	}
	return fromRecords(rows[0], rows[1:])
}

// WriteXLSXFile writes the panel to a spreadsheet with the index as a leading "date" column.
func WriteXLSXFile(path, sheet string, p *Panel) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	header := make([]interface{}, 0, len(p.Columns)+1)
	header = append(header, "date")
	for _, name := range p.ColumnNames() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, idx := range p.Index {
		row := make([]interface{}, len(p.Columns)+1)
		row[0] = idx
		for j, c := range p.Columns {
			switch {
			case c.IsMissing(i):
				row[j+1] = nil
			case c.Kind == Text:
				row[j+1] = c.Labels[i]
			default:
				row[j+1] = c.Values[i]
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %s: %w", idx, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
