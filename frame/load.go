package frame

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Format names a raw data file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// UnsupportedFormatError is returned for file types the loader cannot parse.
// Only xlsx is supported end-to-end; csv is rejected because its date-time
// columns cannot be typed reliably.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: only xlsx files are supported", e.Format)
}

// LoadOptions holds options for loading raw data.
type LoadOptions struct {
	TimeColumn string // Column holding timestamps (optional)
	Sheet      string // Worksheet name (default: first sheet)
}

// timeFormats are tried in order for textual timestamps.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
}

// Load reads a raw data file of the declared format into a frame.
func Load(path string, format Format, opts LoadOptions) (*Frame, error) {
	if format != FormatXLSX {
		return nil, &UnsupportedFormatError{Format: string(format)}
	}

	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer book.Close()

	return loadWorkbook(book, opts)
}

// LoadXLSXFromReader reads an xlsx workbook from r.
func LoadXLSXFromReader(r io.Reader, opts LoadOptions) (*Frame, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	return loadWorkbook(book, opts)
}

func loadWorkbook(book *excelize.File, opts LoadOptions) (*Frame, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := book.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	date1904 := false
	if props, err := book.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	return fromRecords(rows[0], rows[1:], opts.TimeColumn, date1904)
}

// fromRecords types every column of a header + records table and builds a
// chronologically sorted frame.
func fromRecords(header []string, records [][]string, timeColumn string, date1904 bool) (*Frame, error) {
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	timeIdx := -1
	if timeColumn != "" {
		for i, h := range headers {
			if h == timeColumn {
				timeIdx = i
				break
			}
		}
		if timeIdx == -1 {
			return nil, fmt.Errorf("%w: time column %q", ErrColumnNotFound, timeColumn)
		}
	}

	// Drop fully empty trailing rows.
	for len(records) > 0 && isBlank(records[len(records)-1]) {
		records = records[:len(records)-1]
	}

	cell := func(record []string, j int) string {
		if j < len(record) {
			return strings.TrimSpace(record[j])
		}
		return ""
	}

	var f *Frame
	if timeIdx >= 0 {
		times := make([]time.Time, len(records))
		for i, record := range records {
			ts, err := parseTime(cell(record, timeIdx), date1904)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
			times[i] = ts
		}
		f = NewWithTimes(timeColumn, times)
	} else {
		f = New(len(records))
	}

	var err error
	for j, name := range headers {
		if j == timeIdx || name == "" {
			continue
		}
		raw := make([]string, len(records))
		for i, record := range records {
			raw[i] = cell(record, j)
		}
		if values, ok := parseNumeric(raw); ok {
			f, err = f.WithFloat(name, values)
		} else {
			for i, v := range raw {
				if isMissing(v) {
					raw[i] = ""
				}
			}
			f, err = f.WithText(name, raw)
		}
		if err != nil {
			return nil, err
		}
	}

	return f.SortByTime(), nil
}

func parseNumeric(raw []string) ([]float64, bool) {
	values := make([]float64, len(raw))
	for i, s := range raw {
		if isMissing(s) {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

func parseTime(s string, date1904 bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		ts, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid excel date %q: %w", s, err)
		}
		return ts.Round(time.Second), nil
	}
	for _, layout := range timeFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", s)
}

func isMissing(s string) bool {
	switch s {
	case "", "NA", "NaN", "nan", "null", "#N/A":
		return true
	}
	return false
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
