package frame

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"time"
)

// WriteCSV writes the frame as CSV with a header row. The time column, if
// any, comes first. Missing numeric values are written as empty fields.
func WriteCSV(w io.Writer, f *Frame) error {
	writer := csv.NewWriter(w)

	columns := f.Columns()
	header := make([]string, 0, len(columns)+1)
	if f.HasTime() {
		header = append(header, f.TimeColumn)
	}
	header = append(header, columns...)
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i := 0; i < f.Len(); i++ {
		k := 0
		if f.HasTime() {
			record[k] = f.times[i].Format(time.RFC3339)
			k++
		}
		for _, name := range columns {
			if values, ok := f.numeric[name]; ok {
				record[k] = formatFloat(values[i])
			} else {
				record[k] = f.text[name][i]
			}
			k++
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the frame to a CSV file.
func SaveCSV(f *Frame, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	if err := WriteCSV(buf, f); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	return file.Close()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
