// Package frame provides the tabular data structure used by the preprocessing
// pipeline, together with raw data ingestion and CSV export.
//
// # Loading Raw Data
//
// Raw observations are read from an xlsx workbook. The caller declares the
// file type; any other type is rejected with an UnsupportedFormatError:
//
//	f, err := frame.Load("data.xlsx", frame.FormatXLSX, frame.LoadOptions{
//	    TimeColumn: "date / time",
//	})
//
// Columns whose cells all parse as numbers (empty, "NA" and "NaN" cells
// become NaN) are numeric; any other column is a text column holding
// categorical values. The time column accepts Excel serial dates and the
// usual textual layouts. Rows are returned in chronological order.
//
// # Working with Frames
//
// Frames are immutable values. Adding, replacing, or dropping a column
// returns a new frame:
//
//	f, err = f.WithFloat("load_kw", values)
//	f = f.Drop("comment")
//	head := f.Slice(0, 100)
//
// # Exporting
//
//	err := frame.SaveCSV(f, "processed.csv")
package frame
