// Package exporter writes dataset tables as CSV, XLSX or Parquet.
//
// Null cells become empty CSV fields, empty spreadsheet cells and Parquet
// nulls. Numeric columns keep full precision in every format.
//
// Example usage:
//
//	f, err := exporter.ParseFormat("xlsx")
//	if err != nil {
//	    return err
//	}
//	err = exporter.Write(w, "loss", table, f)
package exporter
