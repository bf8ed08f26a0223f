package fileparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Ext returns the lowercase extension of an uploaded file name.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// ParseRows decodes an uploaded exposure/MTM file into a rectangular row set.
// CSV, XLSX and legacy XLS are supported; anything else is rejected.
func ParseRows(data []byte, ext string) ([][]string, error) {
	switch ext {
	case ".csv":
		return parseCSV(data)
	case ".xlsx":
		return parseXLSX(data)
	case ".xls":
		return parseXLS(data)
	default:
		return nil, errors.New("unsupported file type: " + ext)
	}
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return padRows(rows), nil
}

// parseXLS writes to a temp file because the xls reader only opens paths.
func parseXLS(data []byte) ([][]string, error) {
	tmpFile, err := os.CreateTemp("", "upload-*.xls")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return nil, err
	}
	tmpFile.Close()

	xlsBook, err := xls.Open(tmpFile.Name(), "utf-8")
	if err != nil {
		return nil, err
	}
	if xlsBook.GetSheet(0) == nil {
		return nil, fmt.Errorf("no sheets found")
	}
	return padRows(xlsBook.ReadAllCells(maxXLSRows)), nil
}

// maxXLSRows caps legacy-sheet reads at the BIFF8 row limit.
const maxXLSRows = 65536

// padRows normalises ragged sheets so every row is as wide as the header.
func padRows(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	width := len(rows[0])
	for i := range rows {
		for len(rows[i]) < width {
			rows[i] = append(rows[i], "")
		}
	}
	return rows
}

// HeaderIndex maps lowercased, trimmed header names to their column index.
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}
