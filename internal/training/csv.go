package training

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RowsPath is where assembled rows for a season are written under dir.
func RowsPath(dir, season string) string {
	return filepath.Join(dir, "processed", season+"_training_data.csv")
}

// ExamplesPath is where model-ready examples for a season are written under dir.
func ExamplesPath(dir, season string) string {
	return filepath.Join(dir, "model_ready", season+"_model_ready.csv")
}

const targetColumn = "total_points"

// WriteRowsCSV writes assembled rows with identity columns. Previous-season
// columns are empty for players without one.
func WriteRowsCSV(path string, rows []Row) error {
	hdr := append([]string{"first_name", "second_name", "element_type", "year", targetColumn}, FeatureNames[1:]...)
	return writeCSV(path, hdr, len(rows), func(i int) []string {
		r := rows[i]
		x := Vector(0, r.GW, r.Prev, r.Current)
		rec := []string{r.FirstName, r.SecondName, r.ElementType, r.Year, formatFloat(r.TotalPoints)}
		for _, v := range x[1:] {
			rec = append(rec, formatFloat(v))
		}
		return rec
	})
}

// WriteExamplesCSV writes model-ready examples: features then the target.
func WriteExamplesCSV(path string, ex []Example) error {
	hdr := append(append([]string{}, FeatureNames...), targetColumn)
	return writeCSV(path, hdr, len(ex), func(i int) []string {
		rec := make([]string, 0, len(hdr))
		for _, v := range ex[i].X {
			rec = append(rec, formatFloat(v))
		}
		return append(rec, formatFloat(ex[i].Target))
	})
}

func ReadExamplesCSV(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseExamplesCSV(f)
}

// ParseExamplesCSV reads a model-ready CSV. Columns are matched by name so
// extra columns are ignored; every feature and the target must be present.
func ParseExamplesCSV(r io.Reader) ([]Example, error) {
	cr := csv.NewReader(r)
	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		idx[strings.TrimSpace(h)] = i
	}
	cols := make([]int, len(FeatureNames))
	for i, name := range FeatureNames {
		j, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("model-ready csv: %s column missing", name)
		}
		cols[i] = j
	}
	ti, ok := idx[targetColumn]
	if !ok {
		return nil, fmt.Errorf("model-ready csv: %s column missing", targetColumn)
	}

	var out []Example
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++
		e := Example{X: make([]float64, len(FeatureNames))}
		for i, j := range cols {
			if e.X[i], err = strconv.ParseFloat(rec[j], 64); err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, FeatureNames[i], err)
			}
		}
		if e.Target, err = strconv.ParseFloat(rec[ti], 64); err != nil {
			return nil, fmt.Errorf("line %d column %s: %w", line, targetColumn, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func writeCSV(path string, hdr []string, n int, record func(int) []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(hdr); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(record(i)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// formatFloat writes NaN as an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
