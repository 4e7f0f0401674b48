package gwdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseGameweekCSV decodes a vaastav gameweek CSV. Columns are located by
// header name; stat columns missing from the header default to 0.
func ParseGameweekCSV(r io.Reader) ([]RawMatchRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := headerIndex(hdr)
	iName, ok := idx["name"]
	if !ok {
		return nil, fmt.Errorf("gameweek csv: name column missing")
	}

	rows := make([]RawMatchRecord, 0, 700)
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
		if iName >= len(rec) {
			continue
		}

		row := RawMatchRecord{Name: strings.TrimSpace(rec[iName])}
		for _, f := range StatFields {
			i, ok := idx[f]
			if !ok || i >= len(rec) {
				continue
			}
			v, err := parseNumber(rec[i])
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, f, err)
			}
			*row.field(f) = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MissingColumns lists the StatFields (and "name") that a header lacks.
func MissingColumns(header []string) []string {
	idx := headerIndex(header)
	var missing []string
	for _, f := range append([]string{"name"}, StatFields...) {
		if _, ok := idx[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func headerIndex(hdr []string) map[string]int {
	idx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	switch strings.ToLower(s) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
