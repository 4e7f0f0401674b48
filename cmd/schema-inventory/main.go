package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"fpl-points-predictor/internal/gwdata"
	"fpl-points-predictor/internal/live"
)

type Inventory struct {
	GeneratedAtUTC string     `json:"generated_at_utc"`
	RawRoot        string     `json:"raw_root"`
	Seasons        []Season   `json:"seasons"`
	Bootstrap      *Bootstrap `json:"bootstrap,omitempty"`
}

// Season summarizes the gameweek CSV headers cached for one season.
type Season struct {
	Season       string         `json:"season"`
	FilesScanned int            `json:"files_scanned"`
	Columns      []string       `json:"columns"`
	Missing      map[string]int `json:"missing,omitempty"` // contract field -> files lacking it
}

// Bootstrap counts cached bootstrap-static elements lacking a field the live
// decoder reads.
type Bootstrap struct {
	Elements int            `json:"elements"`
	Missing  map[string]int `json:"missing,omitempty"`
}

func main() {
	var (
		rawRoot  = flag.String("raw-root", "data/raw", "root directory for raw downloads")
		outPath  = flag.String("out", "data/derived/schema_inventory.json", "output path")
		maxFiles = flag.Int("max-files", 0, "max gameweek files per season (0 = no limit)")
	)
	flag.Parse()

	inv := Inventory{
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		RawRoot:        *rawRoot,
	}

	seasonDirs, err := filepath.Glob(filepath.Join(*rawRoot, "20*-*"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	sort.Strings(seasonDirs)
	for _, dir := range seasonDirs {
		files, _ := filepath.Glob(filepath.Join(dir, "gw*.csv"))
		sort.Strings(files)
		if *maxFiles > 0 && len(files) > *maxFiles {
			files = files[:*maxFiles]
		}
		if len(files) == 0 {
			fmt.Fprintf(os.Stderr, "no gameweek files for %s\n", dir)
			continue
		}
		inv.Seasons = append(inv.Seasons, scanSeason(filepath.Base(dir), files))
	}

	snapshot := filepath.Join(*rawRoot, "official_fpl_api", "bootstrap-static.json")
	if raw, err := os.ReadFile(snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "no bootstrap snapshot (%v)\n", err)
	} else if b, err := scanBootstrap(raw); err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap error %s: %v\n", snapshot, err)
	} else {
		inv.Bootstrap = &b
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	payload, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	payload = append(payload, '\n')
	if err := os.WriteFile(*outPath, payload, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, s := range inv.Seasons {
		if len(s.Missing) > 0 {
			fmt.Fprintf(os.Stderr, "%s: missing contract columns %v\n", s.Season, s.Missing)
		}
	}
	if inv.Bootstrap != nil && len(inv.Bootstrap.Missing) > 0 {
		fmt.Fprintf(os.Stderr, "bootstrap: missing element fields %v\n", inv.Bootstrap.Missing)
	}
	fmt.Println("wrote", *outPath)
}

// scanSeason reads only the header line of each gameweek CSV.
func scanSeason(season string, files []string) Season {
	out := Season{Season: season, Missing: map[string]int{}}
	cols := map[string]struct{}{}
	for _, f := range files {
		hdr, err := readHeader(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "header error %s: %v\n", f, err)
			continue
		}
		out.FilesScanned++
		for _, h := range hdr {
			cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = struct{}{}
		}
		for _, m := range gwdata.MissingColumns(hdr) {
			out.Missing[m]++
		}
	}
	for c := range cols {
		out.Columns = append(out.Columns, c)
	}
	sort.Strings(out.Columns)
	if len(out.Missing) == 0 {
		out.Missing = nil
	}
	return out
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.Read()
}

// elementFields lists the json keys live.Element decodes.
func elementFields() []string {
	t := reflect.TypeOf(live.Element{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys = append(keys, name)
		}
	}
	return keys
}

func scanBootstrap(raw []byte) (Bootstrap, error) {
	var doc struct {
		Elements []map[string]json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Bootstrap{}, err
	}
	out := Bootstrap{Elements: len(doc.Elements), Missing: map[string]int{}}
	keys := elementFields()
	for _, el := range doc.Elements {
		for _, k := range keys {
			if v, ok := el[k]; !ok || string(v) == "null" {
				out.Missing[k]++
			}
		}
	}
	if len(out.Missing) == 0 {
		out.Missing = nil
	}
	return out, nil
}
