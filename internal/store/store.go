package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Store is a root-relative file cache for raw downloads (gameweek CSVs,
// cleaned_players.csv, FPL API JSON) and derived outputs.
type Store struct {
	Root string // e.g. "data/raw"
}

func New(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) Path(rel string) string {
	return filepath.Join(s.Root, rel)
}

func (s *Store) Exists(rel string) bool {
	_, err := os.Stat(s.Path(rel))
	return err == nil
}

// WriteRaw writes body under rel. When pretty is set and rel is a .json
// file, the body is re-indented; other formats are written verbatim.
func (s *Store) WriteRaw(rel string, body []byte, pretty bool) error {
	path := s.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if pretty && strings.HasSuffix(rel, ".json") {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			buf := &bytes.Buffer{}
			enc := json.NewEncoder(buf)
			enc.SetIndent("", "  ")
			_ = enc.Encode(v)
			body = buf.Bytes()
		}
	}

	return os.WriteFile(path, body, 0o644)
}

func (s *Store) ReadRaw(rel string) ([]byte, error) {
	return os.ReadFile(s.Path(rel))
}

// WriteJSON marshals v with indentation and a trailing newline.
func (s *Store) WriteJSON(rel string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return s.WriteRaw(rel, b, false)
}
