package store

import (
	"os"
	"strings"
	"testing"
)

func TestWriteRaw_PrettyJSON(t *testing.T) {
	st := New(t.TempDir())
	if err := st.WriteRaw("api/bootstrap.json", []byte(`{"a":1}`), true); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	b, err := st.ReadRaw("api/bootstrap.json")
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"a\": 1") {
		t.Errorf("expected indented JSON, got %q", string(b))
	}
}

func TestWriteRaw_CSVVerbatim(t *testing.T) {
	st := New(t.TempDir())
	body := "name,minutes\nA B,90\n"
	if err := st.WriteRaw("2023-24/gw1.csv", []byte(body), true); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	b, err := st.ReadRaw("2023-24/gw1.csv")
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if string(b) != body {
		t.Errorf("csv body changed: %q", string(b))
	}
}

func TestExists(t *testing.T) {
	st := New(t.TempDir())
	if st.Exists("missing.csv") {
		t.Error("missing file reported as existing")
	}
	if err := os.WriteFile(st.Path("here.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !st.Exists("here.csv") {
		t.Error("existing file reported as missing")
	}
}

func TestReadRaw_Missing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.ReadRaw("nope.json"); !os.IsNotExist(err) {
		t.Errorf("err = %v, want not-exist", err)
	}
}
