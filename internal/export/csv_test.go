package export

import (
	"os"
	"path/filepath"
	"testing"

	"danawa/crawler/internal/domain"
)

func TestCSVExporterWritesHeaderAndQuotedRows(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	exporter := NewCSVExporter(dir)
	records := []domain.Record{
		{Name: "Monitor A", Price: 1200, Link: "http://x/a"},
		{Name: `Monitor "B", 27"`, Price: 0, Link: "http://x/b?x=1,2"},
	}

	path, err := exporter.Export(domain.Category{ID: 1, Name: "monitor"}, records)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if path != filepath.Join(dir, "monitor.csv") {
		t.Fatalf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "name,price,link\n" +
		"Monitor A,1200,http://x/a\n" +
		`"Monitor ""B"", 27""",0,"http://x/b?x=1,2"` + "\n"
	if string(data) != want {
		t.Fatalf("csv =\n%s\nwant\n%s", data, want)
	}
}

func TestCSVExporterReplacesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter(dir)
	cat := domain.Category{ID: 2, Name: "keyboard"}

	if _, err := exporter.Export(cat, []domain.Record{{Name: "Old", Price: 1, Link: "http://x/o"}}); err != nil {
		t.Fatalf("first export: %v", err)
	}
	path, err := exporter.Export(cat, nil)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "name,price,link\n" {
		t.Fatalf("csv = %q, want header only", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want 1 (no temp files left)", len(entries))
	}
}
