// Package export writes the finalized record batch of each category to a CSV file.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"danawa/crawler/internal/domain"
)

var header = []string{"name", "price", "link"}

type Exporter interface {
	// Export writes records in the given order and returns the file path.
	Export(category domain.Category, records []domain.Record) (string, error)
}

// CSVExporter writes one <dir>/<category>.csv per category.
type CSVExporter struct {
	dir string
}

func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{dir: dir}
}

// Export replaces the category file atomically; a failed export leaves the
// previous file in place.
func (e *CSVExporter) Export(category domain.Category, records []domain.Record) (string, error) {
	if err := ensureDir(e.dir); err != nil {
		return "", err
	}

	target := filepath.Join(e.dir, category.Name+".csv")
	f, err := os.CreateTemp(e.dir, category.Name+".*.csv.tmp")
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := writeRecords(f, records); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close csv file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return "", fmt.Errorf("replace %s: %w", target, err)
	}
	return target, nil
}

func writeRecords(f *os.File, records []domain.Record) error {
	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := writer.Write([]string{r.Name, strconv.Itoa(r.Price), r.Link}); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
