package seed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"madpriser_api/internal/rema/storage"
	"madpriser_api/pkg/logger"
)

// DepartmentStore is the repository slice the seeder writes through.
type DepartmentStore interface {
	Upsert(ctx context.Context, d storage.Department) error
}

// Seeder imports department-to-category mappings from semicolon-separated
// CSV exports. Legacy exports are Windows-1252 encoded, hence the decode
// step before parsing.
type Seeder struct {
	store DepartmentStore
	log   logger.Logger
}

func NewSeeder(store DepartmentStore, log logger.Logger) *Seeder {
	return &Seeder{store: store, log: log.WithPrefix("[Seed]")}
}

// ImportDepartments reads rows of department_id;name;category and upserts
// them. The header row is optional. Returns how many rows were imported.
func (s *Seeder) ImportDepartments(ctx context.Context, reader io.Reader) (int, error) {
	decoder := transform.NewReader(reader, charmap.Windows1252.NewDecoder())
	csvReader := csv.NewReader(decoder)
	csvReader.Comma = ';'
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	rows, err := csvReader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("reading department csv: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("department csv is empty")
	}

	imported := 0
	for i, row := range rows {
		if len(row) < 3 {
			s.log.Errorf("row %d: expected 3 columns, got %d", i+1, len(row))
			continue
		}
		if i == 0 && isHeader(row) {
			continue
		}

		id := cast.ToInt(strings.TrimSpace(row[0]))
		if id <= 0 {
			s.log.Errorf("row %d: invalid department id %q", i+1, row[0])
			continue
		}
		department := storage.Department{
			ID:       id,
			Name:     strings.TrimSpace(row[1]),
			Category: strings.TrimSpace(row[2]),
		}
		if department.Category == "" {
			s.log.Errorf("row %d: empty category for department %d", i+1, id)
			continue
		}

		if err := s.store.Upsert(ctx, department); err != nil {
			return imported, err
		}
		imported++
	}

	s.log.Log("imported %d departments", imported)
	return imported, nil
}

func isHeader(row []string) bool {
	return cast.ToInt(strings.TrimSpace(row[0])) == 0
}
