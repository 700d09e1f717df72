package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type Department struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type DepartmentRepository struct {
	db *sql.DB
}

func NewDepartmentRepository(db *sql.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Upsert(ctx context.Context, d Department) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rema.departments (department_id, name, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (department_id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category`,
		d.ID, d.Name, d.Category)
	if err != nil {
		return fmt.Errorf("upserting department %d: %w", d.ID, err)
	}
	return nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]Department, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT department_id, name, category FROM rema.departments ORDER BY department_id`)
	if err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Category); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}
