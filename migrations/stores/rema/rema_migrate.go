package rema

import (
	"database/sql"
	"fmt"
	"log"
)

func checkAndSkipMigration(db *sql.DB, name string) (bool, error) {
	var migrationExists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", name).Scan(&migrationExists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	if migrationExists {
		log.Printf("Migration '%s' already completed. Skipping.", name)
	}
	return migrationExists, nil
}

func executeAndMarkMigration(db *sql.DB, query, name string) error {
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to apply migration '%s': %w", name, err)
	}
	if _, err := db.Exec("INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", name); err != nil {
		return fmt.Errorf("failed to mark migration '%s' as complete: %w", name, err)
	}
	return nil
}

type CreateMigrationsSchema struct{}

func (m *CreateMigrationsSchema) UpMigration(db *sql.DB) error {
	query := `
	CREATE SCHEMA IF NOT EXISTS migrations;
	CREATE TABLE IF NOT EXISTS migrations.migrations (
		name VARCHAR(255) PRIMARY KEY,
		time TIMESTAMP WITH TIME ZONE NOT NULL
	);`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations schema: %w", err)
	}
	return nil
}

type CreateRemaSchema struct{}

func (m *CreateRemaSchema) UpMigration(db *sql.DB) error {
	query := `
	CREATE SCHEMA IF NOT EXISTS rema;`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create schema rema: %w", err)
	}
	return nil
}

type CreateRemaProductsTable struct{}

func (m *CreateRemaProductsTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, "rema.products"); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS rema.products (
		external_id VARCHAR(64) PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		category VARCHAR(255) NOT NULL,
		price NUMERIC(12, 2) NOT NULL DEFAULT 0,
		original_price NUMERIC(12, 2) NOT NULL DEFAULT 0,
		is_on_sale BOOLEAN NOT NULL DEFAULT FALSE,
		image_url TEXT,
		available BOOLEAN NOT NULL DEFAULT TRUE,
		last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		source VARCHAR(64) NOT NULL,
		store VARCHAR(64) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS rema_products_category_idx ON rema.products(category);
	CREATE INDEX IF NOT EXISTS rema_products_last_updated_idx ON rema.products(last_updated);`
	if err := executeAndMarkMigration(db, query, "rema.products"); err != nil {
		return err
	}
	log.Println("Migration 'rema.products' completed successfully.")
	return nil
}

type CreateRemaPriceHistoryTable struct{}

func (m *CreateRemaPriceHistoryTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, "rema.price_history"); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS rema.price_history (
		entry_id SERIAL PRIMARY KEY,
		product_external_id VARCHAR(64) NOT NULL REFERENCES rema.products(external_id),
		price NUMERIC(12, 2) NOT NULL,
		original_price NUMERIC(12, 2) NOT NULL,
		is_on_sale BOOLEAN NOT NULL,
		recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS rema_price_history_product_idx
		ON rema.price_history(product_external_id, recorded_at);`
	if err := executeAndMarkMigration(db, query, "rema.price_history"); err != nil {
		return err
	}
	log.Println("Migration 'rema.price_history' completed successfully.")
	return nil
}

type CreateRemaDepartmentsTable struct{}

func (m *CreateRemaDepartmentsTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, "rema.departments"); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS rema.departments (
		department_id INT PRIMARY KEY,
		name VARCHAR(255) NOT NULL DEFAULT '',
		category VARCHAR(255) NOT NULL
	);`
	if err := executeAndMarkMigration(db, query, "rema.departments"); err != nil {
		return err
	}
	log.Println("Migration 'rema.departments' completed successfully.")
	return nil
}
