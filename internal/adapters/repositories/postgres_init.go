package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the Postgres database schema. Used by cmd/dbtool and by the
// server when DATABASE_URL selects the Postgres adapters.
func InitSchemaPostgres(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`
		CREATE TABLE IF NOT EXISTS shipments (
			id BIGSERIAL PRIMARY KEY,
			tracking_code TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL,
			weight_kg DOUBLE PRECISION NOT NULL,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			lon DOUBLE PRECISION,
			lat DOUBLE PRECISION,
			status TEXT NOT NULL DEFAULT 'PENDING',
			customer_id BIGINT NOT NULL,
			courier_id BIGINT,
			estimated_delivery TIMESTAMPTZ,
			delivered_at TIMESTAMPTZ,
			last_incident TEXT NOT NULL DEFAULT '',
			incident_at TIMESTAMPTZ,
			customer_notified BOOLEAN NOT NULL DEFAULT FALSE,
			notified_at TIMESTAMPTZ
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS workdays (
			id BIGSERIAL PRIMARY KEY,
			courier_id BIGINT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'ACTIVE'
		);
		`,
		`
		CREATE INDEX IF NOT EXISTS idx_shipments_courier_status
		ON shipments(courier_id, status);
		`,
		`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_workdays_one_active
		ON workdays(courier_id) WHERE status = 'ACTIVE';
		`,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate a Postgres database with shipment data from a JSON file.
// Already-seeded tracking codes are left untouched.
func SeedFromJSONPostgres(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed shipments: read %q: %w", jsonPath, err)
	}

	var data []ShipmentSeed
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed shipments: parse json: %w", err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.TrackingCode) == "" {
			return fmt.Errorf("seed shipments: item at index %d: tracking_code cannot be empty", i+1)
		}
		if strings.TrimSpace(item.Destination) == "" {
			return fmt.Errorf("seed shipments: item at index %d: destination cannot be empty", i+1)
		}
		if item.CustomerID <= 0 {
			return fmt.Errorf("seed shipments: item at index %d: invalid customer_id %d", i+1, item.CustomerID)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed shipments: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO shipments (
		tracking_code,
		description,
		weight_kg,
		origin,
		destination,
		lon,
		lat,
		customer_id
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (tracking_code) DO NOTHING;
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed shipments: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range data {
		if _, err := stmt.Exec(
			s.TrackingCode, s.Description, s.WeightKg,
			s.Origin, s.Destination, s.Lon, s.Lat, s.CustomerID,
		); err != nil {
			return fmt.Errorf("seed shipments: insert tracking_code=%q: %w", s.TrackingCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed shipments: commit tx: %w", err)
	}

	return nil
}
