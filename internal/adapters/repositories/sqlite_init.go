package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createShipmentsQuery := `
	CREATE TABLE IF NOT EXISTS shipments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tracking_code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		weight_kg REAL NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		lon REAL,
		lat REAL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		customer_id INTEGER NOT NULL,
		courier_id INTEGER,
		estimated_delivery TIMESTAMP,
		delivered_at TIMESTAMP,
		last_incident TEXT NOT NULL DEFAULT '',
		incident_at TIMESTAMP,
		customer_notified INTEGER NOT NULL DEFAULT 0,
		notified_at TIMESTAMP
	);
	`

	createWorkdaysQuery := `
	CREATE TABLE IF NOT EXISTS workdays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		courier_id INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP,
		status TEXT NOT NULL DEFAULT 'ACTIVE'
	);
	`

	createShipmentIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_shipments_courier_status
	ON shipments(courier_id, status);
	`

	// Partial unique index enforces "at most one ACTIVE workday per courier"
	// at the storage layer as well as in the use case.
	createWorkdayIndexQuery := `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_workdays_one_active
	ON workdays(courier_id) WHERE status = 'ACTIVE';
	`

	statements := []string{
		createShipmentsQuery,
		createWorkdaysQuery,
		createShipmentIndexQuery,
		createWorkdayIndexQuery,
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

type ShipmentSeed struct {
	TrackingCode string   `json:"tracking_code"`
	Description  string   `json:"description"`
	WeightKg     float64  `json:"weight_kg"`
	Origin       string   `json:"origin"`
	Destination  string   `json:"destination"`
	Lon          *float64 `json:"lon"`
	Lat          *float64 `json:"lat"`
	CustomerID   int64    `json:"customer_id"`
}

// Populate the database with shipment data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed shipments: read %q: %w", jsonPath, err)
	}

	var data []ShipmentSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
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
	INSERT OR IGNORE INTO shipments (
		tracking_code,
		description,
		weight_kg,
		origin,
		destination,
		lon,
		lat,
		customer_id
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
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
