package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables in dependency order.  editors and festivals are
// owned by the catalog service; only the columns needed for reference
// checks are created here.
var schema = []struct {
	name string
	ddl  string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('ADMIN','ORGANIZER') NOT NULL DEFAULT 'ORGANIZER',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"editors", `CREATE TABLE IF NOT EXISTS editors (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"festivals", `CREATE TABLE IF NOT EXISTS festivals (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"zones", `CREATE TABLE IF NOT EXISTS zones (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		festival_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		total_tables INT UNSIGNED NOT NULL,
		available_tables INT UNSIGNED NOT NULL,
		price_per_table_cents BIGINT NOT NULL DEFAULT 0,
		price_per_area_cents BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_zones_festival_name (festival_id, name),
		CONSTRAINT chk_zones_available CHECK (available_tables <= total_tables),
		CONSTRAINT fk_zones_festival FOREIGN KEY (festival_id) REFERENCES festivals(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"reservations", `CREATE TABLE IF NOT EXISTS reservations (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		editor_id BIGINT UNSIGNED NOT NULL,
		festival_id BIGINT UNSIGNED NOT NULL,
		tables_offered INT NOT NULL DEFAULT 0,
		discount_cents BIGINT NOT NULL DEFAULT 0,
		total_price_cents BIGINT NOT NULL,
		final_price_cents BIGINT NOT NULL,
		workflow_status ENUM('present','facture','facture_payee','annulée') NOT NULL DEFAULT 'present',
		presentation BOOLEAN NOT NULL DEFAULT FALSE,
		stock_released BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_reservations_festival (festival_id),
		KEY idx_reservations_editor (editor_id),
		CONSTRAINT chk_reservations_price CHECK (final_price_cents >= 0 AND final_price_cents <= total_price_cents),
		CONSTRAINT fk_reservations_editor FOREIGN KEY (editor_id) REFERENCES editors(id),
		CONSTRAINT fk_reservations_festival FOREIGN KEY (festival_id) REFERENCES festivals(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"reservation_lines", `CREATE TABLE IF NOT EXISTS reservation_lines (
		reservation_id BIGINT UNSIGNED NOT NULL,
		zone_id BIGINT UNSIGNED NOT NULL,
		tables INT UNSIGNED NOT NULL,
		area_sqm DECIMAL(10,2) NOT NULL DEFAULT 0,
		table_price_cents BIGINT NOT NULL,
		area_price_cents BIGINT NOT NULL,
		PRIMARY KEY (reservation_id, zone_id),
		CONSTRAINT fk_lines_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(id) ON DELETE CASCADE,
		CONSTRAINT fk_lines_zone FOREIGN KEY (zone_id) REFERENCES zones(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"invoices", `CREATE TABLE IF NOT EXISTS invoices (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		reservation_id BIGINT UNSIGNED NOT NULL,
		invoice_number VARCHAR(32) NOT NULL,
		amount_due_cents BIGINT NOT NULL,
		status ENUM('issued','paid') NOT NULL DEFAULT 'issued',
		issued_at DATETIME NOT NULL,
		paid_at DATETIME NULL,
		UNIQUE KEY uq_invoices_reservation (reservation_id),
		UNIQUE KEY uq_invoices_number (invoice_number),
		CONSTRAINT fk_invoices_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
}

// Migrate creates any missing table.  Existing tables are left as they are.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, t := range schema {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
	}
	return nil
}
