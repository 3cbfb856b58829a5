package config

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaDDL is applied in order; every statement is idempotent.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS vehicle_types (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	row_count INT NOT NULL DEFAULT 12,
	capacity INT NOT NULL DEFAULT 48,
	column_layout VARCHAR(10) NOT NULL DEFAULT '2-2',
	base_transport_cost DECIMAL(12,2) NOT NULL DEFAULT 0.00,
	UNIQUE KEY uniq_vehicle_type_name (name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS trips (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	title VARCHAR(200) NOT NULL,
	destination VARCHAR(150) NOT NULL DEFAULT '',
	departure_at DATETIME NOT NULL,
	return_at DATETIME NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
	vehicle_type_id BIGINT NULL,
	desired_margin_pct DECIMAL(5,2) NOT NULL DEFAULT 30.00,
	promo_margin_pct DECIMAL(5,2) NOT NULL DEFAULT 15.00,
	min_occupancy INT NOT NULL DEFAULT 0,
	break_even_alert_sent TINYINT(1) NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_trip_departure (departure_at),
	CONSTRAINT fk_trip_vehicle_type FOREIGN KEY (vehicle_type_id) REFERENCES vehicle_types (id) ON DELETE RESTRICT
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS packages (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	title VARCHAR(100) NOT NULL,
	price DECIMAL(12,2) NOT NULL,
	KEY idx_package_trip (trip_id),
	CONSTRAINT fk_package_trip FOREIGN KEY (trip_id) REFERENCES trips (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS customers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(200) NOT NULL,
	email VARCHAR(200) NOT NULL DEFAULT '',
	phone VARCHAR(50) NOT NULL DEFAULT '',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS suppliers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(200) NOT NULL,
	service_type VARCHAR(30) NOT NULL DEFAULT 'other'
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	customer_id BIGINT NOT NULL,
	package_id BIGINT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	payment_status VARCHAR(20) NOT NULL DEFAULT 'awaiting',
	booking_status VARCHAR(30) NOT NULL DEFAULT 'confirmed',
	voucher VARCHAR(10) NULL,
	notes TEXT NULL,
	UNIQUE KEY uniq_booking_customer_package (customer_id, package_id),
	UNIQUE KEY uniq_booking_voucher (voucher),
	KEY idx_booking_package (package_id),
	CONSTRAINT fk_booking_customer FOREIGN KEY (customer_id) REFERENCES customers (id) ON DELETE RESTRICT,
	CONSTRAINT fk_booking_package FOREIGN KEY (package_id) REFERENCES packages (id) ON DELETE RESTRICT
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS payments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	amount DECIMAL(12,2) NOT NULL,
	method VARCHAR(30) NOT NULL DEFAULT '',
	paid_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_payment_booking (booking_id),
	KEY idx_payment_paid_at (paid_at),
	CONSTRAINT fk_payment_booking FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS quotations (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	supplier_id BIGINT NOT NULL,
	service_type VARCHAR(30) NOT NULL,
	quoted_amount DECIMAL(12,2) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	quoted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	due_date DATE NULL,
	selected TINYINT(1) NOT NULL DEFAULT 0,
	notes TEXT NULL,
	KEY idx_quotation_trip (trip_id),
	CONSTRAINT fk_quotation_trip FOREIGN KEY (trip_id) REFERENCES trips (id) ON DELETE CASCADE,
	CONSTRAINT fk_quotation_supplier FOREIGN KEY (supplier_id) REFERENCES suppliers (id) ON DELETE RESTRICT
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS supplier_payments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	quotation_id BIGINT NOT NULL,
	amount DECIMAL(12,2) NOT NULL,
	method VARCHAR(30) NOT NULL DEFAULT 'bank_transfer',
	paid_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	notes TEXT NULL,
	KEY idx_supplier_payment_quotation (quotation_id),
	CONSTRAINT fk_supplier_payment_quotation FOREIGN KEY (quotation_id) REFERENCES quotations (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS internal_expenses (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	description VARCHAR(255) NOT NULL,
	amount DECIMAL(12,2) NOT NULL,
	expense_type VARCHAR(30) NOT NULL,
	spent_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_expense_trip (trip_id),
	CONSTRAINT fk_expense_trip FOREIGN KEY (trip_id) REFERENCES trips (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS gateway_transactions (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	gateway VARCHAR(30) NOT NULL DEFAULT 'mercadopago',
	gateway_id VARCHAR(100) NOT NULL,
	checkout_id VARCHAR(100) NOT NULL DEFAULT '',
	booking_id BIGINT NULL,
	external_reference VARCHAR(100) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	amount DECIMAL(12,2) NOT NULL,
	method VARCHAR(30) NOT NULL DEFAULT '',
	installments INT NOT NULL DEFAULT 1,
	webhook_confirmed TINYINT(1) NOT NULL DEFAULT 0,
	payment_id BIGINT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	confirmed_at DATETIME NULL,
	UNIQUE KEY uniq_gateway_id (gateway_id),
	UNIQUE KEY uniq_gateway_payment (payment_id),
	KEY idx_gateway_booking (booking_id),
	CONSTRAINT fk_gateway_booking FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE SET NULL,
	CONSTRAINT fk_gateway_payment FOREIGN KEY (payment_id) REFERENCES payments (id) ON DELETE RESTRICT
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS vehicle_assignments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	vehicle_type_id BIGINT NOT NULL,
	label VARCHAR(100) NOT NULL,
	KEY idx_assignment_trip (trip_id),
	CONSTRAINT fk_assignment_trip FOREIGN KEY (trip_id) REFERENCES trips (id) ON DELETE CASCADE,
	CONSTRAINT fk_assignment_vehicle_type FOREIGN KEY (vehicle_type_id) REFERENCES vehicle_types (id) ON DELETE RESTRICT
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS seats (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	assignment_id BIGINT NOT NULL,
	seat_number INT NOT NULL,
	customer_id BIGINT NOT NULL,
	UNIQUE KEY uniq_seat_number (assignment_id, seat_number),
	UNIQUE KEY uniq_seat_customer (assignment_id, customer_id),
	CONSTRAINT fk_seat_assignment FOREIGN KEY (assignment_id) REFERENCES vehicle_assignments (id) ON DELETE CASCADE,
	CONSTRAINT fk_seat_customer FOREIGN KEY (customer_id) REFERENCES customers (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

// EnsureSchema creates every ledger table that does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db tidak tersedia")
	}
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
