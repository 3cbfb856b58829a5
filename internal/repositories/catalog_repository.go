package repositories

import (
	"context"
	"database/sql"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"
)

const keyVehicleTypeName = "uniq_vehicle_type_name"

// CatalogRepository stores the reference data the ledger points at.
type CatalogRepository struct {
	DB *sql.DB
}

func (r CatalogRepository) InsertVehicleType(ctx context.Context, tx intdb.DBTX, v models.VehicleType) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx, `
		INSERT INTO vehicle_types (name, row_count, capacity, column_layout, base_transport_cost)
		VALUES (?, ?, ?, ?, ?)`,
		v.Name, v.RowCount, v.Capacity, v.ColumnLayout, v.BaseTransportCost,
	)
	if err != nil {
		if intdb.DuplicateKeyName(err) == keyVehicleTypeName {
			return 0, domain.ConflictError{Resource: "vehicle type", Msg: "nama sudah dipakai", Err: err}
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r CatalogRepository) GetVehicleType(ctx context.Context, tx intdb.DBTX, id int64) (models.VehicleType, error) {
	if id <= 0 {
		return models.VehicleType{}, domain.ValidationError{Field: "vehicle_type_id", Msg: "id tidak valid"}
	}
	var v models.VehicleType
	err := conn(tx, r.DB).QueryRowContext(ctx, `
		SELECT id, name, row_count, capacity, column_layout, base_transport_cost
		FROM vehicle_types WHERE id = ? LIMIT 1`, id,
	).Scan(&v.ID, &v.Name, &v.RowCount, &v.Capacity, &v.ColumnLayout, &v.BaseTransportCost)
	if err != nil {
		return models.VehicleType{}, notFound(err, "vehicle type")
	}
	return v, nil
}

func (r CatalogRepository) InsertCustomer(ctx context.Context, tx intdb.DBTX, c models.Customer) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx,
		`INSERT INTO customers (name, email, phone) VALUES (?, ?, ?)`, c.Name, c.Email, c.Phone,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r CatalogRepository) GetCustomer(ctx context.Context, tx intdb.DBTX, id int64) (models.Customer, error) {
	if id <= 0 {
		return models.Customer{}, domain.ValidationError{Field: "customer_id", Msg: "id tidak valid"}
	}
	var c models.Customer
	err := conn(tx, r.DB).QueryRowContext(ctx,
		`SELECT id, name, email, phone FROM customers WHERE id = ? LIMIT 1`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if err != nil {
		return models.Customer{}, notFound(err, "customer")
	}
	return c, nil
}

func (r CatalogRepository) InsertSupplier(ctx context.Context, tx intdb.DBTX, s models.Supplier) (int64, error) {
	res, err := conn(tx, r.DB).ExecContext(ctx,
		`INSERT INTO suppliers (name, service_type) VALUES (?, ?)`, s.Name, s.ServiceType,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r CatalogRepository) GetSupplier(ctx context.Context, tx intdb.DBTX, id int64) (models.Supplier, error) {
	if id <= 0 {
		return models.Supplier{}, domain.ValidationError{Field: "supplier_id", Msg: "id tidak valid"}
	}
	var s models.Supplier
	err := conn(tx, r.DB).QueryRowContext(ctx,
		`SELECT id, name, service_type FROM suppliers WHERE id = ? LIMIT 1`, id,
	).Scan(&s.ID, &s.Name, &s.ServiceType)
	if err != nil {
		return models.Supplier{}, notFound(err, "supplier")
	}
	return s, nil
}
