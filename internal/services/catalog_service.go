package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	intdb "tourledger/internal/db"
	"tourledger/internal/domain"
	"tourledger/internal/domain/models"
	"tourledger/internal/repositories"
	"tourledger/internal/utils"

	"github.com/shopspring/decimal"
)

const DefaultAssignmentLabel = "Main vehicle"

// CatalogService writes the reference data (vehicles, trips, packages, customers, suppliers).
type CatalogService struct {
	DB          *sql.DB
	CatalogRepo repositories.CatalogRepository
	TripRepo    repositories.TripRepository
	RequestID   string
}

type TripInput struct {
	Title            string
	Destination      string
	DepartureAt      time.Time
	ReturnAt         *time.Time
	Status           string
	VehicleTypeID    *int64
	DesiredMarginPct decimal.Decimal
	PromoMarginPct   decimal.Decimal
	MinOccupancy     int
}

func (s CatalogService) CreateVehicleType(ctx context.Context, v models.VehicleType) (models.VehicleType, error) {
	v.Name = utils.NormalizeSpace(v.Name)
	v.ColumnLayout = strings.ReplaceAll(strings.TrimSpace(v.ColumnLayout), " ", "")
	switch {
	case v.Name == "":
		return models.VehicleType{}, domain.ValidationError{Field: "name", Msg: "nama wajib diisi"}
	case v.RowCount <= 0:
		return models.VehicleType{}, domain.ValidationError{Field: "row_count", Msg: "jumlah baris harus > 0"}
	case v.Capacity <= 0:
		return models.VehicleType{}, domain.ValidationError{Field: "capacity", Msg: "kapasitas harus > 0"}
	case v.ColumnLayout == "":
		return models.VehicleType{}, domain.ValidationError{Field: "column_layout", Msg: "layout kolom wajib diisi"}
	case v.BaseTransportCost.IsNegative():
		return models.VehicleType{}, domain.ValidationError{Field: "base_transport_cost", Msg: "biaya tidak boleh negatif"}
	}
	id, err := s.CatalogRepo.InsertVehicleType(ctx, nil, v)
	if err != nil {
		return models.VehicleType{}, err
	}
	v.ID = id
	utils.LogEvent(s.RequestID, "catalog", "vehicle_type", fmt.Sprintf("id=%d capacity=%d", v.ID, v.Capacity))
	return v, nil
}

// CreateTrip stores the trip and, when it has a vehicle type, its default vehicle assignment.
func (s CatalogService) CreateTrip(ctx context.Context, in TripInput) (models.Trip, []models.VehicleAssignment, error) {
	t := models.Trip{
		Title:            utils.NormalizeSpace(in.Title),
		Destination:      utils.NormalizeSpace(in.Destination),
		DepartureAt:      in.DepartureAt,
		ReturnAt:         in.ReturnAt,
		Status:           strings.ToLower(strings.TrimSpace(in.Status)),
		VehicleTypeID:    in.VehicleTypeID,
		DesiredMarginPct: in.DesiredMarginPct,
		PromoMarginPct:   in.PromoMarginPct,
		MinOccupancy:     in.MinOccupancy,
	}
	if t.Status == "" {
		t.Status = models.TripScheduled
	}
	if err := validateTrip(t); err != nil {
		return models.Trip{}, nil, err
	}

	var assignments []models.VehicleAssignment
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var vt models.VehicleType
		if t.VehicleTypeID != nil {
			var err error
			if vt, err = s.CatalogRepo.GetVehicleType(ctx, tx, *t.VehicleTypeID); err != nil {
				return err
			}
		}
		id, err := s.TripRepo.Insert(ctx, tx, t)
		if err != nil {
			return err
		}
		t.ID = id
		if t.VehicleTypeID == nil {
			return nil
		}
		a := models.VehicleAssignment{TripID: t.ID, VehicleTypeID: vt.ID, Label: DefaultAssignmentLabel, VehicleType: vt}
		if a.ID, err = s.TripRepo.InsertAssignment(ctx, tx, a); err != nil {
			return err
		}
		assignments = append(assignments, a)
		return nil
	})
	if err != nil {
		return models.Trip{}, nil, err
	}
	utils.LogEvent(s.RequestID, "catalog", "trip", fmt.Sprintf("id=%d assignments=%d", t.ID, len(assignments)))
	return t, assignments, nil
}

func validateTrip(t models.Trip) error {
	hundred := decimal.NewFromInt(100)
	switch {
	case t.Title == "":
		return domain.ValidationError{Field: "title", Msg: "judul wajib diisi"}
	case t.DepartureAt.IsZero():
		return domain.ValidationError{Field: "departure_at", Msg: "tanggal berangkat wajib diisi"}
	case t.ReturnAt != nil && t.ReturnAt.Before(t.DepartureAt):
		return domain.ValidationError{Field: "return_at", Msg: "tanggal kembali sebelum berangkat"}
	case t.Status != models.TripScheduled && t.Status != models.TripConfirmed &&
		t.Status != models.TripCompleted && t.Status != models.TripCancelled:
		return domain.ValidationError{Field: "status", Msg: "status tidak dikenal"}
	case t.DesiredMarginPct.IsNegative() || t.DesiredMarginPct.GreaterThan(hundred):
		return domain.ValidationError{Field: "desired_margin_pct", Msg: "margin harus 0-100"}
	case t.PromoMarginPct.IsNegative() || t.PromoMarginPct.GreaterThan(hundred):
		return domain.ValidationError{Field: "promo_margin_pct", Msg: "margin harus 0-100"}
	case t.MinOccupancy < 0:
		return domain.ValidationError{Field: "min_occupancy", Msg: "tidak boleh negatif"}
	}
	return nil
}

func (s CatalogService) CreatePackage(ctx context.Context, tripID int64, title string, price decimal.Decimal) (models.Package, error) {
	p := models.Package{TripID: tripID, Title: utils.NormalizeSpace(title), Price: price}
	if p.Title == "" {
		return models.Package{}, domain.ValidationError{Field: "title", Msg: "judul wajib diisi"}
	}
	if err := domain.ValidateAmount("price", price); err != nil {
		return models.Package{}, err
	}
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := s.TripRepo.GetByID(ctx, tx, tripID); err != nil {
			return err
		}
		id, err := s.TripRepo.InsertPackage(ctx, tx, p)
		p.ID = id
		return err
	})
	if err != nil {
		return models.Package{}, err
	}
	return p, nil
}

// AddVehicleAssignment attaches another vehicle to a trip.
func (s CatalogService) AddVehicleAssignment(ctx context.Context, tripID, vehicleTypeID int64, label string) (models.VehicleAssignment, error) {
	label = utils.NormalizeSpace(label)
	if label == "" {
		label = DefaultAssignmentLabel
	}
	a := models.VehicleAssignment{TripID: tripID, VehicleTypeID: vehicleTypeID, Label: label}
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := s.TripRepo.GetByID(ctx, tx, tripID); err != nil {
			return err
		}
		vt, err := s.CatalogRepo.GetVehicleType(ctx, tx, vehicleTypeID)
		if err != nil {
			return err
		}
		a.VehicleType = vt
		a.ID, err = s.TripRepo.InsertAssignment(ctx, tx, a)
		return err
	})
	if err != nil {
		return models.VehicleAssignment{}, err
	}
	return a, nil
}

func (s CatalogService) CreateCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	c.Name = utils.NormalizeSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" {
		return models.Customer{}, domain.ValidationError{Field: "name", Msg: "nama wajib diisi"}
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return models.Customer{}, domain.ValidationError{Field: "email", Msg: "email tidak valid"}
	}
	id, err := s.CatalogRepo.InsertCustomer(ctx, nil, c)
	if err != nil {
		return models.Customer{}, err
	}
	c.ID = id
	return c, nil
}

func (s CatalogService) CreateSupplier(ctx context.Context, sp models.Supplier) (models.Supplier, error) {
	sp.Name = utils.NormalizeSpace(sp.Name)
	sp.ServiceType = strings.ToLower(strings.TrimSpace(sp.ServiceType))
	if sp.Name == "" {
		return models.Supplier{}, domain.ValidationError{Field: "name", Msg: "nama wajib diisi"}
	}
	if sp.ServiceType == "" {
		sp.ServiceType = models.ServiceOther
	}
	if !models.IsServiceType(sp.ServiceType) {
		return models.Supplier{}, domain.ValidationError{Field: "service_type", Msg: "jenis layanan tidak dikenal"}
	}
	id, err := s.CatalogRepo.InsertSupplier(ctx, nil, sp)
	if err != nil {
		return models.Supplier{}, err
	}
	sp.ID = id
	return sp, nil
}
