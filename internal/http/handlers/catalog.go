package handlers

import (
	"net/http"

	"tourledger/internal/domain/models"
	"tourledger/internal/services"

	"github.com/gin-gonic/gin"
)

type vehicleTypeRequest struct {
	Name              string `json:"name"`
	RowCount          int    `json:"row_count"`
	Capacity          int    `json:"capacity"`
	ColumnLayout      string `json:"column_layout"`
	BaseTransportCost money  `json:"base_transport_cost"`
}

// POST /api/vehicle-types
func (h Handler) CreateVehicleType(c *gin.Context) {
	var req vehicleTypeRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := h.catalog(c).CreateVehicleType(c.Request.Context(), models.VehicleType{
		Name:              req.Name,
		RowCount:          req.RowCount,
		Capacity:          req.Capacity,
		ColumnLayout:      req.ColumnLayout,
		BaseTransportCost: req.BaseTransportCost.Decimal,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

type tripRequest struct {
	Title            string `json:"title"`
	Destination      string `json:"destination"`
	DepartureAt      string `json:"departure_at"`
	ReturnAt         string `json:"return_at"`
	Status           string `json:"status"`
	VehicleTypeID    *int64 `json:"vehicle_type_id"`
	DesiredMarginPct money  `json:"desired_margin_pct"`
	PromoMarginPct   money  `json:"promo_margin_pct"`
	MinOccupancy     int    `json:"min_occupancy"`
}

// POST /api/trips
func (h Handler) CreateTrip(c *gin.Context) {
	var req tripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	in := services.TripInput{
		Title:            req.Title,
		Destination:      req.Destination,
		Status:           req.Status,
		VehicleTypeID:    req.VehicleTypeID,
		DesiredMarginPct: req.DesiredMarginPct.Decimal,
		PromoMarginPct:   req.PromoMarginPct.Decimal,
		MinOccupancy:     req.MinOccupancy,
	}
	dep, err := parseOptionalTime("departure_at", req.DepartureAt)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if dep != nil {
		in.DepartureAt = *dep
	}
	if in.ReturnAt, err = parseOptionalTime("return_at", req.ReturnAt); err != nil {
		RespondDomainError(c, err)
		return
	}

	trip, assignments, err := h.catalog(c).CreateTrip(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trip": trip, "vehicle_assignments": assignments})
}

type packageRequest struct {
	Title string `json:"title"`
	Price money  `json:"price"`
}

// POST /api/trips/:id/packages
func (h Handler) CreatePackage(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req packageRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	p, err := h.catalog(c).CreatePackage(c.Request.Context(), tripID, req.Title, req.Price.Decimal)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

type assignmentRequest struct {
	VehicleTypeID int64  `json:"vehicle_type_id"`
	Label         string `json:"label"`
}

// POST /api/trips/:id/vehicles
func (h Handler) AddVehicleAssignment(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req assignmentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	a, err := h.catalog(c).AddVehicleAssignment(c.Request.Context(), tripID, req.VehicleTypeID, req.Label)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// POST /api/customers
func (h Handler) CreateCustomer(c *gin.Context) {
	var req models.Customer
	if !BindJSONOrError(c, &req) {
		return
	}
	req.ID = 0
	cu, err := h.catalog(c).CreateCustomer(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cu)
}

// POST /api/suppliers
func (h Handler) CreateSupplier(c *gin.Context) {
	var req models.Supplier
	if !BindJSONOrError(c, &req) {
		return
	}
	req.ID = 0
	sp, err := h.catalog(c).CreateSupplier(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sp)
}
