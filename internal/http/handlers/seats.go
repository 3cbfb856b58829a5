package handlers

import (
	"net/http"
	"strconv"

	"tourledger/internal/domain"

	"github.com/gin-gonic/gin"
)

// GET /api/vehicle-assignments/:id/seats
func (h Handler) SeatLayout(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	m, err := h.seats(c).LayoutFor(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type seatRequest struct {
	CustomerID *int64 `json:"customer_id"`
}

// PUT /api/vehicle-assignments/:id/seats/:number
//
// A null customer_id frees the seat.
func (h Handler) AssignSeat(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Field: "number", Msg: "nomor kursi tidak valid"})
		return
	}
	var req seatRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	seat, err := h.seats(c).AssignSeat(c.Request.Context(), id, number, req.CustomerID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if seat == nil {
		c.JSON(http.StatusOK, gin.H{"assignment_id": id, "seat_number": number, "occupied": false})
		return
	}
	c.JSON(http.StatusOK, seat)
}

// GET /api/vehicle-assignments/:id/candidates
func (h Handler) SeatCandidates(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.seats(c).Candidates(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GET /api/vehicle-assignments/:id/manifest.pdf
func (h Handler) ManifestPDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	data, filename, err := h.docs(c).Manifest(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, data, filename)
}
