package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"tourledger/internal/domain"
	"tourledger/internal/http/middleware"
	"tourledger/internal/utils"

	"github.com/gin-gonic/gin"
)

// RespondError sends standard error payload with request_id included.
// Keeps backward compatibility by always providing "message".
func RespondError(c *gin.Context, status int, message string, err error) {
	reqID := middleware.GetRequestID(c)
	payload := gin.H{
		"message":    message,
		"request_id": reqID,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "body kosong", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "payload tidak valid", err)
		return false
	}
	return true
}

// paramID parses a positive path id, responding 400 when it is not one.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondDomainError(c, domain.ValidationError{Field: name, Msg: "id tidak valid"})
		return 0, false
	}
	return id, true
}

// parseOptionalTime accepts RFC3339, "YYYY-MM-DD HH:MM:SS" or a bare date; empty means nil.
func parseOptionalTime(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseFlexibleTime(raw)
	if err != nil {
		return nil, domain.ValidationError{Field: field, Msg: "format tanggal tidak valid", Err: err}
	}
	return &t, nil
}

// periodFromQuery reads start_date/end_date (YYYY-MM-DD), each defaulting to the given period.
func periodFromQuery(c *gin.Context, def domain.Period) (domain.Period, error) {
	p := def
	if raw := strings.TrimSpace(c.Query("start_date")); raw != "" {
		t, err := utils.ParseDate(raw)
		if err != nil {
			return p, domain.ValidationError{Field: "start_date", Msg: "format tanggal tidak valid", Err: err}
		}
		p.From = t
	}
	if raw := strings.TrimSpace(c.Query("end_date")); raw != "" {
		t, err := utils.ParseDate(raw)
		if err != nil {
			return p, domain.ValidationError{Field: "end_date", Msg: "format tanggal tidak valid", Err: err}
		}
		p.To = t
	}
	if p.To.Before(p.From) {
		return p, domain.ValidationError{Field: "end_date", Msg: "end_date sebelum start_date"}
	}
	return p, nil
}

func sendPDF(c *gin.Context, data []byte, filename string) {
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
