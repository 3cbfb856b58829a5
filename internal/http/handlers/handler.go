package handlers

import (
	"database/sql"
	"time"

	intconfig "tourledger/internal/config"
	"tourledger/internal/gateway"
	"tourledger/internal/http/middleware"
	"tourledger/internal/repositories"
	"tourledger/internal/services"

	"github.com/gin-gonic/gin"
)

// Handler builds request-scoped services from shared dependencies.
type Handler struct {
	DB       *sql.DB
	Gateway  gateway.Gateway
	Env      intconfig.Env
	Notifier services.Notifier
	Now      func() time.Time
}

func (h Handler) ledger(c *gin.Context) services.LedgerService {
	return services.LedgerService{
		DB:            h.DB,
		BookingRepo:   repositories.BookingRepository{DB: h.DB},
		PaymentRepo:   repositories.PaymentRepository{DB: h.DB},
		QuotationRepo: repositories.QuotationRepository{DB: h.DB},
		TripRepo:      repositories.TripRepository{DB: h.DB},
		CatalogRepo:   repositories.CatalogRepository{DB: h.DB},
		Notifier:      h.Notifier,
		RequestID:     middleware.GetRequestID(c),
		Now:           h.Now,
	}
}

func (h Handler) catalog(c *gin.Context) services.CatalogService {
	return services.CatalogService{
		DB:          h.DB,
		CatalogRepo: repositories.CatalogRepository{DB: h.DB},
		TripRepo:    repositories.TripRepository{DB: h.DB},
		RequestID:   middleware.GetRequestID(c),
	}
}

func (h Handler) reports(c *gin.Context) services.ReportsService {
	return services.ReportsService{
		ReportsRepo: repositories.ReportsRepository{DB: h.DB},
		TripRepo:    repositories.TripRepository{DB: h.DB},
		CatalogRepo: repositories.CatalogRepository{DB: h.DB},
		RequestID:   middleware.GetRequestID(c),
		Now:         h.Now,
	}
}

func (h Handler) payments(c *gin.Context) services.GatewayService {
	return services.GatewayService{
		DB:              h.DB,
		Gateway:         h.Gateway,
		TxRepo:          repositories.GatewayTransactionRepository{DB: h.DB},
		BookingRepo:     repositories.BookingRepository{DB: h.DB},
		PaymentRepo:     repositories.PaymentRepository{DB: h.DB},
		NotificationURL: h.Env.WebhookURL(),
		BackURL:         h.Env.SiteURL,
		WebhookSecret:   h.Env.MPWebhookSecret,
		Timeout:         h.Env.GatewayTimeout,
		RequestID:       middleware.GetRequestID(c),
		Now:             h.Now,
	}
}

func (h Handler) seats(c *gin.Context) services.SeatService {
	return services.SeatService{
		DB:          h.DB,
		SeatRepo:    repositories.SeatRepository{DB: h.DB},
		TripRepo:    repositories.TripRepository{DB: h.DB},
		BookingRepo: repositories.BookingRepository{DB: h.DB},
		RequestID:   middleware.GetRequestID(c),
	}
}

func (h Handler) docs(c *gin.Context) services.DocsService {
	return services.DocsService{
		Reports:     h.reports(c),
		Seats:       h.seats(c),
		BookingRepo: repositories.BookingRepository{DB: h.DB},
		RequestID:   middleware.GetRequestID(c),
		Now:         h.Now,
	}
}
