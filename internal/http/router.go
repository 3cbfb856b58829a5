package api

import (
	"log"
	stdhttp "net/http"

	h "tourledger/internal/http/handlers"
	"tourledger/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(hd h.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(hd.Env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route tidak ditemukan",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", hd.DBCheck)
		api.POST("/webhooks/mercadopago", hd.MercadoPagoWebhook)

		office := api.Group("")
		office.Use(middleware.RequireAuth(hd.Env.JWTSecret), middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleStaff))
		office.GET("/routes", h.Routes)

		// Catalog
		office.POST("/vehicle-types", hd.CreateVehicleType)
		office.POST("/customers", hd.CreateCustomer)
		office.POST("/suppliers", hd.CreateSupplier)

		trips := office.Group("/trips")
		trips.POST("", hd.CreateTrip)
		trips.POST("/:id/packages", hd.CreatePackage)
		trips.POST("/:id/vehicles", hd.AddVehicleAssignment)
		trips.POST("/:id/expenses", hd.RecordExpense)
		trips.GET("/:id/finance", hd.TripFinance)
		trips.GET("/:id/statement.pdf", hd.TripStatementPDF)
		trips.GET("/:id/quotations", hd.TripQuotations)
		trips.GET("/:id/quotations.pdf", hd.TripQuotationsPDF)

		// Receivables
		bookings := office.Group("/bookings")
		bookings.POST("", hd.CreateBooking)
		bookings.PUT("/:id/status", hd.UpdateBookingStatus)
		bookings.POST("/:id/payments", hd.RecordPayment)
		bookings.POST("/:id/checkout", hd.CreateCheckout)

		payments := office.Group("/payments")
		payments.PUT("/:id", hd.UpdatePayment)
		payments.DELETE("/:id", hd.DeletePayment)

		office.POST("/gateway-transactions/:id/cancel", hd.CancelGatewayTransaction)

		// Payables
		quotations := office.Group("/quotations")
		quotations.POST("", hd.CreateQuotation)
		quotations.PUT("/:id/status", hd.UpdateQuotationStatus)
		quotations.POST("/:id/payments", hd.RecordSupplierPayment)
		quotations.GET("/:id/balance", hd.PayableBalance)

		// Reports
		reports := office.Group("/reports")
		reports.GET("/revenue", hd.RevenueReport)
		reports.GET("/expenses", hd.ExpensesReport)
		reports.GET("/receivables", hd.ReceivablesReport)
		reports.GET("/payables", hd.PayablesReport)
		reports.GET("/trips", hd.TripsReport)
		reports.GET("/dashboard", hd.Dashboard)

		// Seats
		seats := office.Group("/vehicle-assignments/:id")
		seats.GET("/seats", hd.SeatLayout)
		seats.PUT("/seats/:number", hd.AssignSeat)
		seats.GET("/candidates", hd.SeatCandidates)
		seats.GET("/manifest.pdf", hd.ManifestPDF)
	}

	return r
}
