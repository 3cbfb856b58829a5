package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	intconfig "tourledger/internal/config"
	h "tourledger/internal/http/handlers"
	"tourledger/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(h.Handler{Env: intconfig.Env{
		JWTSecret:   "secret",
		CORSOrigins: []string{"http://office.local"},
	}})
}

func TestRouterAuthBoundaries(t *testing.T) {
	r := testRouter()
	staff, err := middleware.IssueToken("secret", 3, middleware.RoleStaff, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	guest, _ := middleware.IssueToken("secret", 4, "customer", time.Hour)

	cases := []struct {
		name, method, path, token string
		want                      int
	}{
		{"health is public", http.MethodGet, "/api/health", "", http.StatusOK},
		{"webhook is public", http.MethodPost, "/api/webhooks/mercadopago", "", http.StatusOK},
		{"reports need a token", http.MethodGet, "/api/reports/dashboard", "", http.StatusUnauthorized},
		{"customers cannot use the back office", http.MethodGet, "/api/reports/trips", guest, http.StatusForbidden},
		{"staff passes auth", http.MethodGet, "/api/trips/abc/finance", staff, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/nope", staff, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
	req.Header.Set("Origin", "http://office.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://office.local" {
		t.Fatalf("allow origin = %q", got)
	}
}
