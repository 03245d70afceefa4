package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oddsfair/slipexchange/internal/service"
)

// NewRouter creates a chi router with all routes registered, request
// logging, and Content-Type validation middleware.
func NewRouter(
	orderSvc *service.OrderService,
	ownershipSvc *service.OwnershipService,
	marketSvc *service.MarketService,
	sessionSvc *service.SessionService,
	suspensionSvc *service.SuspensionService,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	orderH := NewOrderHandler(orderSvc)
	slipH := NewSlipHandler(ownershipSvc, marketSvc)
	sessionH := NewSessionHandler(sessionSvc)
	suspensionH := NewSuspensionHandler(suspensionSvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Slip routes.
	r.Post("/slips", slipH.RegisterSlip)
	r.Get("/slips/{slip_id}", slipH.GetSlip)
	r.Get("/slips/{slip_id}/ownership", slipH.GetOwnership)
	r.Get("/slips/{slip_id}/depth", slipH.GetDepth)
	r.Get("/slips/{slip_id}/trades", slipH.GetTrades)
	r.Post("/slips/{slip_id}/split", slipH.Split)
	r.Post("/slips/{slip_id}/merge", slipH.Merge)

	// Order routes.
	r.Post("/orders", orderH.PlaceOrder)
	r.Get("/orders/{order_id}", orderH.GetOrder)
	r.Delete("/orders/{order_id}", orderH.CancelOrder)
	r.Get("/traders/{trader_id}/orders", orderH.ListOrders)

	// Session routes.
	r.Post("/sessions", sessionH.Create)
	r.Get("/sessions/{session_id}", sessionH.Get)
	r.Post("/sessions/{session_id}/collect", sessionH.StartCollecting)
	r.Post("/sessions/{session_id}/match", sessionH.TriggerMatching)
	r.Post("/sessions/{session_id}/cancel", sessionH.Cancel)

	// Suspension routes.
	r.Post("/suspensions", suspensionH.Trigger)
	r.Post("/matches/{match_id}/resume", suspensionH.Resume)
	r.Get("/matches/{match_id}/suspension", suspensionH.Status)

	return r
}

// requestLogging returns middleware that logs each request's method,
// path, status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST,
// PUT, and PATCH requests. If the Content-Type header doesn't start
// with "application/json", it returns 400 Bad Request before the
// handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
