package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"labordash/internal/dashboard"
	apierrors "labordash/internal/errors"
	"labordash/internal/exporter"
	"labordash/pkg/contracts/domain"
)

const pngSuffix = ".png"

// DashboardHandler serves the dashboard API with RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/dimensions", h.GetDimensions)
	r.Get("/observations", h.GetObservations)
	r.Get("/observations.csv", h.ExportObservations)
	r.Get("/charts/{kind}", h.GetChart)
	r.Get("/summary", h.GetSummary)
	r.Get("/forecast", h.GetForecast)
	r.Get("/forecast.png", h.GetForecastPNG)
	r.Post("/reload", h.Reload)

	return r
}

// GetDimensions handles GET /api/dashboard/dimensions
func (h *DashboardHandler) GetDimensions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Dimensions(r.Context()))
}

// GetObservations handles GET /api/dashboard/observations.
// A filter without matches answers 200 with a zero count.
func (h *DashboardHandler) GetObservations(w http.ResponseWriter, r *http.Request) {
	f, err := dashboard.ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, h.service.Observations(r.Context(), f))
}

// ExportObservations handles GET /api/dashboard/observations.csv
func (h *DashboardHandler) ExportObservations(w http.ResponseWriter, r *http.Request) {
	f, err := dashboard.ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := h.service.Observations(r.Context(), f)

	var buf bytes.Buffer
	if err := exporter.WriteObservations(&buf, resp.Data, true); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="observations.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetChart handles GET /api/dashboard/charts/{kind} and its .png variant
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "kind")
	asPNG := strings.HasSuffix(name, pngSuffix)
	name = strings.TrimSuffix(name, pngSuffix)

	kind, ok := domain.ParseChartKind(name)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NewAppValidationError(
			fmt.Sprintf("unknown chart kind %q", name)).
			WithContext("kinds", domain.ChartKinds))
		return
	}

	f, err := dashboard.ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	spec, err := h.service.Chart(r.Context(), kind, f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if asPNG {
		h.writePNG(w, r, spec)
		return
	}
	render.JSON(w, r, spec)
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	f, err := dashboard.ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, h.service.Summary(r.Context(), f))
}

// GetForecast handles GET /api/dashboard/forecast
func (h *DashboardHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	f, horizon, err := dashboard.ParseForecastRequest(r.URL.Query(), h.service.DefaultHorizon())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Forecast(r.Context(), f, horizon)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}

// GetForecastPNG handles GET /api/dashboard/forecast.png
func (h *DashboardHandler) GetForecastPNG(w http.ResponseWriter, r *http.Request) {
	f, horizon, err := dashboard.ParseForecastRequest(r.URL.Query(), h.service.DefaultHorizon())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Forecast(r.Context(), f, horizon)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writePNG(w, r, resp.Chart)
}

// Reload handles POST /api/dashboard/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "reload requested", slog.String("request_id", reqID))

	resp, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "reload completed",
		slog.String("request_id", reqID),
		slog.Int("observations", resp.Observations),
		slog.Int("files", len(resp.Files)))
	render.JSON(w, r, resp)
}

// writePNG renders into a buffer first so a drawing failure still yields a problem response
func (h *DashboardHandler) writePNG(w http.ResponseWriter, r *http.Request, spec domain.ChartSpec) {
	var buf bytes.Buffer
	if err := h.service.RenderPNG(r.Context(), spec, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
