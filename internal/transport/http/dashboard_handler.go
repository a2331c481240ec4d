package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "mlpulse/internal/errors"
	"mlpulse/internal/services"
	"mlpulse/pkg/contracts/domain"
)

// DashboardHandler serves the aggregate-query surface over HTTP.
type DashboardHandler struct {
	service  DashboardServiceInterface
	exporter DashboardExporter
	logger   *slog.Logger
	validate *validator.Validate
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service DashboardServiceInterface, exporter DashboardExporter, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:  service,
		exporter: exporter,
		logger:   logger.With(slog.String("component", "dashboard_handler")),
		validate: validator.New(),
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/dashboard", h.GetDashboard)
	r.Get("/dashboard/genres/popularity", h.GetGenrePopularity)
	r.Get("/dashboard/genres/satisfaction", h.GetGenreSatisfaction)
	r.Get("/dashboard/trend", h.GetRatingTrend)
	r.Get("/dashboard/top-movies", h.GetTopMovies)
	r.Get("/dashboard/age-curves", h.GetAgeCurves)
	r.Get("/dashboard/correlation", h.GetCorrelation)
	r.Get("/eda", h.GetEDA)
	r.Get("/stats", h.GetStats)
	r.Post("/export", h.Export)

	return r
}

// dashboardQuery is the decoded and validated query-string form of a
// filter evaluation.
type dashboardQuery struct {
	AgeMin     *float64 `validate:"omitempty,gte=0,lte=130"`
	AgeMax     *float64 `validate:"omitempty,gte=0,lte=130"`
	MinRatings int      `validate:"gte=0"`
	TopN       int      `validate:"gte=0,lte=1000"`

	filter domain.Filter
	params services.QueryParams
}

// parseQuery decodes filter parameters from the URL. A list parameter that
// is absent means "no constraint"; a parameter that is present but empty is
// an explicit empty selection and matches nothing.
func (h *DashboardHandler) parseQuery(values url.Values) (*dashboardQuery, *apierrors.APIError) {
	q := &dashboardQuery{}

	parseFloat := func(name string) (*float64, *apierrors.APIError) {
		raw := values.Get(name)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apierrors.ErrValidation(name, "must be a number")
		}
		return &v, nil
	}
	parseInt := func(name string) (int, *apierrors.APIError) {
		raw := values.Get(name)
		if raw == "" {
			return 0, nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, apierrors.ErrValidation(name, "must be an integer")
		}
		return v, nil
	}

	var apiErr *apierrors.APIError
	if q.AgeMin, apiErr = parseFloat("age_min"); apiErr != nil {
		return nil, apiErr
	}
	if q.AgeMax, apiErr = parseFloat("age_max"); apiErr != nil {
		return nil, apiErr
	}
	if q.MinRatings, apiErr = parseInt("min_ratings"); apiErr != nil {
		return nil, apiErr
	}
	if q.TopN, apiErr = parseInt("top_n"); apiErr != nil {
		return nil, apiErr
	}

	if err := h.validate.Struct(q); err != nil {
		return nil, apierrors.InvalidRequestWithError(err)
	}
	if q.AgeMin != nil && q.AgeMax != nil && *q.AgeMin > *q.AgeMax {
		return nil, apierrors.ErrValidation("age_min", "must not exceed age_max")
	}

	q.filter = domain.Filter{
		AgeMin:      q.AgeMin,
		AgeMax:      q.AgeMax,
		Genders:     parseSelection(values, "genders"),
		Occupations: parseSelection(values, "occupations"),
		Genres:      parseSelection(values, "genres"),
	}
	q.params = services.QueryParams{
		MinRatings:     q.MinRatings,
		TopN:           q.TopN,
		AgeCurveGenres: splitList(values.Get("curve_genres")),
	}
	return q, nil
}

// parseSelection maps an absent parameter to an unconstrained selection
// and a present (possibly empty) parameter to an explicit subset.
func parseSelection(values url.Values, name string) domain.Selection {
	if _, present := values[name]; !present {
		return domain.Unconstrained()
	}
	return domain.Subset(splitList(values.Get(name))...)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *DashboardHandler) run(w http.ResponseWriter, r *http.Request) (*domain.DashboardResult, bool) {
	q, apiErr := h.parseQuery(r.URL.Query())
	if apiErr != nil {
		render.Render(w, r, apiErr)
		return nil, false
	}

	result, err := h.service.Dashboard(r.Context(), q.filter, q.params)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard query failed",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrDatasetNotLoaded)
		return nil, false
	}
	return result, true
}

// GetDashboard handles GET /api/dashboard: all six result tables for one
// filter evaluation.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if result, ok := h.run(w, r); ok {
		render.JSON(w, r, result)
	}
}

// GetGenrePopularity handles GET /api/dashboard/genres/popularity
func (h *DashboardHandler) GetGenrePopularity(w http.ResponseWriter, r *http.Request) {
	if result, ok := h.run(w, r); ok {
		render.JSON(w, r, result.GenrePopularity)
	}
}

// GetGenreSatisfaction handles GET /api/dashboard/genres/satisfaction
func (h *DashboardHandler) GetGenreSatisfaction(w http.ResponseWriter, r *http.Request) {
	if result, ok := h.run(w, r); ok {
		render.JSON(w, r, map[string]interface{}{
			"genre_satisfaction": result.GenreSatisfaction,
			"top_genres":         result.TopGenres,
		})
	}
}

// GetRatingTrend handles GET /api/dashboard/trend
func (h *DashboardHandler) GetRatingTrend(w http.ResponseWriter, r *http.Request) {
	if result, ok := h.run(w, r); ok {
		render.JSON(w, r, result.RatingTrend)
	}
}

// GetTopMovies handles GET /api/dashboard/top-movies
func (h *DashboardHandler) GetTopMovies(w http.ResponseWriter, r *http.Request) {
	if result, ok := h.run(w, r); ok {
		render.JSON(w, r, result.TopMovies)
	}
}

// GetAgeCurves handles GET /api/dashboard/age-curves
func (h *DashboardHandler) GetAgeCurves(w http.ResponseWriter, r *http.Request) {
	if result, ok := h.run(w, r); ok {
		render.JSON(w, r, result.AgeCurves)
	}
}

// GetCorrelation handles GET /api/dashboard/correlation
func (h *DashboardHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	if result, ok := h.run(w, r); ok {
		render.JSON(w, r, result.Correlation)
	}
}

// GetEDA handles GET /api/eda: the plain-text diagnostics report.
func (h *DashboardHandler) GetEDA(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.EDA(r.Context())
	if err != nil {
		render.Render(w, r, apierrors.ErrDatasetNotLoaded)
		return
	}
	render.PlainText(w, r, report)
}

// GetStats handles GET /api/stats: the load-time parse-warning ledger.
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.service.Stats()
	if stats == nil {
		render.Render(w, r, apierrors.ErrDatasetNotLoaded)
		return
	}
	render.JSON(w, r, stats)
}

// exportRequest is the body of POST /api/export.
type exportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv xlsx"`
	Prefix string `json:"prefix" validate:"omitempty,max=64"`
}

// Export handles POST /api/export: runs the filter evaluation given by the
// query string and writes the result tables in the requested format.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if req.Prefix == "" {
		req.Prefix = "dashboard"
	}

	result, ok := h.run(w, r)
	if !ok {
		return
	}

	paths, err := h.exporter.Export(req.Format, req.Prefix, result)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("format", req.Format),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrExportFailed)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"format": req.Format,
		"files":  paths,
	})
}
