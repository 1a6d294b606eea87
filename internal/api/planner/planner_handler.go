package planner

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/ljunwei/go-date-planner/internal/api"
	"github.com/ljunwei/go-date-planner/internal/types"
)

type Handler struct {
	plannerService Service
	logger         *slog.Logger
}

func NewHandler(plannerService Service, logger *slog.Logger) *Handler {
	return &Handler{
		plannerService: plannerService,
		logger:         logger,
	}
}

// PlanDate handles POST /dates/plan.
func (h *Handler) PlanDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlanDate").Start(r.Context(), "PlanDate", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/dates/plan"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "PlanDate"))
	l.DebugContext(ctx, "Plan date handler invoked")

	var req types.PlanRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.plannerService.PlanDate(ctx, req)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// writeError maps the planner error taxonomy to HTTP statuses. Validation
// problems are the caller's fault; insufficient candidates and coverage
// shortfalls are well-formed requests the engine cannot satisfy; everything
// else is an internal failure.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *types.ValidationError
	var insufficientErr *types.InsufficientCandidatesError
	var coverageErr *types.CoverageError

	switch {
	case errors.As(err, &validationErr):
		h.logger.WarnContext(ctx, "Request rejected", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficientErr), errors.As(err, &coverageErr):
		h.logger.InfoContext(ctx, "Plan not satisfiable", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, types.ErrCatalogNotReady):
		h.logger.WarnContext(ctx, "Catalog not ready", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "catalog is still loading, try again shortly")
	default:
		h.logger.ErrorContext(ctx, "Planning failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "internal error while planning the date")
	}
}
