package reporting

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler provides HTTP handlers for the report API.
type Handler struct {
	pipeline *Pipeline
}

// NewHandler creates a new reporting handler.
func NewHandler(pipeline *Pipeline) *Handler {
	return &Handler{pipeline: pipeline}
}

// RegisterRoutes registers the report API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	reports := api.Group("/reports")
	reports.GET("", h.ListReports)
	reports.GET("/:id/evaluate", h.EvaluateReport)
}

// ListReports returns all available report definitions.
func (h *Handler) ListReports(c echo.Context) error {
	return c.JSON(http.StatusOK, Definitions())
}

// EvaluateReport runs the pipeline for one report and returns the result.
func (h *Handler) EvaluateReport(c echo.Context) error {
	id := c.Param("id")
	if FindDefinition(id) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}

	rep, err := h.pipeline.Evaluate(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rep)
}
