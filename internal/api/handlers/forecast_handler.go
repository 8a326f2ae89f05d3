// internal/api/handlers/forecast_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/service"
)

type ForecastHandler struct {
	engine *service.EngineService
}

func NewForecastHandler(engine *service.EngineService) *ForecastHandler {
	return &ForecastHandler{engine: engine}
}

// GetDashboard returns the aggregated landing-page view.
func (h *ForecastHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.engine.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetProductDetail returns the per-product drill-down.
func (h *ForecastHandler) GetProductDetail(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	detail, err := h.engine.ProductDetail(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetAlerts returns unresolved alerts in triage order.
func (h *ForecastHandler) GetAlerts(c *gin.Context) {
	alerts, err := h.engine.ActiveAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

// GetPerformance returns the fleet evaluation summary. Pass
// ?refresh=true to bypass the cache.
func (h *ForecastHandler) GetPerformance(c *gin.Context) {
	useCache := c.Query("refresh") != "true"
	summary, cacheHit, err := h.engine.PerformanceSummary(c.Request.Context(), useCache)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "cache_hit": cacheHit})
}

// TrainAll retrains the whole fleet.
func (h *ForecastHandler) TrainAll(c *gin.Context) {
	result, err := h.engine.TrainAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// TrainProduct retrains one product's model.
func (h *ForecastHandler) TrainProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	result, err := h.engine.TrainProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ForecastAll regenerates and persists forecasts for the whole fleet.
func (h *ForecastHandler) ForecastAll(c *gin.Context) {
	result, err := h.engine.ForecastAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ForecastProduct generates and persists one product's forecast. An
// optional ?horizon_days=N overrides the configured horizon.
func (h *ForecastHandler) ForecastProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	horizonDays := 0
	if raw := c.Query("horizon_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid horizon_days"})
			return
		}
		horizonDays = parsed
	}

	result, err := h.engine.ForecastProduct(c.Request.Context(), productID, horizonDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseProductID(c *gin.Context) (int64, bool) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return 0, false
	}
	return productID, true
}

func respondError(c *gin.Context, err error) {
	kind := domain.ErrorKind(err)
	status := http.StatusInternalServerError
	switch kind {
	case "validation_error", "schema_error":
		status = http.StatusBadRequest
	case "model_not_found":
		status = http.StatusNotFound
	case "insufficient_data":
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}
