package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"signal_chart/internal/render"
	"signal_chart/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusStarted = "started"
	statusIdle    = "idle"

	errUpdateChart     = "failed to start chart update"
	errToggleChart     = "failed to toggle chart"
	errRenderChart     = "failed to render chart"
	errNothingToDraw   = "chart has no data yet"
	errInvalidBodyPref = "invalid body: "

	maxImageSide = 2048
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// UpdateChartRequest is the optional payload of the update trigger.
type UpdateChartRequest struct {
	// Entity (machine) id. Omit to use the configured default.
	MID int `json:"mid,omitempty" example:"1"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Update chart
// @Description  Fetches counts for the entity over the displayed start/end labels. The fetch runs in the background.
// @Tags         chart
// @Accept       json
// @Produce      json
// @Param        payload  body      UpdateChartRequest  false  "Entity to fetch"
// @Success      202      {object}  service.UpdateResult
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Router       /api/v1/chart/update [post]
// @Security     BearerAuth
func (h *Handler) updateChart(c *gin.Context) {
	var req UpdateChartRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	res, err := h.services.Chart.Update(c.Request.Context(), service.UpdateParams{EntityID: req.MID})
	if err != nil {
		if errors.Is(err, service.ErrInvalidEntity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errUpdateChart, "chart_update_failed", err, "mid", req.MID)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": statusStarted,
		"update": res,
	})
}

// @Summary      Toggle chart visibility
// @Description  Showing the chart for an already selected entity starts one fetch over the displayed labels.
// @Tags         chart
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, visible, seq"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/chart/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleChart(c *gin.Context) {
	res, err := h.services.Chart.Toggle(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errToggleChart, "chart_toggle_failed", err)
		return
	}

	status := statusIdle
	if res.Seq != 0 {
		status = statusStarted
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"visible": res.Visible,
		"seq":     res.Seq,
	})
}

// @Summary      Get chart state
// @Tags         chart
// @Produce      json
// @Success      200  {object}  signal_chart.ChartState
// @Router       /api/v1/chart/state [get]
func (h *Handler) getChartState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Chart.State())
}

// @Summary      Render chart
// @Description  PNG pie of the current fills. Optional w/h query parameters (1..2048).
// @Tags         chart
// @Produce      png
// @Param        w  query  int  false  "Width in pixels"
// @Param        h  query  int  false  "Height in pixels"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/chart/image.png [get]
func (h *Handler) getChartImage(c *gin.Context) {
	w := queryInt(c, "w", h.opts.ImageWidth)
	ht := queryInt(c, "h", h.opts.ImageHeight)

	img, err := render.PieChartPNG(h.services.Chart.State().Fills, w, ht)
	if err != nil {
		if errors.Is(err, render.ErrNothingToDraw) {
			c.JSON(http.StatusNotFound, gin.H{"error": errNothingToDraw})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errRenderChart, "chart_render_failed", err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

// queryInt reads a positive bounded int query value, falling back to def.
func queryInt(c *gin.Context, key string, def int) int {
	if s := c.Query(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= maxImageSide {
			return v
		}
	}
	return def
}
