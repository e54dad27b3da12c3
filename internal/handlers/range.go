package handlers

import (
	"errors"
	"net/http"
	"strings"

	"signal_chart/internal/service"

	"github.com/gin-gonic/gin"
)

// SliderRequest sets one slider.
type SliderRequest struct {
	Value *int `json:"value" binding:"required" example:"42"`
}

// @Summary      Get range selection
// @Description  Current slider values, the labels derived from them and the slider bounds.
// @Tags         range
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "selection, bounds"
// @Router       /api/v1/range [get]
func (h *Handler) getRange(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"selection": h.services.Range.Selection(),
		"bounds":    h.services.Range.Bounds(),
	})
}

// @Summary      Move a slider
// @Description  side is start|end, unit is day|second. Only the label of the given side is regenerated.
// @Tags         range
// @Accept       json
// @Produce      json
// @Param        side     path      string         true  "start or end"  Enums(start,end)
// @Param        unit     path      string         true  "day or second" Enums(day,second)
// @Param        payload  body      SliderRequest  true  "New value"
// @Success      200      {object}  signal_chart.DateRangeSelection
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /api/v1/range/{side}/{unit} [put]
// @Security     BearerAuth
func (h *Handler) setSlider(c *gin.Context) {
	var req SliderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	p := service.SliderParams{
		Side:  strings.ToLower(c.Param("side")),
		Unit:  strings.ToLower(c.Param("unit")),
		Value: *req.Value,
	}
	sel, err := h.services.Range.SetSlider(p)
	switch {
	case errors.Is(err, service.ErrUnknownSlider):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrOutOfBounds):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "bounds": h.services.Range.Bounds()})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to set slider", "range_set_failed", err,
			"side", p.Side, "unit", p.Unit, "value", p.Value)
		return
	}

	c.JSON(http.StatusOK, sel)
}
