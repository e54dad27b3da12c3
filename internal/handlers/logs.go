package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signal_chart/internal/rangeselect"
	"signal_chart/internal/service"

	"github.com/gin-gonic/gin"
)

const maxLogLimit = 1000

// logTimeLayouts are tried in order. The second is the chart label format.
var logTimeLayouts = []string{time.RFC3339Nano, rangeselect.TimestampLayout, time.DateOnly}

// parseLogFilter reads from, to, type, mid and limit. A date-only 'to' covers
// the whole day.
func parseLogFilter(c *gin.Context) (service.LogFilter, error) {
	var (
		f   = service.LogFilter{Type: c.Query("type")}
		err error
	)
	if qs := c.Query("from"); qs != "" {
		if f.From, err = parseLogTime(qs); err != nil {
			return f, fmt.Errorf("from: %w", err)
		}
	}
	if qs := c.Query("to"); qs != "" {
		if f.To, err = parseLogTime(qs); err != nil {
			return f, fmt.Errorf("to: %w", err)
		}
		if len(qs) == len(time.DateOnly) {
			f.To = f.To.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if f.EntityID, err = optionalInt(c, "mid", 0, 1<<31-1); err != nil {
		return f, err
	}
	if f.Limit, err = optionalInt(c, "limit", 0, maxLogLimit); err != nil {
		return f, err
	}
	return f, nil
}

func parseLogTime(s string) (time.Time, error) {
	for _, layout := range logTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", s)
}

func optionalInt(c *gin.Context, key string, lo, hi int) (int, error) {
	qs := strings.TrimSpace(c.Query(key))
	if qs == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(qs)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer in [%d, %d]", key, lo, hi)
	}
	return v, nil
}

// logStatus maps fetch log errors to an HTTP status.
func logStatus(err error) int {
	if errors.Is(err, service.ErrInvalidTimeRange) || errors.Is(err, service.ErrUnknownEventType) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// @Summary      List fetch log
// @Description  Fetch outcomes recorded by the chart controller, oldest first.
// @Tags         logs
// @Produce      json
// @Param        from   query  string  false  "Start (RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD')"  example(2024-01-01)
// @Param        to     query  string  false  "End; a date-only value covers the whole day"  example(2024-01-31)
// @Param        type   query  string  false  "Comma separated types"  example(FETCH_STALE,FETCH_EMPTY)
// @Param        mid    query  int     false  "Entity id"
// @Param        limit  query  int     false  "Keep only the newest N (max 1000)"
// @Success      200    {object}  map[string]interface{}  "count, events"
// @Failure      400    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/logs [get]
func (h *Handler) getLogs(c *gin.Context) {
	f, err := parseLogFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		status := logStatus(err)
		if status == http.StatusBadRequest {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, status, "failed to load fetch log", "fetch_log_list_failed", err, "type", f.Type, "mid", f.EntityID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Fetch outcome counts
// @Tags         logs
// @Produce      json
// @Param        from  query  string  false  "Start"
// @Param        to    query  string  false  "End"
// @Param        type  query  string  false  "Comma separated types"
// @Param        mid   query  int     false  "Entity id"
// @Success      200   {object}  service.LogSummary
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/logs/summary [get]
func (h *Handler) getLogSummary(c *gin.Context) {
	f, err := parseLogFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sum, err := h.services.EventLog.Summary(c.Request.Context(), f)
	if err != nil {
		status := logStatus(err)
		if status == http.StatusBadRequest {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, status, "failed to summarize fetch log", "fetch_log_summary_failed", err, "mid", f.EntityID)
		return
	}
	c.JSON(http.StatusOK, sum)
}
