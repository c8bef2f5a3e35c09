package app

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP responses.
func (a *App) respondError(c *gin.Context, err error) {
	var (
		verr     *ValidationError
		notFound *NotFoundError
		past     *PastDateError
		conflict *ConflictError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &past):
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is in the past"})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	default:
		a.logger().Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// GET /api/users/:username
func (a *App) GetProfileHandler(c *gin.Context) {
	profile, err := a.GetPublicProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// POST /api/users
func (a *App) ClaimUsernameHandler(c *gin.Context) {
	var req ClaimInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}
	user, token, err := a.ClaimUsername(c.Request.Context(), req)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// GET /api/users/:username/availability?date=YYYY-MM-DD
func (a *App) GetAvailabilityHandler(c *gin.Context) {
	dateStr := strings.TrimSpace(c.Query("date"))
	if dateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date not provided"})
		return
	}
	date, err := a.parseDate(dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	view, err := a.GetAvailability(c.Request.Context(), c.Param("username"), date)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/users/:username/blocked-dates?year=2026&month=10
func (a *App) GetBlockedDatesHandler(c *gin.Context) {
	year, month, ok := parseYearMonth(c)
	if !ok {
		return
	}
	summary, err := a.GetMonthLockSummary(c.Request.Context(), c.Param("username"), year, month)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/users/:username/calendar?year=2026&month=10
func (a *App) GetCalendarHandler(c *gin.Context) {
	year, month, ok := parseYearMonth(c)
	if !ok {
		return
	}
	weeks, err := a.GetMonthCalendar(c.Request.Context(), c.Param("username"), year, month)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, weeks)
}

// POST /api/users/:username/schedule
func (a *App) CreateBookingHandler(c *gin.Context) {
	var req BookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	_, err := a.CreateBooking(c.Request.Context(), c.Param("username"), req)
	var warning *UpstreamSyncWarning
	if errors.As(err, &warning) {
		c.JSON(http.StatusCreated, gin.H{"warning": warning.Error()})
		return
	}
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type timeIntervalsReq struct {
	Intervals []IntervalInput `json:"intervals"`
}

// POST /api/users/time-intervals
func (a *App) SetTimeIntervalsHandler(c *gin.Context) {
	userID := userIDFrom(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req timeIntervalsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}
	if _, err := a.Users.GetUserByID(c.Request.Context(), userID); err != nil {
		a.respondError(c, err)
		return
	}

	result, err := a.SetWeeklyRules(c.Request.Context(), userID, req.Intervals)
	if err != nil {
		a.respondError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Created == 0 {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// GET /healthz
func (a *App) HealthHandler(c *gin.Context) {
	if a.Ping != nil {
		if err := a.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseDate accepts a calendar date or an RFC3339 timestamp and returns it in the service zone.
func (a *App) parseDate(s string) (time.Time, error) {
	if d, err := time.ParseInLocation("2006-01-02", s, a.loc()); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(a.loc()), nil
}

func parseYearMonth(c *gin.Context) (int, time.Month, bool) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1 || year > 9999 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return 0, 0, false
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return 0, 0, false
	}
	return year, time.Month(month), true
}
