package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/polyui/catalog-mcp/internal/ratelimit"
	"github.com/polyui/catalog-mcp/internal/service"
	"github.com/polyui/catalog-mcp/internal/session"
)

// AdminHandler exposes the operator surface: login, account management,
// usage stats, session revocation and rate-limiter controls.
type AdminHandler struct {
	admins   *service.AdminService
	accounts *service.AccountService
	stats    *service.UsageStatsService
	sessions *session.Store
	limiter  *ratelimit.Limiter
}

func NewAdminHandler(admins *service.AdminService, accounts *service.AccountService, stats *service.UsageStatsService, sessions *session.Store, limiter *ratelimit.Limiter) *AdminHandler {
	return &AdminHandler{
		admins:   admins,
		accounts: accounts,
		stats:    stats,
		sessions: sessions,
		limiter:  limiter,
	}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.admins.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AdminHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, accounts)
}

func (h *AdminHandler) GetAccount(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *AdminHandler) SetAccountStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Status {
	case models.StatusActive, models.StatusBlocked, models.StatusSuspended:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active, blocked or suspended"})
		return
	}

	if err := h.accounts.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account status updated"})
}

func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// UsageSummary reports call stats for a time range, defaulting to the last
// 24 hours.
func (h *AdminHandler) UsageSummary(c *gin.Context) {
	to := time.Now()
	from := to.Add(-24 * time.Hour)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		to = t
	}

	summary, err := h.stats.GetSummary(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// AccountLogs returns the raw usage rows for one account, newest first.
func (h *AdminHandler) AccountLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	to := time.Now()
	from := to.Add(-24 * time.Hour)
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)

	logs, err := h.stats.GetAccountLogs(c.Request.Context(), id, from, to, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// CleanupUsage deletes usage rows older than the retention window.
func (h *AdminHandler) CleanupUsage(c *gin.Context) {
	retentionDays := intQuery(c, "retention_days", 90)
	if retentionDays < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "retention_days must be positive"})
		return
	}

	deleted, err := h.stats.CleanupOldLogs(c.Request.Context(), retentionDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// RevokeSession removes one session; its next presentation mints a new one.
func (h *AdminHandler) RevokeSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session revoked"})
}

func (h *AdminHandler) RateLimitUsage(c *gin.Context) {
	usage, ok := h.limiter.GetUsage(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no rate limit state for identifier"})
		return
	}

	c.JSON(http.StatusOK, usage)
}

func (h *AdminHandler) ResetRateLimit(c *gin.Context) {
	h.limiter.Reset(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "rate limit state reset"})
}

func (h *AdminHandler) ResetAllRateLimits(c *gin.Context) {
	h.limiter.ResetAll()
	c.JSON(http.StatusOK, gin.H{"message": "all rate limit state reset"})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
