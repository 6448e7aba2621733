package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/polyui/catalog-mcp/internal/notify"
	"github.com/polyui/catalog-mcp/internal/service"
)

type SignupHandler struct {
	accounts *service.AccountService
	notifier notify.Notifier
}

func NewSignupHandler(accounts *service.AccountService, notifier notify.Notifier) *SignupHandler {
	return &SignupHandler{
		accounts: accounts,
		notifier: notifier,
	}
}

func (h *SignupHandler) Signup(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Name  string `json:"name"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	existing, err := h.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed, please retry"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "an account with this email already exists"})
		return
	}

	key, account, err := h.accounts.Create(ctx, req.Email, req.Name, "free")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed, please retry"})
		return
	}

	// Delivery is best-effort; the key in the response is authoritative.
	if err := h.notifier.SendWelcome(ctx, account.Email, account.Name); err != nil {
		log.Printf("signup: welcome notification failed for %s: %v", account.Email, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"api_key": key,
		"tier":    account.Tier,
		"message": "Save this key - it won't be shown again",
	})
}
