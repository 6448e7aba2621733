package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/polyui/catalog-mcp/internal/admission"
	"github.com/polyui/catalog-mcp/internal/rpc"
)

// Request bodies are JSON-RPC envelopes; anything past this is abuse.
const maxBodyBytes = 1 << 20

// MCPHandler is the transport shim between HTTP and the admission
// pipeline + dispatcher. All policy lives below it; this only maps typed
// outcomes to status codes and headers.
type MCPHandler struct {
	pipeline   *admission.Pipeline
	dispatcher *rpc.Dispatcher
}

func NewMCPHandler(pipeline *admission.Pipeline, dispatcher *rpc.Dispatcher) *MCPHandler {
	return &MCPHandler{
		pipeline:   pipeline,
		dispatcher: dispatcher,
	}
}

func (h *MCPHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": gin.H{"code": "payload_too_large", "message": "request body exceeds the 1 MiB limit"},
			})
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "bad_request", "message": "failed to read request body"},
		})
		return
	}

	ctx := c.Request.Context()

	outcome := h.pipeline.Admit(ctx, c.Request.Header)
	if !outcome.Allowed {
		if outcome.Status == http.StatusTooManyRequests {
			c.Header("Retry-After", strconv.Itoa(outcome.RateLimit.RetryAfter))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.Itoa(int(outcome.RateLimit.ResetIn.Seconds())))
			c.Header("X-RateLimit-Limit-Type", outcome.RateLimit.LimitType)
		}

		c.JSON(outcome.Status, gin.H{
			"error": gin.H{"code": outcome.Reason, "message": outcome.Message},
		})
		return
	}

	// Echo the session id on every admitted response so callers can reuse it.
	meta := rpc.CallMeta{
		Account:   outcome.Account,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if outcome.Session != nil {
		meta.SessionID = outcome.Session.SessionID
		c.Header(admission.SessionHeader, outcome.Session.SessionID)
	}

	c.Header("X-RateLimit-Remaining", strconv.Itoa(outcome.RateLimit.Remaining))
	c.Header("X-RateLimit-Reset", strconv.Itoa(int(outcome.RateLimit.ResetIn.Seconds())))

	status, resp := h.dispatcher.Dispatch(ctx, meta, body)
	c.JSON(status, resp)
}
