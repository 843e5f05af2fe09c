package receiver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thechainkeshflip/keshflip-go/pkg/metrics"
	"github.com/thechainkeshflip/keshflip-go/pkg/webhook"
)

// WebhookHandler serves POST /webhooks/keshpay.
type WebhookHandler struct {
	processor    *webhook.Processor
	maxBodyBytes int64
	handled      map[string]struct{}
}

// NewWebhookHandler must be called after all handlers are registered on p.
func NewWebhookHandler(p *webhook.Processor, maxBodyBytes int64) *WebhookHandler {
	handled := make(map[string]struct{})
	for eventType := range p.ListHandlers() {
		handled[eventType] = struct{}{}
	}
	return &WebhookHandler{processor: p, maxBodyBytes: maxBodyBytes, handled: handled}
}

func (h *WebhookHandler) Webhook(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.ObserveWebhook("", metrics.OutcomeInvalidPayload, time.Since(start))
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "Payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unable to read body"})
		return
	}

	event, err := h.processor.Process(ctx, body, c.GetHeader(webhook.HeaderSignature), true)
	switch {
	case errors.Is(err, webhook.ErrVerification):
		metrics.ObserveWebhook("", metrics.OutcomeRejected, time.Since(start))
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid signature"})
		return
	case errors.Is(err, webhook.ErrInvalidPayload):
		metrics.ObserveWebhook("", metrics.OutcomeInvalidPayload, time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payload"})
		return
	case err != nil:
		metrics.ObserveWebhook("", metrics.OutcomeHandlerFailed, time.Since(start))
		slog.ErrorContext(ctx, "Webhook handler failed", slog.Any("error", err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Webhook processing failed"})
		return
	}

	outcome := metrics.OutcomeProcessed
	if _, ok := h.handled[event.Type]; !ok {
		outcome = metrics.OutcomeUnhandled
	}
	metrics.ObserveWebhook(event.Type, outcome, time.Since(start))

	c.JSON(http.StatusOK, gin.H{"success": true, "event": event.Type})
}
