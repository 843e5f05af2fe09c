package receiver

import (
	"github.com/gin-gonic/gin"

	"github.com/thechainkeshflip/keshflip-go/pkg/health"
	"github.com/thechainkeshflip/keshflip-go/pkg/logger"
	"github.com/thechainkeshflip/keshflip-go/pkg/metrics"
)

const WebhookPath = "/webhooks/keshpay"

type Router struct {
	webhook        *WebhookHandler
	healthRegistry *health.Registry
}

func NewRouter(webhook *WebhookHandler, healthRegistry *health.Registry) *Router {
	return &Router{webhook: webhook, healthRegistry: healthRegistry}
}

// Engine builds the gin engine with middleware and routes.
func (r *Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), logger.CorrelationMiddleware(), logger.RequestLogger(), metrics.GinMiddleware())

	health.Mount(engine, r.healthRegistry, health.DefaultTimeout)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	engine.POST(WebhookPath, r.webhook.Webhook)
	return engine
}
