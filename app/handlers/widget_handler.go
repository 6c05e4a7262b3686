// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/oyadama/fukubiki/app/dto"
	businessflow "github.com/oyadama/fukubiki/business_flow"
	"github.com/oyadama/fukubiki/config"
	"github.com/oyadama/fukubiki/utils"
)

// WidgetHandlerInterface defines the contract for widget handlers
type WidgetHandlerInterface interface {
	Widget(c fiber.Ctx) error
	RecentCalls(c fiber.Ctx) error
}

// WidgetHandler serves the embeddable campaign widget script
type WidgetHandler struct {
	widgetFlow   businessflow.WidgetFlow
	cacheControl string
}

// NewWidgetHandler creates a new widget handler. The HTTP cache window is
// derived from the widget cache TTL so browser caches and the Redis cache
// expire together.
func NewWidgetHandler(widgetFlow businessflow.WidgetFlow, widgetConfig config.WidgetConfig) *WidgetHandler {
	maxAge := int(widgetConfig.CacheTTL.Seconds())
	if maxAge <= 0 {
		maxAge = 60
	}

	return &WidgetHandler{
		widgetFlow:   widgetFlow,
		cacheControl: fmt.Sprintf("public, max-age=%d", maxAge),
	}
}

// Widget serves the embeddable script for a tenant's host page.
// This endpoint never returns an error status: the script tag is embedded in
// third-party pages, so degraded output is always a valid JavaScript document
// that renders a placeholder.
// @Summary Widget Script
// @Description Serve the embeddable campaign widget JavaScript for a tenant
// @Tags Widget
// @Produce text/javascript
// @Param tenant query string true "Tenant UUID"
// @Success 200 {string} string "Widget script"
// @Router /widget.js [get]
func (h *WidgetHandler) Widget(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID, ok := c.Locals("request_id").(string); ok {
		metadata.SetRequestID(requestID)
	}

	script := h.widgetFlow.Render(h.createRequestContext(c, "/widget.js"), c.Query("tenant"), metadata)

	c.Set(fiber.HeaderContentType, "text/javascript; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, h.cacheControl)
	return c.Status(fiber.StatusOK).SendString(script)
}

// RecentCalls returns the most recent widget requests from the bounded call log
// @Summary Recent Widget Calls
// @Description List the most recent widget script requests for diagnostics
// @Tags Widget
// @Produce json
// @Param limit query int false "Maximum number of calls to return"
// @Success 200 {object} dto.APIResponse "Recent calls listed"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 503 {object} dto.APIResponse "Call log unavailable"
// @Router /api/v1/admin/widget/calls [get]
func (h *WidgetHandler) RecentCalls(c fiber.Ctx) error {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	calls, err := h.widgetFlow.RecentCalls(h.createRequestContext(c, "/api/v1/admin/widget/calls"), limit)
	if err != nil {
		log.Println("Widget call log read failed", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.APIResponse{
			Success: false,
			Message: "Widget call log unavailable",
			Error: dto.ErrorDetail{
				Code: "CALL_LOG_UNAVAILABLE",
			},
		})
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Recent widget calls listed successfully",
		Data: fiber.Map{
			"calls": calls,
			"total": len(calls),
		},
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *WidgetHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
