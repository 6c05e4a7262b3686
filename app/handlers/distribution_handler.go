// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/oyadama/fukubiki/app/dto"
	businessflow "github.com/oyadama/fukubiki/business_flow"
	"github.com/oyadama/fukubiki/utils"
)

// DistributionHandlerInterface defines the contract for distribution handlers
type DistributionHandlerInterface interface {
	GetCurrentCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	CustomizeBinding(c fiber.Ctx) error
	DeactivateBinding(c fiber.Ctx) error
}

// DistributionHandler handles campaign resolution and binding customization requests
type DistributionHandler struct {
	distributionFlow businessflow.DistributionFlow
	validator        *validator.Validate
}

func (h *DistributionHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DistributionHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewDistributionHandler creates a new distribution handler
func NewDistributionHandler(distributionFlow businessflow.DistributionFlow) *DistributionHandler {
	return &DistributionHandler{
		distributionFlow: distributionFlow,
		validator:        validator.New(),
	}
}

// GetCurrentCampaign handles the tenant's current campaign resolution
// @Summary Get Current Campaign
// @Description Resolve the tenant's currently distributed campaign with its customizations applied
// @Tags Distribution
// @Produce json
// @Param tenant query string true "Tenant UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetCurrentCampaignResponse} "Current campaign resolved"
// @Failure 400 {object} dto.APIResponse "Missing or malformed tenant parameter"
// @Failure 404 {object} dto.APIResponse "Tenant unknown, inactive, or no active campaign"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/current [get]
func (h *DistributionHandler) GetCurrentCampaign(c fiber.Ctx) error {
	req := dto.GetCurrentCampaignRequest{Tenant: c.Query("tenant")}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.distributionFlow.ResolveCurrent(h.createRequestContext(c, "/api/v1/campaigns/current"), &req, metadata)
	if err != nil {
		if status, code, msg := distributionErrorStatus(err); status != 0 {
			return h.ErrorResponse(c, status, msg, code, nil)
		}

		log.Println("Current campaign resolution failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign resolution failed", "CAMPAIGN_RESOLUTION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Current campaign resolved successfully", result)
}

// ListCampaigns handles listing every active campaign for a tenant
// @Summary List Active Campaigns
// @Description List all currently active campaigns merged with the tenant's customizations
// @Tags Distribution
// @Produce json
// @Param tenant query string true "Tenant UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ListCampaignsResponse} "Active campaigns listed"
// @Failure 400 {object} dto.APIResponse "Missing or malformed tenant parameter"
// @Failure 404 {object} dto.APIResponse "Tenant unknown or inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns [get]
func (h *DistributionHandler) ListCampaigns(c fiber.Ctx) error {
	req := dto.ListCampaignsRequest{Tenant: c.Query("tenant")}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.distributionFlow.ListActiveCampaigns(h.createRequestContext(c, "/api/v1/campaigns"), &req, metadata)
	if err != nil {
		if status, code, msg := distributionErrorStatus(err); status != 0 {
			return h.ErrorResponse(c, status, msg, code, nil)
		}

		log.Println("Campaign listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign listing failed", "CAMPAIGN_LISTING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Active campaigns listed successfully", result)
}

// CustomizeBinding handles tenant customization of its current binding
// @Summary Customize Current Binding
// @Description Apply tenant-specific presentation overrides to the tenant's current campaign binding
// @Tags Distribution
// @Accept json
// @Produce json
// @Param tenant query string true "Tenant UUID"
// @Param request body dto.CustomizeBindingRequest true "Customization overrides"
// @Success 200 {object} dto.APIResponse{data=dto.CustomizeBindingResponse} "Binding customized"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid overrides"
// @Failure 404 {object} dto.APIResponse "Tenant unknown, inactive, or no active campaign"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/bindings/current [put]
func (h *DistributionHandler) CustomizeBinding(c fiber.Ctx) error {
	var req dto.CustomizeBindingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.Tenant = c.Query("tenant")

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.distributionFlow.CustomizeCurrent(h.createRequestContext(c, "/api/v1/bindings/current"), &req, metadata)
	if err != nil {
		if status, code, msg := distributionErrorStatus(err); status != 0 {
			return h.ErrorResponse(c, status, msg, code, nil)
		}
		if businessflow.IsTooManyQuestions(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Too many custom questions", "TOO_MANY_QUESTIONS", nil)
		}
		if businessflow.IsTooManyExtraMedia(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Too many extra media items", "TOO_MANY_EXTRA_MEDIA", nil)
		}
		if businessflow.IsInvalidQuestionType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid question type", "INVALID_QUESTION_TYPE", nil)
		}
		if businessflow.IsDuplicateQuestionIDs(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Duplicate question identifiers", "DUPLICATE_QUESTION_IDS", nil)
		}

		log.Println("Binding customization failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Binding customization failed", "BINDING_CUSTOMIZATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Binding customized successfully", result)
}

// DeactivateBinding handles deactivating the tenant's current binding
// @Summary Deactivate Current Binding
// @Description Stop distributing the current campaign through this tenant
// @Tags Distribution
// @Produce json
// @Param tenant query string true "Tenant UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DeactivateBindingResponse} "Binding deactivated"
// @Failure 400 {object} dto.APIResponse "Missing or malformed tenant parameter"
// @Failure 404 {object} dto.APIResponse "Tenant unknown, inactive, or no active campaign"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/bindings/current [delete]
func (h *DistributionHandler) DeactivateBinding(c fiber.Ctx) error {
	req := dto.DeactivateBindingRequest{Tenant: c.Query("tenant")}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.distributionFlow.DeactivateCurrent(h.createRequestContext(c, "/api/v1/bindings/current"), &req, metadata)
	if err != nil {
		if status, code, msg := distributionErrorStatus(err); status != 0 {
			return h.ErrorResponse(c, status, msg, code, nil)
		}

		log.Println("Binding deactivation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Binding deactivation failed", "BINDING_DEACTIVATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Binding deactivated successfully", result)
}

// distributionErrorStatus maps the resolution errors shared by every
// distribution endpoint. Returns a zero status for errors it does not cover.
func distributionErrorStatus(err error) (int, string, string) {
	switch {
	case businessflow.IsTenantParamRequired(err):
		return fiber.StatusBadRequest, "MISSING_TENANT", "Tenant parameter is required"
	case businessflow.IsTenantNotFound(err):
		return fiber.StatusNotFound, "TENANT_NOT_FOUND", "Tenant not found"
	case businessflow.IsTenantInactive(err):
		return fiber.StatusNotFound, "TENANT_INACTIVE", "Tenant is inactive"
	case businessflow.IsNoActiveCampaign(err):
		return fiber.StatusNotFound, dto.ErrorNoActiveCampaign, "No active campaign for this tenant"
	case businessflow.IsBindingNotFound(err):
		return fiber.StatusNotFound, "BINDING_NOT_FOUND", "Binding not found"
	case businessflow.IsBindingInactive(err):
		return fiber.StatusNotFound, "BINDING_INACTIVE", "Binding is inactive"
	}
	return 0, "", ""
}

func (h *DistributionHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID, ok := c.Locals("request_id").(string); ok {
		metadata.SetRequestID(requestID)
	}
	return metadata
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *DistributionHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *DistributionHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
