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

// EntryHandlerInterface defines the contract for entry handlers
type EntryHandlerInterface interface {
	SubmitEntry(c fiber.Ctx) error
	GetCaptcha(c fiber.Ctx) error
	EntryStats(c fiber.Ctx) error
	ExportEntries(c fiber.Ctx) error
}

// EntryHandler handles entrant submission and entry reporting requests
type EntryHandler struct {
	entryFlow businessflow.EntryFlow
	validator *validator.Validate
}

func (h *EntryHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *EntryHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(entryFlow businessflow.EntryFlow) *EntryHandler {
	return &EntryHandler{
		entryFlow: entryFlow,
		validator: validator.New(),
	}
}

// SubmitEntry handles an entrant's submission into the tenant's current campaign
// @Summary Submit Entry
// @Description Submit an entrant into the tenant's currently distributed campaign
// @Tags Entries
// @Accept json
// @Produce json
// @Param tenant query string true "Tenant UUID"
// @Param request body dto.SubmitEntryRequest true "Entry data"
// @Success 201 {object} dto.APIResponse{data=dto.SubmitEntryResponse} "Entry stored"
// @Failure 400 {object} dto.APIResponse "Validation error, terms not agreed, or invalid answers"
// @Failure 404 {object} dto.APIResponse "Tenant unknown, inactive, or no active campaign"
// @Failure 409 {object} dto.APIResponse "Email already entered this campaign"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/entries [post]
func (h *EntryHandler) SubmitEntry(c fiber.Ctx) error {
	var req dto.SubmitEntryRequest
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

	result, err := h.entryFlow.Submit(h.createRequestContext(c, "/api/v1/entries"), &req, metadata)
	if err != nil {
		if status, code, msg := distributionErrorStatus(err); status != 0 {
			return h.ErrorResponse(c, status, msg, code, nil)
		}
		if businessflow.IsTermsNotAgreed(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Terms must be agreed to enter", dto.ErrorTermsNotAgreed, nil)
		}
		if businessflow.IsDuplicateEntry(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "This email has already entered the campaign", dto.ErrorDuplicateEntry, nil)
		}
		if businessflow.IsMissingAnswer(err) || businessflow.IsUnknownQuestion(err) || businessflow.IsInvalidOptionValue(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid answers", dto.ErrorInvalidAnswer, err.Error())
		}
		if businessflow.IsInvalidCaptcha(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Captcha validation failed", dto.ErrorInvalidCaptcha, nil)
		}

		log.Println("Entry submission failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Entry submission failed", "ENTRY_SUBMISSION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Entry submitted successfully", result)
}

// GetCaptcha handles captcha initialization for the public entry form
// @Summary Get Entry Captcha
// @Description Generate a rotate captcha challenge for entry submission
// @Tags Entries
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GetCaptchaResponse} "Captcha generated"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/captcha [get]
func (h *EntryHandler) GetCaptcha(c fiber.Ctx) error {
	result, err := h.entryFlow.InitCaptcha(h.createRequestContext(c, "/api/v1/captcha"))
	if err != nil {
		log.Println("Captcha initialization failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Captcha initialization failed", "CAPTCHA_INIT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Captcha generated successfully", result)
}

// EntryStats handles tenant entry statistics
// @Summary Entry Statistics
// @Description Aggregate entry totals, unique entrants, and daily counts for a tenant
// @Tags Entries
// @Produce json
// @Param tenant query string true "Tenant UUID"
// @Param campaign query string false "Campaign UUID to scope the statistics"
// @Success 200 {object} dto.APIResponse{data=dto.EntryStatsResponse} "Statistics computed"
// @Failure 400 {object} dto.APIResponse "Missing or malformed parameters"
// @Failure 404 {object} dto.APIResponse "Tenant or campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/entries/stats [get]
func (h *EntryHandler) EntryStats(c fiber.Ctx) error {
	req := dto.EntryStatsRequest{Tenant: c.Query("tenant")}
	if campaign := c.Query("campaign"); campaign != "" {
		req.Campaign = &campaign
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.entryFlow.Stats(h.createRequestContext(c, "/api/v1/entries/stats"), &req, metadata)
	if err != nil {
		if status, code, msg := distributionErrorStatus(err); status != 0 {
			return h.ErrorResponse(c, status, msg, code, nil)
		}
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", dto.ErrorCampaignNotFound, nil)
		}

		log.Println("Entry statistics failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Entry statistics failed", "ENTRY_STATS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Entry statistics computed successfully", result)
}

// ExportEntries handles the operator spreadsheet export of a campaign's entries
// @Summary Export Entries
// @Description Export a tenant campaign's entries as an Excel workbook
// @Tags Entries
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param tenant query string true "Tenant UUID"
// @Param campaign query string true "Campaign UUID"
// @Success 200 {file} binary "Workbook download"
// @Failure 400 {object} dto.APIResponse "Missing or malformed parameters"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Tenant or campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/entries/export [get]
func (h *EntryHandler) ExportEntries(c fiber.Ctx) error {
	req := dto.ExportEntriesRequest{
		Tenant:   c.Query("tenant"),
		Campaign: c.Query("campaign"),
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	// Exports page through the full entry set, so allow a longer deadline.
	filename, content, err := h.entryFlow.Export(h.createRequestContextWithTimeout(c, "/api/v1/admin/entries/export", 2*time.Minute), &req, metadata)
	if err != nil {
		if status, code, msg := distributionErrorStatus(err); status != 0 {
			return h.ErrorResponse(c, status, msg, code, nil)
		}
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", dto.ErrorCampaignNotFound, nil)
		}

		log.Println("Entry export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Entry export failed", "ENTRY_EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Status(fiber.StatusOK).Send(content)
}

func (h *EntryHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID, ok := c.Locals("request_id").(string); ok {
		metadata.SetRequestID(requestID)
	}
	return metadata
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *EntryHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *EntryHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
