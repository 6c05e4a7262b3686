// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/oyadama/fukubiki/app/dto"
	"github.com/oyadama/fukubiki/app/middleware"
	businessflow "github.com/oyadama/fukubiki/business_flow"
	"github.com/oyadama/fukubiki/utils"
)

// AdminHandlerInterface defines the contract for operator handlers
type AdminHandlerInterface interface {
	GetCaptcha(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	RefreshToken(c fiber.Ctx) error
	SelectWinner(c fiber.Ctx) error
	ListWinners(c fiber.Ctx) error
	UpdateWinner(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
}

// AdminHandler handles operator authentication and winner management requests
type AdminHandler struct {
	authFlow   businessflow.AdminAuthFlow
	winnerFlow businessflow.WinnerFlow
	validator  *validator.Validate
}

func (h *AdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authFlow businessflow.AdminAuthFlow, winnerFlow businessflow.WinnerFlow) *AdminHandler {
	return &AdminHandler{
		authFlow:   authFlow,
		winnerFlow: winnerFlow,
		validator:  validator.New(),
	}
}

// GetCaptcha issues a rotate-captcha challenge for the login form
// @Summary Get Login Captcha
// @Description Generate a rotation captcha challenge for operator login
// @Tags Admin Auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GetCaptchaResponse} "Captcha generated"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/auth/captcha [get]
func (h *AdminHandler) GetCaptcha(c fiber.Ctx) error {
	result, err := h.authFlow.InitCaptcha(h.createRequestContext(c, "/api/v1/admin/auth/captcha"))
	if err != nil {
		log.Println("Captcha generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Captcha generation failed", "CAPTCHA_GENERATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Captcha generated successfully", result)
}

// Login handles operator authentication
// @Summary Operator Login
// @Description Authenticate an operator with username, password, and captcha solution
// @Tags Admin Auth
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AdminLoginResponse} "Login successful with tokens"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid captcha"
// @Failure 401 {object} dto.APIResponse "Authentication failed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/auth/login [post]
func (h *AdminHandler) Login(c fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.authFlow.Login(h.createRequestContext(c, "/api/v1/admin/auth/login"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidCaptcha(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Captcha verification failed", dto.ErrorInvalidCaptcha, nil)
		}
		// Unknown account and wrong password collapse into one response so
		// the login form does not leak which usernames exist.
		if businessflow.IsAdminNotFound(err) || businessflow.IsIncorrectPassword(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid username or password", "INVALID_CREDENTIALS", nil)
		}
		if businessflow.IsAdminInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account is inactive", dto.ErrorAdminInactive, nil)
		}

		log.Println("Operator login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// RefreshToken exchanges a refresh token for a rotated token pair
// @Summary Refresh Operator Tokens
// @Description Exchange a valid refresh token for a new access and refresh token pair
// @Tags Admin Auth
// @Accept json
// @Produce json
// @Param request body dto.AdminRefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AdminRefreshTokenResponse} "Tokens refreshed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Refresh token invalid, expired, or revoked"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/auth/refresh [post]
func (h *AdminHandler) RefreshToken(c fiber.Ctx) error {
	var req dto.AdminRefreshTokenRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.authFlow.Refresh(h.createRequestContext(c, "/api/v1/admin/auth/refresh"), &req, metadata)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Token refresh failed", dto.ErrorInvalidToken, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tokens refreshed successfully", result)
}

// SelectWinner triggers the fair random draw for a campaign
// @Summary Select Winner
// @Description Draw a single winner uniformly at random from a campaign's entries
// @Tags Winners
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 201 {object} dto.APIResponse{data=dto.SelectWinnerResponse} "Winner selected"
// @Failure 400 {object} dto.APIResponse "Malformed campaign UUID"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Winner already selected for this campaign"
// @Failure 422 {object} dto.APIResponse "Campaign has no entries"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/campaigns/{uuid}/select-winner [post]
func (h *AdminHandler) SelectWinner(c fiber.Ctx) error {
	adminID, ok := middleware.GetAdminIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	req := dto.SelectWinnerRequest{
		CampaignUUID: c.Params("uuid"),
		AdminID:      adminID,
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.winnerFlow.SelectWinner(h.createRequestContext(c, "/api/v1/admin/campaigns/"+req.CampaignUUID+"/select-winner"), &req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", dto.ErrorCampaignNotFound, nil)
		}
		if businessflow.IsWinnerAlreadySelected(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A winner has already been selected for this campaign", dto.ErrorWinnerAlreadySelected, nil)
		}
		if businessflow.IsNoEntries(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Campaign has no entries to draw from", dto.ErrorNoEntries, nil)
		}

		log.Println("Winner selection failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Winner selection failed", "WINNER_SELECTION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Winner selected successfully", result)
}

// ListWinners pages through past draws, newest first
// @Summary List Winners
// @Description List past campaign draws with pagination, or a single campaign's winner
// @Tags Winners
// @Produce json
// @Param campaign query string false "Campaign UUID to scope the listing"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListWinnersResponse} "Winners listed"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/winners [get]
func (h *AdminHandler) ListWinners(c fiber.Ctx) error {
	req := dto.ListWinnersRequest{}
	if campaign := c.Query("campaign"); campaign != "" {
		req.Campaign = &campaign
	}
	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			req.Page = parsed
		}
	}
	if raw := c.Query("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			req.PageSize = parsed
		}
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.winnerFlow.ListWinners(h.createRequestContext(c, "/api/v1/admin/winners"), &req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", dto.ErrorCampaignNotFound, nil)
		}

		log.Println("Winner listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Winner listing failed", "WINNER_LISTING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Winners listed successfully", result)
}

// ListCampaigns pages through every campaign for draw tooling context
// @Summary List Campaigns
// @Description List all campaigns with entry pool size and draw status
// @Tags Winners
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListAdminCampaignsResponse} "Campaigns listed"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/campaigns [get]
func (h *AdminHandler) ListCampaigns(c fiber.Ctx) error {
	req := dto.ListAdminCampaignsRequest{}
	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			req.Page = parsed
		}
	}
	if raw := c.Query("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			req.PageSize = parsed
		}
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.winnerFlow.ListCampaigns(h.createRequestContext(c, "/api/v1/admin/campaigns"), &req, metadata)
	if err != nil {
		log.Println("Campaign listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign listing failed", "CAMPAIGN_LISTING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaigns listed successfully", result)
}

// UpdateWinner records the downstream contact and claim workflow for a draw
// @Summary Update Winner
// @Description Update the contacted, claimed, and notes fields of a past draw
// @Tags Winners
// @Accept json
// @Produce json
// @Param uuid path string true "Winner UUID"
// @Param request body dto.UpdateWinnerRequest true "Workflow updates"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateWinnerResponse} "Winner updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Winner not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/winners/{uuid} [patch]
func (h *AdminHandler) UpdateWinner(c fiber.Ctx) error {
	adminID, ok := middleware.GetAdminIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}

	var req dto.UpdateWinnerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.WinnerUUID = c.Params("uuid")
	req.AdminID = adminID

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := h.clientMetadata(c)

	result, err := h.winnerFlow.UpdateWinner(h.createRequestContext(c, "/api/v1/admin/winners/"+req.WinnerUUID), &req, metadata)
	if err != nil {
		if businessflow.IsWinnerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Winner not found", dto.ErrorWinnerNotFound, nil)
		}

		log.Println("Winner update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Winner update failed", "WINNER_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Winner updated successfully", result)
}

func (h *AdminHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID, ok := c.Locals("request_id").(string); ok {
		metadata.SetRequestID(requestID)
	}
	return metadata
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *AdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
