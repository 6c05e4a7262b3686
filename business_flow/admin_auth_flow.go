// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/oyadama/fukubiki/app/dto"
	"github.com/oyadama/fukubiki/app/services"
	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/repository"
	"github.com/oyadama/fukubiki/utils"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthFlow represents the operator authentication flow used by handlers
type AdminAuthFlow interface {
	InitCaptcha(ctx context.Context) (*dto.GetCaptchaResponse, error)
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Refresh(ctx context.Context, req *dto.AdminRefreshTokenRequest, metadata *ClientMetadata) (*dto.AdminRefreshTokenResponse, error)
}

// AdminAuthFlowImpl provides captcha-gated operator credential verification
type AdminAuthFlowImpl struct {
	adminRepo      repository.AdminRepository
	auditRepo      repository.AuditLogRepository
	tokenService   services.TokenService
	captchaSvc     services.CaptchaService
	captchaEnabled bool
}

// NewAdminAuthFlow creates a new operator auth flow instance
func NewAdminAuthFlow(
	adminRepo repository.AdminRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	captchaSvc services.CaptchaService,
	captchaEnabled bool,
) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		adminRepo:      adminRepo,
		auditRepo:      auditRepo,
		tokenService:   tokenService,
		captchaSvc:     captchaSvc,
		captchaEnabled: captchaEnabled,
	}
}

// InitCaptcha issues a new rotate-captcha challenge for the login form
func (af *AdminAuthFlowImpl) InitCaptcha(ctx context.Context) (*dto.GetCaptchaResponse, error) {
	if af.captchaSvc == nil {
		return nil, NewBusinessError("CAPTCHA_NOT_AVAILABLE", "Captcha service not available", ErrCacheNotAvailable)
	}

	ch, err := af.captchaSvc.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_INIT_FAILED", "Failed to initialize captcha", err)
	}

	return &dto.GetCaptchaResponse{
		CaptchaID:   ch.ID,
		MasterImage: ch.MasterImageBase64,
		ThumbImage:  ch.ThumbImageBase64,
	}, nil
}

// Login verifies operator credentials and issues a token pair
func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	if req == nil || req.Username == "" || req.Password == "" {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrIncorrectPassword)
	}

	if af.captchaEnabled {
		if req.CaptchaID == "" {
			return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha challenge missing", ErrInvalidCaptcha)
		}
		if af.captchaSvc == nil || !af.captchaSvc.VerifyRotate(ctx, req.CaptchaID, req.CaptchaAngle) {
			return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha validation failed", ErrInvalidCaptcha)
		}
	}

	admin, err := af.adminRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admin", err)
	}
	if admin == nil {
		af.auditLoginFailure(ctx, nil, req.Username, "admin not found", metadata)
		return nil, NewBusinessError("ADMIN_NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if !utils.IsTrue(admin.IsActive) {
		af.auditLoginFailure(ctx, &admin.ID, req.Username, "account inactive", metadata)
		return nil, NewBusinessError("ADMIN_INACTIVE", "Admin account is inactive", ErrAdminInactive)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		af.auditLoginFailure(ctx, &admin.ID, req.Username, "incorrect password", metadata)
		return nil, NewBusinessError("ADMIN_INCORRECT_PASSWORD", "Incorrect password", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := af.tokenService.GenerateAdminTokens(admin.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	now := utils.UTCNow()
	if err := af.adminRepo.UpdateLastLogin(ctx, admin.ID, now); err == nil {
		admin.LastLoginAt = &now
	}

	desc := fmt.Sprintf("Admin %s logged in", admin.Username)
	_ = createAuditLog(ctx, af.auditRepo, nil, &admin.ID, models.AuditActionAdminLoginSuccess, desc, true, nil, metadata, nil)

	return &dto.AdminLoginResponse{
		Message:      "Login successful",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(af.tokenService.AccessTokenTTL().Seconds()),
		Admin: dto.AdminInfo{
			ID:          admin.ID,
			UUID:        admin.UUID.String(),
			Username:    admin.Username,
			IsActive:    admin.IsActive,
			LastLoginAt: admin.LastLoginAt,
		},
	}, nil
}

// Refresh rotates a refresh token into a new token pair
func (af *AdminAuthFlowImpl) Refresh(ctx context.Context, req *dto.AdminRefreshTokenRequest, metadata *ClientMetadata) (*dto.AdminRefreshTokenResponse, error) {
	accessToken, refreshToken, err := af.tokenService.RefreshAdminToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Failed to refresh token", err)
	}

	return &dto.AdminRefreshTokenResponse{
		Message:      "Token refreshed",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(af.tokenService.AccessTokenTTL().Seconds()),
	}, nil
}

func (af *AdminAuthFlowImpl) auditLoginFailure(ctx context.Context, adminID *uint, username, reason string, metadata *ClientMetadata) {
	desc := fmt.Sprintf("Admin login failed for %s: %s", username, reason)
	_ = createAuditLog(ctx, af.auditRepo, nil, adminID, models.AuditActionAdminLoginFailed, desc, false, &reason, metadata, nil)
}
