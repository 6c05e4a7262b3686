package dto

import "time"

// AdminLoginRequest represents the operator login payload
type AdminLoginRequest struct {
	Username     string  `json:"username" validate:"required,min=3,max=255" example:"operator"`
	Password     string  `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
	CaptchaID    string  `json:"captcha_id,omitempty" validate:"omitempty,max=128"`
	CaptchaAngle float64 `json:"captcha_angle,omitempty" validate:"omitempty,min=0,max=360"`
}

// AdminInfo represents operator account information in auth responses
type AdminInfo struct {
	ID          uint       `json:"id" example:"1"`
	UUID        string     `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Username    string     `json:"username" example:"operator"`
	IsActive    *bool      `json:"is_active" example:"true"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// AdminLoginResponse represents a successful operator login
type AdminLoginResponse struct {
	Message      string    `json:"message"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type" example:"Bearer"`
	ExpiresIn    int       `json:"expires_in" example:"86400"`
	Admin        AdminInfo `json:"admin"`
}

// AdminRefreshTokenRequest exchanges a refresh token for a new token pair
type AdminRefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AdminRefreshTokenResponse returns the rotated token pair
type AdminRefreshTokenResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"86400"`
}

// GetCaptchaResponse returns a rotate-captcha challenge for the login form.
// Images are base64 encoded; the client submits the applied rotation angle.
type GetCaptchaResponse struct {
	CaptchaID   string `json:"captcha_id"`
	MasterImage string `json:"master_image"`
	ThumbImage  string `json:"thumb_image"`
}

// Common error codes for admin auth operations
const (
	ErrorAdminNotFound     = "ADMIN_NOT_FOUND"
	ErrorAdminInactive     = "ADMIN_INACTIVE"
	ErrorIncorrectPassword = "INCORRECT_PASSWORD"
	ErrorInvalidCaptcha    = "INVALID_CAPTCHA"
	ErrorInvalidToken      = "INVALID_TOKEN"
)
