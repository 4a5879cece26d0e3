package inbound

import (
	"net/http"
	"time"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct{}

func (RegisterResponse) Message() string {
	return "Registered. Please login."
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Next      string    `json:"next" example:"verify"`
	OTPSent   bool      `json:"otp_sent"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (LoginResponse) Message() string {
	return "OTP sent to your email (or printed to console)."
}

type VerifyOTPRequest struct {
	Code string `json:"otp"`
}

type VerifyOTPResponse struct {
	Next string `json:"next" example:"dashboard"`
}

func (VerifyOTPResponse) Message() string {
	return "Login successful!"
}

type DashboardResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (d DashboardResponse) Message() string {
	return "Hello, " + d.Username
}

type LogoutResponse struct {
	Next string `json:"next" example:"login"`
}

func (LogoutResponse) Message() string {
	return "Logged out."
}
