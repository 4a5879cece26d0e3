package inbound

import (
	"net/http"
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/session"
)

// HTTPEndpoint exposes the login flow over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// Index sends authenticated browsers to the dashboard and everyone else to login.
func (h *HTTPEndpoint) Index() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := session.FromContext(r.Context()); sess != nil && sess.Authenticated() {
			router.Redirect(w, r, pathDashboard)
			return
		}
		router.Redirect(w, r, pathLogin)
	})
}

// Register creates a new account.
// @Summary Register account
// @Description Creates a user with a unique username and a unique, case-insensitive email.
// @Tags Identity
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body RegisterRequest true "Register payload"
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Registered"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Username or email already exists"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return nil, err
	}

	return RegisterResponse{}, nil
}

// Login checks the password and emails a one-time code.
// @Summary Start login
// @Description Verifies username and password, issues an OTP and marks the session as pending verification.
// @Tags Identity
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "OTP issued"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid username or password"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		Next:      "verify",
		OTPSent:   resp.OTPSent,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// VerifyOTP completes the login with the emailed code.
// @Summary Verify OTP
// @Description Checks the code against the latest OTP of the pending login. A wrong code keeps the login pending; an expired, exhausted or missing OTP requires a new login.
// @Tags Identity
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body VerifyOTPRequest true "OTP payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "Logged in"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Wrong, expired or missing OTP"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many wrong attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/verify [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if _, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{Code: req.Code}); err != nil {
		return nil, err
	}

	return VerifyOTPResponse{Next: "dashboard"}, nil
}

// Dashboard returns the signed-in user.
// @Summary Dashboard
// @Tags Identity
// @Produce json
// @Success 200 {object} router.successResponse{data=DashboardResponse} "Current user"
// @Failure 401 {object} router.errorResponse "Login first"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/dashboard [get]
func (h *HTTPEndpoint) Dashboard(r *router.Request) (any, error) {
	resp, err := h.uc.Dashboard(r.Context())
	if err != nil {
		return nil, err
	}

	return DashboardResponse{
		UserID:   strconv.FormatInt(resp.UserID, 10),
		Username: resp.Username,
		Email:    resp.Email,
	}, nil
}

// Logout signs the session out.
// @Summary Logout
// @Tags Identity
// @Produce json
// @Success 200 {object} router.successResponse{data=LogoutResponse} "Logged out"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/logout [post]
// @Router /api/v1/identity/logout [get]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context()); err != nil {
		return nil, err
	}

	return LogoutResponse{Next: "login"}, nil
}
