package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) error
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	Logout(ctx context.Context) error
	Dashboard(ctx context.Context) (*usecase.DashboardOutput, error)
}

const (
	pathLogin     = "/api/v1/identity/login"
	pathDashboard = "/api/v1/identity/dashboard"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GETRaw("/", end.Index())

	r.POST("/api/v1/identity/register", end.Register)
	r.POST(pathLogin, end.Login)
	r.POST("/api/v1/identity/verify", end.VerifyOTP)
	//
	r.GET(pathDashboard, end.Dashboard) // need authenticated
	r.POST("/api/v1/identity/logout", end.Logout)
	r.GET("/api/v1/identity/logout", end.Logout)
}
