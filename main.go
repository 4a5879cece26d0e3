package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpgate/internal/app"
)

const shutdownTimeout = 10 * time.Second

// @title           OTPGate API
// @version         1.0
// @description     Registration and two-step login: a password, then a one-time code sent by email.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
func main() {
	a := app.New()
	<-a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Stop(ctx)
}
