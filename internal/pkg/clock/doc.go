// Package clock provides a tiny time abstraction.
//
// Business code asks a Clocker for the current time instead of calling
// time.Now directly. OTP expiry and session lifetimes are computed from it, so
// tests drive them with a Frozen clock.
package clock
