// Package otp generates one-time passcodes delivered out of band (email).
//
// Codes are uniformly distributed fixed-width decimal strings drawn from
// crypto/rand. Storage, expiry and attempt accounting are the caller's concern.
package otp
