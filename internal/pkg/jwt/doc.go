// Package jwt signs and verifies the session cookie.
//
// The cookie carries only an opaque session ID inside HS512-signed registered
// claims; the session state itself lives in the session store. Tampered,
// expired or foreign tokens fail verification and the caller starts a fresh
// session.
package jwt
