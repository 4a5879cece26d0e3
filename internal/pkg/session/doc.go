// Package session holds the request-scoped login state.
//
// A Session carries two references: the pending user who still has to confirm an
// emailed OTP, and the authenticated user. Sessions are persisted by a Store
// (Redis or in-memory) and travel through a request inside its context.
package session
