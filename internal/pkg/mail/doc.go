// Package mail defines the contracts for sending email messages.
//
// Callers work with the Mail interface and the provider-agnostic Message. SMTP
// delivers real mail; Console prints the message for local development when no
// SMTP credentials are configured.
package mail
