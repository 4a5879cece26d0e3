// Package validator provides a small validation abstraction for request
// structs.
//
// Usecases depend on the Validator interface. The go-playground/validator v10
// implementation translates failures to English and keys them by snake_case
// field name.
package validator
