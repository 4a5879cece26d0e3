// Package uid generates identifiers: snowflake numbers for rows, UUIDv7 for
// correlation and token IDs, and 64-char hex object IDs for session keys.
package uid

// NumberID generates sortable numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates textual identifiers.
type StringID interface {
	Generate() string
}
