package validator

// Validator validates structs annotated with `validate` tags.
type Validator interface {
	// Validate returns nil when data satisfies its rules. Rule failures are
	// reported as a field to message map (see V10ValidationError).
	Validate(data any) error
}
