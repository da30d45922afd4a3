package dto

// ErrorResponse is the HTTP error body. Details carries per-field validation
// messages when present.
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail points at one offending field, with a 1-based line index for
// line-item errors.
type ErrorDetail struct {
	Line    int    `json:"line,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
