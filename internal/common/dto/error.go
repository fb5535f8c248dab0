package dto

// ErrorResponse is the JSON error body returned by every API endpoint.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
}
