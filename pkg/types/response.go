// Package types defines the JSON envelopes shared by every API response.
package types

// SuccessEnvelope wraps successful payloads. When Data is a json.RawMessage
// (idempotent replays) the stored bytes are emitted untouched.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details carry structured context only
// for codes whose metadata allows exposing them (e.g. insufficient stock).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for failed requests.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
