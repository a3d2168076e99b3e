package dto

// Response is the uniform envelope returned by every API endpoint.
// Exactly one of Data or Error is populated.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SuccessResponse wraps a payload in the standard envelope.
func SuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// ErrorResponse wraps an error message in the standard envelope.
func ErrorResponse(message string) Response {
	return Response{Success: false, Error: message}
}
