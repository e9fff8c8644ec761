package commons

// Response is the envelope every reconciliation endpoint answers with. Data
// is a pointer so failed calls omit the field instead of sending a zero
// value; Errors carries operator-readable detail strings.
type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// SuccessResponse wraps a payload in a succeeded envelope.
func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

// ErrorResponse builds a failed envelope; the type parameter only fixes the
// envelope's shape, no Data is ever attached.
func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}
