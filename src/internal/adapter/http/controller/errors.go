package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

// statusFor maps the typed service errors onto HTTP statuses: rule
// violations are the client's problem, invalid accounts are unprocessable,
// everything unexpected is a 500.
func statusFor(err error) int {
	var validationErr domain.ValidationError
	var accountErr domain.InvalidAccountError

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &accountErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
