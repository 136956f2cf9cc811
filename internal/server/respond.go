package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"bankcore/internal/bank"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshalling JSON: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, code int, message string) {
	log.Printf("HTTP Error %d: %s", code, message)
	respondJSON(w, code, map[string]string{"error": message})
}

// statusFor maps a domain error kind onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bank.ErrInsufficientFunds),
		errors.Is(err, bank.ErrCardLimitExceeded),
		errors.Is(err, bank.ErrCardAlreadyUsed),
		errors.Is(err, bank.ErrCardExpired):
		return http.StatusPaymentRequired
	case errors.Is(err, bank.ErrInvalidAmount),
		errors.Is(err, bank.ErrCurrencyMismatch),
		errors.Is(err, bank.ErrSameAccount),
		errors.Is(err, bank.ErrCardNotLinked),
		errors.Is(err, bank.ErrInvalidPIN),
		errors.Is(err, bank.ErrInvalidCardNumber),
		errors.Is(err, bank.ErrInvalidEmail),
		errors.Is(err, bank.ErrInvalidPhone),
		errors.Is(err, bank.ErrWeakPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
