package bank

import "errors"

var (
	// Amount and currency violations, always detected before any mutation.
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Card authorization denials.
	ErrCardLimitExceeded = errors.New("card limit exceeded")
	ErrCardAlreadyUsed   = errors.New("card already used")
	ErrCardExpired       = errors.New("card expired")
	ErrCardNotLinked     = errors.New("card not linked to account")
	ErrInvalidPIN        = errors.New("invalid PIN")
	ErrInvalidCardNumber = errors.New("invalid card number")

	// Entity and state errors.
	ErrNotFound          = errors.New("entity not found")
	ErrSameAccount       = errors.New("sender and receiver are the same account")
	ErrInvalidTransition = errors.New("invalid transaction state transition")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrInvalidPhone      = errors.New("invalid phone number format")
	ErrWeakPassword      = errors.New("password does not meet policy")
)
