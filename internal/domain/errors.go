package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNumberTaken   = errors.New("cvu or alias already taken")
	ErrInsufficientFunds    = errors.New("insufficient funds")

	// Amount errors
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrAmountTooLarge = errors.New("amount exceeds maximum allowed")

	// Activity errors
	ErrEntryNotFound = errors.New("activity entry not found")

	// Transfer errors
	ErrSameAccount        = errors.New("cannot transfer to same account")
	ErrInvalidDestination = errors.New("destination must be a CVU or an alias")

	// Card errors
	ErrCardNotFound      = errors.New("card not found")
	ErrInvalidCardNumber = errors.New("invalid card number")
	ErrInvalidCardHolder = errors.New("invalid card holder")
	ErrInvalidExpiry     = errors.New("invalid card expiry")
	ErrCardExpired       = errors.New("card is expired")
	ErrCardLimitReached  = errors.New("card limit reached")
	ErrCardAlreadyExists = errors.New("card already registered")

	// Bill payment errors
	ErrServiceNotFound      = errors.New("service not found")
	ErrInvalidReference     = errors.New("invalid account reference")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// Flow errors
	ErrFlowNotFound = errors.New("flow not found or expired")

	// Authentication errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
