package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownPlan     = errors.New("unknown plan")
	ErrUnauthorized    = errors.New("unauthorized")

	// Activation codes and promo tokens
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrSessionExists         = errors.New("activation code already issued for session")
	ErrCodeHashCollision     = errors.New("activation code hash collision")

	// Payments
	ErrPaymentNotCompleted    = errors.New("payment not completed")
	ErrPaymentAccountMismatch = errors.New("payment does not belong to this account")
	ErrPaymentProvider        = errors.New("payment provider unavailable")

	// Infrastructure
	ErrLockNotAcquired    = errors.New("lock not acquired")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
