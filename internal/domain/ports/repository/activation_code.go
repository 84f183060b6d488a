package repository

import (
	"context"

	"toolix-activation/internal/domain/model"
)

// CodeStore is the port for activation-code records, indexed by payment session and by code hash.
type CodeStore interface {
	// FindBySession returns the payment-origin code minted for sessionID, or domain.ErrNotFound.
	FindBySession(ctx context.Context, sessionID string) (*model.ActivationCode, error)
	// FindByHash returns the code with the given SHA-256 hex digest, or domain.ErrNotFound.
	FindByHash(ctx context.Context, codeHash string) (*model.ActivationCode, error)
	// Insert stores a new record. It fails with domain.ErrSessionExists when a payment-origin
	// record already exists for the session and domain.ErrCodeHashCollision on a duplicate hash.
	Insert(ctx context.Context, code *model.ActivationCode) error
	// DeleteByHash removes the record and reports whether this call removed it.
	DeleteByHash(ctx context.Context, codeHash string) (bool, error)
}
