package repository

import (
	"context"

	"toolix-activation/internal/domain/model"
)

// AccountRepository is the port for account records. Accounts are created by the
// external auth system; the engine only reads them and writes the entitlement.
type AccountRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Account, error)
	// FindByIDForUpdate loads the account and locks it for the rest of tx.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.Account, error)
	SaveEntitlement(ctx context.Context, tx Tx, accountID string, e model.Entitlement) error
}

// AccountWriter provisions accounts for operators and local runs.
type AccountWriter interface {
	Save(ctx context.Context, tx Tx, a *model.Account) error
}

// PaymentGrantRepository is the ledger of payment sessions already applied to accounts.
type PaymentGrantRepository interface {
	// Insert fails with domain.ErrAlreadyExists if the session was already recorded.
	Insert(ctx context.Context, tx Tx, g *model.PaymentGrant) error
	FindBySession(ctx context.Context, tx Tx, sessionID string) (*model.PaymentGrant, error)
}
