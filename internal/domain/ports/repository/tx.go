package repository

import "context"

// Tx is an opaque transaction handle. Its concrete type is infra-defined
// (pgx.Tx for Postgres, nil for the in-memory stores).
type Tx interface{}

// TransactionManager runs fn inside a single storage transaction, passing the
// handle via tx. fn's error rolls the transaction back; nil commits it.
//
// Repositories MUST accept a nil tx (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
