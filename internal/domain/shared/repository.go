package shared

import "context"

// InsertOptions controls how a repository persists a new record.
// SkipLinkValidation disables referential checks against configured
// entities (e.g. a payment referencing a mode of payment that could not
// be auto-provisioned). It is passed explicitly per call so a bypass can
// never leak across unrelated operations.
type InsertOptions struct {
	SkipLinkValidation bool
}

// TxManager runs a function inside a single storage transaction.
// Repositories participating in the transaction resolve it from the
// context passed to fn.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
