package accounts

import (
	"context"

	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/havano/pos-backend/internal/infrastructure/config"
)

// Resolution is the account routing for one payment: where the money
// is receivable from and where it lands, with both account currencies.
type Resolution struct {
	PaidFrom         string
	PaidTo           string
	PaidFromCurrency string
	PaidToCurrency   string
	DestinationType  billing.AccountType
	// SkipLinkValidation is set when mode provisioning failed and the
	// payment should be inserted without referential checks.
	SkipLinkValidation bool
}

// Resolver decides the source and destination accounts for a payment.
// The receivable account is mandatory; the destination falls back from
// the mode-of-payment account to the company cash account to the
// receivable account itself.
type Resolver struct {
	accounts billing.AccountRepository
	modes    billing.ModeOfPaymentRepository
	company  *config.CompanyConfig
	logger   *zap.Logger
}

// NewResolver creates an account resolver
func NewResolver(
	accounts billing.AccountRepository,
	modes billing.ModeOfPaymentRepository,
	company *config.CompanyConfig,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		accounts: accounts,
		modes:    modes,
		company:  company,
		logger:   logger.Named("accounts"),
	}
}

// Resolve determines the accounts for a payment made with the given
// mode of payment. Unknown modes are provisioned on the fly as Cash so
// an unfamiliar method name never blocks a settlement.
func (r *Resolver) Resolve(ctx context.Context, modeOfPayment string) (*Resolution, error) {
	receivable := r.company.ReceivableAccount
	if receivable == "" {
		return nil, shared.ErrAccountConfiguration
	}

	mode, provisioned, err := r.ensureMode(ctx, modeOfPayment)
	if err != nil {
		return nil, err
	}

	destination := mode.Account
	destinationType := mode.Type
	if destination == "" {
		destination = r.company.CashAccount
		destinationType = billing.AccountTypeCash
	}
	if destination == "" {
		r.logger.Warn("no destination account configured, routing payment to receivable account",
			zap.String("mode_of_payment", modeOfPayment))
		destination = receivable
		destinationType = billing.AccountTypeReceivable
	}

	return &Resolution{
		PaidFrom:           receivable,
		PaidTo:             destination,
		PaidFromCurrency:   r.accountCurrency(ctx, receivable),
		PaidToCurrency:     r.accountCurrency(ctx, destination),
		DestinationType:    destinationType,
		SkipLinkValidation: !provisioned,
	}, nil
}

// ensureMode loads the mode of payment, creating a Cash-typed one when
// the name is unknown. A failed create does not block the payment; the
// returned flag reports whether the mode exists in storage.
func (r *Resolver) ensureMode(ctx context.Context, name string) (*billing.ModeOfPayment, bool, error) {
	mode, err := r.modes.FindByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if mode != nil {
		return mode, true, nil
	}

	mode, err = billing.NewModeOfPayment(name, billing.AccountTypeCash, "")
	if err != nil {
		return nil, false, err
	}
	if err := r.modes.Create(ctx, mode); err != nil {
		r.logger.Warn("failed to provision mode of payment, payment will skip link validation",
			zap.String("name", name), zap.Error(err))
		return mode, false, nil
	}
	r.logger.Info("provisioned unknown mode of payment", zap.String("name", name))
	return mode, true, nil
}

// accountCurrency looks up the currency of an account, defaulting to
// the company base currency when the account record is missing.
func (r *Resolver) accountCurrency(ctx context.Context, name string) string {
	account, err := r.accounts.FindByName(ctx, name)
	if err != nil || account == nil {
		return r.company.BaseCurrency
	}
	if account.Currency == "" {
		return r.company.BaseCurrency
	}
	return account.Currency
}
