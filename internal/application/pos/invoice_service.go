package pos

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/havano/pos-backend/internal/infrastructure/config"
)

// CartLine is one row of an incoming cart
type CartLine struct {
	ItemCode string
	ItemName string
	Unit     string
	Qty      decimal.Decimal
	Rate     decimal.Decimal
	Remark   string
}

// CurrencyPayment is a payment hint used to decide the invoice
// currency: amounts promised in a given currency at a given rate.
type CurrencyPayment struct {
	ModeOfPayment string
	Currency      string
	Rate          decimal.Decimal
	Amount        decimal.Decimal
}

// InvoiceService builds financial invoices from cart lines
type InvoiceService struct {
	invoices billing.InvoiceRepository
	menu     ordering.MenuItemRepository
	company  *config.CompanyConfig
	logger   *zap.Logger
}

// NewInvoiceService creates an invoice service
func NewInvoiceService(
	invoices billing.InvoiceRepository,
	menu ordering.MenuItemRepository,
	company *config.CompanyConfig,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		menu:     menu,
		company:  company,
		logger:   logger.Named("invoice-service"),
	}
}

// DecideCurrency picks the invoice currency from the payment hints.
// Exactly one foreign currency selects that currency and its rate;
// zero or several fall back to the base currency at rate 1.
func (s *InvoiceService) DecideCurrency(payments []CurrencyPayment) (string, decimal.Decimal) {
	base := s.company.BaseCurrency
	one := decimal.NewFromInt(1)

	var foreign string
	var rate decimal.Decimal
	for _, p := range payments {
		if p.Currency == "" || p.Currency == base {
			continue
		}
		if foreign != "" && foreign != p.Currency {
			return base, one
		}
		foreign = p.Currency
		rate = p.Rate
	}
	if foreign == "" {
		return base, one
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		rate = one
	}
	return foreign, rate
}

// mergeCartLines folds lines sharing (item code, rate, unit) into one
// line with summed quantity, preserving first-seen order.
func mergeCartLines(lines []CartLine) []CartLine {
	type key struct {
		item string
		rate string
		unit string
	}
	merged := make([]CartLine, 0, len(lines))
	index := make(map[key]int, len(lines))
	for _, line := range lines {
		k := key{item: line.ItemCode, rate: line.Rate.String(), unit: line.Unit}
		if i, ok := index[k]; ok {
			merged[i].Qty = merged[i].Qty.Add(line.Qty)
			continue
		}
		index[k] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// Build creates an invoice from cart lines. Cart rates are
// authoritative; the currency decision multiplies them into the
// invoice currency. When submitNow is false the invoice stays a draft
// for the caller to submit later.
func (s *InvoiceService) Build(ctx context.Context, customer string, lines []CartLine, payments []CurrencyPayment, submitNow bool) (*billing.Invoice, error) {
	merged := mergeCartLines(lines)
	currency, rate := s.DecideCurrency(payments)

	s.resolveMetadata(ctx, merged)

	invoiceLines := make([]billing.InvoiceLine, 0, len(merged))
	for _, line := range merged {
		converted := line.Rate.Mul(rate)
		invoiceLines = append(invoiceLines, billing.InvoiceLine{
			ItemCode: line.ItemCode,
			ItemName: line.ItemName,
			Unit:     line.Unit,
			Qty:      line.Qty,
			Rate:     converted,
			Amount:   line.Qty.Mul(converted),
			Remark:   line.Remark,
		})
	}

	number, err := s.invoices.GenerateInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}
	invoice, err := billing.NewInvoice(number, customer, s.company.Name, currency, rate, invoiceLines)
	if err != nil {
		return nil, err
	}
	if err := s.invoices.Create(ctx, invoice); err != nil {
		return nil, err
	}
	if submitNow {
		if err := invoice.Submit(); err != nil {
			return nil, err
		}
		if err := s.invoices.Save(ctx, invoice); err != nil {
			return nil, err
		}
	}
	s.logger.Info("built invoice",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("currency", invoice.Currency),
		zap.Bool("submitted", submitNow))
	return invoice, nil
}

// Submit transitions a draft invoice to submitted
func (s *InvoiceService) Submit(ctx context.Context, invoice *billing.Invoice) error {
	if err := invoice.Submit(); err != nil {
		return err
	}
	return s.invoices.Save(ctx, invoice)
}

// resolveMetadata fills blank item names and units from the catalog in
// one bulk lookup. Lookup failures are tolerated; the fields stay blank.
func (s *InvoiceService) resolveMetadata(ctx context.Context, lines []CartLine) {
	codes := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ItemName == "" || line.Unit == "" {
			codes = append(codes, line.ItemCode)
		}
	}
	if len(codes) == 0 {
		return
	}
	items, err := s.menu.FindByCodes(ctx, codes)
	if err != nil {
		s.logger.Warn("item metadata lookup failed", zap.Error(err))
		return
	}
	for i := range lines {
		item, ok := items[lines[i].ItemCode]
		if !ok {
			continue
		}
		if lines[i].ItemName == "" {
			lines[i].ItemName = item.Name
		}
		if lines[i].Unit == "" {
			lines[i].Unit = item.Unit
		}
	}
}
