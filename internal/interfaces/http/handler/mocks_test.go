package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/application/pos"
	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/havano/pos-backend/internal/domain/partner"
	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/havano/pos-backend/internal/infrastructure/accounts"
	"github.com/havano/pos-backend/internal/infrastructure/config"
	"github.com/havano/pos-backend/internal/infrastructure/queue"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testCompany() *config.CompanyConfig {
	return &config.CompanyConfig{
		Name:              "Havano Restaurant",
		BaseCurrency:      "USD",
		DefaultCustomer:   "Walk-in Customer",
		ReceivableAccount: "Debtors - HR",
		CashAccount:       "Cash - HR",
	}
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type unityRates struct{}

func (unityRates) Rate(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error) {
	return decimal.NewFromInt(1), nil
}

type cashOnlyResolver struct{}

func (cashOnlyResolver) Resolve(ctx context.Context, modeOfPayment string) (*accounts.Resolution, error) {
	return &accounts.Resolution{
		PaidFrom:         "Debtors - HR",
		PaidTo:           "Cash - HR",
		PaidFromCurrency: "USD",
		PaidToCurrency:   "USD",
		DestinationType:  billing.AccountTypeCash,
	}, nil
}

type stubEnqueuer struct {
	jobID string
	err   error
}

func (s *stubEnqueuer) Enqueue(ctx context.Context, payload queue.SettlePaymentPayload) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.jobID, nil
}

type mockInvoiceRepo struct{ mock.Mock }

func (m *mockInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	invoice, _ := args.Get(0).(*billing.Invoice)
	return invoice, args.Error(1)
}

func (m *mockInvoiceRepo) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, invoiceNumber)
	invoice, _ := args.Get(0).(*billing.Invoice)
	return invoice, args.Error(1)
}

func (m *mockInvoiceRepo) FindLatestOutstandingByCustomer(ctx context.Context, customer string) (*billing.Invoice, error) {
	args := m.Called(ctx, customer)
	invoice, _ := args.Get(0).(*billing.Invoice)
	return invoice, args.Error(1)
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *billing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *mockInvoiceRepo) Save(ctx context.Context, invoice *billing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *mockInvoiceRepo) GenerateInvoiceNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockPaymentRepo struct{ mock.Mock }

func (m *mockPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentEntry, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*billing.PaymentEntry)
	return entry, args.Error(1)
}

func (m *mockPaymentRepo) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]billing.PaymentEntry, error) {
	args := m.Called(ctx, invoiceID)
	entries, _ := args.Get(0).([]billing.PaymentEntry)
	return entries, args.Error(1)
}

func (m *mockPaymentRepo) Create(ctx context.Context, entry *billing.PaymentEntry, opts shared.InsertOptions) error {
	return m.Called(ctx, entry, opts).Error(0)
}

func (m *mockPaymentRepo) Save(ctx context.Context, entry *billing.PaymentEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPaymentRepo) GeneratePaymentNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*ordering.Order)
	return order, args.Error(1)
}

func (m *mockOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*ordering.Order, error) {
	args := m.Called(ctx, orderNumber)
	order, _ := args.Get(0).(*ordering.Order)
	return order, args.Error(1)
}

func (m *mockOrderRepo) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, invoiceID)
	order, _ := args.Get(0).(*ordering.Order)
	return order, args.Error(1)
}

func (m *mockOrderRepo) FindOpenByTable(ctx context.Context, tableCode string) ([]ordering.Order, error) {
	args := m.Called(ctx, tableCode)
	orders, _ := args.Get(0).([]ordering.Order)
	return orders, args.Error(1)
}

func (m *mockOrderRepo) Create(ctx context.Context, order *ordering.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderRepo) Save(ctx context.Context, order *ordering.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrderRepo) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockTableRepo struct{ mock.Mock }

func (m *mockTableRepo) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Table, error) {
	args := m.Called(ctx, id)
	table, _ := args.Get(0).(*ordering.Table)
	return table, args.Error(1)
}

func (m *mockTableRepo) FindByCode(ctx context.Context, code string) (*ordering.Table, error) {
	args := m.Called(ctx, code)
	table, _ := args.Get(0).(*ordering.Table)
	return table, args.Error(1)
}

func (m *mockTableRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]ordering.Table, error) {
	args := m.Called(ctx, orderID)
	tables, _ := args.Get(0).([]ordering.Table)
	return tables, args.Error(1)
}

func (m *mockTableRepo) Save(ctx context.Context, table *ordering.Table) error {
	return m.Called(ctx, table).Error(0)
}

type mockQuotationRepo struct{ mock.Mock }

func (m *mockQuotationRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Quotation, error) {
	args := m.Called(ctx, id)
	quotation, _ := args.Get(0).(*billing.Quotation)
	return quotation, args.Error(1)
}

func (m *mockQuotationRepo) FindByQuotationNumber(ctx context.Context, quotationNumber string) (*billing.Quotation, error) {
	args := m.Called(ctx, quotationNumber)
	quotation, _ := args.Get(0).(*billing.Quotation)
	return quotation, args.Error(1)
}

func (m *mockQuotationRepo) Create(ctx context.Context, quotation *billing.Quotation) error {
	return m.Called(ctx, quotation).Error(0)
}

func (m *mockQuotationRepo) Save(ctx context.Context, quotation *billing.Quotation) error {
	return m.Called(ctx, quotation).Error(0)
}

func (m *mockQuotationRepo) GenerateQuotationNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockCustomerRepo struct{ mock.Mock }

func (m *mockCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	customer, _ := args.Get(0).(*partner.Customer)
	return customer, args.Error(1)
}

func (m *mockCustomerRepo) FindByName(ctx context.Context, name string) (*partner.Customer, error) {
	args := m.Called(ctx, name)
	customer, _ := args.Get(0).(*partner.Customer)
	return customer, args.Error(1)
}

func (m *mockCustomerRepo) Create(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *mockCustomerRepo) Save(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *mockCustomerRepo) List(ctx context.Context, limit, offset int) ([]partner.Customer, error) {
	args := m.Called(ctx, limit, offset)
	customers, _ := args.Get(0).([]partner.Customer)
	return customers, args.Error(1)
}

type mockMenuRepo struct{ mock.Mock }

func (m *mockMenuRepo) FindByCode(ctx context.Context, code string) (*ordering.MenuItem, error) {
	args := m.Called(ctx, code)
	item, _ := args.Get(0).(*ordering.MenuItem)
	return item, args.Error(1)
}

func (m *mockMenuRepo) FindByCodes(ctx context.Context, codes []string) (map[string]ordering.MenuItem, error) {
	args := m.Called(ctx, codes)
	items, _ := args.Get(0).(map[string]ordering.MenuItem)
	return items, args.Error(1)
}

func (m *mockMenuRepo) Search(ctx context.Context, term string, limit int) ([]ordering.MenuItem, error) {
	args := m.Called(ctx, term, limit)
	items, _ := args.Get(0).([]ordering.MenuItem)
	return items, args.Error(1)
}

func (m *mockMenuRepo) Create(ctx context.Context, item *ordering.MenuItem) error {
	return m.Called(ctx, item).Error(0)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// testEnv wires mocked repositories into real services and handlers
type testEnv struct {
	orders     *mockOrderRepo
	tables     *mockTableRepo
	invoices   *mockInvoiceRepo
	payments   *mockPaymentRepo
	quotations *mockQuotationRepo
	customers  *mockCustomerRepo
	menu       *mockMenuRepo

	orderService *pos.OrderService
	orchestrator *pos.Orchestrator
}

func newTestEnv(enqueuer queue.JobEnqueuer) *testEnv {
	env := &testEnv{
		orders:     new(mockOrderRepo),
		tables:     new(mockTableRepo),
		invoices:   new(mockInvoiceRepo),
		payments:   new(mockPaymentRepo),
		quotations: new(mockQuotationRepo),
		customers:  new(mockCustomerRepo),
		menu:       new(mockMenuRepo),
	}
	company := testCompany()
	logger := zap.NewNop()
	rates := unityRates{}
	resolver := cashOnlyResolver{}
	invoiceSv := pos.NewInvoiceService(env.invoices, env.menu, company, logger)
	customerSv := pos.NewCustomerService(env.customers, company, logger)
	settlementSv := pos.NewSettlementService(env.invoices, env.payments, resolver, rates, passthroughTx{}, company, logger)
	env.orderService = pos.NewOrderService(env.orders, env.tables, env.invoices, invoiceSv, settlementSv, customerSv, passthroughTx{}, company, logger)
	env.orchestrator = pos.NewOrchestrator(env.orders, env.invoices, env.payments, env.quotations,
		env.orderService, invoiceSv, settlementSv, customerSv, resolver, rates,
		enqueuer, passthroughTx{}, company, logger)
	return env
}
