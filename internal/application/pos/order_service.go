package pos

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/havano/pos-backend/internal/infrastructure/config"
)

// CreateOrderRequest is the cart payload for opening an order
type CreateOrderRequest struct {
	OrderType    ordering.OrderType
	CustomerName string
	TableCode    string
	Waiter       string
	Lines        []CartLine
}

// OrderService manages the order lifecycle: cart to closed order
type OrderService struct {
	orders     ordering.OrderRepository
	tables     ordering.TableRepository
	invoices   billing.InvoiceRepository
	invoiceSv  *InvoiceService
	settlement *SettlementService
	customers  *CustomerService
	tx         shared.TxManager
	company    *config.CompanyConfig
	logger     *zap.Logger
}

// NewOrderService creates an order service
func NewOrderService(
	orders ordering.OrderRepository,
	tables ordering.TableRepository,
	invoices billing.InvoiceRepository,
	invoiceSv *InvoiceService,
	settlement *SettlementService,
	customers *CustomerService,
	tx shared.TxManager,
	company *config.CompanyConfig,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:     orders,
		tables:     tables,
		invoices:   invoices,
		invoiceSv:  invoiceSv,
		settlement: settlement,
		customers:  customers,
		tx:         tx,
		company:    company,
		logger:     logger.Named("order-service"),
	}
}

// toOrderLines validates cart lines into domain order lines
func toOrderLines(lines []CartLine) ([]ordering.OrderLine, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_CART", "Order must have at least one item")
	}
	orderLines := make([]ordering.OrderLine, 0, len(lines))
	for _, line := range lines {
		orderLine, err := ordering.NewOrderLine(line.ItemCode, line.Qty, line.Rate, line.Remark)
		if err != nil {
			return nil, err
		}
		orderLines = append(orderLines, orderLine)
	}
	return orderLines, nil
}

// CreateFromCart opens an order from a cart. Take-away orders get an
// invoice immediately and close; dine-in orders stay open and update
// the table's waiter and customer.
func (s *OrderService) CreateFromCart(ctx context.Context, req CreateOrderRequest) (*ordering.Order, error) {
	orderLines, err := toOrderLines(req.Lines)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.Ensure(ctx, req.CustomerName)
	if err != nil {
		return nil, err
	}

	var order *ordering.Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		number, err := s.orders.GenerateOrderNumber(ctx)
		if err != nil {
			return err
		}
		order, err = ordering.NewOrder(number, req.OrderType, customer.Name, req.TableCode, req.Waiter, orderLines)
		if err != nil {
			return err
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}

		if order.OrderType == ordering.OrderTypeTakeAway {
			invoice, err := s.invoiceSv.Build(ctx, customer.Name, req.Lines, nil, true)
			if err != nil {
				return err
			}
			if err := order.AttachInvoice(invoice.ID); err != nil {
				return err
			}
			order.Close()
			return s.orders.Save(ctx, order)
		}

		if order.IsDineIn() && req.TableCode != "" {
			return s.upsertTable(ctx, req.TableCode, req.Waiter, customer.Name, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("created order",
		zap.String("order_number", order.OrderNumber),
		zap.String("order_type", string(order.OrderType)))
	return order, nil
}

// upsertTable assigns the waiter/customer to the table and links the order
func (s *OrderService) upsertTable(ctx context.Context, code, waiter, customerName string, orderID uuid.UUID) error {
	table, err := s.tables.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if table == nil {
		table, err = ordering.NewTable(code)
		if err != nil {
			return err
		}
	}
	table.Assign(waiter, customerName)
	table.LinkOrder(orderID)
	return s.tables.Save(ctx, table)
}

// Update replaces an order's line items and recomputes its total
func (s *OrderService) Update(ctx context.Context, orderID uuid.UUID, lines []CartLine) (*ordering.Order, error) {
	orderLines, err := toOrderLines(lines)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, shared.ErrNotFound
	}
	if err := order.ReplaceLines(orderLines); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// SettleTable merges all open orders on a table into one submitted
// invoice, closing every source order. Lines sharing an item and rate
// collapse into one invoice line with summed quantity.
func (s *OrderService) SettleTable(ctx context.Context, tableCode string) (*billing.Invoice, error) {
	openOrders, err := s.orders.FindOpenByTable(ctx, tableCode)
	if err != nil {
		return nil, err
	}
	if len(openOrders) == 0 {
		return nil, shared.ErrNoActiveOrders
	}

	merged := make([]CartLine, 0)
	customerName := ""
	for _, order := range openOrders {
		if customerName == "" {
			customerName = order.CustomerName
		}
		for _, line := range order.Lines {
			merged = append(merged, CartLine{
				ItemCode: line.MenuItem,
				Qty:      line.Qty,
				Rate:     line.Rate,
				Remark:   line.Remark,
			})
		}
	}
	if customerName == "" {
		customerName = s.company.DefaultCustomer
	}

	var invoice *billing.Invoice
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		invoice, err = s.invoiceSv.Build(ctx, customerName, merged, nil, true)
		if err != nil {
			return err
		}
		for i := range openOrders {
			order := &openOrders[i]
			if err := order.AttachInvoice(invoice.ID); err != nil {
				return err
			}
			order.Close()
			if err := s.orders.Save(ctx, order); err != nil {
				return err
			}
		}

		table, err := s.tables.FindByCode(ctx, tableCode)
		if err != nil {
			return err
		}
		if table != nil {
			for _, order := range openOrders {
				table.DetachOrder(order.ID)
			}
			return s.tables.Save(ctx, table)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("settled table",
		zap.String("table", tableCode),
		zap.Int("orders", len(openOrders)),
		zap.String("invoice_number", invoice.InvoiceNumber))
	return invoice, nil
}

// MarkAsPaid settles the order's linked invoice in full with a cash
// payment entry, then flips the order's payment status to Paid. The
// order is never marked paid when the settlement fails.
func (s *OrderService) MarkAsPaid(ctx context.Context, orderID uuid.UUID) (*ordering.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, shared.ErrNotFound
	}
	if order.PaymentStatus == ordering.PaymentStatusPaid {
		return nil, shared.NewDomainError("ALREADY_PAID", "This order is already marked as Paid")
	}

	if order.InvoiceID != nil {
		invoice, err := s.invoices.FindByID(ctx, *order.InvoiceID)
		if err != nil {
			return nil, err
		}
		if invoice != nil && invoice.IsSubmitted() && invoice.OutstandingAmount.GreaterThan(decimal.Zero) {
			result, err := s.settlement.Settle(ctx, SettlementRequest{
				InvoiceID:     invoice.ID,
				Customer:      invoice.Customer,
				ModeOfPayment: "Cash",
				Amount:        invoice.OutstandingAmount,
			})
			if err != nil {
				return nil, err
			}
			if !result.Settled {
				return nil, shared.NewDomainError("SETTLEMENT_FAILED", "Payment entry could not settle the order's invoice")
			}
		}
	}

	if err := order.MarkPaid(); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel removes an order, cancelling its linked invoice and detaching
// it from any table.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return shared.ErrNotFound
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if order.InvoiceID != nil {
			invoice, err := s.invoices.FindByID(ctx, *order.InvoiceID)
			if err != nil {
				return err
			}
			if invoice != nil && invoice.Status != billing.DocStatusCancelled {
				if err := invoice.Cancel(); err != nil {
					return err
				}
				if err := s.invoices.Save(ctx, invoice); err != nil {
					return err
				}
			}
		}

		tables, err := s.tables.FindByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		for i := range tables {
			table := &tables[i]
			if table.DetachOrder(order.ID) {
				if err := s.tables.Save(ctx, table); err != nil {
					return err
				}
			}
		}

		return s.orders.Delete(ctx, order.ID)
	})
}
