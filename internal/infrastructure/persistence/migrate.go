package persistence

import (
	"fmt"

	"github.com/havano/pos-backend/internal/infrastructure/persistence/models"
)

// AutoMigrate creates or updates the database schema for all models
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(
		&models.OrderModel{},
		&models.TableModel{},
		&models.MenuItemModel{},
		&models.InvoiceModel{},
		&models.PaymentEntryModel{},
		&models.QuotationModel{},
		&models.AccountModel{},
		&models.ModeOfPaymentModel{},
		&models.CustomerModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}
