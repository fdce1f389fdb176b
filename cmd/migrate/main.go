package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/havano/pos-backend/internal/infrastructure/config"
	"github.com/havano/pos-backend/internal/infrastructure/logger"
	"github.com/havano/pos-backend/internal/infrastructure/persistence"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	switch command {
	case "up":
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
		log.Info("Schema is up to date")
	case "seed":
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
		if err := seed(context.Background(), db, cfg, log); err != nil {
			log.Fatal("Seeding failed", zap.Error(err))
		}
		log.Info("Seed data applied")
	default:
		printUsage()
		os.Exit(1)
	}
}

// seed provisions the ledger accounts, payment modes, dining tables
// and a small menu that a fresh installation needs before it can take
// its first order. Every insert is guarded by a lookup, so rerunning
// the command is harmless.
func seed(ctx context.Context, db *persistence.Database, cfg *config.Config, log *zap.Logger) error {
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	modeRepo := persistence.NewGormModeOfPaymentRepository(db.DB)
	tableRepo := persistence.NewGormTableRepository(db.DB)
	menuRepo := persistence.NewGormMenuItemRepository(db.DB)

	accounts := []struct {
		name        string
		accountType billing.AccountType
	}{
		{cfg.Company.ReceivableAccount, billing.AccountTypeReceivable},
		{cfg.Company.CashAccount, billing.AccountTypeCash},
	}
	for _, a := range accounts {
		if a.name == "" {
			continue
		}
		existing, err := accountRepo.FindByName(ctx, a.name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		account, err := billing.NewAccount(a.name, cfg.Company.Name, a.accountType, cfg.Company.BaseCurrency)
		if err != nil {
			return err
		}
		if err := accountRepo.Create(ctx, account); err != nil {
			return err
		}
		log.Info("Created account", zap.String("name", a.name))
	}

	modes := []struct {
		name        string
		accountType billing.AccountType
		account     string
	}{
		{"Cash", billing.AccountTypeCash, cfg.Company.CashAccount},
		{"Card", billing.AccountTypeBank, ""},
	}
	for _, m := range modes {
		existing, err := modeRepo.FindByName(ctx, m.name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		mode, err := billing.NewModeOfPayment(m.name, m.accountType, m.account)
		if err != nil {
			return err
		}
		if err := modeRepo.Create(ctx, mode); err != nil {
			return err
		}
		log.Info("Created mode of payment", zap.String("name", m.name))
	}

	for i := 1; i <= 10; i++ {
		code := fmt.Sprintf("T%d", i)
		existing, err := tableRepo.FindByCode(ctx, code)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		table, err := ordering.NewTable(code)
		if err != nil {
			return err
		}
		if err := tableRepo.Save(ctx, table); err != nil {
			return err
		}
	}
	log.Info("Dining tables provisioned")

	menu := []struct {
		code string
		name string
		unit string
		rate string
	}{
		{"ITM-BURGER", "Beef Burger", "Nos", "8.50"},
		{"ITM-PIZZA", "Margherita Pizza", "Nos", "11.00"},
		{"ITM-FRIES", "French Fries", "Nos", "3.25"},
		{"ITM-COLA", "Cola", "Nos", "1.50"},
		{"ITM-WATER", "Mineral Water", "Nos", "1.00"},
	}
	for _, m := range menu {
		existing, err := menuRepo.FindByCode(ctx, m.code)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		rate, err := decimal.NewFromString(m.rate)
		if err != nil {
			return err
		}
		item, err := ordering.NewMenuItem(m.code, m.name, m.unit, rate)
		if err != nil {
			return err
		}
		if err := menuRepo.Create(ctx, item); err != nil {
			return err
		}
	}
	log.Info("Menu items provisioned")

	return nil
}

func printUsage() {
	fmt.Println(`Usage: migrate [flags] <command>

Commands:
  up      Create or update the database schema
  seed    Run migrations and insert starter accounts, tables and menu items

Flags:
  -log-level   Log level (debug, info, warn, error)`)
}
