package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// recentLimit caps the recent-activity listing.
const recentLimit = 100

// LedgerService orchestrates ledger operations across SQLite and AMQP.
// The AMQP client is optional; without it transactions are still written,
// only the sync events are skipped.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateTransaction inserts a transaction with foreign keys already
// resolved and publishes a sync event for it.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, id)
	return id, nil
}

// CreateTransactionByName inserts a transaction addressed by account and
// payee name. The account must exist; the payee is found or created.
func (s *LedgerService) CreateTransactionByName(ctx context.Context, p storage.CreateTransactionByNameParams) (int64, error) {
	if err := core.ValidateName(p.AccountName); err != nil {
		return 0, fmt.Errorf("account name: %w", err)
	}
	if err := core.ValidateName(p.PayeeName); err != nil {
		return 0, fmt.Errorf("payee name: %w", err)
	}
	if err := core.ValidateDate(p.Date); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateTransactionByName(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, id)
	return id, nil
}

func (s *LedgerService) ListMonthTransactions(ctx context.Context, accountID int64, year, month int, order core.Order) ([]core.TransactionDetail, error) {
	return s.storage.ListMonthTransactions(ctx, accountID, year, month, order)
}

func (s *LedgerService) ListMonthTransactionsByAccountName(ctx context.Context, accountName string, year, month int, order core.Order) ([]core.TransactionDetail, error) {
	return s.storage.ListMonthTransactionsByAccountName(ctx, accountName, year, month, order)
}

func (s *LedgerService) ListAllMonthTransactions(ctx context.Context, year, month int, order core.Order) ([]core.TransactionDetail, error) {
	return s.storage.ListAllMonthTransactions(ctx, year, month, order)
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx)
}

func (s *LedgerService) ListRecentTransactions(ctx context.Context, year int) ([]core.TransactionDetail, error) {
	return s.storage.ListRecentTransactions(ctx, year, recentLimit)
}

func (s *LedgerService) ListAccountTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	return s.storage.ListAccountTransactions(ctx, accountID)
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	return s.storage.CreateAccount(ctx, a)
}

func (s *LedgerService) CloseAccount(ctx context.Context, id int64) error {
	return s.storage.CloseAccount(ctx, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx)
}

func (s *LedgerService) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	if err := core.ValidateName(name); err != nil {
		return core.Category{}, err
	}
	return s.storage.CreateCategory(ctx, name)
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.storage.ListCategories(ctx)
}

func (s *LedgerService) ListPayees(ctx context.Context) ([]core.Payee, error) {
	return s.storage.ListPayees(ctx)
}

func (s *LedgerService) SetBudgetAllocation(ctx context.Context, categoryID int64, month string, assignedCents int64) error {
	if err := core.ValidateBudgetMonth(month); err != nil {
		return err
	}
	return s.storage.SetBudgetAllocation(ctx, categoryID, month, assignedCents)
}

func (s *LedgerService) ListBudgetAllocations(ctx context.Context, month string) ([]core.BudgetAllocation, error) {
	if err := core.ValidateBudgetMonth(month); err != nil {
		return nil, err
	}
	return s.storage.ListBudgetAllocations(ctx, month)
}

// publishSync emits the created event. The local write already committed,
// so publish failures are logged and never surfaced to the caller.
func (s *LedgerService) publishSync(ctx context.Context, id int64) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message", "id", id)
		return
	}

	if err := s.amqpClient.PublishTransactionSync(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
