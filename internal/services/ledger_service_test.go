package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), 4)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	// No AMQP client: publishing is optional and skipped when nil.
	svc := NewLedgerService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestCreateTransaction_ValidationFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		txn  core.Transaction
	}{
		{"missing account", core.Transaction{Date: "2024-03-05", AmountCents: -100}},
		{"bad date", core.Transaction{AccountID: 1, Date: "05-03-2024", AmountCents: -100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateTransaction(ctx, tt.txn); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestCreateTransactionByName_EndToEnd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, core.Account{Name: "Checking", Type: "asset", Currency: "EUR"})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	id, err := svc.CreateTransactionByName(ctx, storage.CreateTransactionByNameParams{
		AccountName: "Checking",
		Date:        "2024-03-05",
		PayeeName:   "Esselunga",
		AmountCents: -1250,
	})
	if err != nil {
		t.Fatalf("CreateTransactionByName: %v", err)
	}
	if id == 0 {
		t.Error("expected generated transaction id")
	}

	rows, err := svc.ListMonthTransactions(ctx, account.ID, 2024, 3, core.Ascending)
	if err != nil {
		t.Fatalf("ListMonthTransactions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].PayeeName == nil || *rows[0].PayeeName != "Esselunga" {
		t.Errorf("payee = %v, want Esselunga", rows[0].PayeeName)
	}
}

func TestCreateTransactionByName_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params storage.CreateTransactionByNameParams
	}{
		{"empty account name", storage.CreateTransactionByNameParams{Date: "2024-03-05", PayeeName: "X", AmountCents: 1}},
		{"empty payee name", storage.CreateTransactionByNameParams{AccountName: "A", Date: "2024-03-05", AmountCents: 1}},
		{"bad date", storage.CreateTransactionByNameParams{AccountName: "A", PayeeName: "X", Date: "bad", AmountCents: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateTransactionByName(ctx, tt.params); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	// Unknown accounts are a caller error, not a lazy create.
	_, err := svc.CreateTransactionByName(ctx, storage.CreateTransactionByNameParams{
		AccountName: "Nope",
		Date:        "2024-03-05",
		PayeeName:   "Esselunga",
		AmountCents: -1250,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown account error = %v, want %v", err, core.ErrNotFound)
	}
}

func TestSetBudgetAllocation_MonthShape(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, "Groceries")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	if err := svc.SetBudgetAllocation(ctx, category.ID, "2024-3", 100); !errors.Is(err, core.ErrInvalidBudgetMonth) {
		t.Errorf("unpadded month error = %v, want %v", err, core.ErrInvalidBudgetMonth)
	}
	if err := svc.SetBudgetAllocation(ctx, category.ID, "2024-03", 100); err != nil {
		t.Errorf("valid month rejected: %v", err)
	}
}

func TestClose_NilComponents(t *testing.T) {
	svc := NewLedgerService(nil, nil)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close should not return error with nil components: %v", err)
	}
}
