package core

import (
	"errors"
	"strings"
)

type (
	// Account is a ledger account. Accounts are never deleted; closing is
	// modeled with the IsClosed flag so history stays queryable.
	Account struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		Type         string `json:"type"`
		Currency     string `json:"currency"`
		BalanceCents int64  `json:"balance_cents"`
		CreatedAt    string `json:"created_at"`
		IsClosed     bool   `json:"is_closed"`
	}

	// Payee is a transaction counterparty, created lazily on first use.
	Payee struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	// BudgetAllocation assigns an amount to a category for one calendar
	// month. The (CategoryID, Month) pair is the key; Month is "YYYY-MM".
	BudgetAllocation struct {
		CategoryID    int64  `json:"category_id"`
		CategoryName  string `json:"category_name,omitempty"`
		Month         string `json:"month"`
		AssignedCents int64  `json:"assigned_cents"`
	}

	// Transaction is a raw ledger row. PayeeID and CategoryID are optional
	// references; nil means absent, never a sentinel id.
	Transaction struct {
		ID          int64   `json:"id"`
		AccountID   int64   `json:"account_id"`
		Date        string  `json:"date"`
		PayeeID     *int64  `json:"payee_id,omitempty"`
		CategoryID  *int64  `json:"category_id,omitempty"`
		Memo        *string `json:"memo,omitempty"`
		AmountCents int64   `json:"amount_cents"`
		Cleared     bool    `json:"cleared"`
	}

	// TransactionDetail is the joined read-only projection of a transaction
	// with its account, payee and category names resolved. PayeeName and
	// CategoryName are nil when the underlying reference is absent.
	TransactionDetail struct {
		ID           int64   `json:"id"`
		Date         string  `json:"date"`
		AccountName  string  `json:"account_name"`
		PayeeName    *string `json:"payee_name"`
		CategoryName *string `json:"category_name"`
		Memo         *string `json:"memo"`
		AmountCents  int64   `json:"amount_cents"`
	}
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("store unavailable")

	ErrInvalidDate        = errors.New("invalid date, want YYYY-MM-DD")
	ErrInvalidMonth       = errors.New("invalid month, want 1-12")
	ErrInvalidBudgetMonth = errors.New("invalid month, want YYYY-MM")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long (max 200 characters)")
	ErrEmptyType          = errors.New("empty account type")
	ErrEmptyCurrency      = errors.New("empty currency")
)

// ValidateName checks a display name for accounts, payees and categories.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > 200 {
		return ErrNameTooLong
	}
	return nil
}

func (a Account) Validate() error {
	if err := ValidateName(a.Name); err != nil {
		return err
	}
	if strings.TrimSpace(a.Type) == "" {
		return ErrEmptyType
	}
	if strings.TrimSpace(a.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.AccountID <= 0 {
		return errors.New("missing account")
	}
	return ValidateDate(t.Date)
}
