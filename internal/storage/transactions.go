package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
)

// detailColumns is the joined projection shared by every month/recent
// query: the account join is inner (every transaction has an account), the
// payee and category joins are outer so absent references come back as
// NULL names rather than dropping the row.
const detailColumns = `
	SELECT t.id, t.date, a.name, p.name, c.name, t.memo, t.amount_cents
	FROM transactions t
	INNER JOIN accounts a ON a.id = t.account
	LEFT JOIN payees p ON p.id = t.payee
	LEFT JOIN categories c ON c.id = t.category`

// orderClause renders the ordering rule: date in the caller's direction,
// id ascending as the tie-break so rows sharing a date are deterministic.
func orderClause(order core.Order) string {
	if order == core.Descending {
		return " ORDER BY t.date DESC, t.id ASC"
	}
	return " ORDER BY t.date ASC, t.id ASC"
}

// ListMonthTransactions returns the joined rows for one account and one
// calendar month, filtered over the half-open range [month-01, next-month-01).
func (r *SQLiteRepository) ListMonthTransactions(ctx context.Context, accountID int64, year, month int, order core.Order) ([]core.TransactionDetail, error) {
	start, end, err := core.MonthRange(year, month)
	if err != nil {
		return nil, err
	}

	query := detailColumns + `
	WHERE t.account = ? AND t.date >= ? AND t.date < ?` + orderClause(order)

	rows, err := r.db.QueryContext(ctx, query, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query month transactions: %w", classify(err))
	}
	defer rows.Close()

	return scanDetails(rows)
}

// ListAllMonthTransactions returns the joined rows for one calendar month
// across every account, filtered over the same half-open range.
func (r *SQLiteRepository) ListAllMonthTransactions(ctx context.Context, year, month int, order core.Order) ([]core.TransactionDetail, error) {
	start, end, err := core.MonthRange(year, month)
	if err != nil {
		return nil, err
	}

	query := detailColumns + `
	WHERE t.date >= ? AND t.date < ?` + orderClause(order)

	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query month transactions: %w", classify(err))
	}
	defer rows.Close()

	return scanDetails(rows)
}

// ListMonthTransactionsByAccountName is the name-addressed form of the
// month listing. The account must exist; unknown names are a caller error.
func (r *SQLiteRepository) ListMonthTransactionsByAccountName(ctx context.Context, accountName string, year, month int, order core.Order) ([]core.TransactionDetail, error) {
	account, err := r.GetAccountByName(ctx, accountName)
	if err != nil {
		return nil, err
	}
	return r.ListMonthTransactions(ctx, account.ID, year, month, order)
}

// ListRecentTransactions returns up to limit joined rows within the given
// year, newest first. The year bound keeps the scan on the date index.
func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, year, limit int) ([]core.TransactionDetail, error) {
	if limit <= 0 {
		limit = 100
	}
	start, end := core.YearRange(year)

	query := detailColumns + `
	WHERE t.date >= ? AND t.date < ?` + orderClause(core.Descending) + ` LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent transactions: %w", classify(err))
	}
	defer rows.Close()

	return scanDetails(rows)
}

func scanDetails(rows *sql.Rows) ([]core.TransactionDetail, error) {
	details := []core.TransactionDetail{}
	for rows.Next() {
		var d core.TransactionDetail
		var payeeName, categoryName, memo sql.NullString
		if err := rows.Scan(&d.ID, &d.Date, &d.AccountName, &payeeName, &categoryName, &memo, &d.AmountCents); err != nil {
			return nil, fmt.Errorf("scan transaction detail: %w", err)
		}
		if payeeName.Valid {
			d.PayeeName = &payeeName.String
		}
		if categoryName.Valid {
			d.CategoryName = &categoryName.String
		}
		if memo.Valid {
			d.Memo = &memo.String
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// GetTransactionDetail loads a single joined row by id.
func (r *SQLiteRepository) GetTransactionDetail(ctx context.Context, id int64) (core.TransactionDetail, error) {
	row := r.db.QueryRowContext(ctx, detailColumns+` WHERE t.id = ?`, id)

	var d core.TransactionDetail
	var payeeName, categoryName, memo sql.NullString
	err := row.Scan(&d.ID, &d.Date, &d.AccountName, &payeeName, &categoryName, &memo, &d.AmountCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.TransactionDetail{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
		}
		return core.TransactionDetail{}, fmt.Errorf("scan transaction detail: %w", classify(err))
	}
	if payeeName.Valid {
		d.PayeeName = &payeeName.String
	}
	if categoryName.Valid {
		d.CategoryName = &categoryName.String
	}
	if memo.Valid {
		d.Memo = &memo.String
	}
	return d, nil
}

// ListAccountTransactions returns the raw rows of one account in
// chronological order, with the id tie-break applied for determinism.
func (r *SQLiteRepository) ListAccountTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account, date, payee, category, memo, amount_cents, cleared
		 FROM transactions
		 WHERE account = ?
		 ORDER BY date ASC, id ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query account transactions: %w", classify(err))
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListTransactions returns every raw transaction row in chronological order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account, date, payee, category, memo, amount_cents, cleared
		 FROM transactions
		 ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", classify(err))
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	transactions := []core.Transaction{}
	for rows.Next() {
		var t core.Transaction
		var payeeID, categoryID sql.NullInt64
		var memo sql.NullString
		var cleared int64
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Date, &payeeID, &categoryID, &memo, &t.AmountCents, &cleared); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if payeeID.Valid {
			t.PayeeID = &payeeID.Int64
		}
		if categoryID.Valid {
			t.CategoryID = &categoryID.Int64
		}
		if memo.Valid {
			t.Memo = &memo.String
		}
		t.Cleared = cleared != 0
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// CreateTransaction inserts a row with ids already resolved. New rows are
// uncleared. Foreign-key violations surface as core.ErrNotFound since they
// mean the referenced row does not exist.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (account, date, payee, category, memo, amount_cents, cleared)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		t.AccountID, t.Date, nullableID(t.PayeeID), nullableID(t.CategoryID), nullableString(t.Memo), t.AmountCents)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("transaction reference: %w", core.ErrNotFound)
		}
		return 0, fmt.Errorf("insert transaction: %w", classify(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"account_id", t.AccountID,
		"date", t.Date,
		"amount_cents", t.AmountCents)

	return id, nil
}

// CreateTransactionByNameParams carries the name-addressed insert form:
// the account is resolved by exact name, the payee is found or created.
type CreateTransactionByNameParams struct {
	AccountName string
	Date        string
	PayeeName   string
	CategoryID  *int64
	Memo        *string
	AmountCents int64
}

// CreateTransactionByName resolves names to ids, then inserts. The account
// must already exist — an unknown account is a caller error and nothing is
// inserted. An unknown payee is a legitimate new counterparty and is
// created on the spot.
func (r *SQLiteRepository) CreateTransactionByName(ctx context.Context, p CreateTransactionByNameParams) (int64, error) {
	account, err := r.GetAccountByName(ctx, p.AccountName)
	if err != nil {
		return 0, err
	}

	payeeID, err := r.FindOrCreatePayee(ctx, p.PayeeName)
	if err != nil {
		return 0, err
	}

	return r.CreateTransaction(ctx, core.Transaction{
		AccountID:   account.ID,
		Date:        p.Date,
		PayeeID:     &payeeID,
		CategoryID:  p.CategoryID,
		Memo:        p.Memo,
		AmountCents: p.AmountCents,
	})
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
