// Package storage implements the ledger store on SQLite.
//
// The database/sql pool is the bounded connection pool: every operation
// checks a connection out for its duration and returns it on every exit
// path. Each pooled connection carries the contract pragmas (WAL journal
// mode, foreign keys on) via the DSN, so constraint enforcement does not
// depend on which connection serves a request.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db *sql.DB
}

// dsn builds the connection string with the pragmas every pooled
// connection must carry. busy_timeout bounds the wait for a write lock so
// pool contention surfaces as an error rather than hanging forever.
func dsn(dbPath string) string {
	return "file:" + dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string, maxConns int) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if maxConns < 1 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isConstraint reports whether err is a SQLite constraint violation with
// one of the given extended result codes.
func isConstraint(err error, codes ...int) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	for _, code := range codes {
		if se.Code() == code {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

func isForeignKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY)
}

// classify maps driver-level failures onto the domain error kinds. Busy
// means the bounded wait for a connection or write lock ran out.
func classify(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %v", core.ErrUnavailable, err)
		}
	}
	return err
}

// CreateAccount inserts a new account. CreatedAt defaults to today when the
// caller leaves it empty. A duplicate name surfaces as core.ErrConflict.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().Format("2006-01-02")
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, type, currency, balance_cents, created_at, is_closed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.Name, a.Type, a.Currency, a.BalanceCents, a.CreatedAt, boolToInt(a.IsClosed))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Account{}, fmt.Errorf("account %q: %w", a.Name, core.ErrConflict)
		}
		return core.Account{}, fmt.Errorf("insert account: %w", classify(err))
	}

	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", a.ID, "name", a.Name, "type", a.Type)
	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return r.scanAccount(r.db.QueryRowContext(ctx,
		`SELECT id, name, type, currency, balance_cents, created_at, is_closed
		 FROM accounts WHERE id = ?`, id))
}

// GetAccountByName resolves an account by exact name. Unknown names are a
// caller error, never an implicit create.
func (r *SQLiteRepository) GetAccountByName(ctx context.Context, name string) (core.Account, error) {
	return r.scanAccount(r.db.QueryRowContext(ctx,
		`SELECT id, name, type, currency, balance_cents, created_at, is_closed
		 FROM accounts WHERE name = ?`, name))
}

func (r *SQLiteRepository) scanAccount(row *sql.Row) (core.Account, error) {
	var a core.Account
	var isClosed int64
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Currency, &a.BalanceCents, &a.CreatedAt, &isClosed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Account{}, fmt.Errorf("account: %w", core.ErrNotFound)
		}
		return core.Account{}, fmt.Errorf("scan account: %w", classify(err))
	}
	a.IsClosed = isClosed != 0
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, currency, balance_cents, created_at, is_closed
		 FROM accounts ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", classify(err))
	}
	defer rows.Close()

	accounts := []core.Account{}
	for rows.Next() {
		var a core.Account
		var isClosed int64
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Currency, &a.BalanceCents, &a.CreatedAt, &isClosed); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.IsClosed = isClosed != 0
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// CloseAccount flags an account as closed. Rows are never deleted so the
// account's transactions stay queryable.
func (r *SQLiteRepository) CloseAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_closed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("close account: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Account closed", "id", id)
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrConflict)
		}
		return core.Category{}, fmt.Errorf("insert category: %w", classify(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", id, "name", name)
	return core.Category{ID: id, Name: name}, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", classify(err))
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) ListPayees(ctx context.Context) ([]core.Payee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM payees ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query payees: %w", classify(err))
	}
	defer rows.Close()

	payees := []core.Payee{}
	for rows.Next() {
		var p core.Payee
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan payee: %w", err)
		}
		payees = append(payees, p)
	}
	return payees, rows.Err()
}

// FindOrCreatePayee resolves a payee name to its id, creating the row on
// first use. The lookup-then-insert pair can race with a concurrent caller
// creating the same name; the unique constraint makes the losing insert
// fail, and the loser retries the lookup exactly once instead of surfacing
// a duplicate-key error.
func (r *SQLiteRepository) FindOrCreatePayee(ctx context.Context, name string) (int64, error) {
	id, err := r.findPayee(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO payees (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race: the row exists now, re-resolve it.
			id, lookupErr := r.findPayee(ctx, name)
			if lookupErr != nil {
				return 0, fmt.Errorf("payee %q: %w", name, core.ErrConflict)
			}
			slog.DebugContext(ctx, "Payee insert lost create race, reused existing row", "name", name, "id", id)
			return id, nil
		}
		return 0, fmt.Errorf("insert payee: %w", classify(err))
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("payee id: %w", err)
	}

	slog.InfoContext(ctx, "Payee created", "id", id, "name", name)
	return id, nil
}

func (r *SQLiteRepository) findPayee(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM payees WHERE name = ?`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("payee: %w", core.ErrNotFound)
		}
		return 0, fmt.Errorf("query payee: %w", classify(err))
	}
	return id, nil
}

// SetBudgetAllocation upserts the single allocation row for a category and
// month. An unknown category surfaces as core.ErrNotFound.
func (r *SQLiteRepository) SetBudgetAllocation(ctx context.Context, categoryID int64, month string, assignedCents int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_allocations (category, month, assigned_cents) VALUES (?, ?, ?)
		 ON CONFLICT (category, month) DO UPDATE SET assigned_cents = excluded.assigned_cents`,
		categoryID, month, assignedCents)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("category %d: %w", categoryID, core.ErrNotFound)
		}
		return fmt.Errorf("upsert budget allocation: %w", classify(err))
	}

	slog.InfoContext(ctx, "Budget allocation set", "category_id", categoryID, "month", month, "assigned_cents", assignedCents)
	return nil
}

func (r *SQLiteRepository) ListBudgetAllocations(ctx context.Context, month string) ([]core.BudgetAllocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.category, c.name, b.month, b.assigned_cents
		 FROM budget_allocations b
		 INNER JOIN categories c ON c.id = b.category
		 WHERE b.month = ?
		 ORDER BY c.name ASC`, month)
	if err != nil {
		return nil, fmt.Errorf("query budget allocations: %w", classify(err))
	}
	defer rows.Close()

	allocations := []core.BudgetAllocation{}
	for rows.Next() {
		var b core.BudgetAllocation
		if err := rows.Scan(&b.CategoryID, &b.CategoryName, &b.Month, &b.AssignedCents); err != nil {
			return nil, fmt.Errorf("scan budget allocation: %w", err)
		}
		allocations = append(allocations, b)
	}
	return allocations, rows.Err()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
