package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// statusFor maps the domain error kinds onto HTTP statuses. Everything
// else is an opaque store failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidBudgetMonth),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrEmptyType),
		errors.Is(err, core.ErrEmptyCurrency):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError converts any error to the single textual representation that
// crosses the operation boundary.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Operation failed", "error", err, "url", r.URL.Path)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		accounts, err := s.ledger.ListAccounts(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, accounts)

	case http.MethodPost:
		var req struct {
			Name         string `json:"name"`
			Type         string `json:"type"`
			Currency     string `json:"currency"`
			BalanceCents int64  `json:"balance_cents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		account, err := s.ledger.CreateAccount(r.Context(), core.Account{
			Name:         strings.TrimSpace(req.Name),
			Type:         strings.TrimSpace(req.Type),
			Currency:     strings.TrimSpace(req.Currency),
			BalanceCents: req.BalanceCents,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, account)

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleAccountSubresource routes /api/accounts/{id}/transactions and
// /api/accounts/{id}/close.
func (s *Server) handleAccountSubresource(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/accounts/"), "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account id"})
		return
	}

	switch parts[1] {
	case "transactions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		transactions, err := s.ledger.ListAccountTransactions(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, transactions)

	case "close":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "POST")
			return
		}
		if err := s.ledger.CloseAccount(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		categories, err := s.ledger.ListCategories(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)

	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		category, err := s.ledger.CreateCategory(r.Context(), strings.TrimSpace(req.Name))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, category)

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handlePayees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	payees, err := s.ledger.ListPayees(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payees)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListMonthTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleListMonthTransactions serves the month listing. The account scope
// is optional: by id (account_id), by name (account), or absent for every
// account. With no filters at all the plain listing of raw rows is served.
func (s *Server) handleListMonthTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	yearParam := strings.TrimSpace(q.Get("year"))
	monthParam := strings.TrimSpace(q.Get("month"))

	if yearParam == "" && monthParam == "" && q.Get("account") == "" && q.Get("account_id") == "" {
		transactions, err := s.ledger.ListTransactions(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, transactions)
		return
	}

	now := time.Now()
	year := now.Year()
	month := int(now.Month())
	if yearParam != "" {
		y, err := strconv.Atoi(yearParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
		year = y
	}
	if monthParam != "" {
		m, err := strconv.Atoi(monthParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month"})
			return
		}
		month = m
	}

	order := core.Ascending
	if q.Get("order") == string(core.Descending) {
		order = core.Descending
	}

	var rows []core.TransactionDetail
	var err error
	switch {
	case q.Get("account_id") != "":
		var accountID int64
		accountID, err = strconv.ParseInt(q.Get("account_id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account_id"})
			return
		}
		rows, err = s.ledger.ListMonthTransactions(r.Context(), accountID, year, month, order)
	case q.Get("account") != "":
		rows, err = s.ledger.ListMonthTransactionsByAccountName(r.Context(), q.Get("account"), year, month, order)
	default:
		rows, err = s.ledger.ListAllMonthTransactions(r.Context(), year, month, order)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleCreateTransaction accepts both insert forms: id-based when
// account_id is set, name-based when account_name is set.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID   int64   `json:"account_id"`
		AccountName string  `json:"account_name"`
		Date        string  `json:"date"`
		PayeeID     *int64  `json:"payee_id"`
		PayeeName   string  `json:"payee_name"`
		CategoryID  *int64  `json:"category_id"`
		Memo        *string `json:"memo"`
		AmountCents int64   `json:"amount_cents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var id int64
	var err error
	if req.AccountName != "" {
		id, err = s.ledger.CreateTransactionByName(r.Context(), storage.CreateTransactionByNameParams{
			AccountName: strings.TrimSpace(req.AccountName),
			Date:        strings.TrimSpace(req.Date),
			PayeeName:   strings.TrimSpace(req.PayeeName),
			CategoryID:  req.CategoryID,
			Memo:        req.Memo,
			AmountCents: req.AmountCents,
		})
	} else {
		id, err = s.ledger.CreateTransaction(r.Context(), core.Transaction{
			AccountID:   req.AccountID,
			Date:        strings.TrimSpace(req.Date),
			PayeeID:     req.PayeeID,
			CategoryID:  req.CategoryID,
			Memo:        req.Memo,
			AmountCents: req.AmountCents,
		})
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
		year = y
	}

	rows, err := s.ledger.ListRecentTransactions(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		month := strings.TrimSpace(r.URL.Query().Get("month"))
		allocations, err := s.ledger.ListBudgetAllocations(r.Context(), month)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, allocations)

	case http.MethodPut, http.MethodPost:
		var req struct {
			CategoryID    int64  `json:"category_id"`
			Month         string `json:"month"`
			AssignedCents int64  `json:"assigned_cents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if err := s.ledger.SetBudgetAllocation(r.Context(), req.CategoryID, strings.TrimSpace(req.Month), req.AssignedCents); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PUT, POST")
	}
}
