package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type transactionJSON struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Amount             string `json:"amount"`
	Date               string `json:"date"`
	Description        string `json:"description,omitempty"`
	Notes              string `json:"notes,omitempty"`
	Payee              string `json:"payee,omitempty"`
	AccountID          string `json:"account_id"`
	CategoryID         string `json:"category_id,omitempty"`
	ToAccountID        string `json:"to_account_id,omitempty"`
	IsRecurring        bool   `json:"is_recurring"`
	RecurringFrequency string `json:"recurring_frequency,omitempty"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:                 t.ID,
		Type:               string(t.Type),
		Amount:             t.Amount.String(),
		Date:               t.Date.String(),
		Description:        t.Description,
		Notes:              t.Notes,
		Payee:              t.Payee,
		AccountID:          t.AccountID,
		CategoryID:         t.CategoryID,
		ToAccountID:        t.ToAccountID,
		IsRecurring:        t.IsRecurring,
		RecurringFrequency: string(t.RecurringFrequency),
		CreatedAt:          t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          t.UpdatedAt.Format(time.RFC3339),
	}
}

type createTransactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Payee       string `json:"payee,omitempty"`
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id,omitempty"`
	ToAccountID string `json:"to_account_id,omitempty"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req createTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, ok := parseMoneyField(w, "amount", req.Amount)
	if !ok {
		return
	}
	date, ok := parseDateField(w, "date", req.Date)
	if !ok {
		return
	}

	t := core.Transaction{
		UserID:      userID,
		Type:        core.TransactionType(req.Type),
		Amount:      amount,
		Date:        date,
		Description: sanitizeInput(req.Description),
		Notes:       sanitizeInput(req.Notes),
		Payee:       sanitizeInput(req.Payee),
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		ToAccountID: req.ToAccountID,
	}

	created, err := s.svc.Transactions.Create(r.Context(), t)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.statsCache.DeletePrefix(userID + "|")
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := storage.TransactionFilter{
		AccountID:  q.Get("account_id"),
		CategoryID: q.Get("category_id"),
		Type:       core.TransactionType(q.Get("type")),
	}
	if v := q.Get("start_date"); v != "" {
		d, ok := parseDateField(w, "start_date", v)
		if !ok {
			return
		}
		filter.StartDate = d
	}
	if v := q.Get("end_date"); v != "" {
		d, ok := parseDateField(w, "end_date", v)
		if !ok {
			return
		}
		filter.EndDate = d
	}
	filter.Query = sanitizeInput(q.Get("q"))
	filter.Payee = sanitizeInput(q.Get("payee"))
	if v := q.Get("min_amount"); v != "" {
		m, ok := parseMoneyField(w, "min_amount", v)
		if !ok {
			return
		}
		filter.MinAmount = &m
	}
	if v := q.Get("max_amount"); v != "" {
		m, ok := parseMoneyField(w, "max_amount", v)
		if !ok {
			return
		}
		filter.MaxAmount = &m
	}

	list, err := s.svc.Transactions.FindAll(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]transactionJSON, 0, len(list))
	for _, t := range list {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	t, err := s.svc.Transactions.FindOne(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(t))
}

type updateTransactionRequest struct {
	Type        *string `json:"type,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Payee       *string `json:"payee,omitempty"`
	AccountID   *string `json:"account_id,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
	ToAccountID *string `json:"to_account_id,omitempty"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req updateTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := services.TransactionPatch{
		Description: sanitizePtr(req.Description),
		Notes:       sanitizePtr(req.Notes),
		Payee:       sanitizePtr(req.Payee),
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		ToAccountID: req.ToAccountID,
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		patch.Type = &t
	}
	if req.Amount != nil {
		amount, ok := parseMoneyField(w, "amount", *req.Amount)
		if !ok {
			return
		}
		patch.Amount = &amount
	}
	if req.Date != nil {
		date, ok := parseDateField(w, "date", *req.Date)
		if !ok {
			return
		}
		patch.Date = &date
	}

	t, err := s.svc.Transactions.Update(r.Context(), r.PathValue("id"), userID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.statsCache.DeletePrefix(userID + "|")
	writeJSON(w, http.StatusOK, toTransactionJSON(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Transactions.Remove(r.Context(), r.PathValue("id"), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.statsCache.DeletePrefix(userID + "|")
	w.WriteHeader(http.StatusNoContent)
}

type statisticsJSON struct {
	TotalIncome   string            `json:"total_income"`
	TotalExpenses string            `json:"total_expenses"`
	Net           string            `json:"net"`
	ByCategory    map[string]string `json:"by_category"`
	Count         int               `json:"count"`
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	now := time.Now().UTC()
	start := core.NewDate(now.Year(), now.Month(), 1)
	end := core.DateOf(now)
	if v := q.Get("start_date"); v != "" {
		d, ok := parseDateField(w, "start_date", v)
		if !ok {
			return
		}
		start = d
	}
	if v := q.Get("end_date"); v != "" {
		d, ok := parseDateField(w, "end_date", v)
		if !ok {
			return
		}
		end = d
	}

	cacheKey := userID + "|" + start.String() + "|" + end.String()
	stats, hit := s.statsCache.Get(cacheKey)
	if !hit {
		var err error
		stats, err = s.svc.Transactions.Statistics(r.Context(), userID, start, end)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		s.statsCache.Set(cacheKey, stats)
	}

	out := statisticsJSON{
		TotalIncome:   stats.TotalIncome.String(),
		TotalExpenses: stats.TotalExpenses.String(),
		Net:           stats.Net.String(),
		ByCategory:    make(map[string]string, len(stats.ByCategory)),
		Count:         stats.Count,
	}
	for k, v := range stats.ByCategory {
		out.ByCategory[k] = v.String()
	}
	writeJSON(w, http.StatusOK, out)
}
