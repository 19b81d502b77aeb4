package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type budgetJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Spent      string `json:"spent"`
	Period     string `json:"period"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	Rollover   bool   `json:"rollover"`
	IsActive   bool   `json:"is_active"`
	Notes      string `json:"notes,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{
		ID:         b.ID,
		Name:       b.Name,
		Amount:     b.Amount.String(),
		Spent:      b.Spent.String(),
		Period:     string(b.Period),
		StartDate:  dateOrEmpty(b.StartDate),
		EndDate:    dateOrEmpty(b.EndDate),
		Rollover:   b.Rollover,
		IsActive:   b.IsActive,
		Notes:      b.Notes,
		CategoryID: b.CategoryID,
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  b.UpdatedAt.Format(time.RFC3339),
	}
}

type createBudgetRequest struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Period     string `json:"period"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	Rollover   bool   `json:"rollover,omitempty"`
	Notes      string `json:"notes,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req createBudgetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, ok := parseMoneyField(w, "amount", req.Amount)
	if !ok {
		return
	}

	b := core.Budget{
		UserID:     userID,
		Name:       sanitizeInput(req.Name),
		Amount:     amount,
		Period:     core.BudgetPeriod(req.Period),
		Rollover:   req.Rollover,
		Notes:      sanitizeInput(req.Notes),
		CategoryID: req.CategoryID,
	}
	if req.StartDate != "" {
		d, ok := parseDateField(w, "start_date", req.StartDate)
		if !ok {
			return
		}
		b.StartDate = d
	}
	if req.EndDate != "" {
		d, ok := parseDateField(w, "end_date", req.EndDate)
		if !ok {
			return
		}
		b.EndDate = d
	}

	created, err := s.svc.Budgets.Create(r.Context(), b)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetJSON(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var activeOnly *bool
	switch r.URL.Query().Get("active") {
	case "true":
		v := true
		activeOnly = &v
	case "false":
		v := false
		activeOnly = &v
	}
	list, err := s.svc.Budgets.FindAll(r.Context(), userID, activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]budgetJSON, 0, len(list))
	for _, b := range list {
		out = append(out, toBudgetJSON(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	b, err := s.svc.Budgets.FindOne(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(b))
}

type updateBudgetRequest struct {
	Name       *string `json:"name,omitempty"`
	Amount     *string `json:"amount,omitempty"`
	Period     *string `json:"period,omitempty"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
	Rollover   *bool   `json:"rollover,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req updateBudgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := services.BudgetPatch{
		Name:       sanitizePtr(req.Name),
		Rollover:   req.Rollover,
		IsActive:   req.IsActive,
		Notes:      sanitizePtr(req.Notes),
		CategoryID: req.CategoryID,
	}
	if req.Amount != nil {
		amount, ok := parseMoneyField(w, "amount", *req.Amount)
		if !ok {
			return
		}
		patch.Amount = &amount
	}
	if req.Period != nil {
		p := core.BudgetPeriod(*req.Period)
		patch.Period = &p
	}
	if req.StartDate != nil {
		d, ok := parseDateField(w, "start_date", *req.StartDate)
		if !ok {
			return
		}
		patch.StartDate = &d
	}
	if req.EndDate != nil {
		d, ok := parseDateField(w, "end_date", *req.EndDate)
		if !ok {
			return
		}
		patch.EndDate = &d
	}

	b, err := s.svc.Budgets.Update(r.Context(), r.PathValue("id"), userID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Budgets.Remove(r.Context(), r.PathValue("id"), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type budgetProgressJSON struct {
	Budget     budgetJSON `json:"budget"`
	Percentage float64    `json:"percentage"`
	Remaining  string     `json:"remaining"`
	OverBudget bool       `json:"over_budget"`
}

type budgetSpendRequest struct {
	Amount string `json:"amount"`
}

// handleBudgetSpend records spending against a budget. Negative amounts
// back out earlier recordings, e.g. after a transaction delete.
func (s *Server) handleBudgetSpend(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req budgetSpendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, ok := parseMoneyField(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := s.svc.Budgets.RecordSpending(r.Context(), r.PathValue("id"), userID, amount); err != nil {
		writeServiceError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.FindOne(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(b))
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	p, err := s.svc.Budgets.Progress(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetProgressJSON{
		Budget:     toBudgetJSON(p.Budget),
		Percentage: p.Percentage,
		Remaining:  p.Remaining.String(),
		OverBudget: p.OverBudget,
	})
}
