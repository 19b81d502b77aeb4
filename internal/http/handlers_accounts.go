package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type accountJSON struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Balance        string `json:"balance"`
	Currency       string `json:"currency"`
	Color          string `json:"color,omitempty"`
	Icon           string `json:"icon,omitempty"`
	Description    string `json:"description,omitempty"`
	IsActive       bool   `json:"is_active"`
	IncludeInTotal bool   `json:"include_in_total"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:             a.ID,
		Name:           a.Name,
		Type:           a.Type,
		Balance:        a.Balance.String(),
		Currency:       a.Currency,
		Color:          a.Color,
		Icon:           a.Icon,
		Description:    a.Description,
		IsActive:       a.IsActive,
		IncludeInTotal: a.IncludeInTotal,
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.Format(time.RFC3339),
	}
}

type createAccountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Balance        string `json:"balance,omitempty"`
	Currency       string `json:"currency,omitempty"`
	Color          string `json:"color,omitempty"`
	Icon           string `json:"icon,omitempty"`
	Description    string `json:"description,omitempty"`
	IncludeInTotal *bool  `json:"include_in_total,omitempty"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req createAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a := core.Account{
		UserID:         userID,
		Name:           sanitizeInput(req.Name),
		Type:           sanitizeInput(req.Type),
		Currency:       sanitizeInput(req.Currency),
		Color:          sanitizeInput(req.Color),
		Icon:           sanitizeInput(req.Icon),
		Description:    sanitizeInput(req.Description),
		IncludeInTotal: true,
	}
	if req.IncludeInTotal != nil {
		a.IncludeInTotal = *req.IncludeInTotal
	}
	if req.Balance != "" {
		// Opening balance, set once at creation.
		balance, ok := parseMoneyField(w, "balance", req.Balance)
		if !ok {
			return
		}
		a.Balance = balance
	}

	created, err := s.svc.Accounts.Create(r.Context(), a)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountJSON(created))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	accounts, err := s.svc.Accounts.FindAll(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	a, err := s.svc.Accounts.FindOne(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountJSON(a))
}

type updateAccountRequest struct {
	Name           *string `json:"name,omitempty"`
	Type           *string `json:"type,omitempty"`
	Currency       *string `json:"currency,omitempty"`
	Color          *string `json:"color,omitempty"`
	Icon           *string `json:"icon,omitempty"`
	Description    *string `json:"description,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
	IncludeInTotal *bool   `json:"include_in_total,omitempty"`
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req updateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := services.AccountPatch{
		Name:           sanitizePtr(req.Name),
		Type:           sanitizePtr(req.Type),
		Currency:       sanitizePtr(req.Currency),
		Color:          sanitizePtr(req.Color),
		Icon:           sanitizePtr(req.Icon),
		Description:    sanitizePtr(req.Description),
		IsActive:       req.IsActive,
		IncludeInTotal: req.IncludeInTotal,
	}

	a, err := s.svc.Accounts.Update(r.Context(), r.PathValue("id"), userID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountJSON(a))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Accounts.Remove(r.Context(), r.PathValue("id"), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTotalBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	total, err := s.svc.Accounts.TotalBalance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"total_balance": total.String()})
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}
